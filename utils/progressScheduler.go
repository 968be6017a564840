package utils

import (
	"context"
	"log"
	"time"

	"lms/classroom"
	"lms/database"
	courseModels "lms/models/course"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[PROGRESS-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// ReconcileAllEnrollments recomputes stored progress for every active
// enrollment against the current course content. Lessons deleted or
// unpublished since the last save stop counting toward completion.
func ReconcileAllEnrollments() {
	db := database.Database.Db
	store := classroom.NewStore(db)
	ctx := context.Background()

	var courseIDs []uint
	if err := db.Model(&courseModels.Enrollment{}).
		Where("is_deleted = ?", false).
		Distinct("course_id").
		Pluck("course_id", &courseIDs).Error; err != nil {
		logScheduler("Error listing enrolled courses: " + err.Error())
		return
	}

	var updated int
	for _, courseID := range courseIDs {
		raw, err := store.LoadCourse(ctx, courseID)
		if err != nil {
			logScheduler("Error loading course: " + err.Error())
			continue
		}
		tree, err := classroom.Normalize(raw)
		if err != nil {
			logScheduler("Skipping course with invalid content: " + err.Error())
			continue
		}

		var enrollments []courseModels.Enrollment
		if err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).Find(&enrollments).Error; err != nil {
			logScheduler("Error listing enrollments: " + err.Error())
			continue
		}

		for i := range enrollments {
			tracker, err := classroom.NewTracker(&enrollments[i], store)
			if err != nil {
				logScheduler("Skipping enrollment with corrupt progress: " + err.Error())
				continue
			}
			tracker.Reconcile(tree.FlatLessons)
			if err := tracker.Persist(ctx, tree.FlatLessons); err != nil {
				logScheduler("Error saving reconciled progress: " + err.Error())
				continue
			}
			updated++
		}
	}

	log.Printf("[PROGRESS-SCHEDULER] Reconciled %d enrollments across %d courses", updated, len(courseIDs))
}

// InitializeProgressScheduler sets up the nightly reconciliation sweep
func InitializeProgressScheduler() *cron.Cron {
	log.Println("[PROGRESS-SCHEDULER] Initializing progress scheduler...")

	c := cron.New()

	// Run nightly at 3 AM
	c.AddFunc("0 3 * * *", func() {
		logScheduler("Running nightly reconciliation sweep...")
		ReconcileAllEnrollments()
	})

	c.Start()
	log.Println("[PROGRESS-SCHEDULER] Progress scheduler started - runs nightly at 3 AM")
	return c
}
