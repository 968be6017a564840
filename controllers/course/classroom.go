package controllers

import (
	"errors"
	"log"

	"lms/classroom"
	"lms/database"
	"lms/middleware"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// learnerContext bundles everything a learner-facing handler needs for one
// request: the normalized course snapshot and the learner's reconciled
// progress tracker.
type learnerContext struct {
	Viewer  *classroom.Viewer
	Tree    *classroom.Tree
	Tracker *classroom.Tracker
}

// loadLearnerContext loads and normalizes the course, loads the
// enrollment and reconciles stale completion entries. Any load failure is
// fatal to the view; handlers never compute percentages against partial
// data. A non-nil error response has already been written when the second
// return value is false.
func loadLearnerContext(c *fiber.Ctx, userID, courseID uint) (*learnerContext, bool) {
	store := classroom.NewStore(database.Database.Db)

	raw, err := store.LoadCourse(c.Context(), courseID)
	if err != nil {
		log.Printf("Error loading course %d: %v", courseID, err)
		middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or failed to load!", nil)
		return nil, false
	}
	if !raw.Course.IsPublished || raw.Course.IsDeleted {
		middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
		return nil, false
	}

	tree, err := classroom.Normalize(raw)
	if err != nil {
		log.Printf("Error normalizing course %d: %v", courseID, err)
		middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Course content is invalid!", nil)
		return nil, false
	}

	enrollment, err := store.LoadEnrollment(c.Context(), userID, courseID)
	if err != nil {
		if errors.Is(err, classroom.ErrNotEnrolled) {
			middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
			return nil, false
		}
		log.Printf("Error loading enrollment for user %d course %d: %v", userID, courseID, err)
		middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load enrollment!", nil)
		return nil, false
	}

	tracker, err := classroom.NewTracker(enrollment, store)
	if err != nil {
		log.Printf("Error decoding enrollment %d: %v", enrollment.ID, err)
		middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Enrollment record is invalid!", nil)
		return nil, false
	}

	// Stale lesson references are dropped before any percentage is shown.
	tracker.Reconcile(tree.FlatLessons)

	return &learnerContext{
		Viewer:  classroom.NewViewer(tree, tracker),
		Tree:    tree,
		Tracker: tracker,
	}, true
}

// stripQuizData blanks quiz definitions before a tree is sent to a
// learner so correct-answer flags never leave the server.
func stripQuizData(tree *classroom.Tree) {
	for i := range tree.FlatLessons {
		tree.FlatLessons[i].QuizData = nil
	}
	for i := range tree.Modules {
		for j := range tree.Modules[i].Sections {
			for k := range tree.Modules[i].Sections[j].Lessons {
				tree.Modules[i].Sections[j].Lessons[k].QuizData = nil
			}
		}
	}
}

// moduleProgressEntry is the per-module slice of the progress payload.
type moduleProgressEntry struct {
	ModuleID uint   `json:"module_id"`
	Title    string `json:"title"`
	Progress int    `json:"progress"`
}

func moduleProgress(lc *learnerContext) []moduleProgressEntry {
	out := make([]moduleProgressEntry, len(lc.Tree.Modules))
	for i, mod := range lc.Tree.Modules {
		out[i] = moduleProgressEntry{
			ModuleID: mod.ID,
			Title:    mod.Title,
			Progress: lc.Tracker.ModulePercent(lc.Tree, mod.ID),
		}
	}
	return out
}

// GetClassroom returns the normalized content tree plus the learner's
// reconciled progress for one course.
func GetClassroom(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)

	lc, ok := loadLearnerContext(c, userID, courseID)
	if !ok {
		return nil
	}

	completed := make([]uint, 0, len(lc.Tree.FlatLessons))
	for _, lesson := range lc.Tree.FlatLessons {
		if lc.Tracker.IsCompleted(lesson.ID) {
			completed = append(completed, lesson.ID)
		}
	}

	stripQuizData(lc.Tree)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Classroom fetched successfully!", fiber.Map{
		"course":          lc.Tree.Course,
		"modules":         lc.Tree.Modules,
		"lessons":         lc.Tree.FlatLessons,
		"completed_ids":   completed,
		"progress":        lc.Tracker.OverallPercent(lc.Tree.FlatLessons),
		"module_progress": moduleProgress(lc),
	})
}

// GetLessonView returns the rendering payload for one lesson.
func GetLessonView(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	lc, ok := loadLearnerContext(c, userID, courseID)
	if !ok {
		return nil
	}

	view, err := lc.Viewer.View(lessonID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	// Never leak the correct-answer flags through the lesson payload.
	view.Lesson.QuizData = nil

	next, hasNext := lc.Tree.NextLesson(lessonID)
	prev, hasPrev := lc.Tree.PrevLesson(lessonID)
	payload := fiber.Map{"view": view}
	if hasNext {
		payload["next_lesson_id"] = next.ID
	}
	if hasPrev {
		payload["prev_lesson_id"] = prev.ID
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson fetched successfully!", payload)
}

// ToggleLesson flips completion for a non-quiz lesson and persists the
// enrollment.
func ToggleLesson(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	lc, ok := loadLearnerContext(c, userID, courseID)
	if !ok {
		return nil
	}

	wasCompleted := lc.Tracker.Enrollment().Status == "COMPLETED"

	err := lc.Viewer.OnLessonToggled(c.Context(), lessonID)
	switch {
	case errors.Is(err, classroom.ErrLessonNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	case errors.Is(err, classroom.ErrQuizToggle):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Quiz completion is set by submitting the quiz!", nil)
	case errors.Is(err, classroom.ErrSaveInFlight):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A save is already in progress, please retry!", nil)
	case err != nil:
		// The toggle itself succeeded; only the save failed. Surface a
		// retryable failure without discarding the learner's progress.
		log.Printf("Error saving enrollment for user %d course %d: %v", userID, courseID, err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Progress could not be saved, please retry!", fiber.Map{
			"completed": lc.Tracker.IsCompleted(lessonID),
			"progress":  lc.Tracker.OverallPercent(lc.Tree.FlatLessons),
		})
	}

	notifyIfCourseCompleted(lc, wasCompleted, userID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", fiber.Map{
		"completed":       lc.Tracker.IsCompleted(lessonID),
		"progress":        lc.Tracker.OverallPercent(lc.Tree.FlatLessons),
		"module_progress": moduleProgress(lc),
	})
}

// GetCourseProgress returns overall and per-module completion percentages.
func GetCourseProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)

	lc, ok := loadLearnerContext(c, userID, courseID)
	if !ok {
		return nil
	}

	scores := make(map[uint]float64)
	for _, lesson := range lc.Tree.FlatLessons {
		if score, scored := lc.Tracker.Score(lesson.ID); scored {
			scores[lesson.ID] = score
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment":      lc.Tracker.Enrollment(),
		"progress":        lc.Tracker.OverallPercent(lc.Tree.FlatLessons),
		"module_progress": moduleProgress(lc),
		"scores":          scores,
	})
}

// notifyIfCourseCompleted fires the completion email and webhook when the
// enrollment just transitioned to COMPLETED.
func notifyIfCourseCompleted(lc *learnerContext, wasCompleted bool, userID uint) {
	enrollment := lc.Tracker.Enrollment()
	if wasCompleted || enrollment.Status != "COMPLETED" {
		return
	}
	go utils.SendCourseCompletedEmail(userID, lc.Tree.Course.Title)
	go utils.NotifyCourseCompleted(userID, enrollment.CourseID, lc.Tree.Course.Title)
}
