package classroom

import (
	"context"
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&courseModels.Course{},
		&courseModels.Module{},
		&courseModels.Section{},
		&courseModels.Lesson{},
		&courseModels.Enrollment{},
	))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.Close()
	})
	return db
}

func seedCourse(t *testing.T, db *gorm.DB) courseModels.Course {
	t.Helper()
	crs := courseModels.Course{Title: "Go from zero", Status: "ACTIVE", IsPublished: true}
	require.NoError(t, db.Create(&crs).Error)

	mod := courseModels.Module{CourseID: crs.ID, Title: "Basics", OrderIndex: 1}
	require.NoError(t, db.Create(&mod).Error)

	sec := courseModels.Section{ModuleID: mod.ID, Title: "Syntax", OrderIndex: 1}
	require.NoError(t, db.Create(&sec).Error)

	lessons := []courseModels.Lesson{
		{CourseID: crs.ID, SectionID: sec.ID, Title: "Hello", Type: courseModels.LessonTypeVideo, OrderIndex: 2, IsPublished: true},
		{CourseID: crs.ID, SectionID: sec.ID, Title: "Vars", Type: courseModels.LessonTypeDocument, OrderIndex: 1, IsPublished: true},
	}
	require.NoError(t, db.Create(&lessons).Error)
	return crs
}

func TestStore_LoadCourse(t *testing.T) {
	db := newTestDB(t)
	crs := seedCourse(t, db)
	store := NewStore(db)

	raw, err := store.LoadCourse(context.Background(), crs.ID)
	require.NoError(t, err)
	assert.Equal(t, crs.ID, raw.Course.ID)
	assert.Len(t, raw.Modules, 1)
	assert.Len(t, raw.Sections, 1)
	assert.Len(t, raw.Lessons, 2)

	tree, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, tree.FlatLessons, 2)
	assert.Equal(t, "Vars", tree.FlatLessons[0].Title)
	assert.Equal(t, "Hello", tree.FlatLessons[1].Title)
}

func TestStore_LoadCourse_Missing(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	_, err := store.LoadCourse(context.Background(), 12345)
	assert.Error(t, err)
}

func TestStore_LoadCourse_SkipsDeleted(t *testing.T) {
	db := newTestDB(t)
	crs := seedCourse(t, db)
	require.NoError(t, db.Model(&courseModels.Lesson{}).
		Where("title = ?", "Hello").Update("is_deleted", true).Error)

	store := NewStore(db)
	raw, err := store.LoadCourse(context.Background(), crs.ID)
	require.NoError(t, err)
	assert.Len(t, raw.Lessons, 1)
}

func TestStore_EnrollmentRoundTrip(t *testing.T) {
	db := newTestDB(t)
	crs := seedCourse(t, db)
	store := NewStore(db)

	_, err := store.LoadEnrollment(context.Background(), 1, crs.ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	enrollment := &courseModels.Enrollment{
		UserID:           1,
		CourseID:         crs.ID,
		Status:           "ENROLLED",
		CompletedLessons: datatypes.JSON(`[4,7]`),
		LessonScores:     datatypes.JSON(`{"7":5.5}`),
	}
	require.NoError(t, db.Create(enrollment).Error)

	loaded, err := store.LoadEnrollment(context.Background(), 1, crs.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `[4,7]`, string(loaded.CompletedLessons))
	assert.JSONEq(t, `{"7":5.5}`, string(loaded.LessonScores))

	loaded.Progress = 40
	loaded.Status = "IN_PROGRESS"
	require.NoError(t, store.SaveEnrollment(context.Background(), loaded))

	again, err := store.LoadEnrollment(context.Background(), 1, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(40), again.Progress)
	assert.Equal(t, "IN_PROGRESS", again.Status)
}
