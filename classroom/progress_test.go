package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeEnrollmentStore struct {
	mu      sync.Mutex
	saved   []courseModels.Enrollment
	saveErr error
	block   chan struct{} // when set, SaveEnrollment waits on it
}

func (f *fakeEnrollmentStore) LoadEnrollment(ctx context.Context, userID, courseID uint) (*courseModels.Enrollment, error) {
	return nil, ErrNotEnrolled
}

func (f *fakeEnrollmentStore) SaveEnrollment(ctx context.Context, enrollment *courseModels.Enrollment) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *enrollment)
	return nil
}

func newTestTracker(t *testing.T, completed []uint, scores string) (*Tracker, *fakeEnrollmentStore) {
	t.Helper()
	store := &fakeEnrollmentStore{}
	enrollment := &courseModels.Enrollment{UserID: 1, CourseID: 1}
	if completed != nil {
		data, err := json.Marshal(completed)
		require.NoError(t, err)
		enrollment.CompletedLessons = data
	}
	if scores != "" {
		enrollment.LessonScores = datatypes.JSON(scores)
	}
	tracker, err := NewTracker(enrollment, store)
	require.NoError(t, err)
	return tracker, store
}

func waitForSaving(t *testing.T, tracker *Tracker) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if inFlightSaves.busy(tracker.enrollment.ID) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("save never entered flight")
}

func lessonSeq(ids ...uint) []courseModels.Lesson {
	out := make([]courseModels.Lesson, len(ids))
	for i, id := range ids {
		out[i] = testLesson(id, 1, i+1, courseModels.LessonTypeVideo)
	}
	return out
}

func TestTracker_OverallPercent(t *testing.T) {
	tests := []struct {
		name      string
		completed []uint
		flat      []courseModels.Lesson
		want      int
	}{
		{"one of three", []uint{1}, lessonSeq(1, 2, 3), 33},
		{"empty sequence", []uint{1}, nil, 0},
		{"nothing complete", nil, lessonSeq(1, 2), 0},
		{"all complete", []uint{1, 2}, lessonSeq(1, 2), 100},
		{"two of three rounds up", []uint{1, 2}, lessonSeq(1, 2, 3), 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, _ := newTestTracker(t, tt.completed, "")
			assert.Equal(t, tt.want, tracker.OverallPercent(tt.flat))
		})
	}
}

func TestTracker_StaleIDsNeverExceedHundred(t *testing.T) {
	// Ghost IDs in the stored set must not inflate the numerator even
	// before Reconcile runs: the percentage counts the intersection.
	tracker, _ := newTestTracker(t, []uint{1, 2, 97, 98, 99}, "")
	flat := lessonSeq(1, 2)
	assert.Equal(t, 100, tracker.OverallPercent(flat))
}

func TestTracker_Reconcile(t *testing.T) {
	tracker, _ := newTestTracker(t, []uint{1, 2, 999}, `{"999":7.5}`)
	flat := lessonSeq(1, 2, 3, 4)

	tracker.Reconcile(flat)

	assert.Equal(t, 2, tracker.CompletedCount())
	assert.False(t, tracker.IsCompleted(999))
	_, scored := tracker.Score(999)
	assert.False(t, scored)
	assert.Equal(t, 50, tracker.OverallPercent(flat))
}

func TestTracker_ReconcileIdempotent(t *testing.T) {
	tracker, _ := newTestTracker(t, []uint{1, 2, 999}, "")
	flat := lessonSeq(1, 2, 3)

	tracker.Reconcile(flat)
	once := tracker.CompletedCount()
	tracker.Reconcile(flat)

	assert.Equal(t, once, tracker.CompletedCount())
}

func TestTracker_ReconcileDoesNotResurrectOnSave(t *testing.T) {
	tracker, store := newTestTracker(t, []uint{1, 999}, "")
	flat := lessonSeq(1, 2)

	tracker.Reconcile(flat)
	require.NoError(t, tracker.Persist(context.Background(), flat))

	require.Len(t, store.saved, 1)
	assert.JSONEq(t, `[1]`, string(store.saved[0].CompletedLessons))
}

func TestTracker_ToggleCompletion(t *testing.T) {
	tracker, _ := newTestTracker(t, nil, "")
	lesson := testLesson(5, 1, 1, courseModels.LessonTypeVideo)

	require.NoError(t, tracker.ToggleCompletion(lesson))
	assert.True(t, tracker.IsCompleted(5))

	require.NoError(t, tracker.ToggleCompletion(lesson))
	assert.False(t, tracker.IsCompleted(5))
}

func TestTracker_ToggleRejectsQuiz(t *testing.T) {
	tracker, _ := newTestTracker(t, nil, "")
	quiz := testLesson(5, 1, 1, courseModels.LessonTypeQuiz)

	err := tracker.ToggleCompletion(quiz)
	assert.ErrorIs(t, err, ErrQuizToggle)
	assert.False(t, tracker.IsCompleted(5))
}

func TestTracker_RecordScore(t *testing.T) {
	tracker, _ := newTestTracker(t, nil, "")

	tracker.RecordScore(7, 5.0)
	tracker.RecordScore(7, 5.0) // idempotent on the completion set

	assert.True(t, tracker.IsCompleted(7))
	assert.Equal(t, 1, tracker.CompletedCount())
	score, ok := tracker.Score(7)
	require.True(t, ok)
	assert.Equal(t, 5.0, score)
}

func TestTracker_ModulePercent(t *testing.T) {
	// Module A has lessons {1,2}, module B has {3,4,5};
	// completion set {1,3,4}.
	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 1), testModule(2, 1, 2)},
		Sections: []courseModels.Section{testSection(10, 1, 1), testSection(20, 2, 1)},
		Lessons: []courseModels.Lesson{
			testLesson(1, 10, 1, courseModels.LessonTypeVideo),
			testLesson(2, 10, 2, courseModels.LessonTypeVideo),
			testLesson(3, 20, 1, courseModels.LessonTypeVideo),
			testLesson(4, 20, 2, courseModels.LessonTypeVideo),
			testLesson(5, 20, 3, courseModels.LessonTypeVideo),
		},
	}
	tree, err := Normalize(raw)
	require.NoError(t, err)

	tracker, _ := newTestTracker(t, []uint{1, 3, 4}, "")

	assert.Equal(t, 50, tracker.ModulePercent(tree, 1))
	assert.Equal(t, 67, tracker.ModulePercent(tree, 2))
	assert.Equal(t, 60, tracker.OverallPercent(tree.FlatLessons))
}

func TestTracker_PersistEncodesState(t *testing.T) {
	tracker, store := newTestTracker(t, nil, "")
	flat := lessonSeq(1, 2)

	require.NoError(t, tracker.ToggleCompletion(flat[0]))
	tracker.RecordScore(2, 7.5)
	require.NoError(t, tracker.Persist(context.Background(), flat))

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.JSONEq(t, `[1,2]`, string(saved.CompletedLessons))
	assert.JSONEq(t, `{"2":7.5}`, string(saved.LessonScores))
	assert.Equal(t, float64(100), saved.Progress)
	assert.Equal(t, "COMPLETED", saved.Status)
	assert.NotNil(t, saved.CompletedAt)
}

func TestTracker_PersistSetsInProgress(t *testing.T) {
	tracker, store := newTestTracker(t, nil, "")
	flat := lessonSeq(1, 2)

	require.NoError(t, tracker.ToggleCompletion(flat[0]))
	require.NoError(t, tracker.Persist(context.Background(), flat))

	require.Len(t, store.saved, 1)
	assert.Equal(t, "IN_PROGRESS", store.saved[0].Status)
	assert.Equal(t, float64(50), store.saved[0].Progress)
	assert.Nil(t, store.saved[0].CompletedAt)
}

func TestTracker_PersistFailureKeepsState(t *testing.T) {
	tracker, store := newTestTracker(t, nil, "")
	store.saveErr = errors.New("network down")
	flat := lessonSeq(1, 2)

	require.NoError(t, tracker.ToggleCompletion(flat[0]))
	err := tracker.Persist(context.Background(), flat)
	require.Error(t, err)

	// Visible progress must not regress because a save failed.
	assert.True(t, tracker.IsCompleted(1))
	assert.Equal(t, 50, tracker.OverallPercent(flat))

	// A retry is allowed once the failure is surfaced.
	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()
	require.NoError(t, tracker.Persist(context.Background(), flat))
}

func TestTracker_PersistInFlightGuard(t *testing.T) {
	tracker, store := newTestTracker(t, nil, "")
	store.block = make(chan struct{})
	flat := lessonSeq(1)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- tracker.Persist(context.Background(), flat)
	}()

	// Wait until the first save is inside the store call.
	waitForSaving(t, tracker)

	err := tracker.Persist(context.Background(), flat)
	assert.ErrorIs(t, err, ErrSaveInFlight)

	close(store.block)
	require.NoError(t, <-firstDone)

	// Once the first save finished, persisting works again.
	require.NoError(t, tracker.Persist(context.Background(), flat))
}

func TestTracker_PersistGuardSharedAcrossTrackers(t *testing.T) {
	// Every request rebuilds its tracker from a fresh row load. The guard
	// is keyed by enrollment, so two trackers holding the same row must
	// still serialize: the second writer gets ErrSaveInFlight instead of
	// silently overwriting the first save.
	store := &fakeEnrollmentStore{block: make(chan struct{})}
	flat := lessonSeq(1, 2)

	rowA := &courseModels.Enrollment{UserID: 1, CourseID: 1}
	rowA.ID = 42
	rowB := &courseModels.Enrollment{UserID: 1, CourseID: 1}
	rowB.ID = 42

	trackerA, err := NewTracker(rowA, store)
	require.NoError(t, err)
	trackerB, err := NewTracker(rowB, store)
	require.NoError(t, err)

	require.NoError(t, trackerA.ToggleCompletion(flat[0]))
	require.NoError(t, trackerB.ToggleCompletion(flat[1]))

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- trackerA.Persist(context.Background(), flat)
	}()
	waitForSaving(t, trackerA)

	err = trackerB.Persist(context.Background(), flat)
	assert.ErrorIs(t, err, ErrSaveInFlight)

	close(store.block)
	require.NoError(t, <-firstDone)

	// The rejected writer retries once the first save has landed.
	require.NoError(t, trackerB.Persist(context.Background(), flat))
	require.Len(t, store.saved, 2)
	assert.JSONEq(t, `[1]`, string(store.saved[0].CompletedLessons))
}

func TestTracker_PersistGuardIndependentEnrollments(t *testing.T) {
	// Different enrollments never block each other.
	store := &fakeEnrollmentStore{block: make(chan struct{})}
	flat := lessonSeq(1)

	rowA := &courseModels.Enrollment{UserID: 1, CourseID: 1}
	rowA.ID = 7
	rowB := &courseModels.Enrollment{UserID: 2, CourseID: 1}
	rowB.ID = 8

	trackerA, err := NewTracker(rowA, store)
	require.NoError(t, err)

	otherStore := &fakeEnrollmentStore{}
	trackerB, err := NewTracker(rowB, otherStore)
	require.NoError(t, err)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- trackerA.Persist(context.Background(), flat)
	}()
	waitForSaving(t, trackerA)

	require.NoError(t, trackerB.Persist(context.Background(), flat))

	close(store.block)
	require.NoError(t, <-firstDone)
}

func TestTracker_PersistRegressionWalksStatusBack(t *testing.T) {
	tracker, store := newTestTracker(t, nil, "")
	flat := lessonSeq(1, 2)

	require.NoError(t, tracker.ToggleCompletion(flat[0]))
	require.NoError(t, tracker.ToggleCompletion(flat[1]))
	require.NoError(t, tracker.Persist(context.Background(), flat))
	require.Len(t, store.saved, 1)
	require.Equal(t, "COMPLETED", store.saved[0].Status)
	require.NotNil(t, store.saved[0].CompletedAt)

	// Untoggling after completion drops the status and clears the stamp.
	require.NoError(t, tracker.ToggleCompletion(flat[1]))
	require.NoError(t, tracker.Persist(context.Background(), flat))
	require.Len(t, store.saved, 2)
	assert.Equal(t, "IN_PROGRESS", store.saved[1].Status)
	assert.Equal(t, float64(50), store.saved[1].Progress)
	assert.Nil(t, store.saved[1].CompletedAt)

	// Back to nothing complete lands on ENROLLED.
	require.NoError(t, tracker.ToggleCompletion(flat[0]))
	require.NoError(t, tracker.Persist(context.Background(), flat))
	require.Len(t, store.saved, 3)
	assert.Equal(t, "ENROLLED", store.saved[2].Status)
	assert.Equal(t, float64(0), store.saved[2].Progress)
	assert.Nil(t, store.saved[2].CompletedAt)
}

func TestNewTracker_RejectsMalformedRecord(t *testing.T) {
	enrollment := &courseModels.Enrollment{
		CompletedLessons: datatypes.JSON(`{"not":"an array"}`),
	}
	_, err := NewTracker(enrollment, &fakeEnrollmentStore{})
	assert.Error(t, err)

	enrollment = &courseModels.Enrollment{
		LessonScores: datatypes.JSON(`{"abc":1}`),
	}
	_, err = NewTracker(enrollment, &fakeEnrollmentStore{})
	assert.Error(t, err)
}
