package classroom

import (
	"context"
	"testing"
	"time"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newTestViewer(t *testing.T, completed []uint, scores string) (*Viewer, *fakeEnrollmentStore) {
	t.Helper()

	video := testLesson(1, 10, 1, courseModels.LessonTypeVideo)
	video.ContentURL = "https://www.youtube.com/watch?v=abc123"
	quiz := testLesson(2, 10, 2, courseModels.LessonTypeQuiz)
	quiz.QuizData = datatypes.JSON(`{"questions":[{"text":"q","options":[{"text":"a","isCorrect":true}]}]}`)
	task := testLesson(3, 10, 3, courseModels.LessonTypeTask)

	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 1)},
		Sections: []courseModels.Section{testSection(10, 1, 1)},
		Lessons:  []courseModels.Lesson{video, quiz, task},
	}
	tree, err := Normalize(raw)
	require.NoError(t, err)

	tracker, store := newTestTracker(t, completed, scores)
	return NewViewer(tree, tracker), store
}

func TestViewer_View(t *testing.T) {
	viewer, _ := newTestViewer(t, []uint{1}, "")

	view, err := viewer.View(1)
	require.NoError(t, err)
	assert.Equal(t, RenderEmbed, view.Kind)
	assert.Equal(t, "https://www.youtube.com/embed/abc123", view.EmbedURL)
	assert.True(t, view.Completed)

	view, err = viewer.View(3)
	require.NoError(t, err)
	assert.Equal(t, RenderText, view.Kind)
	assert.False(t, view.Completed)

	_, err = viewer.View(999)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestViewer_QuizEntryPoint(t *testing.T) {
	viewer, _ := newTestViewer(t, nil, "")

	view, err := viewer.View(2)
	require.NoError(t, err)
	assert.Equal(t, RenderQuizIntro, view.Kind)
	assert.Nil(t, view.Score)

	// A scored quiz must resolve to the stored result, not a new attempt.
	scored, _ := newTestViewer(t, []uint{2}, `{"2":7.5}`)
	view, err = scored.View(2)
	require.NoError(t, err)
	assert.Equal(t, RenderQuizResult, view.Kind)
	require.NotNil(t, view.Score)
	assert.Equal(t, 7.5, *view.Score)
}

func TestViewer_AvailabilityWindow(t *testing.T) {
	viewer, _ := newTestViewer(t, nil, "")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewer.Now = func() time.Time { return now }

	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	for i := range viewer.Tree.FlatLessons {
		if viewer.Tree.FlatLessons[i].ID == 1 {
			viewer.Tree.FlatLessons[i].AvailableFrom = &future
		}
		if viewer.Tree.FlatLessons[i].ID == 3 {
			viewer.Tree.FlatLessons[i].AvailableUntil = &past
		}
	}

	view, err := viewer.View(1)
	require.NoError(t, err)
	assert.True(t, view.Locked)

	view, err = viewer.View(3)
	require.NoError(t, err)
	assert.True(t, view.Locked)

	view, err = viewer.View(2)
	require.NoError(t, err)
	assert.False(t, view.Locked)
}

func TestViewer_OnLessonToggled(t *testing.T) {
	viewer, store := newTestViewer(t, nil, "")

	require.NoError(t, viewer.OnLessonToggled(context.Background(), 1))
	assert.True(t, viewer.Tracker.IsCompleted(1))
	require.Len(t, store.saved, 1)

	// Toggling the quiz lesson is rejected and nothing is saved.
	err := viewer.OnLessonToggled(context.Background(), 2)
	assert.ErrorIs(t, err, ErrQuizToggle)
	assert.Len(t, store.saved, 1)
}

func TestViewer_OnQuizFinished(t *testing.T) {
	viewer, store := newTestViewer(t, nil, "")

	require.NoError(t, viewer.OnQuizFinished(context.Background(), 2, 5.0))
	assert.True(t, viewer.Tracker.IsCompleted(2))
	score, ok := viewer.Tracker.Score(2)
	require.True(t, ok)
	assert.Equal(t, 5.0, score)
	require.Len(t, store.saved, 1)
	assert.JSONEq(t, `{"2":5}`, string(store.saved[0].LessonScores))
}

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://www.youtube.com/watch?v=xyz", "https://www.youtube.com/embed/xyz"},
		{"https://youtu.be/xyz", "https://www.youtube.com/embed/xyz"},
		{"https://drive.google.com/file/d/abc/view?usp=sharing", "https://drive.google.com/file/d/abc/preview"},
		{"https://drive.google.com/file/d/abc/edit", "https://drive.google.com/file/d/abc/preview"},
		{"https://example.com/video.mp4", "https://example.com/video.mp4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EmbedURL(tt.in), tt.in)
	}
}
