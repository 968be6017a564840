package classroom

import (
	"context"
	"errors"
	"strings"
	"time"

	courseModels "lms/models/course"
)

// ErrLessonNotFound is returned for lesson IDs outside the learner-facing
// sequence.
var ErrLessonNotFound = errors.New("classroom: lesson not found")

// Render kinds selected per lesson type.
const (
	RenderEmbed      = "EMBED" // video/document in an iframe
	RenderAudio      = "AUDIO"
	RenderText       = "TEXT" // task/material body text
	RenderQuizIntro  = "QUIZ_INTRO"
	RenderQuizResult = "QUIZ_RESULT"
)

// LessonView is the presentation payload for one lesson: the strategy to
// render it with, its completion state and, for scored quizzes, the stored
// result.
type LessonView struct {
	Lesson    courseModels.Lesson `json:"lesson"`
	Kind      string              `json:"kind"`
	EmbedURL  string              `json:"embed_url,omitempty"`
	Completed bool                `json:"completed"`
	Locked    bool                `json:"locked"`
	Score     *float64            `json:"score,omitempty"`
}

// Viewer dispatches lessons to a rendering strategy and routes learner
// actions into the progress tracker. One viewer serves one loaded course
// snapshot plus one enrollment.
type Viewer struct {
	Tree    *Tree
	Tracker *Tracker

	// Now is swappable for availability-window tests.
	Now func() time.Time
}

// NewViewer binds a normalized tree to a learner's tracker.
func NewViewer(tree *Tree, tracker *Tracker) *Viewer {
	return &Viewer{Tree: tree, Tracker: tracker, Now: time.Now}
}

// View selects the presentation strategy for a lesson. A quiz the learner
// has already submitted resolves to the stored result view, never to a
// fresh attempt.
func (v *Viewer) View(lessonID uint) (LessonView, error) {
	lesson, ok := v.Tree.FindLesson(lessonID)
	if !ok {
		return LessonView{}, ErrLessonNotFound
	}

	view := LessonView{
		Lesson:    lesson,
		Completed: v.Tracker.IsCompleted(lesson.ID),
		Locked:    v.locked(lesson),
	}
	switch {
	case lesson.IsQuiz():
		if score, scored := v.Tracker.Score(lesson.ID); scored {
			view.Kind = RenderQuizResult
			view.Score = &score
		} else {
			view.Kind = RenderQuizIntro
		}
	case lesson.Type == courseModels.LessonTypeAudio:
		view.Kind = RenderAudio
		view.EmbedURL = lesson.ContentURL
	case lesson.HasContent():
		view.Kind = RenderEmbed
		view.EmbedURL = EmbedURL(lesson.ContentURL)
	default:
		view.Kind = RenderText
	}
	return view, nil
}

func (v *Viewer) locked(lesson courseModels.Lesson) bool {
	now := v.Now()
	if lesson.AvailableFrom != nil && now.Before(*lesson.AvailableFrom) {
		return true
	}
	if lesson.AvailableUntil != nil && now.After(*lesson.AvailableUntil) {
		return true
	}
	return false
}

// OnLessonToggled flips completion for a non-quiz lesson and persists the
// enrollment.
func (v *Viewer) OnLessonToggled(ctx context.Context, lessonID uint) error {
	lesson, ok := v.Tree.FindLesson(lessonID)
	if !ok {
		return ErrLessonNotFound
	}
	if err := v.Tracker.ToggleCompletion(lesson); err != nil {
		return err
	}
	return v.Tracker.Persist(ctx, v.Tree.FlatLessons)
}

// OnQuizFinished records a terminal quiz score and persists the
// enrollment.
func (v *Viewer) OnQuizFinished(ctx context.Context, lessonID uint, score float64) error {
	if _, ok := v.Tree.FindLesson(lessonID); !ok {
		return ErrLessonNotFound
	}
	v.Tracker.RecordScore(lessonID, score)
	return v.Tracker.Persist(ctx, v.Tree.FlatLessons)
}

// EmbedURL rewrites well-known share links into their embeddable form.
func EmbedURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "youtube.com/watch") {
		return strings.Replace(raw, "watch?v=", "embed/", 1)
	}
	if idx := strings.Index(raw, "youtu.be/"); idx >= 0 {
		return "https://www.youtube.com/embed/" + raw[idx+len("youtu.be/"):]
	}
	if strings.Contains(raw, "drive.google.com") {
		for _, suffix := range []string{"/view", "/edit"} {
			if idx := strings.Index(raw, suffix); idx >= 0 {
				return raw[:idx] + "/preview"
			}
		}
	}
	return raw
}
