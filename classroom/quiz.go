package classroom

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyScored is returned when a session is requested for a quiz
	// the learner has already submitted. Callers should show the stored
	// result instead of restarting.
	ErrAlreadyScored = errors.New("classroom: quiz already scored")

	// ErrInvalidTransition is returned for navigation that the session
	// state machine does not allow. The session state is left untouched.
	ErrInvalidTransition = errors.New("classroom: invalid quiz transition")
)

// Option is a single answer choice for a question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback,omitempty"`
}

// Question is a single quiz question with its ordered options.
type Question struct {
	Text     string   `json:"text"`
	Feedback string   `json:"feedback,omitempty"`
	Options  []Option `json:"options"`
}

// QuizDefinition is the assessment attached to a QUIZ lesson.
type QuizDefinition struct {
	Questions []Question `json:"questions"`
}

// CorrectOption returns the index of the option flagged correct, or -1.
func (q Question) CorrectOption() int {
	for i, opt := range q.Options {
		if opt.IsCorrect {
			return i
		}
	}
	return -1
}

// Session drives a single quiz attempt: an introduction screen, sequential
// question navigation and a scored, irreversible submit. Index -1 is the
// introduction, len(questions) means finished.
type Session struct {
	ID        string
	LessonID  uint
	Quiz      QuizDefinition
	MaxPoints float64

	index    int
	answers  map[int]int
	finished bool
}

// NewSession creates a fresh attempt for a quiz lesson. scored reports
// whether the learner already has a recorded score for this lesson;
// single-attempt enforcement happens here, before any state exists.
func NewSession(lessonID uint, quiz QuizDefinition, maxPoints float64, scored bool) (*Session, error) {
	if scored {
		return nil, ErrAlreadyScored
	}
	return &Session{
		ID:        uuid.NewString(),
		LessonID:  lessonID,
		Quiz:      quiz,
		MaxPoints: maxPoints,
		index:     -1,
		answers:   make(map[int]int),
	}, nil
}

// Index returns the current question index (-1 on the introduction screen).
func (s *Session) Index() int { return s.index }

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool { return s.finished }

// Answer returns the recorded option index for a question, if any.
func (s *Session) Answer(question int) (int, bool) {
	opt, ok := s.answers[question]
	return opt, ok
}

// Start moves from the introduction to the first question.
func (s *Session) Start() error {
	if s.finished || s.index != -1 {
		return ErrInvalidTransition
	}
	if len(s.Quiz.Questions) == 0 {
		// Degenerate quiz: nothing to ask, go straight to finished.
		return s.Submit()
	}
	s.index = 0
	return nil
}

// Next advances to the following question. Submitting past the last
// question goes through Submit, not Next.
func (s *Session) Next() error {
	if s.finished || s.index < 0 || s.index+1 >= len(s.Quiz.Questions) {
		return ErrInvalidTransition
	}
	s.index++
	return nil
}

// Prev steps back one question. Stored answers are kept for both the
// current and the target question.
func (s *Session) Prev() error {
	if s.finished || s.index <= 0 {
		return ErrInvalidTransition
	}
	s.index--
	return nil
}

// Select records the learner's choice for the current question without
// changing state. Re-selecting overwrites the prior choice.
func (s *Session) Select(optionIdx int) error {
	if s.finished || s.index < 0 {
		return ErrInvalidTransition
	}
	q := s.Quiz.Questions[s.index]
	if optionIdx < 0 || optionIdx >= len(q.Options) {
		return ErrInvalidTransition
	}
	s.answers[s.index] = optionIdx
	return nil
}

// Submit finishes the attempt from the last question (or directly from the
// introduction when the quiz has no questions). Irreversible.
func (s *Session) Submit() error {
	if s.finished {
		return ErrInvalidTransition
	}
	n := len(s.Quiz.Questions)
	if n > 0 && s.index != n-1 {
		return ErrInvalidTransition
	}
	s.finished = true
	s.index = n
	return nil
}

// Score computes the final score once the session is finished. Unanswered
// questions count as misses; a zero-question quiz scores 0.
func (s *Session) Score() (float64, error) {
	if !s.finished {
		return 0, ErrInvalidTransition
	}
	total := len(s.Quiz.Questions)
	if total == 0 {
		return 0, nil
	}
	correct := 0
	for i, q := range s.Quiz.Questions {
		if picked, ok := s.answers[i]; ok && picked == q.CorrectOption() {
			correct++
		}
	}
	raw := s.MaxPoints * float64(correct) / float64(total)
	return math.Round(raw*10) / 10, nil
}
