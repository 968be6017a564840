package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	courseModels "lms/models/course"
)

var (
	// ErrQuizToggle is returned when a learner tries to toggle a quiz
	// lesson directly; quiz completion is set only by scoring.
	ErrQuizToggle = errors.New("classroom: quiz completion cannot be toggled")

	// ErrSaveInFlight is returned when a persist is requested while a
	// previous one for the same enrollment has not finished.
	ErrSaveInFlight = errors.New("classroom: enrollment save already in flight")
)

// Tracker owns the learner's completion set and score map for one
// enrollment. The in-memory state is authoritative for display; the store
// is authoritative for durability. Save failures never roll back the
// in-memory state.
type Tracker struct {
	mu         sync.Mutex
	enrollment *courseModels.Enrollment
	completed  map[uint]struct{}
	scores     map[uint]float64
	store      EnrollmentStore
}

// saveFlights tracks which enrollments have a save in flight. Trackers are
// rebuilt from the row on every request, so the guard cannot live on the
// tracker itself; it is keyed by enrollment ID for the whole process.
type saveFlights struct {
	mu  sync.Mutex
	ids map[uint]struct{}
}

func (s *saveFlights) acquire(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.ids[id]; busy {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *saveFlights) release(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *saveFlights) busy(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.ids[id]
	return busy
}

var inFlightSaves = saveFlights{ids: make(map[uint]struct{})}

// NewTracker decodes the enrollment's persisted completion set and score
// map. Missing or null JSON columns mean a fresh enrollment.
func NewTracker(enrollment *courseModels.Enrollment, store EnrollmentStore) (*Tracker, error) {
	t := &Tracker{
		enrollment: enrollment,
		completed:  make(map[uint]struct{}),
		scores:     make(map[uint]float64),
		store:      store,
	}

	if len(enrollment.CompletedLessons) > 0 {
		var ids []uint
		if err := json.Unmarshal(enrollment.CompletedLessons, &ids); err != nil {
			return nil, fmt.Errorf("decode completed lessons: %w", err)
		}
		for _, id := range ids {
			t.completed[id] = struct{}{}
		}
	}
	if len(enrollment.LessonScores) > 0 {
		var raw map[string]float64
		if err := json.Unmarshal(enrollment.LessonScores, &raw); err != nil {
			return nil, fmt.Errorf("decode lesson scores: %w", err)
		}
		for key, score := range raw {
			id, err := strconv.ParseUint(key, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("decode lesson scores: bad key %q", key)
			}
			t.scores[uint(id)] = score
		}
	}
	return t, nil
}

// Reconcile drops completion-set and score-map entries that no longer
// exist in the current flattened lesson sequence. Runs once after every
// tree load, before any percentage is shown. Idempotent; dropped IDs are
// gone from the next save too.
func (t *Tracker) Reconcile(flat []courseModels.Lesson) {
	t.mu.Lock()
	defer t.mu.Unlock()

	known := make(map[uint]struct{}, len(flat))
	for _, l := range flat {
		known[l.ID] = struct{}{}
	}
	for id := range t.completed {
		if _, ok := known[id]; !ok {
			delete(t.completed, id)
		}
	}
	for id := range t.scores {
		if _, ok := known[id]; !ok {
			delete(t.scores, id)
		}
	}
}

// ToggleCompletion flips membership of a lesson in the completion set.
// Rejected for quiz lessons.
func (t *Tracker) ToggleCompletion(lesson courseModels.Lesson) error {
	if lesson.IsQuiz() {
		return ErrQuizToggle
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, done := t.completed[lesson.ID]; done {
		delete(t.completed, lesson.ID)
	} else {
		t.completed[lesson.ID] = struct{}{}
	}
	return nil
}

// RecordScore marks a scored lesson complete and stores its score.
// Idempotent on the completion set; a later call overwrites the score.
func (t *Tracker) RecordScore(lessonID uint, score float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed[lessonID] = struct{}{}
	t.scores[lessonID] = score
}

// Score returns the recorded score for a lesson, if any.
func (t *Tracker) Score(lessonID uint) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	score, ok := t.scores[lessonID]
	return score, ok
}

// IsCompleted reports membership of a lesson in the completion set.
func (t *Tracker) IsCompleted(lessonID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.completed[lessonID]
	return ok
}

// CompletedCount returns the size of the completion set.
func (t *Tracker) CompletedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.completed)
}

// OverallPercent is the rounded share of the flattened sequence that is
// complete, clamped to [0,100]. The clamp is a fallback; Reconcile is what
// keeps stale identifiers out of the numerator.
func (t *Tracker) OverallPercent(flat []courseModels.Lesson) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percentLocked(flat)
}

// ModulePercent is OverallPercent restricted to one module's lessons.
func (t *Tracker) ModulePercent(tree *Tree, moduleID uint) int {
	lessons := tree.ModuleLessons(moduleID)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percentLocked(lessons)
}

func (t *Tracker) percentLocked(lessons []courseModels.Lesson) int {
	if len(lessons) == 0 {
		return 0
	}
	done := 0
	for _, l := range lessons {
		if _, ok := t.completed[l.ID]; ok {
			done++
		}
	}
	pct := int(math.Round(float64(done) / float64(len(lessons)) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Persist flushes the in-memory state into the enrollment record and
// submits it to the store. Only one save per enrollment may be in flight
// across the process, no matter how many trackers hold the same row; a
// concurrent call gets ErrSaveInFlight and the caller retries. A failed
// save leaves the in-memory state untouched so visible progress never
// regresses.
func (t *Tracker) Persist(ctx context.Context, flat []courseModels.Lesson) error {
	t.mu.Lock()
	id := t.enrollment.ID
	if !inFlightSaves.acquire(id) {
		t.mu.Unlock()
		return ErrSaveInFlight
	}
	if err := t.flushLocked(flat); err != nil {
		inFlightSaves.release(id)
		t.mu.Unlock()
		return err
	}
	enrollment := t.enrollment
	t.mu.Unlock()

	err := t.store.SaveEnrollment(ctx, enrollment)
	inFlightSaves.release(id)

	if err != nil {
		return fmt.Errorf("save enrollment %d: %w", enrollment.ID, err)
	}
	return nil
}

// Enrollment returns the tracked enrollment record.
func (t *Tracker) Enrollment() *courseModels.Enrollment {
	return t.enrollment
}

// flushLocked encodes the completion set and score map back into the
// enrollment and derives its progress and status fields.
func (t *Tracker) flushLocked(flat []courseModels.Lesson) error {
	ids := make([]uint, 0, len(t.completed))
	for id := range t.completed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	completedJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode completed lessons: %w", err)
	}
	scores := make(map[string]float64, len(t.scores))
	for id, score := range t.scores {
		scores[strconv.FormatUint(uint64(id), 10)] = score
	}
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("encode lesson scores: %w", err)
	}

	t.enrollment.CompletedLessons = completedJSON
	t.enrollment.LessonScores = scoresJSON

	pct := t.percentLocked(flat)
	t.enrollment.Progress = float64(pct)
	switch {
	case pct >= 100 && len(flat) > 0:
		t.enrollment.Status = "COMPLETED"
		if t.enrollment.CompletedAt == nil {
			now := time.Now()
			t.enrollment.CompletedAt = &now
		}
	case pct > 0:
		t.enrollment.Status = "IN_PROGRESS"
		t.enrollment.CompletedAt = nil
	default:
		t.enrollment.Status = "ENROLLED"
		t.enrollment.CompletedAt = nil
	}
	return nil
}
