package classroom

import (
	"context"
	"errors"
	"fmt"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// ErrNotEnrolled signals that no enrollment exists for the (user, course)
// pair.
var ErrNotEnrolled = errors.New("classroom: not enrolled")

// ContentStore loads a course hierarchy snapshot.
type ContentStore interface {
	LoadCourse(ctx context.Context, courseID uint) (RawCourse, error)
}

// EnrollmentStore loads and saves enrollment records.
type EnrollmentStore interface {
	LoadEnrollment(ctx context.Context, userID, courseID uint) (*courseModels.Enrollment, error)
	SaveEnrollment(ctx context.Context, enrollment *courseModels.Enrollment) error
}

// Store is the GORM-backed implementation of both store interfaces.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// LoadCourse fetches the full hierarchy for one course. Rows come back in
// primary-key order, which is the fetch order Normalize uses for its
// stable tie-break. A failed load is fatal to the view; no partial tree is
// returned.
func (s *Store) LoadCourse(ctx context.Context, courseID uint) (RawCourse, error) {
	var raw RawCourse

	db := s.db.WithContext(ctx)
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&raw.Course).Error; err != nil {
		return RawCourse{}, fmt.Errorf("load course %d: %w", courseID, err)
	}
	if err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("id asc").Find(&raw.Modules).Error; err != nil {
		return RawCourse{}, fmt.Errorf("load modules for course %d: %w", courseID, err)
	}

	moduleIDs := make([]uint, len(raw.Modules))
	for i, mod := range raw.Modules {
		moduleIDs[i] = mod.ID
	}
	if len(moduleIDs) > 0 {
		if err := db.Where("module_id IN ? AND is_deleted = ?", moduleIDs, false).
			Order("id asc").Find(&raw.Sections).Error; err != nil {
			return RawCourse{}, fmt.Errorf("load sections for course %d: %w", courseID, err)
		}
	}
	if err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("id asc").Find(&raw.Lessons).Error; err != nil {
		return RawCourse{}, fmt.Errorf("load lessons for course %d: %w", courseID, err)
	}
	return raw, nil
}

// LoadEnrollment fetches the learner's enrollment for a course, or
// ErrNotEnrolled.
func (s *Store) LoadEnrollment(ctx context.Context, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("load enrollment user %d course %d: %w", userID, courseID, err)
	}
	return &enrollment, nil
}

// SaveEnrollment writes the full enrollment record back.
func (s *Store) SaveEnrollment(ctx context.Context, enrollment *courseModels.Enrollment) error {
	return s.db.WithContext(ctx).Save(enrollment).Error
}
