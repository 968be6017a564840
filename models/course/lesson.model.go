package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lesson types
const (
	LessonTypeVideo    = "VIDEO"
	LessonTypeAudio    = "AUDIO"
	LessonTypeDocument = "DOCUMENT"
	LessonTypeQuiz     = "QUIZ"
	LessonTypeTask     = "TASK"
	LessonTypeMaterial = "MATERIAL"
)

// Lesson represents a single unit of content within a section
type Lesson struct {
	gorm.Model
	CourseID       uint           `json:"course_id" gorm:"index;not null"`
	SectionID      uint           `json:"section_id" gorm:"index;not null"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Type           string         `json:"type" gorm:"default:'MATERIAL'"`
	ContentURL     string         `json:"content_url"`
	Points         float64        `json:"points" gorm:"default:0"`
	OrderIndex     int            `json:"order_index" gorm:"default:0"` // Order within section
	IsPublished    bool           `json:"is_published" gorm:"default:true"`
	AvailableFrom  *time.Time     `json:"available_from"`
	AvailableUntil *time.Time     `json:"available_until"`
	QuizData       datatypes.JSON `json:"quiz_data"` // QUIZ type only
	IsDeleted      bool           `gorm:"default:false"`
}

// IsQuiz reports whether the lesson is a scored assessment.
func (l Lesson) IsQuiz() bool { return l.Type == LessonTypeQuiz }

// Scorable reports whether the lesson carries a numeric score.
func (l Lesson) Scorable() bool { return l.Type == LessonTypeQuiz }

// Completable reports whether the learner may toggle completion directly.
// Quiz completion is set only by scoring.
func (l Lesson) Completable() bool { return l.Type != LessonTypeQuiz }

// HasContent reports whether the lesson renders an external content URL.
func (l Lesson) HasContent() bool {
	switch l.Type {
	case LessonTypeVideo, LessonTypeAudio, LessonTypeDocument, LessonTypeMaterial:
		return true
	}
	return false
}

// ValidType reports whether the stored type is one of the known variants.
func (l Lesson) ValidType() bool {
	switch l.Type {
	case LessonTypeVideo, LessonTypeAudio, LessonTypeDocument, LessonTypeQuiz, LessonTypeTask, LessonTypeMaterial:
		return true
	}
	return false
}
