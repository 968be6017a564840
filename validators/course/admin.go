package courseValidator

import (
	"encoding/json"
	"time"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Title        string `json:"title" validate:"required,min=3,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	Author       string `json:"author" validate:"max=200"`
	Status       string `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE INACTIVE"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
	IsPublished  *bool  `json:"is_published"`
}

// ModuleRequest is the payload for creating or updating a module.
type ModuleRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=200"`
	OrderIndex *int   `json:"order_index" validate:"omitempty,gte=0"`
}

// SectionRequest is the payload for creating or updating a section.
type SectionRequest struct {
	Title      string `json:"title" validate:"max=200"`
	OrderIndex *int   `json:"order_index" validate:"omitempty,gte=0"`
}

// LessonRequest is the payload for creating or updating a lesson.
type LessonRequest struct {
	Title          string          `json:"title" validate:"required,min=1,max=200"`
	Description    string          `json:"description" validate:"max=5000"`
	Type           string          `json:"type" validate:"required,oneof=VIDEO AUDIO DOCUMENT QUIZ TASK MATERIAL"`
	ContentURL     string          `json:"content_url" validate:"omitempty,url"`
	Points         float64         `json:"points" validate:"gte=0"`
	OrderIndex     *int            `json:"order_index" validate:"omitempty,gte=0"`
	IsPublished    *bool           `json:"is_published"`
	AvailableFrom  *time.Time      `json:"available_from"`
	AvailableUntil *time.Time      `json:"available_until"`
	QuizData       json.RawMessage `json:"quiz_data"`
}

// GIFTImportRequest carries raw GIFT text to convert into a quiz.
type GIFTImportRequest struct {
	Text string `json:"text" validate:"required"`
}

func validatedBody[T any](localKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[fieldErr.Field()] = "Failed on rule: " + fieldErr.Tag()
			}
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals(localKey, reqData)
		return c.Next()
	}
}

// CourseBody validates a course create/update payload.
func CourseBody() fiber.Handler { return validatedBody[CourseRequest]("validatedCourse") }

// ModuleBody validates a module create/update payload.
func ModuleBody() fiber.Handler { return validatedBody[ModuleRequest]("validatedModule") }

// SectionBody validates a section create/update payload.
func SectionBody() fiber.Handler { return validatedBody[SectionRequest]("validatedSection") }

// LessonBody validates a lesson create/update payload.
func LessonBody() fiber.Handler { return validatedBody[LessonRequest]("validatedLesson") }

// GIFTBody validates a GIFT import payload.
func GIFTBody() fiber.Handler { return validatedBody[GIFTImportRequest]("validatedGIFT") }
