package courseValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// Pagination is the validated page/limit pair for list endpoints.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// paramID validates a positive integer route parameter and stores it in
// Locals under the given key.
func paramID(param, localKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Params(param))
		if raw == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing "+param+" parameter!", nil)
		}

		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+param+" parameter!", nil)
		}

		c.Locals(localKey, uint(id))
		return c.Next()
	}
}

// CourseID validates the :id route parameter.
func CourseID() fiber.Handler { return paramID("id", "courseID") }

// CourseIDParam validates the :course_id route parameter.
func CourseIDParam() fiber.Handler { return paramID("course_id", "courseID") }

// ModuleID validates the :module_id route parameter.
func ModuleID() fiber.Handler { return paramID("module_id", "moduleID") }

// SectionID validates the :section_id route parameter.
func SectionID() fiber.Handler { return paramID("section_id", "sectionID") }

// LessonID validates the :lesson_id route parameter.
func LessonID() fiber.Handler { return paramID("lesson_id", "lessonID") }

// Paginated validates optional page/limit query parameters with defaults.
func Paginated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pagination := &Pagination{Page: 1, Limit: 10}

		if raw := c.Query("page"); raw != "" {
			page, err := strconv.Atoi(raw)
			if err != nil || page < 1 {
				return middleware.ValidationErrorResponse(c, map[string]string{"page": "Page must be greater than 0!"})
			}
			pagination.Page = page
		}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > 100 {
				return middleware.ValidationErrorResponse(c, map[string]string{"limit": "Limit must be between 1 and 100!"})
			}
			pagination.Limit = limit
		}

		c.Locals("pagination", pagination)
		return c.Next()
	}
}
