package courseValidator

import (
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// QuizSelectRequest is the learner's option choice for the current question.
type QuizSelectRequest struct {
	OptionIndex *int `json:"option_index" validate:"required,gte=0"`
}

// QuizSelectBody validates an option selection payload.
func QuizSelectBody() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuizSelectRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if reqData.OptionIndex == nil || *reqData.OptionIndex < 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"option_index": "Option index must be zero or greater!",
			})
		}
		c.Locals("validatedQuizSelect", reqData)
		return c.Next()
	}
}
