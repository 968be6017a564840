package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all learner-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Catalog
	courseGroup.Get("/list", middleware.JWTMiddleware, validators.Paginated(), controllers.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseDetails)

	// Enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.CourseID(), controllers.EnrollInCourse)

	// Classroom view and lesson navigation
	courseGroup.Get("/:course_id/classroom", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.GetClassroom)
	courseGroup.Get("/:course_id/lesson/:lesson_id", middleware.JWTMiddleware, validators.CourseIDParam(), validators.LessonID(), controllers.GetLessonView)

	// Lesson completion
	courseGroup.Post("/:course_id/lesson/:lesson_id/toggle", middleware.JWTMiddleware, validators.CourseIDParam(), validators.LessonID(), controllers.ToggleLesson)

	// Quiz sessions
	courseGroup.Post("/:course_id/lesson/:lesson_id/quiz/start", middleware.JWTMiddleware, validators.CourseIDParam(), validators.LessonID(), controllers.StartQuiz)
	courseGroup.Post("/:course_id/lesson/:lesson_id/quiz/select", middleware.JWTMiddleware, validators.CourseIDParam(), validators.LessonID(), validators.QuizSelectBody(), controllers.SelectQuizOption)
	courseGroup.Post("/:course_id/lesson/:lesson_id/quiz/next", middleware.JWTMiddleware, validators.CourseIDParam(), validators.LessonID(), controllers.NextQuizQuestion)
	courseGroup.Post("/:course_id/lesson/:lesson_id/quiz/prev", middleware.JWTMiddleware, validators.CourseIDParam(), validators.LessonID(), controllers.PrevQuizQuestion)
	courseGroup.Post("/:course_id/lesson/:lesson_id/quiz/submit", middleware.JWTMiddleware, validators.CourseIDParam(), validators.LessonID(), controllers.SubmitQuiz)
	courseGroup.Get("/:course_id/lesson/:lesson_id/quiz/result", middleware.JWTMiddleware, validators.CourseIDParam(), validators.LessonID(), controllers.GetQuizResult)

	// Progress tracking
	courseGroup.Get("/:course_id/progress", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.GetCourseProgress)

	// Learner enrollments
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, validators.Paginated(), controllers.GetEnrollments)
}
