package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up course management routes for admins
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"))

	// Courses
	adminGroup.Get("/course/list", validators.Paginated(), controllers.AdminListCourses)
	adminGroup.Post("/course", validators.CourseBody(), controllers.AdminCreateCourse)
	adminGroup.Put("/course/:id", validators.CourseID(), validators.CourseBody(), controllers.AdminUpdateCourse)
	adminGroup.Delete("/course/:id", validators.CourseID(), controllers.AdminDeleteCourse)

	// Modules
	adminGroup.Post("/course/:id/module", validators.CourseID(), validators.ModuleBody(), controllers.AdminCreateModule)
	adminGroup.Put("/module/:module_id", validators.ModuleID(), validators.ModuleBody(), controllers.AdminUpdateModule)
	adminGroup.Delete("/module/:module_id", validators.ModuleID(), controllers.AdminDeleteModule)

	// Sections
	adminGroup.Post("/module/:module_id/section", validators.ModuleID(), validators.SectionBody(), controllers.AdminCreateSection)
	adminGroup.Put("/section/:section_id", validators.SectionID(), validators.SectionBody(), controllers.AdminUpdateSection)
	adminGroup.Delete("/section/:section_id", validators.SectionID(), controllers.AdminDeleteSection)

	// Lessons
	adminGroup.Post("/section/:section_id/lesson", validators.SectionID(), validators.LessonBody(), controllers.AdminCreateLesson)
	adminGroup.Put("/lesson/:lesson_id", validators.LessonID(), validators.LessonBody(), controllers.AdminUpdateLesson)
	adminGroup.Delete("/lesson/:lesson_id", validators.LessonID(), controllers.AdminDeleteLesson)
	adminGroup.Post("/lesson/:lesson_id/quiz/gift", validators.LessonID(), validators.GIFTBody(), controllers.AdminImportGIFTQuiz)

	// Reports
	adminGroup.Get("/course/:id/report", validators.CourseID(), controllers.AdminCourseReport)
	adminGroup.Get("/course/:id/report/export", validators.CourseID(), controllers.AdminExportCourseReport)
}
