package controllers

import (
	"encoding/json"

	"lms/classroom"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// applyLessonRequest copies a validated payload onto a lesson row. For quiz
// lessons the quiz body must decode into a usable definition.
func applyLessonRequest(lesson *courseModels.Lesson, reqData *courseValidator.LessonRequest) (bool, string) {
	lesson.Title = reqData.Title
	lesson.Description = reqData.Description
	lesson.Type = reqData.Type
	lesson.ContentURL = reqData.ContentURL
	lesson.Points = reqData.Points
	lesson.AvailableFrom = reqData.AvailableFrom
	lesson.AvailableUntil = reqData.AvailableUntil
	if reqData.IsPublished != nil {
		lesson.IsPublished = *reqData.IsPublished
	}

	if reqData.Type == courseModels.LessonTypeQuiz {
		if len(reqData.QuizData) == 0 {
			return false, "Quiz lessons require quiz data!"
		}
		var quiz classroom.QuizDefinition
		if err := json.Unmarshal(reqData.QuizData, &quiz); err != nil {
			return false, "Quiz data is not valid!"
		}
		if len(quiz.Questions) == 0 {
			return false, "Quiz must have at least one question!"
		}
		for _, question := range quiz.Questions {
			if len(question.Options) == 0 {
				return false, "Every quiz question needs at least one option!"
			}
		}
		lesson.QuizData = datatypes.JSON(reqData.QuizData)
	} else {
		lesson.QuizData = nil
	}

	return true, ""
}

// AdminCreateLesson adds a lesson to a section
func AdminCreateLesson(c *fiber.Ctx) error {
	sectionID := c.Locals("sectionID").(uint)

	var section courseModels.Section
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", sectionID, false).First(&section).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Section not found!", nil)
	}

	var module courseModels.Module
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", section.ModuleID, false).First(&module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
	}

	reqData := c.Locals("validatedLesson").(*courseValidator.LessonRequest)

	lesson := courseModels.Lesson{
		CourseID:  module.CourseID,
		SectionID: sectionID,
	}
	if ok, message := applyLessonRequest(&lesson, reqData); !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, message, nil)
	}
	if reqData.OrderIndex != nil {
		lesson.OrderIndex = *reqData.OrderIndex
	} else {
		lesson.OrderIndex = nextOrderIndex(&courseModels.Lesson{}, "section_id", sectionID)
	}

	if err := database.Database.Db.Create(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

// AdminUpdateLesson updates an existing lesson
func AdminUpdateLesson(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonID").(uint)

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	reqData := c.Locals("validatedLesson").(*courseValidator.LessonRequest)

	if ok, message := applyLessonRequest(&lesson, reqData); !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, message, nil)
	}
	if reqData.OrderIndex != nil {
		lesson.OrderIndex = *reqData.OrderIndex
	}

	if err := database.Database.Db.Save(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

// AdminDeleteLesson soft-deletes a lesson
func AdminDeleteLesson(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonID").(uint)

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	lesson.IsDeleted = true
	if err := database.Database.Db.Save(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

// AdminImportGIFTQuiz converts GIFT formatted text into the quiz body of an
// existing quiz lesson
func AdminImportGIFTQuiz(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonID").(uint)

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	if !lesson.IsQuiz() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Lesson is not a quiz!", nil)
	}

	reqData := c.Locals("validatedGIFT").(*courseValidator.GIFTImportRequest)

	quiz, err := classroom.ParseGIFT(reqData.Text)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "GIFT text has no usable questions!", nil)
	}

	encoded, err := json.Marshal(quiz)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to encode quiz!", nil)
	}

	lesson.QuizData = datatypes.JSON(encoded)
	if err := database.Database.Db.Save(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz imported successfully!", fiber.Map{
		"lesson_id": lesson.ID,
		"questions": len(quiz.Questions),
	})
}
