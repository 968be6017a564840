package controllers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"lms/classroom"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type enrollmentWithUser struct {
	courseModels.Enrollment
	UserName  string
	UserEmail string
}

type learnerReportRow struct {
	UserID      uint    `json:"user_id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Status      string  `json:"status"`
	Progress    int     `json:"progress"`
	Completed   int     `json:"completed_lessons"`
	Total       int     `json:"total_lessons"`
	Score       float64 `json:"total_score"`
	CompletedAt *string `json:"completed_at"`
}

// buildCourseReport loads a course's roster and computes one row per
// enrolled learner against the current content tree.
func buildCourseReport(ctx context.Context, courseID uint) (*classroom.Tree, []learnerReportRow, error) {
	store := classroom.NewStore(database.Database.Db)

	raw, err := store.LoadCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	tree, err := classroom.Normalize(raw)
	if err != nil {
		return nil, nil, err
	}

	var enrollments []enrollmentWithUser
	if err := database.Database.Db.
		Table("enrollments").
		Select("enrollments.*, users.name AS user_name, users.email AS user_email").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.course_id = ? AND enrollments.is_deleted = ?", courseID, false).
		Order("users.name asc").
		Scan(&enrollments).Error; err != nil {
		return nil, nil, err
	}

	rows := make([]learnerReportRow, 0, len(enrollments))
	for i := range enrollments {
		row := &enrollments[i]

		tracker, err := classroom.NewTracker(&row.Enrollment, nil)
		if err != nil {
			continue
		}
		tracker.Reconcile(tree.FlatLessons)

		var totalScore float64
		for _, lesson := range tree.FlatLessons {
			if score, ok := tracker.Score(lesson.ID); ok {
				totalScore += score
			}
		}

		report := learnerReportRow{
			UserID:    row.UserID,
			Name:      row.UserName,
			Email:     row.UserEmail,
			Status:    row.Status,
			Progress:  tracker.OverallPercent(tree.FlatLessons),
			Completed: tracker.CompletedCount(),
			Total:     len(tree.FlatLessons),
			Score:     totalScore,
		}
		if row.CompletedAt != nil {
			stamp := row.CompletedAt.Format(time.RFC3339)
			report.CompletedAt = &stamp
		}
		rows = append(rows, report)
	}

	return tree, rows, nil
}

// AdminCourseReport returns per-learner progress for a course
func AdminCourseReport(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	tree, rows, err := buildCourseReport(c.Context(), courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Report generated successfully!", fiber.Map{
		"course":   tree.Course.Title,
		"lessons":  len(tree.FlatLessons),
		"learners": rows,
	})
}

// AdminExportCourseReport streams the course report as an xlsx workbook
func AdminExportCourseReport(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	_, rows, err := buildCourseReport(c.Context(), courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := "Progress"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"Learner", "Email", "Status", "Progress %", "Completed", "Total Lessons", "Total Score", "Completed At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(sheet, cell, header)
	}

	for i, row := range rows {
		values := []interface{}{row.Name, row.Email, row.Status, row.Progress, row.Completed, row.Total, row.Score}
		if row.CompletedAt != nil {
			values = append(values, *row.CompletedAt)
		} else {
			values = append(values, "")
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			file.SetCellValue(sheet, cell, value)
		}
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to build report file!", nil)
	}

	filename := fmt.Sprintf("course-%d-progress.xlsx", courseID)
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buffer.Bytes())
}
