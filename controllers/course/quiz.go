package controllers

import (
	"errors"
	"log"

	"lms/classroom"
	"lms/middleware"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// quizSessions holds the open quiz attempts for this process. Sessions
// are ephemeral: they never touch the database and die on submit or
// restart.
var quizSessions = classroom.NewSessionRegistry()

// quizStatePayload is what the learner sees of a session: never the
// correct-answer flags.
func quizStatePayload(s *classroom.Session) fiber.Map {
	total := len(s.Quiz.Questions)
	switch {
	case s.Finished():
		return fiber.Map{"state": "finished", "total": total}
	case s.Index() < 0:
		return fiber.Map{"state": "intro", "total": total, "session_id": s.ID}
	}

	q := s.Quiz.Questions[s.Index()]
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = opt.Text
	}
	payload := fiber.Map{
		"state":      "question",
		"session_id": s.ID,
		"index":      s.Index(),
		"total":      total,
		"text":       q.Text,
		"options":    options,
		"is_last":    s.Index() == total-1,
	}
	if selected, ok := s.Answer(s.Index()); ok {
		payload["selected"] = selected
	}
	return payload
}

// StartQuiz opens a quiz attempt. A lesson that already has a recorded
// score resolves to the stored result, never to a fresh attempt.
func StartQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	lc, ok := loadLearnerContext(c, userID, courseID)
	if !ok {
		return nil
	}

	lesson, found := lc.Tree.FindLesson(lessonID)
	if !found {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}
	if !lesson.IsQuiz() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Lesson is not a quiz!", nil)
	}

	// Single attempt is enforced by the session itself; a scored lesson
	// resolves to the stored result view instead of a fresh attempt.
	score, scored := lc.Tracker.Score(lessonID)
	session, err := classroom.NewSession(lessonID, lc.Tree.Quizzes[lessonID], lesson.Points, scored)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz already submitted!", fiber.Map{
			"state":      "result",
			"score":      score,
			"max_points": lesson.Points,
		})
	}
	if err := session.Start(); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz action!", nil)
	}

	// A quiz with no questions finishes on start: score it right away.
	if session.Finished() {
		return finishQuiz(c, lc, session, userID)
	}

	quizSessions.Put(userID, session)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz started!", quizStatePayload(session))
}

// SelectQuizOption records the learner's choice for the current question.
func SelectQuizOption(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)

	session, found := quizSessions.Get(userID, lessonID)
	if !found {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No quiz in progress!", nil)
	}

	reqData := c.Locals("validatedQuizSelect").(*courseValidator.QuizSelectRequest)
	if err := session.Select(*reqData.OptionIndex); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz action!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Answer recorded!", quizStatePayload(session))
}

// NextQuizQuestion advances the session to the following question.
func NextQuizQuestion(c *fiber.Ctx) error {
	return navigateQuiz(c, func(s *classroom.Session) error { return s.Next() })
}

// PrevQuizQuestion steps the session back one question.
func PrevQuizQuestion(c *fiber.Ctx) error {
	return navigateQuiz(c, func(s *classroom.Session) error { return s.Prev() })
}

func navigateQuiz(c *fiber.Ctx, move func(*classroom.Session) error) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)

	session, found := quizSessions.Get(userID, lessonID)
	if !found {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No quiz in progress!", nil)
	}
	if err := move(session); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz action!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", quizStatePayload(session))
}

// SubmitQuiz finishes the attempt from the last question, scores it and
// persists the enrollment. A submit whose save failed may be retried; the
// recorded answers are kept until the save goes through.
func SubmitQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	session, found := quizSessions.Get(userID, lessonID)
	if !found {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No quiz in progress!", nil)
	}

	// A session that already reached Finished is a retry after a failed
	// save; skip the transition and persist again.
	if !session.Finished() {
		if err := session.Submit(); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz action!", nil)
		}
	}

	lc, ok := loadLearnerContext(c, userID, courseID)
	if !ok {
		return nil
	}
	return finishQuiz(c, lc, session, userID)
}

// finishQuiz records the terminal score, persists the enrollment and
// drops the session once the save sticks.
func finishQuiz(c *fiber.Ctx, lc *learnerContext, session *classroom.Session, userID uint) error {
	score, err := session.Score()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz action!", nil)
	}

	wasCompleted := lc.Tracker.Enrollment().Status == "COMPLETED"

	if err := lc.Viewer.OnQuizFinished(c.Context(), session.LessonID, score); err != nil {
		if errors.Is(err, classroom.ErrSaveInFlight) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "A save is already in progress, please retry!", nil)
		}
		log.Printf("Error saving quiz score for user %d lesson %d: %v", userID, session.LessonID, err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Score could not be saved, please retry!", fiber.Map{
			"score": score,
		})
	}

	quizSessions.Remove(userID, session.LessonID)
	notifyIfCourseCompleted(lc, wasCompleted, userID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted!", fiber.Map{
		"state":      "result",
		"score":      score,
		"max_points": session.MaxPoints,
		"progress":   lc.Tracker.OverallPercent(lc.Tree.FlatLessons),
	})
}

// GetQuizResult returns the stored result for a scored quiz, including
// per-question feedback for review.
func GetQuizResult(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	lc, ok := loadLearnerContext(c, userID, courseID)
	if !ok {
		return nil
	}

	lesson, found := lc.Tree.FindLesson(lessonID)
	if !found || !lesson.IsQuiz() {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	score, scored := lc.Tracker.Score(lessonID)
	if !scored {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not submitted yet!", nil)
	}

	// Once scored, the learner may review questions and feedback.
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Result fetched successfully!", fiber.Map{
		"score":      score,
		"max_points": lesson.Points,
		"questions":  lc.Tree.Quizzes[lessonID].Questions,
	})
}
