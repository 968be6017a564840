package utils

import (
	"log"
	"time"

	"lms/config"

	"github.com/go-resty/resty/v2"
)

// NotifyCourseCompleted posts a completion event to the configured webhook.
// No-op when no webhook URL is configured.
func NotifyCourseCompleted(userID uint, courseID uint, courseTitle string) {
	url := config.AppConfig.CompletionWebhookURL
	if url == "" {
		return
	}

	client := resty.New().SetTimeout(10 * time.Second)

	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"event":        "course.completed",
			"user_id":      userID,
			"course_id":    courseID,
			"course_title": courseTitle,
			"completed_at": time.Now().UTC().Format(time.RFC3339),
		}).
		Post(url)
	if err != nil {
		log.Println("[WEBHOOK] Completion notify failed:", err)
		return
	}
	if resp.StatusCode() >= 400 {
		log.Println("[WEBHOOK] Completion notify got status:", resp.Status())
	}
}
