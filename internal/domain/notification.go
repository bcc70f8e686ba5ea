package domain

import "time"

type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// Notification is a best-effort, human-readable event derived from job
// activity. Losing notifications loses no business data.
type Notification struct {
	ID        string            `json:"id"`
	JobID     string            `json:"job_id,omitempty"`
	Message   string            `json:"message"`
	Level     NotificationLevel `json:"level"`
	CreatedAt time.Time         `json:"created_at"`
}
