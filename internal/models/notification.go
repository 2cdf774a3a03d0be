// internal/models/notification.go
package models

import "time"

type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelInfo    NotificationLevel = "info"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// Notification is a non-blocking message for the user (toast).
type Notification struct {
	ID        string            `json:"id"`
	SessionID string            `json:"sessionId,omitempty"`
	Level     NotificationLevel `json:"level"`
	Code      string            `json:"code,omitempty"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"createdAt"`
}
