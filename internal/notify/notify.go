// Package notify delivers user-facing notifications (toasts) to one or more sinks.
package notify

import (
	"context"
	"errors"
	"time"

	"document-workflow/internal/common/logger"
	"document-workflow/internal/models"

	"github.com/google/uuid"
)

// Notifier is a non-blocking message sink. Callers log returned errors; a
// failed notification never changes wizard state.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// New builds a notification with an id and timestamp.
func New(sessionID string, level models.NotificationLevel, code, message string) models.Notification {
	return models.Notification{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Level:     level,
		Code:      code,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithFields(map[string]interface{}{"component": "notifier"})}
}

func (n *LogNotifier) Notify(_ context.Context, msg models.Notification) error {
	fields := map[string]interface{}{
		"notificationId": msg.ID,
		"sessionId":      msg.SessionID,
		"level":          msg.Level,
		"code":           msg.Code,
	}
	switch msg.Level {
	case models.LevelError:
		n.logger.Error(msg.Message, fields)
	case models.LevelWarning:
		n.logger.Warn(msg.Message, fields)
	default:
		n.logger.Info(msg.Message, fields)
	}
	return nil
}

// Multi delivers to every sink, continuing past failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg models.Notification) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
