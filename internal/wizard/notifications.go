package wizard

import (
	"context"

	"document-workflow/internal/models"
	"document-workflow/internal/notify"
)

// emit queues a notification; it is delivered by flush after the lock is
// released. Must be called with the lock held.
func (s *Session) emit(level models.NotificationLevel, code, message string) {
	n := notify.New(s.id, level, code, message)
	s.notifications = append(s.notifications, n)
	if over := len(s.notifications) - s.config.NotificationBacklog; over > 0 {
		s.notifications = append([]models.Notification(nil), s.notifications[over:]...)
	}
	s.pending = append(s.pending, n)
}

// flush delivers queued notifications. Must be called without the lock; the
// usual pattern is `defer s.flush(ctx)` before locking.
func (s *Session) flush(ctx context.Context) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, n := range pending {
		if err := s.deps.Notifier.Notify(ctx, n); err != nil {
			s.logger.Warn("notification delivery failed", map[string]interface{}{
				"notificationId": n.ID,
				"error":          err.Error(),
			})
		}
	}
}

// Notifications returns the notifications raised in this session, oldest first.
func (s *Session) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}
