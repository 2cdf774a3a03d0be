package notify

import (
	"context"
	"fmt"
	"strings"

	apperrors "document-workflow/internal/common/errors"
	"document-workflow/internal/models"
)

// MailSender is satisfied by *aws.SESClient.
type MailSender interface {
	SendText(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

// EmailNotifier mails notifications of selected levels to operators.
type EmailNotifier struct {
	sender MailSender
	from   string
	to     []string
	levels map[models.NotificationLevel]bool
}

func NewEmailNotifier(sender MailSender, from string, to []string, levels []string) *EmailNotifier {
	lv := make(map[models.NotificationLevel]bool, len(levels))
	for _, l := range levels {
		lv[models.NotificationLevel(strings.ToLower(l))] = true
	}
	return &EmailNotifier{sender: sender, from: from, to: to, levels: lv}
}

func (n *EmailNotifier) Notify(ctx context.Context, msg models.Notification) error {
	if !n.levels[msg.Level] || len(n.to) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Document workflow %s: %s", msg.Level, msg.Code)
	var body strings.Builder
	fmt.Fprintf(&body, "%s\n\n", msg.Message)
	fmt.Fprintf(&body, "Session: %s\n", msg.SessionID)
	fmt.Fprintf(&body, "Code: %s\n", msg.Code)
	fmt.Fprintf(&body, "Time: %s\n", msg.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	if _, err := n.sender.SendText(ctx, n.from, n.to, subject, body.String()); err != nil {
		return apperrors.NewNotificationFailedError("email", err)
	}
	return nil
}
