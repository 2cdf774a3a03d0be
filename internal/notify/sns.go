package notify

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "document-workflow/internal/common/errors"
	"document-workflow/internal/models"
)

// TopicPublisher is satisfied by *aws.SNSClient.
type TopicPublisher interface {
	PublishToTopic(ctx context.Context, topicARN, subject, message string, attributes map[string]string) (string, error)
}

// SNSNotifier fans notifications out through an SNS topic; subscribers filter
// on the level and sessionId attributes.
type SNSNotifier struct {
	client   TopicPublisher
	topicARN string
}

func NewSNSNotifier(client TopicPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (n *SNSNotifier) Notify(ctx context.Context, msg models.Notification) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return apperrors.NewNotificationFailedError("sns", err)
	}
	attrs := map[string]string{"level": string(msg.Level)}
	if msg.SessionID != "" {
		attrs["sessionId"] = msg.SessionID
	}
	if msg.Code != "" {
		attrs["code"] = msg.Code
	}
	subject := fmt.Sprintf("[%s] document workflow", msg.Level)
	if _, err := n.client.PublishToTopic(ctx, n.topicARN, subject, string(body), attrs); err != nil {
		return apperrors.NewNotificationFailedError("sns", err)
	}
	return nil
}
