package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	apperrors "document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSNS struct {
	topic, subject, message string
	attrs                   map[string]string
	err                     error
}

func (f *fakeSNS) PublishToTopic(_ context.Context, topic, subject, message string, attrs map[string]string) (string, error) {
	f.topic, f.subject, f.message, f.attrs = topic, subject, message, attrs
	return "msg-1", f.err
}

type fakeSES struct {
	sent    int
	subject string
	body    string
}

func (f *fakeSES) SendText(_ context.Context, _ string, _ []string, subject, body string) (string, error) {
	f.sent++
	f.subject, f.body = subject, body
	return "ses-1", nil
}

// ==========================
// Tests
// ==========================

func TestNew_StampsIDAndTime(t *testing.T) {
	n := New("s-1", models.LevelSuccess, "DOCUMENT_CREATED", "Document created")
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Equal(t, "s-1", n.SessionID)
}

func TestSNSNotifier_Notify(t *testing.T) {
	client := &fakeSNS{}
	n := NewSNSNotifier(client, "arn:aws:sns:eu-west-1:000000000000:toasts")

	msg := New("s-1", models.LevelError, "DOCUMENT_SUBMISSION_FAILED", "Duplicate request")
	require.NoError(t, n.Notify(context.Background(), msg))

	assert.Equal(t, "arn:aws:sns:eu-west-1:000000000000:toasts", client.topic)
	assert.Equal(t, "error", client.attrs["level"])
	assert.Equal(t, "s-1", client.attrs["sessionId"])

	var decoded models.Notification
	require.NoError(t, json.Unmarshal([]byte(client.message), &decoded))
	assert.Equal(t, "Duplicate request", decoded.Message)
}

func TestSNSNotifier_Failure(t *testing.T) {
	n := NewSNSNotifier(&fakeSNS{err: errors.New("throttled")}, "arn")

	err := n.Notify(context.Background(), New("s-1", models.LevelInfo, "", "hi"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationFailed))
}

func TestEmailNotifier_FiltersLevels(t *testing.T) {
	ses := &fakeSES{}
	n := NewEmailNotifier(ses, "noreply@example.com", []string{"ops@example.com"}, []string{"ERROR"})

	require.NoError(t, n.Notify(context.Background(), New("s-1", models.LevelInfo, "", "ignored")))
	assert.Zero(t, ses.sent)

	require.NoError(t, n.Notify(context.Background(), New("s-1", models.LevelError, "BACKEND_UNAVAILABLE", "Backend down")))
	assert.Equal(t, 1, ses.sent)
	assert.Contains(t, ses.subject, "BACKEND_UNAVAILABLE")
	assert.Contains(t, ses.body, "Backend down")
}

func TestMulti_ContinuesPastFailures(t *testing.T) {
	ses := &fakeSES{}
	m := Multi{
		NewSNSNotifier(&fakeSNS{err: errors.New("down")}, "arn"),
		NewLogNotifier(logger.NewTestLogger(t)),
		NewEmailNotifier(ses, "a@example.com", []string{"b@example.com"}, []string{"warning"}),
	}

	err := m.Notify(context.Background(), New("s-1", models.LevelWarning, "ENTITY_INCOMPLETE", "Entity data is incomplete"))
	require.Error(t, err)
	assert.Equal(t, 1, ses.sent)
}
