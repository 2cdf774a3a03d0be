package events

import (
	"context"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/observability"
)

// MessageName is the BPMN message correlated when a document is created.
const MessageName = "DocumentCreated"

// MessagePublisher is satisfied by *camunda.Client.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, variables map[string]interface{}) error
}

// ZeebePublisher correlates a BPMN message keyed by document id, letting a
// follow-up process (payment, archiving) start or resume.
type ZeebePublisher struct {
	client MessagePublisher
	obs    *observability.Observability
	logger logger.Logger
}

func NewZeebePublisher(client MessagePublisher, log logger.Logger) *ZeebePublisher {
	return &ZeebePublisher{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "zeebe-publisher"}),
	}
}

// WithObservability counts published messages on the OpenTelemetry meter.
func (p *ZeebePublisher) WithObservability(obs *observability.Observability) *ZeebePublisher {
	p.obs = obs
	return p
}

func (p *ZeebePublisher) PublishDocumentCreated(ctx context.Context, evt DocumentCreated) error {
	vars := map[string]interface{}{
		"eventId":           evt.ID,
		"documentId":        evt.DocumentID,
		"documentTypeCode":  evt.DocumentTypeCode,
		"taxId":             evt.TaxID,
		"isInternal":        evt.IsInternal,
		"redirectToPayment": evt.RedirectToPayment,
	}
	err := p.client.PublishMessage(ctx, MessageName, evt.DocumentID, vars)
	p.obs.RecordMessagePublished(ctx, MessageName, err == nil)
	if err != nil {
		p.logger.Error("failed to publish message", map[string]interface{}{
			"documentId": evt.DocumentID,
			"error":      err.Error(),
		})
		return errors.NewEventPublishFailedError(MessageName, err)
	}
	return nil
}

func (p *ZeebePublisher) Close() error { return nil }
