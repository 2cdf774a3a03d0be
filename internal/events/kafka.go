package events

import (
	"context"
	"encoding/json"
	"time"

	"document-workflow/internal/common/config"
	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	logger logger.Logger
}

// NewKafkaPublisher builds a writer keyed by document id so events for one
// document stay ordered on a partition.
func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return NewKafkaPublisherWithWriter(w, cfg.Topic, log)
}

func NewKafkaPublisherWithWriter(w MessageWriter, topic string, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: log.WithFields(map[string]interface{}{"component": "kafka-publisher", "topic": topic}),
	}
}

func (p *KafkaPublisher) PublishDocumentCreated(ctx context.Context, evt DocumentCreated) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return errors.NewInternalError(err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.DocumentID),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
			{Key: "event-id", Value: []byte(evt.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event", map[string]interface{}{
			"eventId":    evt.ID,
			"documentId": evt.DocumentID,
			"error":      err.Error(),
		})
		return errors.NewEventPublishFailedError(p.topic, err)
	}
	p.logger.Debug("event published", map[string]interface{}{"eventId": evt.ID, "documentId": evt.DocumentID})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
