// Package events publishes domain events about created documents.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const TypeDocumentCreated = "document.created"

// DocumentCreated is emitted once per successful submission.
type DocumentCreated struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	DocumentID        string    `json:"documentId"`
	DocumentNumber    string    `json:"documentNumber,omitempty"`
	DocumentTypeCode  string    `json:"documentTypeCode"`
	TaxID             string    `json:"taxId,omitempty"`
	AssociateID       string    `json:"associateId"`
	IsInternal        bool      `json:"isInternal"`
	AttachmentCount   int       `json:"attachmentCount"`
	RedirectToPayment bool      `json:"redirectToPayment"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// NewDocumentCreated stamps a new event id and time.
func NewDocumentCreated(documentID string) DocumentCreated {
	return DocumentCreated{
		ID:         uuid.NewString(),
		Type:       TypeDocumentCreated,
		DocumentID: documentID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishDocumentCreated(ctx context.Context, evt DocumentCreated) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) PublishDocumentCreated(context.Context, DocumentCreated) error { return nil }
func (Nop) Close() error                                                  { return nil }
