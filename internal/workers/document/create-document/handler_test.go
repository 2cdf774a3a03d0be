// internal/workers/document/create-document/handler_test.go
package createdocument

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/events"
	"document-workflow/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, InvoiceTimeout: time.Second}
}

type fakeBackend struct {
	creates    int
	createErr  error
	invoice    *models.Invoice
	invoiceErr error
	last       *models.DocumentPayload
}

func (b *fakeBackend) CreateDocument(_ context.Context, p *models.DocumentPayload) (*models.CreatedDocument, error) {
	b.creates++
	b.last = p
	if b.createErr != nil {
		return nil, b.createErr
	}
	return &models.CreatedDocument{ID: "DOC-1", Number: "2026/0001"}, nil
}

func (b *fakeBackend) GetInvoice(_ context.Context, id string) (*models.Invoice, error) {
	if b.invoiceErr != nil {
		return nil, b.invoiceErr
	}
	if b.invoice == nil {
		return &models.Invoice{DocumentID: id}, nil
	}
	return b.invoice, nil
}

type recordingPublisher struct {
	events []events.DocumentCreated
	err    error
}

func (p *recordingPublisher) PublishDocumentCreated(_ context.Context, evt events.DocumentCreated) error {
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func createTestPayload() *models.DocumentPayload {
	return &models.DocumentPayload{
		TaxID:            "123456789",
		DocumentTypeCode: "LIC",
		AssociateID:      "ASSOC-1",
		Files:            []models.Attachment{},
		Descriptions:     []string{},
	}
}

// ==========================
// Service Tests
// ==========================

func TestService_Submit_NoInvoiceClosesImmediately(t *testing.T) {
	b := &fakeBackend{}
	pub := &recordingPublisher{}
	svc := NewService(ServiceDependencies{Backend: b, Events: pub, Logger: logger.NewTestLogger(t)}, createTestConfig())

	sub, err := svc.Submit(context.Background(), createTestPayload())
	require.NoError(t, err)
	assert.Equal(t, "DOC-1", sub.Document.ID)
	assert.False(t, sub.RedirectToPayment)
	assert.Equal(t, models.PaymentStatusPending, b.last.PaymentStatus)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "LIC", pub.events[0].DocumentTypeCode)
}

func TestService_Submit_PositiveInvoiceRedirects(t *testing.T) {
	b := &fakeBackend{invoice: &models.Invoice{DocumentID: "DOC-1", Amount: decimal.RequireFromString("12.30")}}
	svc := NewService(ServiceDependencies{Backend: b, Logger: logger.NewTestLogger(t)}, createTestConfig())

	sub, err := svc.Submit(context.Background(), createTestPayload())
	require.NoError(t, err)
	assert.True(t, sub.RedirectToPayment)
}

func TestService_Submit_InvoiceAndEventFailuresAreNotFatal(t *testing.T) {
	b := &fakeBackend{invoiceErr: errors.New("timeout")}
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewService(ServiceDependencies{Backend: b, Events: pub, Logger: logger.NewTestLogger(t)}, createTestConfig())

	sub, err := svc.Submit(context.Background(), createTestPayload())
	require.NoError(t, err)
	assert.Nil(t, sub.Invoice)
	assert.False(t, sub.RedirectToPayment)
}

func TestService_Submit_FailureCallsOnceAndSurfacesMessage(t *testing.T) {
	b := &fakeBackend{createErr: apperrors.NewSubmissionFailedError("Duplicate request", errors.New("409"))}
	pub := &recordingPublisher{}
	svc := NewService(ServiceDependencies{Backend: b, Events: pub, Logger: logger.NewTestLogger(t)}, createTestConfig())

	_, err := svc.Submit(context.Background(), createTestPayload())
	require.Error(t, err)
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Duplicate request", stdErr.Message)
	assert.Equal(t, 1, b.creates)
	assert.Empty(t, pub.events)
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute_AlignsAttachments(t *testing.T) {
	b := &fakeBackend{invoice: &models.Invoice{Amount: decimal.NewFromInt(5)}}
	svc := NewService(ServiceDependencies{Backend: b, Logger: logger.NewTestLogger(t)}, createTestConfig())
	h := NewHandler(createTestConfig(), svc, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Payload: *createTestPayload(),
		Attachments: []AttachmentInput{
			{Name: "plan.pdf", ContentType: "application/pdf", Description: "Floor plan", Content: []byte("%PDF")},
			{Name: "photo.png", ContentType: "image/png", Description: "Facade", Content: []byte{0x89}},
		},
	})
	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.True(t, output.RedirectToPayment)
	assert.Equal(t, "5.00", output.InvoiceAmount)

	require.Len(t, b.last.Files, 2)
	assert.Equal(t, []string{"Floor plan", "Facade"}, b.last.Descriptions)
	assert.EqualValues(t, 4, b.last.Files[0].Size)
}
