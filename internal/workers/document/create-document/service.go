package createdocument

import (
	"context"
	"time"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/metrics"
	"document-workflow/internal/common/observability"
	"document-workflow/internal/events"
	"document-workflow/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DocumentBackend is the part of the backend used for submission.
type DocumentBackend interface {
	CreateDocument(ctx context.Context, payload *models.DocumentPayload) (*models.CreatedDocument, error)
	GetInvoice(ctx context.Context, documentID string) (*models.Invoice, error)
}

type ServiceDependencies struct {
	Backend DocumentBackend
	// Optional.
	Events events.Publisher
	Logger logger.Logger
}

type Service struct {
	config  *Config
	backend DocumentBackend
	events  events.Publisher
	logger  logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	pub := deps.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		config:  config,
		backend: deps.Backend,
		events:  pub,
		logger:  deps.Logger.WithFields(map[string]interface{}{"component": "document-submitter"}),
	}
}

// Submit calls the create endpoint exactly once. After a successful create the
// invoice is checked; a positive amount sets RedirectToPayment. Invoice and
// event failures are logged and never fail the submission.
func (s *Service) Submit(ctx context.Context, payload *models.DocumentPayload) (*Submission, error) {
	if payload.PaymentStatus == "" {
		payload.PaymentStatus = models.PaymentStatusPending
	}

	ctx, span := observability.Tracer().Start(ctx, "document.submit")
	span.SetAttributes(
		attribute.String("documentTypeCode", payload.DocumentTypeCode),
		attribute.Int("files", len(payload.Files)),
	)
	defer span.End()

	created, err := s.backend.CreateDocument(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		metrics.Submissions.WithLabelValues("failed").Inc()
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewSubmissionFailedError("", err)
	}
	metrics.Submissions.WithLabelValues("created").Inc()

	sub := &Submission{Document: created}
	sub.Invoice = s.checkInvoice(ctx, created.ID)
	sub.RedirectToPayment = sub.Invoice.RequiresPayment()

	evt := events.NewDocumentCreated(created.ID)
	evt.DocumentNumber = created.Number
	evt.DocumentTypeCode = payload.DocumentTypeCode
	evt.TaxID = payload.TaxID
	evt.AssociateID = payload.AssociateID
	evt.IsInternal = payload.IsInternal
	evt.AttachmentCount = len(payload.Files)
	evt.RedirectToPayment = sub.RedirectToPayment
	if err := s.events.PublishDocumentCreated(ctx, evt); err != nil {
		s.logger.Warn("document created event not published", map[string]interface{}{
			"documentId": created.ID,
			"error":      err.Error(),
		})
	}

	s.logger.Info("document submitted", map[string]interface{}{
		"documentId":        created.ID,
		"redirectToPayment": sub.RedirectToPayment,
	})
	return sub, nil
}

func (s *Service) checkInvoice(ctx context.Context, documentID string) *models.Invoice {
	if s.config.InvoiceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.InvoiceTimeout)
		defer cancel()
	}
	start := time.Now()
	inv, err := s.backend.GetInvoice(ctx, documentID)
	metrics.LookupDuration.WithLabelValues("invoice").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LookupsTotal.WithLabelValues("invoice", "error").Inc()
		s.logger.Warn("invoice lookup failed", map[string]interface{}{
			"documentId": documentID,
			"error":      err.Error(),
		})
		return nil
	}
	metrics.LookupsTotal.WithLabelValues("invoice", "found").Inc()
	return inv
}
