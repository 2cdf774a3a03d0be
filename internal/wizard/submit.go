package wizard

import (
	"context"
	"strings"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/models"
)

// Submit sends the draft to the document-creation endpoint exactly once. It is
// only allowed from Confirmation and re-validates every step first. A failed
// submission keeps every field so the user can retry.
func (s *Session) Submit(ctx context.Context) (*Outcome, error) {
	defer s.flush(ctx)

	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.state != StateConfirmation {
		s.mu.Unlock()
		return nil, errors.NewInvalidStepTransitionError(string(s.state), "submit")
	}
	if result := s.validateAll(); !result.Valid {
		s.mu.Unlock()
		return nil, errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	payload := s.payload()
	s.submitting = true
	s.mu.Unlock()

	// Not tied to the session lifetime: once sent, the creation is not abandoned.
	submission, err := s.deps.Submitter.Submit(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false

	if err != nil {
		msg := errors.NewSubmissionFailedError("", err).Message
		if se, ok := errors.As(err); ok && se.Message != "" {
			msg = se.Message
		}
		s.emit(models.LevelError, string(errors.CodeOf(err)), msg)
		return nil, err
	}

	s.outcome = &Outcome{
		Success:           true,
		CreatedID:         submission.Document.ID,
		RedirectToPayment: submission.RedirectToPayment,
	}
	s.transition("submit", StateSubmitted)
	s.draft = models.NewDocumentDraft()
	s.entities = make(map[Field]*EntityState)
	s.candidates = nil
	s.schema = nil
	s.schemaFor = ""
	s.emit(models.LevelSuccess, "DOCUMENT_CREATED", "Document created successfully")
	s.shutdown(ctx)
	return s.outcome, nil
}

// payload assembles the submission. Must be called with the lock held.
func (s *Session) payload() *models.DocumentPayload {
	d := s.draft
	p := &models.DocumentPayload{
		DocumentTypeCode:   d.DocumentTypeCode,
		AssociateID:        d.AssociateID,
		PresentationMethod: d.PresentationMethod,
		Memo:               d.Memo,
		IsInternal:         d.IsInternal,
		PaymentStatus:      models.PaymentStatusPending,
		Address:            d.Address,
	}
	if !d.IsInternal {
		p.TaxID = d.TaxID
		if d.HasRepresentative {
			p.RepresentativeTaxID = d.RepresentativeTaxID
		}
	}

	p.Parameters = make([]models.PayloadParameter, 0, len(s.schema))
	for _, param := range s.schema {
		v := d.ParamValues[param.ID]
		p.Parameters = append(p.Parameters, models.PayloadParameter{
			ID:    param.ID,
			Value: strings.TrimSpace(v.Value),
			Memo:  v.Memo,
		})
	}

	p.Files = s.files.Attachments()
	p.Descriptions = make([]string, len(p.Files))
	for i, f := range p.Files {
		p.Descriptions[i] = f.Description
	}
	return p
}

// Outcome returns the close result once the session is terminal.
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return nil
	}
	o := *s.outcome
	return &o
}
