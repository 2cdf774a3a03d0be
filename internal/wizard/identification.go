package wizard

import (
	"context"
	"fmt"
	"strings"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/metrics"
	"document-workflow/internal/models"
	resolveentity "document-workflow/internal/workers/entity/resolve-entity"
)

// Patch carries field edits. Nil fields are left unchanged.
type Patch struct {
	TaxID               *string `json:"taxId,omitempty"`
	AssociateID         *string `json:"associateId,omitempty"`
	PresentationMethod  *string `json:"presentationMethod,omitempty"`
	Memo                *string `json:"memo,omitempty"`
	HasRepresentative   *bool   `json:"hasRepresentative,omitempty"`
	RepresentativeTaxID *string `json:"representativeTaxId,omitempty"`
	Street              *string `json:"street,omitempty"`
	Door                *string `json:"door,omitempty"`
	Floor               *string `json:"floor,omitempty"`
	District            *string `json:"district,omitempty"`
	Municipality        *string `json:"municipality,omitempty"`
	Parish              *string `json:"parish,omitempty"`
	Locality            *string `json:"locality,omitempty"`
}

// Update applies field edits. Changing a tax id invalidates its resolution
// and any in-flight lookup for it.
func (s *Session) Update(ctx context.Context, p Patch) error {
	defer s.flush(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	if p.AssociateID != nil && s.draft.IsInternal && *p.AssociateID != s.config.InternalOrganizationID {
		return errors.NewValidationError("the associate is fixed for internal requests")
	}

	if p.TaxID != nil {
		s.setTaxID(FieldTaxID, &s.draft.TaxID, *p.TaxID)
	}
	if p.HasRepresentative != nil {
		s.draft.HasRepresentative = *p.HasRepresentative
		if !*p.HasRepresentative {
			s.setTaxID(FieldRepresentativeTaxID, &s.draft.RepresentativeTaxID, "")
		}
	}
	if p.RepresentativeTaxID != nil && s.draft.HasRepresentative {
		s.setTaxID(FieldRepresentativeTaxID, &s.draft.RepresentativeTaxID, *p.RepresentativeTaxID)
	}
	if p.AssociateID != nil {
		s.draft.AssociateID = strings.TrimSpace(*p.AssociateID)
	}
	if p.PresentationMethod != nil {
		s.draft.PresentationMethod = *p.PresentationMethod
	}
	if p.Memo != nil {
		s.draft.Memo = *p.Memo
	}

	addr := &s.draft.Address
	for _, f := range []struct {
		src *string
		dst *string
	}{
		{p.Street, &addr.Street},
		{p.Door, &addr.Door},
		{p.Floor, &addr.Floor},
		{p.District, &addr.District},
		{p.Municipality, &addr.Municipality},
		{p.Parish, &addr.Parish},
		{p.Locality, &addr.Locality},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return nil
}

func (s *Session) setTaxID(field Field, dst *string, value string) {
	value = strings.TrimSpace(value)
	if *dst == value {
		return
	}
	*dst = value
	s.bump(field)
	delete(s.entities, field)
}

// SetInternal toggles the internal flag. Turning it on remembers the current
// associate and forces the internal organization; turning it off restores the
// remembered associate. Both directions clear the document type, since the
// internal and external type lists differ.
func (s *Session) SetInternal(ctx context.Context, internal bool) error {
	defer s.flush(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	if s.draft.IsInternal == internal {
		return nil
	}

	s.draft.IsInternal = internal
	if internal {
		s.savedAssociate = s.draft.AssociateID
		s.draft.AssociateID = s.config.InternalOrganizationID
	} else {
		s.draft.AssociateID = s.savedAssociate
	}
	s.clearDocumentType()
	return nil
}

// ResolveTaxID looks up the primary tax id.
func (s *Session) ResolveTaxID(ctx context.Context) (*EntityState, error) {
	return s.resolveEntity(ctx, FieldTaxID)
}

// ResolveRepresentative looks up the representative's tax id.
func (s *Session) ResolveRepresentative(ctx context.Context) (*EntityState, error) {
	return s.resolveEntity(ctx, FieldRepresentativeTaxID)
}

func (s *Session) taxIDFor(field Field) string {
	if field == FieldRepresentativeTaxID {
		return s.draft.RepresentativeTaxID
	}
	return s.draft.TaxID
}

func (s *Session) resolveEntity(ctx context.Context, field Field) (*EntityState, error) {
	defer s.flush(ctx)

	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	taxID := s.taxIDFor(field)
	if !s.deps.Entities.ValidTaxID(taxID) {
		s.mu.Unlock()
		return nil, errors.NewTaxIDInvalidError(taxID)
	}
	token := s.bump(field)
	delete(s.entities, field)
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	result, err := s.deps.Entities.Resolve(callCtx, taxID)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(field, token) || s.taxIDFor(field) != taxID {
		metrics.StaleResultsDiscarded.WithLabelValues(string(field)).Inc()
		return nil, ErrStaleResult
	}
	if err != nil {
		s.emit(models.LevelError, string(errors.CodeOf(err)), "The entity could not be looked up. Please try again.")
		return nil, err
	}
	return s.applyEntity(field, taxID, result), nil
}

// applyEntity stores a resolution. Must be called with the lock held.
func (s *Session) applyEntity(field Field, taxID string, result *resolveentity.Result) *EntityState {
	es := &EntityState{
		TaxID:         taxID,
		Status:        result.Status,
		Record:        result.Entity,
		MissingFields: result.MissingFields,
	}
	s.entities[field] = es

	switch result.Status {
	case models.EntityNotFound:
		notice := errors.NewEntityNotFoundError(taxID)
		s.logger.Info(notice.Message, map[string]interface{}{"field": field, "details": notice.Details})
		s.emit(models.LevelInfo, string(notice.Code),
			fmt.Sprintf("No entity is registered under %s. You can register it now.", taxID))
	case models.EntityIncomplete:
		notice := errors.NewEntityIncompleteError(taxID, result.MissingFields)
		s.logger.Info(notice.Message, map[string]interface{}{"field": field, "details": notice.Details})
		s.emit(models.LevelWarning, string(notice.Code),
			fmt.Sprintf("The entity data is incomplete (%s). Please update it before continuing.", strings.Join(result.MissingFields, ", ")))
	}

	if field == FieldTaxID && result.Entity != nil {
		if !s.draft.IsInternal && s.draft.AssociateID == "" {
			s.draft.AssociateID = result.Entity.Associate
		}
		if s.draft.Address.IsZero() {
			s.draft.Address = result.Entity.Address()
		}
	}
	return es
}

// CreateEntity registers the entity of a not-found tax id and applies the
// new resolution.
func (s *Session) CreateEntity(ctx context.Context, field Field, rec models.EntityRecord) (*EntityState, error) {
	return s.writeEntity(ctx, field, rec, s.deps.Entities.CreateEntity)
}

// UpdateEntity stores corrections for an incomplete entity and applies the
// new resolution.
func (s *Session) UpdateEntity(ctx context.Context, field Field, rec models.EntityRecord) (*EntityState, error) {
	return s.writeEntity(ctx, field, rec, s.deps.Entities.UpdateEntity)
}

func (s *Session) writeEntity(
	ctx context.Context,
	field Field,
	rec models.EntityRecord,
	write func(context.Context, *models.EntityRecord) (*resolveentity.Result, error),
) (*EntityState, error) {
	defer s.flush(ctx)

	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	taxID := s.taxIDFor(field)
	if taxID == "" || (rec.TaxID != "" && rec.TaxID != taxID) {
		s.mu.Unlock()
		return nil, errors.NewValidationError("the entity tax id does not match the form")
	}
	rec.TaxID = taxID
	token := s.bump(field)
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	result, err := write(callCtx, &rec)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(field, token) || s.taxIDFor(field) != taxID {
		metrics.StaleResultsDiscarded.WithLabelValues(string(field)).Inc()
		return nil, ErrStaleResult
	}
	if err != nil {
		msg := "The entity could not be saved. Please try again."
		if se, ok := errors.As(err); ok {
			if bm, ok := se.Metadata["backendMessage"].(string); ok && bm != "" {
				msg = bm
			}
		}
		s.emit(models.LevelError, string(errors.CodeOf(err)), msg)
		return nil, err
	}
	s.emit(models.LevelSuccess, "ENTITY_SAVED", "Entity saved")
	return s.applyEntity(field, taxID, result), nil
}
