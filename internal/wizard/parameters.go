package wizard

import (
	"context"
	"fmt"
	"strings"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/metrics"
	"document-workflow/internal/models"
	loadparameters "document-workflow/internal/workers/document/load-parameters"
)

// DocumentTypes lists the types selectable under the current internal flag.
func (s *Session) DocumentTypes() []models.DocumentType {
	s.mu.Lock()
	internal := s.draft.IsInternal
	s.mu.Unlock()
	return s.deps.Catalog.Get().DocumentTypes(internal)
}

// SelectDocumentType selects a type and loads its parameter schema. The
// previous type's values never survive the switch. An empty code clears the
// selection.
func (s *Session) SelectDocumentType(ctx context.Context, code string) ([]models.ResolvedParameter, error) {
	defer s.flush(ctx)

	code = strings.TrimSpace(code)
	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if code == "" {
		s.clearDocumentType()
		s.mu.Unlock()
		return nil, nil
	}
	dt, ok := s.deps.Catalog.Get().DocumentType(code)
	if !ok || dt.Internal != s.draft.IsInternal {
		s.mu.Unlock()
		return nil, errors.NewDocumentTypeNotFoundError(code)
	}
	s.clearDocumentType()
	s.draft.DocumentTypeCode = code
	token := s.tokens[FieldDocumentType]
	taxID := ""
	if !s.draft.IsInternal {
		taxID = s.draft.TaxID
	}
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	schema, err := s.deps.Parameters.Load(callCtx, code, taxID)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(FieldDocumentType, token) || s.draft.DocumentTypeCode != code {
		metrics.StaleResultsDiscarded.WithLabelValues(string(FieldDocumentType)).Inc()
		return nil, ErrStaleResult
	}
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.NewParameterLoadFailedError(err)
		}
		s.clearDocumentType()
		s.emit(models.LevelError, string(errors.CodeOf(err)), "The document parameters could not be loaded. Please select the type again.")
		return nil, err
	}

	s.schema = schema.Parameters
	s.schemaFor = code
	values := make(map[int]models.ParamValue, len(schema.Parameters))
	for _, p := range schema.Parameters {
		values[p.ID] = schema.InitialValues[p.ID]
	}
	s.draft.ParamValues = values

	if names := unavailableLists(schema.Parameters); len(names) > 0 {
		s.emit(models.LevelWarning, "REFERENCE_LIST_UNAVAILABLE",
			fmt.Sprintf("Option lists unavailable (%s); enter those values as text.", strings.Join(names, ", ")))
	}
	return append([]models.ResolvedParameter(nil), s.schema...), nil
}

// clearDocumentType drops the type, its schema and values and supersedes any
// in-flight load. Must be called with the lock held.
func (s *Session) clearDocumentType() {
	s.bump(FieldDocumentType)
	s.draft.DocumentTypeCode = ""
	s.schema = nil
	s.schemaFor = ""
	s.draft.ParamValues = make(map[int]models.ParamValue)
}

// SetParameter stores the value of a parameter of the loaded schema. Boolean
// values are normalized to "1"/"0".
func (s *Session) SetParameter(id int, value, memo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	p, ok := s.parameter(id)
	if !ok {
		return errors.NewValidationError(fmt.Sprintf("parameter %d is not part of the selected document type", id))
	}
	if p.EffectiveKind() == models.KindBoolean {
		value = loadparameters.NormalizeBoolean(value)
	}
	s.draft.ParamValues[id] = models.ParamValue{Value: value, Memo: memo}
	return nil
}

func (s *Session) parameter(id int) (models.ResolvedParameter, bool) {
	for _, p := range s.schema {
		if p.ID == id {
			return p, true
		}
	}
	return models.ResolvedParameter{}, false
}

func unavailableLists(params []models.ResolvedParameter) []string {
	var names []string
	for _, p := range params {
		if p.ListUnavailable {
			names = append(names, p.ReferenceList)
		}
	}
	return names
}
