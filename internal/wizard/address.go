package wizard

import (
	"context"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/metrics"
	"document-workflow/internal/models"
	resolvepostalcode "document-workflow/internal/workers/address/resolve-postal-code"
)

// SetPostalCode formats the typed input into the draft and, once the code is
// complete, resolves it. The result is nil while the code is incomplete.
func (s *Session) SetPostalCode(ctx context.Context, input string) (*resolvepostalcode.Result, error) {
	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	formatted := resolvepostalcode.FormatPostalCode(input)
	if formatted != s.draft.Address.PostalCode {
		s.draft.Address.PostalCode = formatted
		s.candidates = nil
		s.bump(FieldPostalCode)
	}
	s.mu.Unlock()

	if !resolvepostalcode.ShouldLookup(formatted) {
		return nil, nil
	}
	return s.ResolvePostalCode(ctx)
}

// ResolvePostalCode looks up the draft's postal code. A single candidate is
// applied, several are offered for selection and none forces manual entry.
// Lookup failures keep the typed fields and switch to manual entry.
func (s *Session) ResolvePostalCode(ctx context.Context) (*resolvepostalcode.Result, error) {
	defer s.flush(ctx)

	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	code := s.draft.Address.PostalCode
	if !resolvepostalcode.ShouldLookup(code) {
		s.mu.Unlock()
		return nil, errors.NewPostalCodeInvalidError(code)
	}
	token := s.bump(FieldPostalCode)
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	result, err := s.deps.Addresses.ResolveByPostalCode(callCtx, code)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(FieldPostalCode, token) || s.draft.Address.PostalCode != code {
		metrics.StaleResultsDiscarded.WithLabelValues(string(FieldPostalCode)).Inc()
		return nil, ErrStaleResult
	}
	if err != nil {
		s.candidates = nil
		s.manualAddress = true
		s.emit(models.LevelError, string(errors.CodeOf(err)), "The postal code could not be looked up. Please enter the address manually.")
		return nil, err
	}

	s.candidates = result.Candidates
	s.manualAddress = result.ManualMode
	resolvepostalcode.ApplyResult(&s.draft.Address, result)
	if result.ManualMode {
		s.emit(models.LevelInfo, "ADDRESS_NOT_FOUND", "No address was found for this postal code. Please enter it manually.")
	}
	return result, nil
}

// SelectAddress applies one of the offered candidates.
func (s *Session) SelectAddress(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	if !resolvepostalcode.SelectCandidate(&s.draft.Address, s.candidates, index) {
		return errors.NewValidationError("no address candidate at that position")
	}
	s.manualAddress = false
	return nil
}

// SelectOtherAddress switches to free-text street entry.
func (s *Session) SelectOtherAddress() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	resolvepostalcode.SelectOther(&s.draft.Address, s.candidates)
	s.manualAddress = true
	return nil
}
