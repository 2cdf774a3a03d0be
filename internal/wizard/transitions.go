package wizard

import (
	"context"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/metrics"
	"document-workflow/internal/common/validation"
)

// Next advances one step when the current step's validator reports no errors.
// The returned result always carries those errors.
func (s *Session) Next(ctx context.Context) (*validation.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return nil, err
	}
	to, ok := s.state.next()
	if !ok {
		metrics.StepTransitions.WithLabelValues(string(s.state), "next", "invalid").Inc()
		return nil, errors.NewInvalidStepTransitionError(string(s.state), "next")
	}

	result := s.validate(s.state)
	if !result.Valid {
		metrics.StepTransitions.WithLabelValues(string(s.state), "next", "blocked").Inc()
		return result, ErrStepBlocked
	}
	s.transition("next", to)
	return result, nil
}

// Back moves one step back regardless of validity. It is a no-op on the first step.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	s.transition("back", s.state.previous())
	return nil
}

func (s *Session) transition(action string, to State) {
	from := s.state
	s.state = to
	metrics.StepTransitions.WithLabelValues(string(from), action, "ok").Inc()
	s.logger.Debug("wizard transition", map[string]interface{}{
		"from":   from,
		"to":     to,
		"action": action,
	})
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
