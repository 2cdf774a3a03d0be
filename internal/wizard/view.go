package wizard

import (
	"time"

	"document-workflow/internal/attachments"
	"document-workflow/internal/common/validation"
	"document-workflow/internal/models"
)

// View is a read-only snapshot of a session for rendering.
type View struct {
	ID            string                     `json:"id"`
	State         State                      `json:"state"`
	Step          int                        `json:"step"`
	Draft         models.DocumentDraft       `json:"draft"`
	Entities      map[Field]EntityState      `json:"entities,omitempty"`
	Candidates    []models.AddressCandidate  `json:"candidates,omitempty"`
	ManualAddress bool                       `json:"manualAddress"`
	Parameters    []models.ResolvedParameter `json:"parameters,omitempty"`
	Attachments   []attachments.Item         `json:"attachments"`
	// Errors of the current step; nil once the session is terminal.
	Validation   *validation.ValidationResult `json:"validation,omitempty"`
	Outcome      *Outcome                     `json:"outcome,omitempty"`
	LastActivity time.Time                    `json:"lastActivity"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := *s.draft
	draft.ParamValues = make(map[int]models.ParamValue, len(s.draft.ParamValues))
	for k, v := range s.draft.ParamValues {
		draft.ParamValues[k] = v
	}

	v := View{
		ID:            s.id,
		State:         s.state,
		Step:          s.state.Index(),
		Draft:         draft,
		Entities:      make(map[Field]EntityState, len(s.entities)),
		Candidates:    append([]models.AddressCandidate(nil), s.candidates...),
		ManualAddress: s.manualAddress,
		Parameters:    append([]models.ResolvedParameter(nil), s.schema...),
		Attachments:   s.files.Items(),
		LastActivity:  s.lastActivity,
	}
	for f, es := range s.entities {
		v.Entities[f] = *es
	}
	if s.outcome != nil {
		o := *s.outcome
		v.Outcome = &o
	}
	if !s.state.Terminal() {
		v.Validation = s.validate(s.state)
	}
	return v
}
