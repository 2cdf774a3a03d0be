package wizard

// State is a wizard step or a terminal state.
type State string

const (
	StateIdentification State = "identification"
	StateAddress        State = "address"
	StateDetails        State = "details"
	StateParameters     State = "parameters"
	StateAttachments    State = "attachments"
	StateConfirmation   State = "confirmation"
	StateSubmitted      State = "submitted"
	StateCancelled      State = "cancelled"
)

// Steps is the ordered step sequence.
var Steps = []State{
	StateIdentification,
	StateAddress,
	StateDetails,
	StateParameters,
	StateAttachments,
	StateConfirmation,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateCancelled
}

// Index is the 1-based step number, or 0 for terminal states.
func (s State) Index() int {
	for i, st := range Steps {
		if st == s {
			return i + 1
		}
	}
	return 0
}

func (s State) next() (State, bool) {
	i := s.Index()
	if i == 0 || i == len(Steps) {
		return s, false
	}
	return Steps[i], true
}

func (s State) previous() State {
	i := s.Index()
	if i <= 1 {
		return s
	}
	return Steps[i-2]
}

// Field identifies an input whose asynchronous resolution is tracked by a
// request token.
type Field string

const (
	FieldTaxID               Field = "taxId"
	FieldRepresentativeTaxID Field = "representativeTaxId"
	FieldPostalCode          Field = "postalCode"
	FieldDocumentType        Field = "documentType"
)
