// internal/models/parameter.go
package models

// ParameterKind is the closed set of parameter value types.
type ParameterKind string

const (
	KindNumeric   ParameterKind = "numeric"
	KindText      ParameterKind = "text"
	KindBoolean   ParameterKind = "boolean"
	KindReference ParameterKind = "reference"
)

// Valid reports whether k is a known kind.
func (k ParameterKind) Valid() bool {
	switch k {
	case KindNumeric, KindText, KindBoolean, KindReference:
		return true
	}
	return false
}

// ParameterDefinition describes one typed, document-type-specific field.
type ParameterDefinition struct {
	ID        int           `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Kind      ParameterKind `json:"kind" db:"kind"`
	Mandatory bool          `json:"mandatory" db:"mandatory"`
	Unit      string        `json:"unit,omitempty" db:"unit"`
	SortOrder int           `json:"sortOrder" db:"sort_order"`

	// Reference kind only.
	ReferenceList    string `json:"referenceList,omitempty" db:"reference_list"`
	OptionKeyField   string `json:"optionKeyField,omitempty" db:"option_key_field"`
	OptionLabelField string `json:"optionLabelField,omitempty" db:"option_label_field"`
}

// DocumentTypeParameter maps a parameter to a document type.
type DocumentTypeParameter struct {
	DocumentTypeCode  string `json:"documentTypeCode" db:"document_type_code"`
	ParameterID       int    `json:"parameterId" db:"parameter_id"`
	AppliesOnCreation bool   `json:"appliesOnCreation" db:"applies_on_creation"`
}

// DocumentType is a categorical classification of a submission.
type DocumentType struct {
	Code     string `json:"code" db:"code"`
	Name     string `json:"name" db:"name"`
	Internal bool   `json:"internal" db:"internal"`
}

// ReferenceList is a named list of loosely shaped records; which keys act as
// option key and label is decided by the parameter definition.
type ReferenceList struct {
	Name  string                   `json:"name"`
	Items []map[string]interface{} `json:"items"`
}

type ReferenceOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ResolvedParameter is a definition with its option list resolved.
type ResolvedParameter struct {
	ParameterDefinition
	Options []ReferenceOption `json:"options,omitempty"`
	// Name of the list actually used, which may differ from ReferenceList after fuzzy matching.
	ResolvedList string `json:"resolvedList,omitempty"`
	// Set when a reference list could not be found; the field is collected as free text.
	ListUnavailable bool `json:"listUnavailable,omitempty"`
}

// EffectiveKind is the kind used for input collection after fallback.
func (p ResolvedParameter) EffectiveKind() ParameterKind {
	if p.Kind == KindReference && p.ListUnavailable {
		return KindText
	}
	return p.Kind
}

// ParamValue is the collected value of one parameter.
type ParamValue struct {
	Value string `json:"value"`
	Memo  string `json:"memo,omitempty"`
}
