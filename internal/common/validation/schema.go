package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Field error codes shared by the wizard validators and the workers.
const (
	CodeRequired           = "REQUIRED"
	CodeTaxIDInvalid       = "TAX_ID_INVALID"
	CodeEntityNotResolved  = "ENTITY_NOT_RESOLVED"
	CodeEntityIncomplete   = "ENTITY_INCOMPLETE"
	CodePostalCodeInvalid  = "POSTAL_CODE_INVALID"
	CodeNumberInvalid      = "NUMBER_INVALID"
	CodeOptionInvalid      = "OPTION_INVALID"
	CodeDescriptionMissing = "DESCRIPTION_REQUIRED"
	CodeTooLong            = "MAX_LENGTH_VIOLATION"
	CodeSchemaViolation    = "SCHEMA_VIOLATION"
)

// FieldError is a single per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// NewResult returns an empty, valid result.
func NewResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

// Add records a field error.
func (vr *ValidationResult) Add(field, code, message string) {
	vr.Errors = append(vr.Errors, FieldError{Field: field, Code: code, Message: message})
	vr.Valid = false
}

// Merge appends another result's errors.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for _, e := range other.Errors {
		vr.Add(e.Field, e.Code, e.Message)
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = err.Error()
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and its nested paths.
func (vr *ValidationResult) GetErrorsForField(field string) []FieldError {
	var fieldErrors []FieldError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

// Schema is a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// CompileSchema parses a JSON schema document once for repeated use.
func CompileSchema(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompileSchema panics on an invalid schema. Used for package-level schemas.
func MustCompileSchema(schemaJSON string) *Schema {
	s, err := CompileSchema(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a Go value (struct, map) against the schema.
func (s *Schema) Validate(document interface{}) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

// ValidateDocument validates a document against a schema given as JSON text.
func ValidateDocument(schemaJSON string, document interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	vr := NewResult()
	for _, desc := range result.Errors() {
		field := desc.Field()
		// "required" errors are reported on the parent; name the missing property instead.
		if prop, ok := desc.Details()["property"].(string); ok && desc.Type() == "required" {
			if field == gojsonschema.STRING_CONTEXT_ROOT || field == "" {
				field = prop
			} else {
				field = field + "." + prop
			}
		}
		code := CodeSchemaViolation
		if desc.Type() == "required" {
			code = CodeRequired
		}
		vr.Add(field, code, desc.Description())
	}
	return vr
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{9,}$`)
	digitsOnly   = regexp.MustCompile(`^\d+$`)
)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone validates basic phone number format
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	return digitsOnly.MatchString(s)
}
