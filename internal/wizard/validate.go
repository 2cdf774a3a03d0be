package wizard

import (
	"fmt"
	"strings"

	"document-workflow/internal/common/validation"
	"document-workflow/internal/models"
	resolvepostalcode "document-workflow/internal/workers/address/resolve-postal-code"

	"github.com/shopspring/decimal"
)

// validate runs the validator of step. Must be called with the lock held.
func (s *Session) validate(step State) *validation.ValidationResult {
	result := validation.NewResult()
	switch step {
	case StateIdentification:
		s.validateIdentification(result)
	case StateAddress:
		s.validateAddress(result)
	case StateDetails:
		s.validateDetails(result)
	case StateParameters:
		s.validateParameters(result)
	case StateAttachments:
		for _, fe := range s.files.Validate() {
			result.Add(fe.Field, fe.Code, fe.Message)
		}
	}
	return result
}

// validateAll runs every step's validator in order.
func (s *Session) validateAll() *validation.ValidationResult {
	result := validation.NewResult()
	for _, step := range Steps {
		result.Merge(s.validate(step))
	}
	return result
}

func (s *Session) validateIdentification(result *validation.ValidationResult) {
	if s.draft.IsInternal {
		return
	}
	s.validateEntity(result, FieldTaxID, s.draft.TaxID)
	if s.draft.HasRepresentative {
		s.validateEntity(result, FieldRepresentativeTaxID, s.draft.RepresentativeTaxID)
	}
}

func (s *Session) validateEntity(result *validation.ValidationResult, field Field, taxID string) {
	name := string(field)
	switch {
	case taxID == "":
		result.Add(name, validation.CodeRequired, "A tax id is required")
		return
	case !s.deps.Entities.ValidTaxID(taxID):
		result.Add(name, validation.CodeTaxIDInvalid, "The tax id is not valid")
		return
	}

	es, ok := s.entities[field]
	if !ok || es.TaxID != taxID || es.Status == models.EntityNotFound {
		result.Add(name, validation.CodeEntityNotResolved, "The entity for this tax id has not been identified")
		return
	}
	if es.Status == models.EntityIncomplete {
		result.Add(name, validation.CodeEntityIncomplete,
			fmt.Sprintf("The entity data is incomplete: %s", strings.Join(es.MissingFields, ", ")))
	}
}

func (s *Session) validateAddress(result *validation.ValidationResult) {
	addr := s.draft.Address
	if !resolvepostalcode.ShouldLookup(addr.PostalCode) {
		if addr.PostalCode == "" {
			result.Add("address.postalCode", validation.CodeRequired, "A postal code is required")
		} else {
			result.Add("address.postalCode", validation.CodePostalCodeInvalid, "The postal code must have the form ####-###")
		}
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"street", addr.Street},
		{"district", addr.District},
		{"municipality", addr.Municipality},
		{"parish", addr.Parish},
		{"locality", addr.Locality},
	} {
		if strings.TrimSpace(f.value) == "" {
			result.Add("address."+f.name, validation.CodeRequired, fmt.Sprintf("The %s is required", f.name))
		}
	}
}

func (s *Session) validateDetails(result *validation.ValidationResult) {
	if s.draft.DocumentTypeCode == "" {
		result.Add("documentTypeCode", validation.CodeRequired, "A document type is required")
	} else if dt, ok := s.deps.Catalog.Get().DocumentType(s.draft.DocumentTypeCode); !ok || dt.Internal != s.draft.IsInternal {
		result.Add("documentTypeCode", validation.CodeOptionInvalid, "The document type is not available")
	}
	if strings.TrimSpace(s.draft.AssociateID) == "" {
		result.Add("associateId", validation.CodeRequired, "An associate is required")
	}
	if strings.TrimSpace(s.draft.PresentationMethod) == "" {
		result.Add("presentationMethod", validation.CodeRequired, "A presentation method is required")
	}
}

func (s *Session) validateParameters(result *validation.ValidationResult) {
	if s.draft.DocumentTypeCode != "" && s.schemaFor != s.draft.DocumentTypeCode {
		result.Add("documentTypeCode", validation.CodeRequired, "The document parameters have not been loaded")
		return
	}
	for _, p := range s.schema {
		field := fmt.Sprintf("param_%d", p.ID)
		value := strings.TrimSpace(s.draft.ParamValues[p.ID].Value)
		kind := p.EffectiveKind()

		if value == "" {
			if p.Mandatory && kind != models.KindBoolean {
				result.Add(field, validation.CodeRequired, fmt.Sprintf("%s is required", p.Name))
			}
			continue
		}
		switch kind {
		case models.KindNumeric:
			if _, err := decimal.NewFromString(value); err != nil {
				result.Add(field, validation.CodeNumberInvalid, fmt.Sprintf("%s must be a number", p.Name))
			}
		case models.KindReference:
			if !hasOption(p.Options, value) {
				result.Add(field, validation.CodeOptionInvalid, fmt.Sprintf("%s has an unknown option", p.Name))
			}
		}
	}
}

func hasOption(options []models.ReferenceOption, key string) bool {
	for _, o := range options {
		if o.Key == key {
			return true
		}
	}
	return false
}
