package backend

import (
	"strings"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/validation"
	"document-workflow/internal/models"
)

const payloadSchemaJSON = `{
  "type": "object",
  "required": ["documentTypeCode", "associateId", "paymentStatus", "files", "descriptions"],
  "properties": {
    "taxId":               {"type": "string", "pattern": "^([0-9]{9})?$"},
    "documentTypeCode":    {"type": "string", "minLength": 1},
    "associateId":         {"type": "string", "minLength": 1},
    "representativeTaxId": {"type": "string", "pattern": "^[0-9]{9}$"},
    "presentationMethod":  {"type": "string"},
    "memo":                {"type": "string"},
    "isInternal":          {"type": "boolean"},
    "paymentStatus":       {"enum": ["PENDING"]},
    "address": {
      "type": "object",
      "properties": {
        "postalCode": {"type": "string", "pattern": "^([0-9]{4}-[0-9]{3})?$"}
      }
    },
    "parameters": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "value"],
        "properties": {"id": {"type": "integer"}, "value": {"type": "string"}}
      }
    },
    "files":        {"type": ["array", "null"]},
    "descriptions": {"type": ["array", "null"], "items": {"type": "string", "minLength": 1}}
  }
}`

var payloadSchema = validation.MustCompileSchema(payloadSchemaJSON)

// ValidatePayload checks the assembled payload before it leaves the process.
func ValidatePayload(p *models.DocumentPayload) error {
	if len(p.Files) != len(p.Descriptions) {
		return errors.NewValidationError("files and descriptions must be aligned")
	}
	if !p.IsInternal && p.TaxID == "" {
		return errors.NewValidationError("taxId is required for external requests")
	}

	result, err := payloadSchema.Validate(p)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if !result.Valid {
		return errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}
