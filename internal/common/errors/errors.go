// Package errors provides standardized error handling for the document workflow
// and its BPMN integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Validation errors are local: reported per field, never contact the backend.
const (
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeTaxIDInvalid          ErrorCode = "TAX_ID_INVALID"
	ErrCodePostalCodeInvalid     ErrorCode = "POSTAL_CODE_INVALID"
	ErrCodeDocumentTypeNotFound  ErrorCode = "DOCUMENT_TYPE_NOT_FOUND"
	ErrCodeAttachmentLimit       ErrorCode = "ATTACHMENT_LIMIT_EXCEEDED"
	ErrCodeAttachmentInvalid     ErrorCode = "ATTACHMENT_INVALID"
	ErrCodeInvalidStepTransition ErrorCode = "INVALID_STEP_TRANSITION"
)

// Resolver outcomes and transport/backend failures.
const (
	ErrCodeEntityNotFound       ErrorCode = "ENTITY_NOT_FOUND"
	ErrCodeEntityIncomplete     ErrorCode = "ENTITY_INCOMPLETE"
	ErrCodeEntityLookupFailed   ErrorCode = "ENTITY_LOOKUP_FAILED"
	ErrCodeEntityUpdateFailed   ErrorCode = "ENTITY_UPDATE_FAILED"
	ErrCodeAddressLookupFailed  ErrorCode = "ADDRESS_LOOKUP_FAILED"
	ErrCodeParameterLoadFailed  ErrorCode = "PARAMETER_LOAD_FAILED"
	ErrCodeSubmissionFailed     ErrorCode = "DOCUMENT_SUBMISSION_FAILED"
	ErrCodeBackendUnavailable   ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeInvoiceLookupFailed  ErrorCode = "INVOICE_LOOKUP_FAILED"
	ErrCodeStorageFailed        ErrorCode = "STORAGE_FAILED"
	ErrCodeNotificationFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeEventPublishFailed   ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeDatabaseConnection   ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeSearchQueryFailed    ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound        ErrorCode = "INDEX_NOT_FOUND"
)

// Generic codes.
const (
	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// As extracts a StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of a StandardError in the chain, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Validation failed", details, false, nil)
}

func NewTaxIDInvalidError(taxID string) *StandardError {
	return newError(ErrCodeTaxIDInvalid, "Invalid tax identifier", fmt.Sprintf("taxId: %s", taxID), false, nil)
}

func NewPostalCodeInvalidError(code string) *StandardError {
	return newError(ErrCodePostalCodeInvalid, "Postal code must have the format ####-###", fmt.Sprintf("postalCode: %s", code), false, nil)
}

func NewDocumentTypeNotFoundError(code string) *StandardError {
	return newError(ErrCodeDocumentTypeNotFound, "Document type not found", fmt.Sprintf("documentTypeCode: %s", code), false, nil)
}

func NewAttachmentLimitError(max, current, adding int) *StandardError {
	return newError(ErrCodeAttachmentLimit,
		fmt.Sprintf("A maximum of %d files can be attached", max),
		fmt.Sprintf("current: %d, adding: %d", current, adding), false, nil)
}

func NewAttachmentInvalidError(details string) *StandardError {
	return newError(ErrCodeAttachmentInvalid, "Invalid attachment", details, false, nil)
}

func NewInvalidStepTransitionError(from, action string) *StandardError {
	return newError(ErrCodeInvalidStepTransition, "Operation not allowed in the current step",
		fmt.Sprintf("state: %s, action: %s", from, action), false, nil)
}

func NewEntityNotFoundError(taxID string) *StandardError {
	return newError(ErrCodeEntityNotFound, "Entity not found", fmt.Sprintf("taxId: %s", taxID), false, nil)
}

func NewEntityIncompleteError(taxID string, missing []string) *StandardError {
	return newError(ErrCodeEntityIncomplete, "Entity record is incomplete",
		fmt.Sprintf("taxId: %s, missing: %s", taxID, strings.Join(missing, ",")), false, nil)
}

func NewEntityLookupFailedError(err error) *StandardError {
	return newError(ErrCodeEntityLookupFailed, "Entity lookup failed", err.Error(), true, err)
}

func NewEntityUpdateFailedError(err error) *StandardError {
	return newError(ErrCodeEntityUpdateFailed, "Entity update failed", err.Error(), true, err)
}

func NewAddressLookupFailedError(err error) *StandardError {
	return newError(ErrCodeAddressLookupFailed, "Postal code lookup failed", err.Error(), true, err)
}

func NewParameterLoadFailedError(err error) *StandardError {
	return newError(ErrCodeParameterLoadFailed, "Document parameters could not be loaded", err.Error(), true, err)
}

// NewSubmissionFailedError carries the backend-provided message when there is one.
func NewSubmissionFailedError(backendMessage string, err error) *StandardError {
	message := backendMessage
	if strings.TrimSpace(message) == "" {
		message = "The document could not be created. Please try again."
	}
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeSubmissionFailed, message, details, false, err)
}

func NewBackendUnavailableError(err error) *StandardError {
	return newError(ErrCodeBackendUnavailable, "Backend service unavailable", err.Error(), true, err)
}

func NewInvoiceLookupFailedError(err error) *StandardError {
	return newError(ErrCodeInvoiceLookupFailed, "Invoice amount lookup failed", err.Error(), true, err)
}

func NewStorageFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeStorageFailed, "Attachment storage error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

func NewNotificationFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

func NewEventPublishFailedError(topic string, err error) *StandardError {
	return newError(ErrCodeEventPublishFailed, "Event publish failed",
		fmt.Sprintf("topic: %s, error: %s", topic, err.Error()), true, err)
}

func NewDatabaseConnectionError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnection, "Database connection error", err.Error(), true, err)
}

func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("query: %s, error: %s", query, err.Error()), true, err)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", index), false, nil)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeEntityLookupFailed,
		ErrCodeAddressLookupFailed,
		ErrCodeParameterLoadFailed,
		ErrCodeBackendUnavailable,
		ErrCodeDatabaseConnection,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeStorageFailed,
		ErrCodeNotificationFailed,
		ErrCodeEventPublishFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout, ErrCodeInvoiceLookupFailed, ErrCodeEntityUpdateFailed:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// BPMN error codes are identical to the internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the taxonomy bucket of an error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed, ErrCodeTaxIDInvalid, ErrCodePostalCodeInvalid,
		ErrCodeDocumentTypeNotFound, ErrCodeAttachmentLimit, ErrCodeAttachmentInvalid,
		ErrCodeInvalidStepTransition, ErrCodeEntityIncomplete:
		return "VALIDATION"
	case ErrCodeEntityNotFound, ErrCodeResourceNotFound, ErrCodeIndexNotFound:
		return "NOT_FOUND"
	case ErrCodeSubmissionFailed:
		return "SUBMISSION"
	}

	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "EVENT"):
		return "MESSAGING"
	case strings.HasSuffix(codeStr, "_FAILED") || strings.Contains(codeStr, "BACKEND") ||
		strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "TRANSPORT"
	default:
		return "OTHER"
	}
}
