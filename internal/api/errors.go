package api

import (
	stderrors "errors"
	"net/http"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/validation"
	"document-workflow/internal/wizard"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

// statusFor maps a wizard or domain error to an HTTP status and body.
func statusFor(err error) (int, errorBody) {
	var fe validation.FieldError
	switch {
	case stderrors.Is(err, wizard.ErrStaleResult):
		return http.StatusConflict, errorBody{Code: "STALE_RESULT", Message: "The input changed while the lookup was running"}
	case stderrors.Is(err, wizard.ErrCancelConfirmationRequired):
		return http.StatusConflict, errorBody{Code: "CONFIRMATION_REQUIRED", Message: "Discard the entered data?"}
	case stderrors.Is(err, wizard.ErrSubmissionInProgress):
		return http.StatusConflict, errorBody{Code: "SUBMISSION_IN_PROGRESS", Message: err.Error()}
	case stderrors.Is(err, wizard.ErrSessionClosed):
		return http.StatusGone, errorBody{Code: "SESSION_CLOSED", Message: err.Error()}
	case stderrors.As(err, &fe):
		return http.StatusUnprocessableEntity, errorBody{Code: fe.Code, Message: fe.Message, Details: fe.Field}
	}

	se, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError, errorBody{Code: string(errors.ErrCodeInternal), Message: "Internal error"}
	}
	body := errorBody{Code: string(se.Code), Message: se.Message, Details: se.Details, Retryable: se.Retryable}

	switch se.Code {
	case errors.ErrCodeValidationFailed, errors.ErrCodeTaxIDInvalid, errors.ErrCodePostalCodeInvalid,
		errors.ErrCodeAttachmentLimit, errors.ErrCodeAttachmentInvalid:
		return http.StatusUnprocessableEntity, body
	case errors.ErrCodeDocumentTypeNotFound, errors.ErrCodeResourceNotFound, errors.ErrCodeEntityNotFound:
		return http.StatusNotFound, body
	case errors.ErrCodeEntityIncomplete:
		return http.StatusUnprocessableEntity, body
	case errors.ErrCodeBackendUnavailable:
		return http.StatusServiceUnavailable, body
	case errors.ErrCodeInvalidStepTransition:
		return http.StatusConflict, body
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, body
	case errors.ErrCodeInternal:
		return http.StatusInternalServerError, body
	}
	return http.StatusBadGateway, body
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"path":  c.FullPath(),
			"code":  body.Code,
			"error": err.Error(),
		})
	}
	c.JSON(status, gin.H{"error": body})
}

func (h *Handlers) tooLarge(c *gin.Context, message string) {
	h.logger.Warn("attachment upload rejected", map[string]interface{}{"path": c.FullPath(), "reason": message})
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errorBody{Code: "ATTACHMENT_TOO_LARGE", Message: message}})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": errorBody{Code: string(errors.ErrCodeValidationFailed), Message: err.Error()}})
}
