package createdocument

import "document-workflow/internal/models"

// AttachmentInput carries file content in job variables (base64 in JSON).
type AttachmentInput struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Description string `json:"description"`
	Content     []byte `json:"content"`
}

type Input struct {
	Payload     models.DocumentPayload `json:"payload"`
	Attachments []AttachmentInput      `json:"attachments"`
}

// Submission is the result of one successful create call.
type Submission struct {
	Document          *models.CreatedDocument `json:"document"`
	Invoice           *models.Invoice         `json:"invoice,omitempty"`
	RedirectToPayment bool                    `json:"redirectToPayment"`
}

type Output struct {
	Success           bool   `json:"success"`
	DocumentID        string `json:"documentId"`
	DocumentNumber    string `json:"documentNumber,omitempty"`
	RedirectToPayment bool   `json:"redirectToPayment"`
	InvoiceAmount     string `json:"invoiceAmount,omitempty"`
}
