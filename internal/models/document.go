// internal/models/document.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PaymentStatusPending = "PENDING"

// DocumentDraft is the in-progress submission owned by a wizard session.
// Attachments are tracked separately by the attachment manager.
type DocumentDraft struct {
	TaxID               string             `json:"taxId"`
	DocumentTypeCode    string             `json:"documentTypeCode"`
	AssociateID         string             `json:"associateId"`
	PresentationMethod  string             `json:"presentationMethod"`
	IsInternal          bool               `json:"isInternal"`
	HasRepresentative   bool               `json:"hasRepresentative"`
	RepresentativeTaxID string             `json:"representativeTaxId,omitempty"`
	Memo                string             `json:"memo"`
	ParamValues         map[int]ParamValue `json:"paramValues"`
	Address             Address            `json:"address"`
}

func NewDocumentDraft() *DocumentDraft {
	return &DocumentDraft{ParamValues: make(map[int]ParamValue)}
}

// IsEmpty reports whether the user has entered anything.
func (d *DocumentDraft) IsEmpty() bool {
	if d.TaxID != "" || d.DocumentTypeCode != "" || d.AssociateID != "" ||
		d.PresentationMethod != "" || d.IsInternal || d.HasRepresentative ||
		d.RepresentativeTaxID != "" || d.Memo != "" || !d.Address.IsZero() {
		return false
	}
	for _, v := range d.ParamValues {
		if v.Value != "" || v.Memo != "" {
			return false
		}
	}
	return true
}

// Attachment is the submission form of an attached file.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Description string `json:"description"`
	Content     []byte `json:"-"`
}

// PayloadParameter is one param_<id> entry.
type PayloadParameter struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
	Memo  string `json:"memo,omitempty"`
}

// DocumentPayload is the composite record sent to the document-creation endpoint.
type DocumentPayload struct {
	TaxID               string             `json:"taxId,omitempty"`
	DocumentTypeCode    string             `json:"documentTypeCode"`
	AssociateID         string             `json:"associateId"`
	RepresentativeTaxID string             `json:"representativeTaxId,omitempty"`
	PresentationMethod  string             `json:"presentationMethod"`
	Memo                string             `json:"memo"`
	IsInternal          bool               `json:"isInternal"`
	PaymentStatus       string             `json:"paymentStatus"`
	Address             Address            `json:"address"`
	Parameters          []PayloadParameter `json:"parameters"`
	Files               []Attachment       `json:"files"`
	// Aligned by position with Files.
	Descriptions []string `json:"descriptions"`
}

// CreatedDocument is the backend response to a successful creation.
type CreatedDocument struct {
	ID        string    `json:"id"`
	Number    string    `json:"number,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Invoice is the amount owed for a created document.
type Invoice struct {
	DocumentID string          `json:"documentId"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency,omitempty"`
}

// RequiresPayment reports whether the payment sub-flow should follow.
func (i *Invoice) RequiresPayment() bool {
	return i != nil && i.Amount.IsPositive()
}
