// Package backend is the REST client for the entity, document and payment services.
package backend

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"document-workflow/internal/common/config"
	"document-workflow/internal/common/errors"
	commonhttp "document-workflow/internal/common/http"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/models"
)

// ErrNotFound is returned when the backend answers 404 on a lookup.
var ErrNotFound = stderrors.New("NOT_FOUND")

type Client struct {
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(cfg config.BackendConfig, log logger.Logger) *Client {
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["X-API-Key"] = cfg.APIKey
	}
	return &Client{
		http:   commonhttp.NewClient(cfg.BaseURL, config.GetDuration(cfg.Timeout), headers),
		logger: log.WithFields(map[string]interface{}{"component": "backend"}),
	}
}

// GetEntity looks up an entity by tax id.
func (c *Client) GetEntity(ctx context.Context, taxID string) (*models.EntityRecord, error) {
	var rec models.EntityRecord
	err := c.http.DoJSON(ctx, http.MethodGet, "/entities/"+url.PathEscape(taxID), nil, &rec)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, ErrNotFound
		}
		if unavailable(err) {
			return nil, errors.NewBackendUnavailableError(err).WithMetadata("operation", "entity lookup")
		}
		return nil, errors.NewEntityLookupFailedError(err)
	}
	return &rec, nil
}

func (c *Client) CreateEntity(ctx context.Context, rec *models.EntityRecord) (*models.EntityRecord, error) {
	var created models.EntityRecord
	if err := c.http.DoJSON(ctx, http.MethodPost, "/entities", rec, &created); err != nil {
		return nil, errors.NewEntityUpdateFailedError(err).WithMetadata("backendMessage", statusMessage(err))
	}
	return &created, nil
}

func (c *Client) UpdateEntity(ctx context.Context, rec *models.EntityRecord) (*models.EntityRecord, error) {
	var updated models.EntityRecord
	path := "/entities/" + url.PathEscape(rec.TaxID)
	if err := c.http.DoJSON(ctx, http.MethodPut, path, rec, &updated); err != nil {
		return nil, errors.NewEntityUpdateFailedError(err).WithMetadata("backendMessage", statusMessage(err))
	}
	return &updated, nil
}

// CreateDocument validates the payload and posts it as multipart/form-data.
// Failures carry the backend message when present.
func (c *Client) CreateDocument(ctx context.Context, payload *models.DocumentPayload) (*models.CreatedDocument, error) {
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return nil, errors.NewSubmissionFailedError("", err)
	}

	req, err := c.http.NewRequest(ctx, http.MethodPost, "/documents", body)
	if err != nil {
		return nil, errors.NewSubmissionFailedError("", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewSubmissionFailedError("", err)
	}

	var created models.CreatedDocument
	if err := commonhttp.DecodeResponse(resp, &created); err != nil {
		c.logger.Warn("document creation rejected", map[string]interface{}{
			"documentTypeCode": payload.DocumentTypeCode,
			"error":            err.Error(),
		})
		return nil, errors.NewSubmissionFailedError(statusMessage(err), err)
	}

	c.logger.Info("document created", map[string]interface{}{
		"documentId":       created.ID,
		"documentTypeCode": payload.DocumentTypeCode,
		"files":            len(payload.Files),
		"duration_ms":      time.Since(start).Milliseconds(),
	})
	return &created, nil
}

// GetInvoice returns the invoice for a created document.
func (c *Client) GetInvoice(ctx context.Context, documentID string) (*models.Invoice, error) {
	var inv models.Invoice
	path := "/documents/" + url.PathEscape(documentID) + "/invoice"
	if err := c.http.DoJSON(ctx, http.MethodGet, path, nil, &inv); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return &models.Invoice{DocumentID: documentID}, nil
		}
		if unavailable(err) {
			return nil, errors.NewBackendUnavailableError(err).WithMetadata("operation", "invoice lookup")
		}
		return nil, errors.NewInvoiceLookupFailedError(err)
	}
	if inv.DocumentID == "" {
		inv.DocumentID = documentID
	}
	return &inv, nil
}

func encodeMultipart(p *models.DocumentPayload) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := [][2]string{
		{"taxId", p.TaxID},
		{"documentTypeCode", p.DocumentTypeCode},
		{"associateId", p.AssociateID},
		{"presentationMethod", p.PresentationMethod},
		{"memo", p.Memo},
		{"isInternal", strconv.FormatBool(p.IsInternal)},
		{"paymentStatus", p.PaymentStatus},
		{"postalCode", p.Address.PostalCode},
		{"street", p.Address.Street},
		{"door", p.Address.Door},
		{"floor", p.Address.Floor},
		{"district", p.Address.District},
		{"municipality", p.Address.Municipality},
		{"parish", p.Address.Parish},
		{"locality", p.Address.Locality},
	}
	if p.RepresentativeTaxID != "" {
		fields = append(fields, [2]string{"representativeTaxId", p.RepresentativeTaxID})
	}
	for _, param := range p.Parameters {
		key := fmt.Sprintf("param_%d", param.ID)
		fields = append(fields, [2]string{key, param.Value})
		if param.Memo != "" {
			fields = append(fields, [2]string{key + "_memo", param.Memo})
		}
	}

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	for i, file := range p.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[]"; filename=%q`, file.Name))
		h.Set("Content-Type", file.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", err
		}
		if err := w.WriteField("descriptions[]", p.Descriptions[i]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func isStatus(err error, code int) bool {
	var se *commonhttp.StatusError
	return stderrors.As(err, &se) && se.StatusCode == code
}

// unavailable reports transport failures and 5xx answers.
func unavailable(err error) bool {
	var se *commonhttp.StatusError
	if stderrors.As(err, &se) {
		return se.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func statusMessage(err error) string {
	var se *commonhttp.StatusError
	if stderrors.As(err, &se) {
		return se.Message
	}
	return ""
}
