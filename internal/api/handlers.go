package api

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"document-workflow/internal/attachments"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/models"
	"document-workflow/internal/wizard"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

const (
	DefaultMaxFileSize = 10 << 20
	defaultMaxFiles    = 5
	// Room for part headers and the non-file form fields.
	multipartOverhead = 1 << 20
)

// Handlers exposes wizard sessions over HTTP.
type Handlers struct {
	store       *SessionStore
	maxFileSize int64
	maxFiles    int
	logger      logger.Logger
}

func NewHandlers(store *SessionStore, log logger.Logger) *Handlers {
	return &Handlers{
		store:       store,
		maxFileSize: DefaultMaxFileSize,
		maxFiles:    defaultMaxFiles,
		logger:      log.WithFields(map[string]interface{}{"component": "session-api"}),
	}
}

// WithUploadLimits bounds attachment uploads: each file to maxFileSize bytes
// and a request body to maxFiles such files. Non-positive values keep the defaults.
func (h *Handlers) WithUploadLimits(maxFileSize int64, maxFiles int) *Handlers {
	if maxFileSize > 0 {
		h.maxFileSize = maxFileSize
	}
	if maxFiles > 0 {
		h.maxFiles = maxFiles
	}
	return h
}

type openRequest struct {
	InitialTaxID string `json:"initialTaxId"`
}

type internalRequest struct {
	Internal bool `json:"internal"`
}

type postalRequest struct {
	PostalCode string `json:"postalCode"`
}

// Index -1 selects the manual "other" entry.
type selectAddressRequest struct {
	Index int `json:"index"`
}

type documentTypeRequest struct {
	Code string `json:"code"`
}

type parameterRequest struct {
	Value string `json:"value"`
	Memo  string `json:"memo"`
}

type descriptionRequest struct {
	Description string `json:"description"`
}

// loadSession resolves :id and stores the session in the gin context.
func (h *Handlers) loadSession(c *gin.Context) {
	session, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errorBody{Code: "SESSION_NOT_FOUND", Message: "Unknown wizard session"}})
		return
	}
	c.Set(sessionKey, session)
	c.Next()
}

func session(c *gin.Context) *wizard.Session {
	return c.MustGet(sessionKey).(*wizard.Session)
}

// OpenSession handles POST /api/v1/sessions
func (h *Handlers) OpenSession(c *gin.Context) {
	var req openRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	s, err := h.store.Create(c.Request.Context(), req.InitialTaxID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Snapshot())
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, session(c).Snapshot())
}

// CancelSession handles DELETE /api/v1/sessions/:id?confirm=true
func (h *Handlers) CancelSession(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.DefaultQuery("confirm", "false"))
	s := session(c)
	outcome, err := s.Cancel(c.Request.Context(), confirmed)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.store.Remove(c.Request.Context(), s.ID())
	c.JSON(http.StatusOK, outcome)
}

// UpdateDraft handles PATCH /api/v1/sessions/:id
func (h *Handlers) UpdateDraft(c *gin.Context) {
	var patch wizard.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	s := session(c)
	if err := s.Update(c.Request.Context(), patch); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// SetInternal handles PUT /api/v1/sessions/:id/internal
func (h *Handlers) SetInternal(c *gin.Context) {
	var req internalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s := session(c)
	if err := s.SetInternal(c.Request.Context(), req.Internal); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func entityField(c *gin.Context) (wizard.Field, bool) {
	switch f := wizard.Field(c.Param("field")); f {
	case wizard.FieldTaxID, wizard.FieldRepresentativeTaxID:
		return f, true
	}
	badRequest(c, fmt.Errorf("unknown entity field %q", c.Param("field")))
	return "", false
}

// ResolveEntity handles POST /api/v1/sessions/:id/entities/:field/resolve
func (h *Handlers) ResolveEntity(c *gin.Context) {
	field, ok := entityField(c)
	if !ok {
		return
	}
	s := session(c)
	resolve := s.ResolveTaxID
	if field == wizard.FieldRepresentativeTaxID {
		resolve = s.ResolveRepresentative
	}
	es, err := resolve(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, es)
}

// SaveEntity handles POST (create) and PUT (update) on
// /api/v1/sessions/:id/entities/:field
func (h *Handlers) SaveEntity(c *gin.Context) {
	field, ok := entityField(c)
	if !ok {
		return
	}
	var rec models.EntityRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, err)
		return
	}
	s := session(c)
	write := s.UpdateEntity
	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		write = s.CreateEntity
		status = http.StatusCreated
	}
	es, err := write(c.Request.Context(), field, rec)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, es)
}

// SetPostalCode handles PUT /api/v1/sessions/:id/postal-code
func (h *Handlers) SetPostalCode(c *gin.Context) {
	var req postalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s := session(c)
	if _, err := s.SetPostalCode(c.Request.Context(), req.PostalCode); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// SelectAddress handles POST /api/v1/sessions/:id/address/select
func (h *Handlers) SelectAddress(c *gin.Context) {
	var req selectAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s := session(c)
	var err error
	if req.Index < 0 {
		err = s.SelectOtherAddress()
	} else {
		err = s.SelectAddress(req.Index)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// DocumentTypes handles GET /api/v1/sessions/:id/document-types
func (h *Handlers) DocumentTypes(c *gin.Context) {
	types := session(c).DocumentTypes()
	c.JSON(http.StatusOK, gin.H{"documentTypes": types, "count": len(types)})
}

// SelectDocumentType handles PUT /api/v1/sessions/:id/document-type
func (h *Handlers) SelectDocumentType(c *gin.Context) {
	var req documentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s := session(c)
	if _, err := s.SelectDocumentType(c.Request.Context(), req.Code); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// SetParameter handles PUT /api/v1/sessions/:id/parameters/:paramId
func (h *Handlers) SetParameter(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("paramId"))
	if err != nil {
		badRequest(c, err)
		return
	}
	var req parameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s := session(c)
	if err := s.SetParameter(id, req.Value, req.Memo); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// AddAttachments handles multipart POST /api/v1/sessions/:id/attachments
// with one or more files[] parts.
func (h *Handlers) AddAttachments(c *gin.Context) {
	limit := h.maxFileSize*int64(h.maxFiles) + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if stderrors.As(err, &tooBig) {
			h.tooLarge(c, fmt.Sprintf("upload exceeds %d bytes", limit))
			return
		}
		badRequest(c, err)
		return
	}
	headers := form.File["files[]"]
	if len(headers) == 0 {
		badRequest(c, stderrors.New("no files[] parts in request"))
		return
	}

	files := make([]attachments.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.maxFileSize {
			h.tooLarge(c, fmt.Sprintf("%s exceeds %d bytes", fh.Filename, h.maxFileSize))
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, err)
			return
		}
		content, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
		f.Close()
		if err != nil {
			badRequest(c, err)
			return
		}
		if int64(len(content)) > h.maxFileSize {
			h.tooLarge(c, fmt.Sprintf("%s exceeds %d bytes", fh.Filename, h.maxFileSize))
			return
		}
		files = append(files, attachments.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	items, err := session(c).AddFiles(c.Request.Context(), files)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attachments": items, "count": len(items)})
}

func indexParam(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, err)
		return 0, false
	}
	return i, true
}

// RemoveAttachment handles DELETE /api/v1/sessions/:id/attachments/:index
func (h *Handlers) RemoveAttachment(c *gin.Context) {
	i, ok := indexParam(c)
	if !ok {
		return
	}
	if err := session(c).RemoveFile(c.Request.Context(), i); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DescribeAttachment handles PUT /api/v1/sessions/:id/attachments/:index/description
func (h *Handlers) DescribeAttachment(c *gin.Context) {
	i, ok := indexParam(c)
	if !ok {
		return
	}
	var req descriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s := session(c)
	if err := s.DescribeFile(i, req.Description); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// Next handles POST /api/v1/sessions/:id/next. A blocked step answers 422
// with the step's field errors.
func (h *Handlers) Next(c *gin.Context) {
	s := session(c)
	result, err := s.Next(c.Request.Context())
	if stderrors.Is(err, wizard.ErrStepBlocked) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      errorBody{Code: "STEP_BLOCKED", Message: err.Error()},
			"validation": result,
		})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// Back handles POST /api/v1/sessions/:id/back
func (h *Handlers) Back(c *gin.Context) {
	s := session(c)
	if err := s.Back(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// Submit handles POST /api/v1/sessions/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	s := session(c)
	outcome, err := s.Submit(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.store.Remove(c.Request.Context(), s.ID())
	c.JSON(http.StatusOK, outcome)
}

// Notifications handles GET /api/v1/sessions/:id/notifications
func (h *Handlers) Notifications(c *gin.Context) {
	ns := session(c).Notifications()
	c.JSON(http.StatusOK, gin.H{"notifications": ns, "count": len(ns)})
}
