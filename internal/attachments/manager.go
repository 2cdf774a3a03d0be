// Package attachments manages the files attached to a document draft: count
// limits, previews and mandatory descriptions.
package attachments

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/validation"
	"document-workflow/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// File is an incoming upload.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// Item is one attached file.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ContentType string   `json:"contentType"`
	Size        int64    `json:"size"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Preview     Preview  `json:"preview"`

	content []byte
}

type Config struct {
	MaxFiles             int
	DescriptionMaxLength int
	Icons                map[Category]string
}

type Dependencies struct {
	Store PreviewStore
	// Optional; PDFs fall back to the static icon.
	Renderer ThumbnailRenderer
	Logger   logger.Logger
}

// Manager is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	config    Config
	sessionID string
	store     PreviewStore
	renderer  ThumbnailRenderer
	logger    logger.Logger
	items     []*Item
}

func NewManager(sessionID string, deps Dependencies, config Config) *Manager {
	if config.Icons == nil {
		config.Icons = DefaultIcons("")
	}
	return &Manager{
		config:    config,
		sessionID: sessionID,
		store:     deps.Store,
		renderer:  deps.Renderer,
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "attachments", "sessionId": sessionID}),
	}
}

// Add attaches files as one unit: if the batch would exceed MaxFiles, or any
// file or preview fails, nothing is applied.
func (m *Manager) Add(ctx context.Context, files []File) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items)+len(files) > m.config.MaxFiles {
		return nil, errors.NewAttachmentLimitError(m.config.MaxFiles, len(m.items), len(files))
	}
	for i, f := range files {
		if strings.TrimSpace(f.Name) == "" || len(f.Content) == 0 {
			return nil, errors.NewAttachmentInvalidError(fmt.Sprintf("file %d is empty or unnamed", i))
		}
	}

	added := make([]*Item, 0, len(files))
	for _, f := range files {
		item, err := m.newItem(ctx, f)
		if err != nil {
			for _, it := range added {
				m.release(ctx, it)
			}
			return nil, err
		}
		added = append(added, item)
	}
	m.items = append(m.items, added...)

	out := make([]Item, len(added))
	for i, it := range added {
		out[i] = *it
	}
	m.logger.Debug("attachments added", map[string]interface{}{"added": len(added), "total": len(m.items)})
	return out, nil
}

// Remove detaches the item at index and releases its preview handle.
func (m *Manager) Remove(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.items) {
		return errors.NewAttachmentInvalidError(fmt.Sprintf("no attachment at index %d", index))
	}
	item := m.items[index]
	m.items = append(m.items[:index], m.items[index+1:]...)
	m.release(ctx, item)
	return nil
}

// UpdateDescription stores text even when invalid so the user keeps what they
// typed; the returned error is a validation.FieldError in that case.
func (m *Manager) UpdateDescription(index int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.items) {
		return errors.NewAttachmentInvalidError(fmt.Sprintf("no attachment at index %d", index))
	}
	m.items[index].Description = text
	if fe := m.checkDescription(index, text); fe != nil {
		return *fe
	}
	return nil
}

// Validate returns one field error per item with a missing or overlong description.
func (m *Manager) Validate() []validation.FieldError {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []validation.FieldError
	for i, it := range m.items {
		if fe := m.checkDescription(i, it.Description); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

func (m *Manager) checkDescription(index int, text string) *validation.FieldError {
	field := fmt.Sprintf("attachments[%d].description", index)
	if strings.TrimSpace(text) == "" {
		return &validation.FieldError{Field: field, Code: validation.CodeDescriptionMissing, Message: "A description is required"}
	}
	if max := m.config.DescriptionMaxLength; max > 0 && utf8.RuneCountInString(text) > max {
		return &validation.FieldError{Field: field, Code: validation.CodeTooLong, Message: fmt.Sprintf("Description must be at most %d characters", max)}
	}
	return nil
}

// Items returns a snapshot of the attached files.
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.items))
	for i, it := range m.items {
		out[i] = *it
	}
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Attachments returns the submission form of the items, in order.
func (m *Manager) Attachments() []models.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Attachment, len(m.items))
	for i, it := range m.items {
		out[i] = models.Attachment{
			Name:        it.Name,
			ContentType: it.ContentType,
			Size:        it.Size,
			Description: strings.TrimSpace(it.Description),
			Content:     it.content,
		}
	}
	return out
}

// Close releases every preview handle and empties the manager.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		m.release(ctx, it)
	}
	m.items = nil
}

func (m *Manager) newItem(ctx context.Context, f File) (*Item, error) {
	ct := f.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = mimetype.Detect(f.Content).String()
	}
	item := &Item{
		ID:          uuid.NewString(),
		Name:        f.Name,
		ContentType: ct,
		Size:        int64(len(f.Content)),
		Category:    Classify(ct),
		content:     f.Content,
	}

	preview, err := m.preview(ctx, item)
	if err != nil {
		return nil, err
	}
	item.Preview = preview
	return item, nil
}

func (m *Manager) preview(ctx context.Context, item *Item) (Preview, error) {
	switch item.Category {
	case CategoryImage:
		ref, err := m.store.Put(ctx, m.sessionID, item.ContentType, item.content)
		if err != nil {
			return Preview{}, err
		}
		return Preview{Kind: PreviewHandle, Ref: ref}, nil
	case CategoryPDF:
		if m.renderer != nil {
			img, ct, err := m.renderer.RenderFirstPage(ctx, item.content)
			if err == nil {
				ref, err := m.store.Put(ctx, m.sessionID, ct, img)
				if err != nil {
					return Preview{}, err
				}
				return Preview{Kind: PreviewThumbnail, Ref: ref}, nil
			}
			m.logger.Warn("thumbnail rendering failed, using icon", map[string]interface{}{
				"name":  item.Name,
				"error": err.Error(),
			})
		}
	}
	icon, ok := m.config.Icons[item.Category]
	if !ok {
		icon = m.config.Icons[CategoryOther]
	}
	return Preview{Kind: PreviewIcon, Ref: icon}, nil
}

func (m *Manager) release(ctx context.Context, item *Item) {
	if !item.Preview.Transient() {
		return
	}
	if err := m.store.Release(ctx, item.Preview.Ref); err != nil {
		m.logger.Warn("failed to release preview", map[string]interface{}{
			"ref":   item.Preview.Ref,
			"error": err.Error(),
		})
	}
}
