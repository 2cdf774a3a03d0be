package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() Config {
	return Config{MaxFiles: 5, DescriptionMaxLength: 200, Icons: DefaultIcons("icons/pdf.svg")}
}

func newTestManager(t *testing.T, store PreviewStore, renderer ThumbnailRenderer) *Manager {
	return NewManager("session-1", Dependencies{Store: store, Renderer: renderer, Logger: logger.NewTestLogger(t)}, createTestConfig())
}

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	pdfHeader = []byte("%PDF-1.7\n")
)

func pdfFile(name string) File {
	return File{Name: name, ContentType: "application/pdf", Content: pdfHeader}
}

type fakeRenderer struct{ err error }

func (r fakeRenderer) RenderFirstPage(context.Context, []byte) ([]byte, string, error) {
	if r.err != nil {
		return nil, "", r.err
	}
	return pngHeader, "image/png", nil
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string]string
	putErr  error
}

func (f *fakeObjects) PutObject(_ context.Context, key, contentType string, body io.Reader) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, _ := io.ReadAll(body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = contentType + ":" + string(data)
	return nil
}

func (f *fakeObjects) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://bucket.example.com/%s?X-Amz-Expires=%d", key, int(ttl.Seconds())), nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

// ==========================
// Add / Remove Tests
// ==========================

func TestManager_Add_RejectsOverflowWithoutPartialApply(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store, nil)

	_, err := m.Add(context.Background(), []File{pdfFile("a.pdf"), pdfFile("b.pdf"), pdfFile("c.pdf")})
	require.NoError(t, err)

	_, err = m.Add(context.Background(), []File{
		{Name: "x.png", Content: pngHeader},
		pdfFile("d.pdf"),
		pdfFile("e.pdf"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAttachmentLimit))
	assert.Equal(t, "A maximum of 5 files can be attached", err.(*apperrors.StandardError).Message)
	assert.Equal(t, 3, m.Len())
	assert.Zero(t, store.Len())
}

func TestManager_Add_NeverExceedsMax(t *testing.T) {
	m := newTestManager(t, NewMemoryStore(), nil)

	for i := 0; i < 12; i++ {
		_, _ = m.Add(context.Background(), []File{pdfFile(fmt.Sprintf("%d.pdf", i))})
		assert.LessOrEqual(t, m.Len(), 5)
	}
	assert.Equal(t, 5, m.Len())
}

func TestManager_Add_PreviewsByCategory(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store, nil)

	items, err := m.Add(context.Background(), []File{
		pdfFile("plan.pdf"),
		{Name: "photo.png", Content: pngHeader},
		{Name: "budget.xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Content: []byte("PK")},
		{Name: "blob.bin", ContentType: "application/x-custom", Content: []byte{1, 2, 3}},
	})
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, Preview{Kind: PreviewIcon, Ref: "icons/pdf.svg"}, items[0].Preview)

	assert.Equal(t, "image/png", items[1].ContentType)
	assert.Equal(t, PreviewHandle, items[1].Preview.Kind)
	assert.True(t, strings.HasPrefix(items[1].Preview.Ref, "blob:"))

	assert.Equal(t, "icons/excel.svg", items[2].Preview.Ref)
	assert.Equal(t, "icons/file.svg", items[3].Preview.Ref)
	assert.Equal(t, 1, store.Len())
}

func TestManager_Add_RendersPDFThumbnail(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store, fakeRenderer{})

	items, err := m.Add(context.Background(), []File{pdfFile("plan.pdf")})
	require.NoError(t, err)
	assert.Equal(t, PreviewThumbnail, items[0].Preview.Kind)

	_, ct, ok := store.Get(items[0].Preview.Ref)
	require.True(t, ok)
	assert.Equal(t, "image/png", ct)
}

func TestManager_Add_RendererFailureFallsBackToIcon(t *testing.T) {
	m := newTestManager(t, NewMemoryStore(), fakeRenderer{err: errors.New("corrupt pdf")})

	items, err := m.Add(context.Background(), []File{pdfFile("plan.pdf")})
	require.NoError(t, err)
	assert.Equal(t, PreviewIcon, items[0].Preview.Kind)
}

func TestManager_Remove_ReleasesHandle(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store, nil)

	_, err := m.Add(context.Background(), []File{{Name: "a.png", Content: pngHeader}, pdfFile("b.pdf")})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	require.NoError(t, m.Remove(context.Background(), 0))
	assert.Zero(t, store.Len())
	assert.Equal(t, "b.pdf", m.Items()[0].Name)

	err = m.Remove(context.Background(), 4)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAttachmentInvalid))
}

func TestManager_Close_ReleasesAll(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store, nil)

	_, err := m.Add(context.Background(), []File{{Name: "a.png", Content: pngHeader}, {Name: "b.png", Content: pngHeader}})
	require.NoError(t, err)

	m.Close(context.Background())
	assert.Zero(t, store.Len())
	assert.Zero(t, m.Len())
}

// ==========================
// Description Tests
// ==========================

func TestManager_Descriptions(t *testing.T) {
	m := newTestManager(t, NewMemoryStore(), nil)
	_, err := m.Add(context.Background(), []File{pdfFile("a.pdf"), pdfFile("b.pdf")})
	require.NoError(t, err)

	err = m.UpdateDescription(0, "Floor plan")
	assert.NoError(t, err)

	err = m.UpdateDescription(1, strings.Repeat("x", 201))
	var fe validation.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, validation.CodeTooLong, fe.Code)
	assert.Equal(t, "attachments[1].description", fe.Field)

	errs := m.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, validation.CodeTooLong, errs[0].Code)

	require.NoError(t, m.UpdateDescription(1, "Facade"))
	assert.Empty(t, m.Validate())

	atts := m.Attachments()
	assert.Equal(t, "Facade", atts[1].Description)
	assert.Equal(t, pdfHeader, atts[1].Content)
}

func TestManager_Validate_MissingDescription(t *testing.T) {
	m := newTestManager(t, NewMemoryStore(), nil)
	_, err := m.Add(context.Background(), []File{pdfFile("a.pdf")})
	require.NoError(t, err)

	errs := m.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, validation.CodeDescriptionMissing, errs[0].Code)
}

// ==========================
// Store Tests
// ==========================

func TestS3Store_PutAndRelease(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{}}
	store := NewS3Store(objects, "/drafts/", 15*time.Minute)

	ref, err := store.Put(context.Background(), "session-1", "image/png", pngHeader)
	require.NoError(t, err)
	assert.Contains(t, ref, "/drafts/session-1/")
	assert.Contains(t, ref, "X-Amz-Expires=900")
	assert.Len(t, objects.objects, 1)

	require.NoError(t, store.Release(context.Background(), ref))
	assert.Empty(t, objects.objects)
	assert.NoError(t, store.Release(context.Background(), "unknown"))
}

func TestManager_Add_StorageFailureAppliesNothing(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{}, putErr: errors.New("access denied")}
	m := newTestManager(t, NewS3Store(objects, "drafts", time.Minute), nil)

	_, err := m.Add(context.Background(), []File{pdfFile("a.pdf"), {Name: "b.png", Content: pngHeader}})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageFailed))
	assert.Zero(t, m.Len())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CategoryPDF, Classify("application/pdf"))
	assert.Equal(t, CategoryImage, Classify("image/jpeg"))
	assert.Equal(t, CategoryWord, Classify("application/msword"))
	assert.Equal(t, CategoryPowerPoint, Classify("application/vnd.ms-powerpoint"))
	assert.Equal(t, CategoryText, Classify("text/plain; charset=utf-8"))
	assert.Equal(t, CategoryOther, Classify(""))
}
