package attachments

import (
	"context"
	"strings"
)

// Category groups content types that share a preview icon.
type Category string

const (
	CategoryPDF        Category = "pdf"
	CategoryImage      Category = "image"
	CategoryWord       Category = "word"
	CategoryExcel      Category = "excel"
	CategoryPowerPoint Category = "powerpoint"
	CategoryText       Category = "text"
	CategoryOther      Category = "other"
)

// PreviewKind tells the client how to render Preview.Ref.
type PreviewKind string

const (
	PreviewIcon      PreviewKind = "icon"
	PreviewHandle    PreviewKind = "handle"
	PreviewThumbnail PreviewKind = "thumbnail"
)

type Preview struct {
	Kind PreviewKind `json:"kind"`
	Ref  string      `json:"ref"`
}

// Transient reports whether the preview holds a handle that must be released.
func (p Preview) Transient() bool {
	return p.Kind == PreviewHandle || p.Kind == PreviewThumbnail
}

// PreviewStore issues and releases transient preview handles.
type PreviewStore interface {
	Put(ctx context.Context, sessionID, contentType string, content []byte) (ref string, err error)
	Release(ctx context.Context, ref string) error
}

// ThumbnailRenderer renders the first page of a PDF as an image.
type ThumbnailRenderer interface {
	RenderFirstPage(ctx context.Context, pdf []byte) (image []byte, contentType string, err error)
}

// DefaultIcons maps categories to static icon paths.
func DefaultIcons(pdfIcon string) map[Category]string {
	if pdfIcon == "" {
		pdfIcon = "icons/pdf.svg"
	}
	return map[Category]string{
		CategoryPDF:        pdfIcon,
		CategoryWord:       "icons/word.svg",
		CategoryExcel:      "icons/excel.svg",
		CategoryPowerPoint: "icons/powerpoint.svg",
		CategoryText:       "icons/text.svg",
		CategoryOther:      "icons/file.svg",
	}
}

// Classify maps a content type to its category.
func Classify(contentType string) Category {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "application/pdf":
		return CategoryPDF
	case strings.HasPrefix(ct, "image/"):
		return CategoryImage
	case ct == "application/msword",
		ct == "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		ct == "application/vnd.oasis.opendocument.text",
		ct == "application/rtf":
		return CategoryWord
	case ct == "application/vnd.ms-excel",
		ct == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		ct == "application/vnd.oasis.opendocument.spreadsheet",
		ct == "text/csv":
		return CategoryExcel
	case ct == "application/vnd.ms-powerpoint",
		ct == "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		ct == "application/vnd.oasis.opendocument.presentation":
		return CategoryPowerPoint
	case strings.HasPrefix(ct, "text/"):
		return CategoryText
	}
	return CategoryOther
}
