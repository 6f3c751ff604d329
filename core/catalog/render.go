package catalog

import (
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core/content"
)

// Render error codes
const (
	CodeInvalidOffset         = "invalid_offset"
	CodeDuplicateAnnotationID = "duplicate_annotation_id"
	CodeRenderFailed          = "render_failed"
)

// RenderError explains why the text block of a page could not be interleaved.
type RenderError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	AnnotationID string `json:"annotation_id,omitempty"`
}

func newRenderError(err error) RenderError {
	var (
		offErr *content.OffsetError
		dupErr *content.DuplicateIDError
	)
	switch {
	case errors.As(err, &offErr):
		return RenderError{Code: CodeInvalidOffset, Message: offErr.Error(), AnnotationID: offErr.AnnotationID}
	case errors.As(err, &dupErr):
		return RenderError{Code: CodeDuplicateAnnotationID, Message: dupErr.Error(), AnnotationID: dupErr.AnnotationID}
	}
	return RenderError{Code: CodeRenderFailed, Message: err.Error()}
}

// RenderedPage is a book page ready for display. When the text block cannot be rendered, Segments
// is empty and RenderError is set; the rest of the page is still usable.
type RenderedPage struct {
	Subject     string           `json:"subject"`
	Number      int              `json:"number"`
	Pages       int              `json:"pages"`
	Title       string           `json:"title"`
	Segments    content.Segments `json:"segments"`
	Resources   []Resource       `json:"resources"`
	HasPrev     bool             `json:"has_prev"`
	HasNext     bool             `json:"has_next"`
	RenderError *RenderError     `json:"render_error,omitempty"`
}

func renderPage(subject string, book Book, page Page, filter ChapterFilter) RenderedPage {
	rp := RenderedPage{
		Subject:   subject,
		Number:    page.Number,
		Pages:     len(book.Pages),
		Title:     page.Title,
		Segments:  content.Segments{},
		Resources: filter.Resources(page.Resources),
		HasPrev:   page.Number > 1,
		HasNext:   page.Number < len(book.Pages),
	}
	segs, err := content.Interleave(page.Content, page.Annotations)
	if err != nil {
		rerr := newRenderError(err)
		rp.RenderError = &rerr
		return rp
	}
	rp.Segments = segs
	return rp
}
