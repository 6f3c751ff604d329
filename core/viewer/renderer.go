package viewer

import (
	"bytes"
	"context"
	"io"
	"math"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

var (
	ErrUnreadableDoc = errors.New("unreadable document")

	inspectPDF = api.PageDims // mockable
)

// Document is a document view target.
type Document struct {
	URL   string
	Title string
}

// PageSize is the size of one document page in points.
type PageSize struct {
	Width  float64
	Height float64
}

// PageView describes one page of a document at a zoom level. Width and Height are in points.
// ZoomIn and ZoomOut are the levels the zoom controls step to.
type PageView struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Page        int     `json:"page"`
	Pages       int     `json:"pages"`
	Zoom        float64 `json:"zoom"`
	ZoomPercent int     `json:"zoom_percent"`
	ZoomIn      float64 `json:"zoom_in"`
	ZoomOut     float64 `json:"zoom_out"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	HasPrev     bool    `json:"has_prev"`
	HasNext     bool    `json:"has_next"`
}

// NewPageView lays out page of a document whose pages have sizes. page is clamped to the document
// and zoom to [MinZoom, MaxZoom].
func NewPageView(doc Document, sizes []PageSize, page int, zoom float64) (PageView, error) {
	total := len(sizes)
	if total == 0 {
		return PageView{}, errors.Wrap(ErrUnreadableDoc, "no pages")
	}
	page = ClampPage(page, total)
	zoom = ClampZoom(zoom)
	size := sizes[page-1]
	return PageView{
		URL:         doc.URL,
		Title:       doc.Title,
		Page:        page,
		Pages:       total,
		Zoom:        zoom,
		ZoomPercent: ZoomPercent(zoom),
		ZoomIn:      ZoomIn(zoom),
		ZoomOut:     ZoomOut(zoom),
		Width:       math.Round(size.Width * zoom),
		Height:      math.Round(size.Height * zoom),
		HasPrev:     HasPrev(page),
		HasNext:     HasNext(page, total),
	}, nil
}

// DocumentRenderer renders one page of a document.
type DocumentRenderer interface {
	Render(ctx context.Context, doc Document, page int, zoom float64) (PageView, error)
}

// PDFRenderer reads page geometry with pdfcpu. Page dimensions are cached per URL.
type PDFRenderer struct {
	source Source
	conf   *model.Configuration

	mu    sync.RWMutex
	cache map[string][]PageSize
}

var _ DocumentRenderer = (*PDFRenderer)(nil)

func NewPDFRenderer(source Source) *PDFRenderer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFRenderer{
		source: source,
		conf:   conf,
		cache:  make(map[string][]PageSize),
	}
}

func (r *PDFRenderer) sizes(ctx context.Context, url string) ([]PageSize, error) {
	r.mu.RLock()
	sizes, ok := r.cache[url]
	r.mu.RUnlock()
	if ok {
		return sizes, nil
	}

	data, err := r.source.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	dims, err := inspect(bytes.NewReader(data), r.conf)
	if err != nil {
		return nil, err
	}
	sizes = make([]PageSize, 0, len(dims))
	for _, d := range dims {
		sizes = append(sizes, PageSize{Width: d.Width, Height: d.Height})
	}

	r.mu.Lock()
	r.cache[url] = sizes
	r.mu.Unlock()
	return sizes, nil
}

func inspect(rs io.ReadSeeker, conf *model.Configuration) (dims []types.Dim, err error) {
	// pdfcpu may panic on malformed input
	defer func() {
		if rec := recover(); rec != nil {
			dims, err = nil, errors.Wrapf(ErrUnreadableDoc, "%v", rec)
		}
	}()
	dims, err = inspectPDF(rs, conf)
	if err != nil {
		return nil, errors.Wrap(ErrUnreadableDoc, err.Error())
	}
	if len(dims) == 0 {
		return nil, errors.Wrap(ErrUnreadableDoc, "no pages")
	}
	return dims, nil
}

// Render returns the view of page (1-based, clamped) of doc at zoom (clamped).
func (r *PDFRenderer) Render(ctx context.Context, doc Document, page int, zoom float64) (PageView, error) {
	sizes, err := r.sizes(ctx, doc.URL)
	if err != nil {
		return PageView{}, errors.Wrap(err, "inspecting document")
	}
	return NewPageView(doc, sizes, page, zoom)
}
