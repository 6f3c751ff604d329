package viewer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/content"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		desc    Descriptor
		want    View
		wantErr bool
	}{
		{
			name: "youtube watch link",
			desc: Descriptor{Kind: content.KindVideo, Title: " Intro ", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42"},
			want: View{Kind: ViewVideo, Title: "Intro", URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		},
		{
			name: "youtu.be link",
			desc: Descriptor{Kind: content.KindVideo, URL: "https://youtu.be/dQw4w9WgXcQ"},
			want: View{Kind: ViewVideo, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		},
		{
			name: "shorts link",
			desc: Descriptor{Kind: content.KindVideo, URL: "https://m.youtube.com/shorts/abc123"},
			want: View{Kind: ViewVideo, URL: "https://www.youtube.com/embed/abc123"},
		},
		{
			name: "embed link unchanged",
			desc: Descriptor{Kind: content.KindVideo, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
			want: View{Kind: ViewVideo, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		},
		{
			name: "other video host",
			desc: Descriptor{Kind: content.KindVideo, URL: "https://vimeo.com/12345"},
			want: View{Kind: ViewVideo, URL: "https://vimeo.com/12345"},
		},
		{
			name: "document",
			desc: Descriptor{Kind: content.KindDocument, Title: "Worksheet", URL: "https://example.com/w.pdf"},
			want: View{Kind: ViewDocument, Title: "Worksheet", URL: "https://example.com/w.pdf", Zoom: DefaultZoom, ZoomPercent: 120},
		},
		{
			name: "lesson plan",
			desc: Descriptor{Kind: content.KindDocument, URL: "https://example.com/plan.pdf", LessonPlan: true},
			want: View{Kind: ViewLessonPlan, URL: "https://example.com/plan.pdf", Zoom: DefaultZoom, ZoomPercent: 120},
		},
		{name: "relative url", desc: Descriptor{Kind: content.KindVideo, URL: "/videos/1"}, wantErr: true},
		{name: "ftp url", desc: Descriptor{Kind: content.KindDocument, URL: "ftp://example.com/a.pdf"}, wantErr: true},
		{name: "unknown kind", desc: Descriptor{Kind: "audio", URL: "https://example.com/a.mp3"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.desc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var vErr *core.ValidationError
				assert.True(t, errors.As(err, &vErr))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZoom(t *testing.T) {
	assert.Equal(t, 1.4, ZoomIn(DefaultZoom))
	assert.Equal(t, 1.0, ZoomOut(DefaultZoom))
	assert.Equal(t, MaxZoom, ZoomIn(1.9))
	assert.Equal(t, MinZoom, ZoomOut(0.6))
	assert.Equal(t, MaxZoom, ZoomIn(MaxZoom))
	assert.Equal(t, 1.23, ClampZoom(1.234))
	assert.Equal(t, 50, ZoomPercent(MinZoom))
	assert.Equal(t, 200, ZoomPercent(MaxZoom))
}

func TestParseZoom(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "", want: DefaultZoom},
		{in: "1.5", want: 1.5},
		{in: " 0.1 ", want: MinZoom},
		{in: "7", want: MaxZoom},
		{in: "big", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "Inf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseZoom(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseZoom() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "", want: 1},
		{in: "3", want: 3},
		{in: "-1", want: -1},
		{in: "2.5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePage(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePage() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaging(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 3, ClampPage(9, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 1, ClampPage(5, 0))
	assert.False(t, HasPrev(1))
	assert.True(t, HasPrev(2))
	assert.True(t, HasNext(2, 3))
	assert.False(t, HasNext(3, 3))
}

type fakeSource struct {
	fetches int32
	err     error
}

func (s *fakeSource) Fetch(context.Context, string) ([]byte, error) {
	atomic.AddInt32(&s.fetches, 1)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.4"), nil
}

func mockInspect(t *testing.T, f func(io.ReadSeeker, *model.Configuration) ([]types.Dim, error)) {
	orig := inspectPDF
	inspectPDF = f
	t.Cleanup(func() { inspectPDF = orig })
}

func TestPDFRenderer_Render(t *testing.T) {
	mockInspect(t, func(io.ReadSeeker, *model.Configuration) ([]types.Dim, error) {
		return []types.Dim{{Width: 595, Height: 842}, {Width: 842, Height: 595}}, nil
	})
	source := new(fakeSource)
	r := NewPDFRenderer(source)
	doc := Document{URL: "https://example.com/a.pdf", Title: "A"}

	tests := []struct {
		name string
		page int
		zoom float64
		want PageView
	}{
		{
			name: "first page",
			page: 1,
			zoom: 1,
			want: PageView{URL: doc.URL, Title: "A", Page: 1, Pages: 2, Zoom: 1, ZoomPercent: 100, ZoomIn: 1.2, ZoomOut: 0.8, Width: 595, Height: 842, HasNext: true},
		},
		{
			name: "landscape page zoomed out of range",
			page: 2,
			zoom: 3,
			want: PageView{URL: doc.URL, Title: "A", Page: 2, Pages: 2, Zoom: 2, ZoomPercent: 200, ZoomIn: 2, ZoomOut: 1.8, Width: 1684, Height: 1190, HasPrev: true},
		},
		{
			name: "page 0 clamps to first",
			page: 0,
			zoom: 1,
			want: PageView{URL: doc.URL, Title: "A", Page: 1, Pages: 2, Zoom: 1, ZoomPercent: 100, ZoomIn: 1.2, ZoomOut: 0.8, Width: 595, Height: 842, HasNext: true},
		},
		{
			name: "page past end clamps to last",
			page: 3,
			zoom: MinZoom,
			want: PageView{URL: doc.URL, Title: "A", Page: 2, Pages: 2, Zoom: 0.5, ZoomPercent: 50, ZoomIn: 0.7, ZoomOut: 0.5, Width: 421, Height: 298, HasPrev: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(context.Background(), doc, tt.page, tt.zoom)
			if err != nil {
				t.Fatalf("Render() error = %v, wantErr %v", err, false)
			}
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.fetches), "dimensions must be cached")
}

func TestNewPageView(t *testing.T) {
	doc := Document{URL: "https://example.com/a.pdf", Title: "A"}
	sizes := []PageSize{{Width: 100, Height: 200}, {Width: 100, Height: 200}, {Width: 100, Height: 200}}

	got, err := NewPageView(doc, sizes, 9, DefaultZoom)
	if err != nil {
		t.Fatalf("NewPageView() error = %v, wantErr %v", err, false)
	}
	assert.Equal(t, 3, got.Page)
	assert.True(t, got.HasPrev)
	assert.False(t, got.HasNext)
	assert.Equal(t, 1.4, got.ZoomIn)
	assert.Equal(t, 1.0, got.ZoomOut)
	assert.Equal(t, 120.0, got.Width)
	assert.Equal(t, 240.0, got.Height)

	_, err = NewPageView(doc, nil, 1, 1)
	assert.True(t, errors.Is(err, ErrUnreadableDoc), "NewPageView() error = %v", err)
}

func TestPDFRenderer_Render_errors(t *testing.T) {
	doc := Document{URL: "https://example.com/a.pdf"}

	t.Run("fetch failure", func(t *testing.T) {
		fetchErr := errors.New("connection refused")
		r := NewPDFRenderer(&fakeSource{err: fetchErr})
		_, err := r.Render(context.Background(), doc, 1, 1)
		assert.Equal(t, fetchErr, errors.Cause(err))
	})

	t.Run("unreadable", func(t *testing.T) {
		mockInspect(t, func(io.ReadSeeker, *model.Configuration) ([]types.Dim, error) {
			return nil, errors.New("xref table corrupt")
		})
		_, err := NewPDFRenderer(new(fakeSource)).Render(context.Background(), doc, 1, 1)
		assert.True(t, errors.Is(err, ErrUnreadableDoc), "Render() error = %v", err)
	})

	t.Run("no pages", func(t *testing.T) {
		mockInspect(t, func(io.ReadSeeker, *model.Configuration) ([]types.Dim, error) {
			return nil, nil
		})
		_, err := NewPDFRenderer(new(fakeSource)).Render(context.Background(), doc, 1, 1)
		assert.True(t, errors.Is(err, ErrUnreadableDoc), "Render() error = %v", err)
	})

	t.Run("panic", func(t *testing.T) {
		mockInspect(t, func(io.ReadSeeker, *model.Configuration) ([]types.Dim, error) {
			panic("index out of range")
		})
		_, err := NewPDFRenderer(new(fakeSource)).Render(context.Background(), doc, 1, 1)
		assert.True(t, errors.Is(err, ErrUnreadableDoc), "Render() error = %v", err)
	})
}

func newTestSource(maxBytes int64) *HTTPSource {
	s := NewHTTPSource(time.Second, maxBytes, 2)
	s.delay = time.Millisecond
	return s
}

func TestHTTPSource_Fetch(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte("%PDF-1.4"))
		}))
		defer srv.Close()

		data, err := newTestSource(1024).Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(data))
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestSource(1024).Fetch(context.Background(), srv.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 503")
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			http.NotFound(w, r)
		}))
		defer srv.Close()

		_, err := newTestSource(1024).Fetch(context.Background(), srv.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 404")
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("too large", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		}))
		defer srv.Close()

		_, err := newTestSource(16).Fetch(context.Background(), srv.URL)
		assert.True(t, errors.Is(err, ErrDocumentTooLarge), "Fetch() error = %v", err)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := newTestSource(16).Fetch(context.Background(), "://nope")
		assert.Error(t, err)
	})
}
