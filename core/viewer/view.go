// Package viewer resolves annotations, resources and materials to displayable views and inspects the
// documents they point to.
package viewer

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/content"
)

type ViewKind string

const (
	ViewVideo      ViewKind = "video"
	ViewDocument   ViewKind = "document"
	ViewLessonPlan ViewKind = "lesson-plan"
)

// Descriptor is what a marker, a page resource or a material knows about its target.
type Descriptor struct {
	Kind       content.Kind
	Title      string
	URL        string
	LessonPlan bool
}

// View is the resolved content of the detail viewer.
type View struct {
	Kind        ViewKind `json:"kind"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Zoom        float64  `json:"zoom,omitempty"`
	ZoomPercent int      `json:"zoom_percent,omitempty"`
}

var ErrInvalidURL = errors.New("invalid url")

// Resolve turns d into a View. Video links to YouTube are normalised to their embed form.
// Documents open at the default zoom.
func Resolve(d Descriptor) (View, error) {
	u, err := parseURL(d.URL)
	if err != nil {
		return View{}, core.NewValidationError(errors.Wrapf(err, "%q", d.URL), core.FieldError{Field: "url", Error: "enter a valid http(s) url"})
	}
	v := View{Title: core.CleanString(d.Title)}
	switch {
	case d.Kind == content.KindVideo:
		v.Kind = ViewVideo
		v.URL = embedURL(u)
	case d.Kind == content.KindDocument:
		v.Kind = ViewDocument
		if d.LessonPlan {
			v.Kind = ViewLessonPlan
		}
		v.URL = u.String()
		v.Zoom = DefaultZoom
		v.ZoomPercent = ZoomPercent(DefaultZoom)
	default:
		return View{}, core.NewValidationError(errors.Errorf("unknown kind %q", d.Kind), core.FieldError{Field: "kind", Error: "unknown kind"})
	}
	return v, nil
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// embedURL rewrites youtube watch, short and youtu.be links to https://www.youtube.com/embed/<id>.
// Other links are returned unchanged.
func embedURL(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "youtube-nocookie.com":
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		switch {
		case parts[0] == "watch":
			id = u.Query().Get("v")
		case len(parts) == 2 && (parts[0] == "embed" || parts[0] == "shorts" || parts[0] == "live"):
			id = parts[1]
		}
	}
	if id == "" || strings.Contains(id, "/") {
		return u.String()
	}
	return "https://www.youtube.com/embed/" + id
}
