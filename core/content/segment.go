package content

import (
	"encoding/json"
	"strings"
)

type SegmentType string

const (
	SegmentText   SegmentType = "text"
	SegmentMarker SegmentType = "marker"
)

// Segment is one contiguous piece of rendered output: either a TextSegment or a MarkerSegment.
type Segment interface {
	Type() SegmentType
	segment()
}

type TextSegment struct {
	Text string
}

func (TextSegment) Type() SegmentType { return SegmentText }
func (TextSegment) segment()          {}

func (s TextSegment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type SegmentType `json:"type"`
		Text string      `json:"text"`
	}{SegmentText, s.Text})
}

type MarkerSegment struct {
	Annotation Annotation
}

func (MarkerSegment) Type() SegmentType { return SegmentMarker }
func (MarkerSegment) segment()          {}

func (s MarkerSegment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       SegmentType `json:"type"`
		Annotation Annotation  `json:"annotation"`
	}{SegmentMarker, s.Annotation})
}

// Segments is the ordered output of one render pass.
type Segments []Segment

// Text concatenates every TextSegment in order.
func (segs Segments) Text() string {
	var b strings.Builder
	for _, seg := range segs {
		if ts, ok := seg.(TextSegment); ok {
			b.WriteString(ts.Text)
		}
	}
	return b.String()
}

// Markers returns the annotations of every MarkerSegment in order.
func (segs Segments) Markers() []Annotation {
	markers := make([]Annotation, 0, len(segs)/2)
	for _, seg := range segs {
		if ms, ok := seg.(MarkerSegment); ok {
			markers = append(markers, ms.Annotation)
		}
	}
	return markers
}
