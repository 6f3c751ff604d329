package content

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrInvalidOffset         = errors.New("annotation offset out of range")
	ErrDuplicateAnnotationID = errors.New("duplicate annotation id")
)

// OffsetError reports an annotation placed outside [0, Length] of its TextBlock.
type OffsetError struct {
	AnnotationID string
	Offset       int
	Length       int
}

func (err *OffsetError) Error() string {
	return fmt.Sprintf("annotation %q: offset %d outside [0, %d]", err.AnnotationID, err.Offset, err.Length)
}

func (err *OffsetError) Unwrap() error { return ErrInvalidOffset }

// DuplicateIDError reports two annotations of the same block sharing an id.
type DuplicateIDError struct {
	AnnotationID string
}

func (err *DuplicateIDError) Error() string {
	return fmt.Sprintf("annotation %q: id used more than once", err.AnnotationID)
}

func (err *DuplicateIDError) Unwrap() error { return ErrDuplicateAnnotationID }

// Interleave splices annotation markers into block at their offsets.
//
// Annotations are ordered by ascending offset; annotations sharing an offset keep their input
// order. Every marker is preceded by the text since the previous offset, except that markers
// sharing an offset follow each other directly. The output always starts and ends with a
// TextSegment (possibly empty), and concatenating its TextSegments yields block unchanged.
//
// The first annotation with an offset outside [0, block.Len()] or a repeated non-empty id is
// reported as an *OffsetError or *DuplicateIDError, and no segments are returned.
// Neither block nor annotations are modified.
func Interleave(block TextBlock, annotations []Annotation) (Segments, error) {
	text := string(block)
	if len(annotations) == 0 {
		return Segments{TextSegment{Text: text}}, nil
	}

	length := block.Len()
	seen := make(map[string]struct{}, len(annotations))
	for _, a := range annotations {
		if a.Offset < 0 || a.Offset > length {
			return nil, &OffsetError{AnnotationID: a.ID, Offset: a.Offset, Length: length}
		}
		if a.ID == "" {
			continue
		}
		if _, ok := seen[a.ID]; ok {
			return nil, &DuplicateIDError{AnnotationID: a.ID}
		}
		seen[a.ID] = struct{}{}
	}

	sorted := make([]Annotation, len(annotations))
	copy(sorted, annotations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	idx := byteOffsets(text, length)
	segs := make(Segments, 0, 2*len(sorted)+1)
	cursor := 0
	for i, a := range sorted {
		if i == 0 || a.Offset > cursor {
			segs = append(segs, TextSegment{Text: text[idx[cursor]:idx[a.Offset]]})
		}
		segs = append(segs, MarkerSegment{Annotation: a})
		cursor = a.Offset
	}
	segs = append(segs, TextSegment{Text: text[idx[cursor]:]})
	return segs, nil
}

// byteOffsets maps every character position in [0, n] of s to its byte offset.
func byteOffsets(s string, n int) []int {
	idx := make([]int, 0, n+1)
	for i := range s {
		idx = append(idx, i)
	}
	return append(idx, len(s))
}
