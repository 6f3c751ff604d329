// Package content turns a page's text and its positional annotations into an ordered sequence of
// renderable segments.
package content

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Kind is the type of supplementary media an Annotation points to.
type Kind string

const (
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
)

var (
	errUnknownKind = errors.New("unknown annotation kind")

	kindAliases = map[string]Kind{
		"video":    KindVideo,
		"document": KindDocument,
		"pdf":      KindDocument,
	}
)

// ParseKind parses s into a Kind. "pdf" is accepted as an alias of KindDocument.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", errors.Wrapf(errUnknownKind, "%q", s)
}

func (k Kind) IsValid() bool {
	return k == KindVideo || k == KindDocument
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TextBlock is the immutable natural-language content of one page or section.
type TextBlock string

// Len returns the length of the block in characters.
// An invalid UTF-8 byte counts as one character.
func (b TextBlock) Len() int {
	return utf8.RuneCountInString(string(b))
}

// Annotation is a marker placed at a character offset of its owning TextBlock.
type Annotation struct {
	ID     string `json:"id" yaml:"id"`
	Kind   Kind   `json:"kind" yaml:"kind"`
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"` // URL or resource id
	Offset int    `json:"offset" yaml:"offset"`
}
