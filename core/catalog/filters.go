package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/classbook/core"
)

const (
	chapterAll   = "all"
	searchMinSim = .75
)

// ChapterFilter restricts listings to one chapter. The zero value matches everything.
type ChapterFilter struct {
	ID int
}

func (f ChapterFilter) All() bool { return f.ID == 0 }

// ParseChapterFilter parses "all", "" or a chapter id of c.
func ParseChapterFilter(c *Catalog, s string) (ChapterFilter, error) {
	s = core.CleanString(s, true /* lower */)
	if s == "" || s == chapterAll {
		return ChapterFilter{}, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return ChapterFilter{}, core.NewFieldValidationError("chapter", errInvalidChapterText)
	}
	if _, ok := c.Chapter(id); !ok {
		return ChapterFilter{}, core.NewFieldValidationError("chapter", errUnknownChapterText)
	}
	return ChapterFilter{ID: id}, nil
}

func (f ChapterFilter) Resources(resources []Resource) []Resource {
	out := make([]Resource, 0, len(resources))
	for _, r := range resources {
		if f.All() || r.Chapter == f.ID {
			out = append(out, r)
		}
	}
	return out
}

// MaterialFilter holds the material listing query.
type MaterialFilter struct {
	Category string `query:"category" json:"category" validate:"omitempty,material_category"`
	Chapter  string `query:"chapter" json:"chapter" validate:"omitempty,chapter"`
	Search   string `query:"search" json:"search" validate:"max=100"`
}

func (mf *MaterialFilter) Clean() {
	mf.Category = core.CleanString(mf.Category, true /* lower */)
	mf.Chapter = core.CleanString(mf.Chapter, true /* lower */)
	mf.Search = core.CleanString(mf.Search)
}

// matchesSearch does a case-insensitive substring match on title, then falls back to a fuzzy match of
// query against each word of title.
func matchesSearch(title, query string) bool {
	if query == "" {
		return true
	}
	title, query = strings.ToLower(title), strings.ToLower(query)
	if strings.Contains(title, query) {
		return true
	}
	q := strings.Split(query, "")
	for _, word := range strings.Fields(title) {
		m := difflib.NewMatcher(q, strings.Split(word, ""))
		// QuickRatio is an upper bound of Ratio
		if m.QuickRatio() >= searchMinSim && m.Ratio() >= searchMinSim {
			return true
		}
	}
	return false
}

var materialLess = map[string]func(a, b Material) bool{
	"id":       func(a, b Material) bool { return a.ID < b.ID },
	"title":    func(a, b Material) bool { return a.Title < b.Title },
	"chapter":  func(a, b Material) bool { return a.Chapter < b.Chapter },
	"category": func(a, b Material) bool { return a.Category < b.Category },
}

// sortMaterials orders ms by orderings, ignoring unknown fields. Without orderings ms keeps catalog order.
func sortMaterials(ms []Material, orderings []core.Ordering) {
	var keys []core.Ordering
	for _, o := range orderings {
		if _, ok := materialLess[o.Field]; ok {
			keys = append(keys, o)
		}
	}
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(ms, func(i, j int) bool {
		for _, k := range keys {
			less := materialLess[k.Field]
			a, b := ms[i], ms[j]
			if !k.Ascending {
				a, b = b, a
			}
			if less(a, b) {
				return true
			}
			if less(b, a) {
				return false
			}
		}
		return false
	})
}
