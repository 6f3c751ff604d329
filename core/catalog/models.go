// Package catalog holds the static portal content: classes, subjects, books with annotated pages,
// chapters and downloadable materials.
package catalog

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core/content"
	"github.com/trezcool/classbook/core/user"
)

type MaterialCategory string

const (
	CategoryWorksheet  MaterialCategory = "worksheet"
	CategoryAnswerKey  MaterialCategory = "answer-key"
	CategoryLessonPlan MaterialCategory = "lesson-plan"
	CategoryAssessment MaterialCategory = "assessment"
)

var MaterialCategories = []MaterialCategory{CategoryWorksheet, CategoryAnswerKey, CategoryLessonPlan, CategoryAssessment}

func (c MaterialCategory) IsValid() bool {
	for _, cat := range MaterialCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// TeacherOnly reports whether only teachers may see materials of this category.
func (c MaterialCategory) TeacherOnly() bool {
	return c == CategoryLessonPlan || c == CategoryAnswerKey
}

// VisibleTo reports whether role may see materials of this category.
func (c MaterialCategory) VisibleTo(role user.Role) bool {
	return !c.TeacherOnly() || role == user.RoleTeacher
}

type (
	Class struct {
		ID   string `json:"id" yaml:"id"`
		Name string `json:"name" yaml:"name"`
	}

	Subject struct {
		ID    string `json:"id" yaml:"id"`
		Title string `json:"title" yaml:"title"`
		Image string `json:"image" yaml:"image"`
		Color string `json:"color" yaml:"color"`
		Book  string `json:"book" yaml:"book"`
	}

	Chapter struct {
		ID   int    `json:"id" yaml:"id"`
		Name string `json:"name" yaml:"name"`
	}

	Activity struct {
		ID   int    `json:"id" yaml:"id"`
		Name string `json:"name" yaml:"name"`
	}

	// Resource is a learning resource listed next to a book page.
	Resource struct {
		ID      int          `json:"id" yaml:"id"`
		Kind    content.Kind `json:"kind" yaml:"kind"`
		Title   string       `json:"title" yaml:"title"`
		URL     string       `json:"url" yaml:"url"`
		Chapter int          `json:"chapter" yaml:"chapter"`
	}

	Page struct {
		Number      int                  `json:"number" yaml:"number"`
		Title       string               `json:"title" yaml:"title"`
		Content     content.TextBlock    `json:"content" yaml:"content"`
		Annotations []content.Annotation `json:"annotations" yaml:"annotations"`
		Resources   []Resource           `json:"resources" yaml:"resources"`
	}

	Book struct {
		ID    string `json:"id" yaml:"id"`
		Title string `json:"title" yaml:"title"`
		Pages []Page `json:"pages" yaml:"pages"`
	}

	// Material is a chapter-scoped downloadable document.
	Material struct {
		ID       int              `json:"id" yaml:"id"`
		Category MaterialCategory `json:"category" yaml:"category"`
		Title    string           `json:"title" yaml:"title"`
		URL      string           `json:"url" yaml:"url"`
		Chapter  int              `json:"chapter" yaml:"chapter"`
	}

	Catalog struct {
		Classes           []Class    `json:"classes" yaml:"classes"`
		AssessmentClasses []Class    `json:"assessment_classes" yaml:"assessment_classes"`
		Subjects          []Subject  `json:"subjects" yaml:"subjects"`
		Chapters          []Chapter  `json:"chapters" yaml:"chapters"`
		Activities        []Activity `json:"activities" yaml:"activities"`
		Books             []Book     `json:"books" yaml:"books"`
		Materials         []Material `json:"materials" yaml:"materials"`
	}
)

// Lookups

func (c *Catalog) Subject(id string) (Subject, bool) {
	for _, s := range c.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

func (c *Catalog) Book(id string) (Book, bool) {
	for _, b := range c.Books {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}

func (c *Catalog) Chapter(id int) (Chapter, bool) {
	for _, ch := range c.Chapters {
		if ch.ID == id {
			return ch, true
		}
	}
	return Chapter{}, false
}

func (c *Catalog) Material(id int) (Material, bool) {
	for _, m := range c.Materials {
		if m.ID == id {
			return m, true
		}
	}
	return Material{}, false
}

// Page returns the page numbered n (1-based) of b.
func (b Book) Page(n int) (Page, bool) {
	if n < 1 || n > len(b.Pages) {
		return Page{}, false
	}
	return b.Pages[n-1], true
}

func (p Page) Annotation(id string) (content.Annotation, bool) {
	for _, a := range p.Annotations {
		if a.ID == id {
			return a, true
		}
	}
	return content.Annotation{}, false
}

// Validate checks the structural invariants of the catalog: unique ids per collection, known references,
// valid kinds and categories, and page numbers contiguous from 1.
// Annotation offsets are not checked here, see Check.
func (c *Catalog) Validate() error {
	var errs []string
	report := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	classIDs := make(map[string]bool, len(c.Classes))
	for _, cl := range c.Classes {
		if cl.ID == "" || classIDs[cl.ID] {
			report("class %q: missing or duplicate id", cl.ID)
		}
		classIDs[cl.ID] = true
	}
	assessIDs := make(map[string]bool, len(c.AssessmentClasses))
	for _, cl := range c.AssessmentClasses {
		if cl.ID == "" || assessIDs[cl.ID] {
			report("assessment class %q: missing or duplicate id", cl.ID)
		}
		assessIDs[cl.ID] = true
	}
	chapterIDs := make(map[int]bool, len(c.Chapters))
	for _, ch := range c.Chapters {
		if ch.ID <= 0 || chapterIDs[ch.ID] {
			report("chapter %d: invalid or duplicate id", ch.ID)
		}
		chapterIDs[ch.ID] = true
	}
	activityIDs := make(map[int]bool, len(c.Activities))
	for _, a := range c.Activities {
		if activityIDs[a.ID] {
			report("activity %d: duplicate id", a.ID)
		}
		activityIDs[a.ID] = true
	}

	bookIDs := make(map[string]bool, len(c.Books))
	for _, b := range c.Books {
		if b.ID == "" || bookIDs[b.ID] {
			report("book %q: missing or duplicate id", b.ID)
		}
		bookIDs[b.ID] = true

		resourceIDs := make(map[int]bool)
		for i, p := range b.Pages {
			if p.Number != i+1 {
				report("book %q: page %d is numbered %d", b.ID, i+1, p.Number)
			}
			for _, a := range p.Annotations {
				if !a.Kind.IsValid() {
					report("book %q page %d: annotation %q has kind %q", b.ID, p.Number, a.ID, a.Kind)
				}
				if a.Target == "" {
					report("book %q page %d: annotation %q has no target", b.ID, p.Number, a.ID)
				}
			}
			for _, r := range p.Resources {
				if resourceIDs[r.ID] {
					report("book %q page %d: duplicate resource %d", b.ID, p.Number, r.ID)
				}
				resourceIDs[r.ID] = true
				if !r.Kind.IsValid() {
					report("book %q page %d: resource %d has kind %q", b.ID, p.Number, r.ID, r.Kind)
				}
				if !chapterIDs[r.Chapter] {
					report("book %q page %d: resource %d has unknown chapter %d", b.ID, p.Number, r.ID, r.Chapter)
				}
			}
		}
	}

	subjectIDs := make(map[string]bool, len(c.Subjects))
	for _, s := range c.Subjects {
		if s.ID == "" || subjectIDs[s.ID] {
			report("subject %q: missing or duplicate id", s.ID)
		}
		subjectIDs[s.ID] = true
		if !bookIDs[s.Book] {
			report("subject %q: unknown book %q", s.ID, s.Book)
		}
	}

	materialIDs := make(map[int]bool, len(c.Materials))
	for _, m := range c.Materials {
		if m.ID <= 0 || materialIDs[m.ID] {
			report("material %d: invalid or duplicate id", m.ID)
		}
		materialIDs[m.ID] = true
		if !m.Category.IsValid() {
			report("material %d: unknown category %q", m.ID, m.Category)
		}
		if !chapterIDs[m.Chapter] {
			report("material %d: unknown chapter %d", m.ID, m.Chapter)
		}
		if m.URL == "" {
			report("material %d: no url", m.ID)
		}
	}

	if len(errs) > 0 {
		return &InvalidCatalogError{Problems: errs}
	}
	return nil
}

// PageError is a page whose text block cannot be rendered.
type PageError struct {
	Book   string
	Page   int
	Reason RenderError
}

func (pe PageError) Error() string {
	return fmt.Sprintf("book %q page %d: %s", pe.Book, pe.Page, pe.Reason.Message)
}

// Check renders every page of every book and reports each block that fails.
func (c *Catalog) Check() []PageError {
	var pageErrs []PageError
	for _, b := range c.Books {
		for _, p := range b.Pages {
			if _, err := content.Interleave(p.Content, p.Annotations); err != nil {
				pageErrs = append(pageErrs, PageError{Book: b.ID, Page: p.Number, Reason: newRenderError(err)})
			}
		}
	}
	return pageErrs
}

// InvalidCatalogError lists every structural problem found by Validate.
type InvalidCatalogError struct {
	Problems []string
}

func (err *InvalidCatalogError) Error() string {
	if len(err.Problems) == 1 {
		return "invalid catalog: " + err.Problems[0]
	}
	return fmt.Sprintf("invalid catalog: %s (and %d more)", err.Problems[0], len(err.Problems)-1)
}

func (err *InvalidCatalogError) Unwrap() error { return ErrInvalidCatalog }

var ErrInvalidCatalog = errors.New("invalid catalog")
