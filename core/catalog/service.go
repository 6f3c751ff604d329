package catalog

import (
	"context"
	"fmt"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/content"
	"github.com/trezcool/classbook/core/user"
)

var (
	// errors
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("permission denied")
	errNoCatalog = errors.New("repository returned no catalog")
)

type (
	// Repository loads a complete catalog from its source.
	Repository interface {
		Load(ctx context.Context) (*Catalog, error)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger

		mu  sync.RWMutex
		cat *Catalog
	}

	PageSummary struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	}

	Outline struct {
		Subject Subject       `json:"subject"`
		BookID  string        `json:"book_id"`
		Title   string        `json:"title"`
		Pages   []PageSummary `json:"pages"`
	}
)

// NewService loads the catalog from repo. It fails if the catalog is structurally invalid; pages that
// cannot be rendered are only logged.
func NewService(
	ctx context.Context,
	repo Repository,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) (*Service, error) {
	svc := &Service{repo: repo, validate: validate, translator: translator, logger: logger}
	if err := svc.Reload(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// Reload re-reads the repository and swaps the snapshot. On error the previous snapshot stays in use.
func (svc *Service) Reload(ctx context.Context) error {
	cat, err := svc.repo.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "loading catalog")
	}
	if cat == nil {
		return errNoCatalog
	}
	if err := cat.Validate(); err != nil {
		return err
	}
	for _, pe := range cat.Check() {
		svc.logger.Warn(fmt.Sprintf("catalog: %v", pe), map[string]interface{}{
			"book": pe.Book, "page": pe.Page, "code": pe.Reason.Code, "annotation_id": pe.Reason.AnnotationID,
		})
	}

	svc.mu.Lock()
	svc.cat = cat
	svc.mu.Unlock()
	return nil
}

// Snapshot returns the current catalog. It must not be modified.
func (svc *Service) Snapshot() *Catalog {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.cat
}

func (svc *Service) Classes() []Class           { return svc.Snapshot().Classes }
func (svc *Service) AssessmentClasses() []Class { return svc.Snapshot().AssessmentClasses }
func (svc *Service) Subjects() []Subject        { return svc.Snapshot().Subjects }
func (svc *Service) Chapters() []Chapter        { return svc.Snapshot().Chapters }
func (svc *Service) Activities() []Activity     { return svc.Snapshot().Activities }

func (svc *Service) book(cat *Catalog, subjectID string) (Subject, Book, error) {
	subj, ok := cat.Subject(core.CleanString(subjectID, true /* lower */))
	if !ok {
		return Subject{}, Book{}, errors.Wrapf(ErrNotFound, "subject %q", subjectID)
	}
	book, ok := cat.Book(subj.Book)
	if !ok {
		return Subject{}, Book{}, errors.Wrapf(ErrNotFound, "book %q", subj.Book)
	}
	return subj, book, nil
}

func (svc *Service) page(cat *Catalog, subjectID string, number int) (Subject, Book, Page, error) {
	subj, book, err := svc.book(cat, subjectID)
	if err != nil {
		return Subject{}, Book{}, Page{}, err
	}
	page, ok := book.Page(number)
	if !ok {
		return Subject{}, Book{}, Page{}, errors.Wrapf(ErrNotFound, "page %d of %q", number, book.ID)
	}
	return subj, book, page, nil
}

// Outline lists the pages of the book read for a subject.
func (svc *Service) Outline(subjectID string) (Outline, error) {
	subj, book, err := svc.book(svc.Snapshot(), subjectID)
	if err != nil {
		return Outline{}, err
	}
	pages := make([]PageSummary, 0, len(book.Pages))
	for _, p := range book.Pages {
		pages = append(pages, PageSummary{Number: p.Number, Title: p.Title})
	}
	return Outline{Subject: subj, BookID: book.ID, Title: book.Title, Pages: pages}, nil
}

// RenderPage interleaves the annotations of a page into its text. chapter filters the page resources.
// A page whose block fails to render is still returned, see RenderedPage.
func (svc *Service) RenderPage(subjectID string, number int, chapter string) (RenderedPage, error) {
	cat := svc.Snapshot()
	filter, err := ParseChapterFilter(cat, chapter)
	if err != nil {
		return RenderedPage{}, err
	}
	subj, book, page, err := svc.page(cat, subjectID, number)
	if err != nil {
		return RenderedPage{}, err
	}
	rp := renderPage(subj.ID, book, page, filter)
	if rp.RenderError != nil {
		svc.logger.Warn("rendering page", map[string]interface{}{
			"subject": subj.ID, "page": number, "code": rp.RenderError.Code, "annotation_id": rp.RenderError.AnnotationID,
		})
	}
	return rp, nil
}

// Annotation returns one annotation of a page.
func (svc *Service) Annotation(subjectID string, number int, annotationID string) (content.Annotation, error) {
	_, _, page, err := svc.page(svc.Snapshot(), subjectID, number)
	if err != nil {
		return content.Annotation{}, err
	}
	a, ok := page.Annotation(annotationID)
	if !ok {
		return content.Annotation{}, errors.Wrapf(ErrNotFound, "annotation %q", annotationID)
	}
	return a, nil
}

// Resource returns one learning resource listed on a page.
func (svc *Service) Resource(subjectID string, number, resourceID int) (Resource, error) {
	_, _, page, err := svc.page(svc.Snapshot(), subjectID, number)
	if err != nil {
		return Resource{}, err
	}
	for _, r := range page.Resources {
		if r.ID == resourceID {
			return r, nil
		}
	}
	return Resource{}, errors.Wrapf(ErrNotFound, "resource %d", resourceID)
}

// Materials lists the materials visible to role matching filter.
// Asking for a teacher-only category as another role is ErrForbidden.
func (svc *Service) Materials(role user.Role, filter MaterialFilter, orderings ...core.Ordering) ([]Material, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, core.TranslateValidationErrors(err, svc.translator)
	}
	category := MaterialCategory(filter.Category)
	if category != "" && !category.VisibleTo(role) {
		return nil, errors.Wrapf(ErrForbidden, "%s materials", category)
	}

	cat := svc.Snapshot()
	chapter, err := ParseChapterFilter(cat, filter.Chapter)
	if err != nil {
		return nil, err
	}

	materials := make([]Material, 0)
	for _, m := range cat.Materials {
		if !m.Category.VisibleTo(role) ||
			(category != "" && m.Category != category) ||
			(!chapter.All() && m.Chapter != chapter.ID) ||
			!matchesSearch(m.Title, filter.Search) {
			continue
		}
		materials = append(materials, m)
	}
	sortMaterials(materials, orderings)
	return materials, nil
}

// Material returns a material visible to role. Hidden materials are reported as ErrNotFound.
func (svc *Service) Material(role user.Role, id int) (Material, error) {
	m, ok := svc.Snapshot().Material(id)
	if !ok || !m.Category.VisibleTo(role) {
		return Material{}, errors.Wrapf(ErrNotFound, "material %d", id)
	}
	return m, nil
}
