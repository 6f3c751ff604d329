package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classbook/core/catalog"
	"github.com/trezcool/classbook/core/content"
)

type (
	classRow struct {
		ID           string `db:"id"`
		Name         string `db:"name"`
		IsAssessment bool   `db:"is_assessment"`
		Position     int    `db:"position"`
	}

	subjectRow struct {
		ID       string      `db:"id"`
		Title    string      `db:"title"`
		Image    null.String `db:"image"`
		Color    null.String `db:"color"`
		BookID   string      `db:"book_id"`
		Position int         `db:"position"`
	}

	namedRow struct {
		ID   int    `db:"id"`
		Name string `db:"name"`
	}

	bookRow struct {
		ID    string `db:"id"`
		Title string `db:"title"`
	}

	pageRow struct {
		BookID  string `db:"book_id"`
		Number  int    `db:"number"`
		Title   string `db:"title"`
		Content string `db:"content"`
	}

	annotationRow struct {
		BookID     string      `db:"book_id"`
		PageNumber int         `db:"page_number"`
		ID         string      `db:"id"`
		Kind       string      `db:"kind"`
		Label      null.String `db:"label"`
		Target     string      `db:"target"`
		Offset     int         `db:"char_offset"`
		Position   int         `db:"position"`
	}

	resourceRow struct {
		BookID     string `db:"book_id"`
		PageNumber int    `db:"page_number"`
		ID         int    `db:"id"`
		Kind       string `db:"kind"`
		Title      string `db:"title"`
		URL        string `db:"url"`
		ChapterID  int    `db:"chapter_id"`
	}

	materialRow struct {
		ID        int    `db:"id"`
		Category  string `db:"category"`
		Title     string `db:"title"`
		URL       string `db:"url"`
		ChapterID int    `db:"chapter_id"`
	}
)

type pageKey struct {
	book   string
	number int
}

// CatalogRepository reads and writes the catalog tables.
type CatalogRepository struct {
	db *sqlx.DB
}

var _ catalog.Repository = (*CatalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (repo *CatalogRepository) Load(ctx context.Context) (*catalog.Catalog, error) {
	var (
		classes     []classRow
		subjects    []subjectRow
		chapters    []namedRow
		activities  []namedRow
		books       []bookRow
		pages       []pageRow
		annotations []annotationRow
		resources   []resourceRow
		materials   []materialRow
	)
	queries := []struct {
		dest  interface{}
		query string
	}{
		{&classes, `SELECT id, name, is_assessment, position FROM class ORDER BY is_assessment, position`},
		{&subjects, `SELECT id, title, image, color, book_id, position FROM subject ORDER BY position`},
		{&chapters, `SELECT id, name FROM chapter ORDER BY id`},
		{&activities, `SELECT id, name FROM activity ORDER BY id`},
		{&books, `SELECT id, title FROM book ORDER BY id`},
		{&pages, `SELECT book_id, number, title, content FROM page ORDER BY book_id, number`},
		{&annotations, `SELECT book_id, page_number, id, kind, label, target, char_offset, position FROM annotation ORDER BY book_id, page_number, position`},
		{&resources, `SELECT book_id, page_number, id, kind, title, url, chapter_id FROM resource ORDER BY book_id, page_number, id`},
		{&materials, `SELECT id, category, title, url, chapter_id FROM material ORDER BY id`},
	}
	for _, q := range queries {
		if err := repo.db.SelectContext(ctx, q.dest, q.query); err != nil {
			return nil, errors.Wrap(err, "selecting catalog")
		}
	}

	cat := &catalog.Catalog{
		Classes:           make([]catalog.Class, 0),
		AssessmentClasses: make([]catalog.Class, 0),
		Subjects:          make([]catalog.Subject, 0, len(subjects)),
		Chapters:          make([]catalog.Chapter, 0, len(chapters)),
		Activities:        make([]catalog.Activity, 0, len(activities)),
		Books:             make([]catalog.Book, 0, len(books)),
		Materials:         make([]catalog.Material, 0, len(materials)),
	}
	for _, r := range classes {
		if r.IsAssessment {
			cat.AssessmentClasses = append(cat.AssessmentClasses, catalog.Class{ID: r.ID, Name: r.Name})
		} else {
			cat.Classes = append(cat.Classes, catalog.Class{ID: r.ID, Name: r.Name})
		}
	}
	for _, r := range subjects {
		cat.Subjects = append(cat.Subjects, catalog.Subject{
			ID: r.ID, Title: r.Title, Image: r.Image.String, Color: r.Color.String, Book: r.BookID,
		})
	}
	for _, r := range chapters {
		cat.Chapters = append(cat.Chapters, catalog.Chapter{ID: r.ID, Name: r.Name})
	}
	for _, r := range activities {
		cat.Activities = append(cat.Activities, catalog.Activity{ID: r.ID, Name: r.Name})
	}
	for _, r := range materials {
		cat.Materials = append(cat.Materials, catalog.Material{
			ID: r.ID, Category: catalog.MaterialCategory(r.Category), Title: r.Title, URL: r.URL, Chapter: r.ChapterID,
		})
	}

	pageAnns := make(map[pageKey][]content.Annotation)
	for _, r := range annotations {
		kind, err := content.ParseKind(r.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "annotation %q", r.ID)
		}
		k := pageKey{r.BookID, r.PageNumber}
		pageAnns[k] = append(pageAnns[k], content.Annotation{
			ID: r.ID, Kind: kind, Label: r.Label.String, Target: r.Target, Offset: r.Offset,
		})
	}
	pageRes := make(map[pageKey][]catalog.Resource)
	for _, r := range resources {
		kind, err := content.ParseKind(r.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "resource %d", r.ID)
		}
		k := pageKey{r.BookID, r.PageNumber}
		pageRes[k] = append(pageRes[k], catalog.Resource{
			ID: r.ID, Kind: kind, Title: r.Title, URL: r.URL, Chapter: r.ChapterID,
		})
	}
	bookPages := make(map[string][]catalog.Page)
	for _, r := range pages {
		k := pageKey{r.BookID, r.Number}
		bookPages[r.BookID] = append(bookPages[r.BookID], catalog.Page{
			Number:      r.Number,
			Title:       r.Title,
			Content:     content.TextBlock(r.Content),
			Annotations: pageAnns[k],
			Resources:   pageRes[k],
		})
	}
	for _, r := range books {
		cat.Books = append(cat.Books, catalog.Book{ID: r.ID, Title: r.Title, Pages: bookPages[r.ID]})
	}
	return cat, nil
}

// Save replaces the stored catalog with cat in one transaction.
func (repo *CatalogRepository) Save(ctx context.Context, cat *catalog.Catalog) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"material", "resource", "annotation", "page", "subject", "book", "activity", "chapter", "class"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clearing %s", table)
		}
	}

	insert := func(query string, arg interface{}) error {
		_, err := tx.NamedExecContext(ctx, query, arg)
		return err
	}

	for i, c := range cat.Classes {
		if err = insert(`INSERT INTO class (id, name, is_assessment, position) VALUES (:id, :name, :is_assessment, :position)`,
			classRow{ID: c.ID, Name: c.Name, Position: i}); err != nil {
			return errors.Wrap(err, "inserting class")
		}
	}
	for i, c := range cat.AssessmentClasses {
		if err = insert(`INSERT INTO class (id, name, is_assessment, position) VALUES (:id, :name, :is_assessment, :position)`,
			classRow{ID: c.ID, Name: c.Name, IsAssessment: true, Position: i}); err != nil {
			return errors.Wrap(err, "inserting assessment class")
		}
	}
	for _, ch := range cat.Chapters {
		if err = insert(`INSERT INTO chapter (id, name) VALUES (:id, :name)`, namedRow{ID: ch.ID, Name: ch.Name}); err != nil {
			return errors.Wrap(err, "inserting chapter")
		}
	}
	for _, a := range cat.Activities {
		if err = insert(`INSERT INTO activity (id, name) VALUES (:id, :name)`, namedRow{ID: a.ID, Name: a.Name}); err != nil {
			return errors.Wrap(err, "inserting activity")
		}
	}
	for _, b := range cat.Books {
		if err = insert(`INSERT INTO book (id, title) VALUES (:id, :title)`, bookRow{ID: b.ID, Title: b.Title}); err != nil {
			return errors.Wrap(err, "inserting book")
		}
		for _, p := range b.Pages {
			if err = insert(`INSERT INTO page (book_id, number, title, content) VALUES (:book_id, :number, :title, :content)`,
				pageRow{BookID: b.ID, Number: p.Number, Title: p.Title, Content: string(p.Content)}); err != nil {
				return errors.Wrapf(err, "inserting page %d of %q", p.Number, b.ID)
			}
			for pos, a := range p.Annotations {
				row := annotationRow{
					BookID: b.ID, PageNumber: p.Number, ID: a.ID, Kind: string(a.Kind),
					Label: null.NewString(a.Label, a.Label != ""), Target: a.Target, Offset: a.Offset, Position: pos,
				}
				if err = insert(`INSERT INTO annotation (book_id, page_number, id, kind, label, target, char_offset, position)
					VALUES (:book_id, :page_number, :id, :kind, :label, :target, :char_offset, :position)`, row); err != nil {
					return errors.Wrapf(err, "inserting annotation %q", a.ID)
				}
			}
			for _, r := range p.Resources {
				row := resourceRow{
					BookID: b.ID, PageNumber: p.Number, ID: r.ID, Kind: string(r.Kind), Title: r.Title, URL: r.URL, ChapterID: r.Chapter,
				}
				if err = insert(`INSERT INTO resource (book_id, page_number, id, kind, title, url, chapter_id)
					VALUES (:book_id, :page_number, :id, :kind, :title, :url, :chapter_id)`, row); err != nil {
					return errors.Wrapf(err, "inserting resource %d", r.ID)
				}
			}
		}
	}
	for i, s := range cat.Subjects {
		row := subjectRow{
			ID: s.ID, Title: s.Title, Image: null.NewString(s.Image, s.Image != ""),
			Color: null.NewString(s.Color, s.Color != ""), BookID: s.Book, Position: i,
		}
		if err = insert(`INSERT INTO subject (id, title, image, color, book_id, position)
			VALUES (:id, :title, :image, :color, :book_id, :position)`, row); err != nil {
			return errors.Wrap(err, "inserting subject")
		}
	}
	for _, m := range cat.Materials {
		row := materialRow{ID: m.ID, Category: string(m.Category), Title: m.Title, URL: m.URL, ChapterID: m.Chapter}
		if err = insert(`INSERT INTO material (id, category, title, url, chapter_id)
			VALUES (:id, :category, :title, :url, :chapter_id)`, row); err != nil {
			return errors.Wrap(err, "inserting material")
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing catalog")
	}
	return nil
}
