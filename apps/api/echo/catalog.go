package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core/catalog"
	"github.com/trezcool/classbook/core/content"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/core/viewer"
)

func (s *Server) registerCatalogAPI(g *echo.Group) {
	g.GET("/classes", s.listClasses)
	g.GET("/subjects", s.listSubjects)
	g.GET("/chapters", s.listChapters)
	g.GET("/activities", s.listActivities, roleMiddleware(user.RoleTeacher))
	g.GET("/assessment-classes", s.listAssessmentClasses, roleMiddleware(user.RoleTeacher))

	bg := g.Group("/subjects/:subject/book")
	bg.GET("", s.bookOutline)
	pg := bg.Group("/pages/:page")
	pg.GET("", s.renderPage)
	pg.GET("/annotations/:annotation", s.viewAnnotation)
	pg.GET("/annotations/:annotation/document", s.annotationDocument)
	pg.GET("/resources/:resource", s.viewResource)
	pg.GET("/resources/:resource/document", s.resourceDocument)

	mg := g.Group("/materials")
	mg.GET("", s.listMaterials)
	mg.GET("/:id", s.viewMaterial)
	mg.GET("/:id/document", s.materialDocument)
}

// Handlers

func (s *Server) listClasses(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.catalog.Classes())
}

func (s *Server) listSubjects(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.catalog.Subjects())
}

func (s *Server) listChapters(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.catalog.Chapters())
}

func (s *Server) listActivities(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.catalog.Activities())
}

func (s *Server) listAssessmentClasses(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.catalog.AssessmentClasses())
}

func (s *Server) bookOutline(ctx echo.Context) error {
	outline, err := s.catalog.Outline(ctx.Param("subject"))
	if err != nil {
		return errors.Wrap(err, "getting book outline")
	}
	return ctx.JSON(http.StatusOK, outline)
}

func (s *Server) renderPage(ctx echo.Context) error {
	number, err := intParam(ctx, "page")
	if err != nil {
		return err
	}
	page, err := s.catalog.RenderPage(ctx.Param("subject"), number, ctx.QueryParam("chapter"))
	if err != nil {
		return errors.Wrap(err, "rendering page")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (s *Server) annotation(ctx echo.Context) (content.Annotation, error) {
	number, err := intParam(ctx, "page")
	if err != nil {
		return content.Annotation{}, err
	}
	a, err := s.catalog.Annotation(ctx.Param("subject"), number, ctx.Param("annotation"))
	return a, errors.Wrap(err, "getting annotation")
}

func (s *Server) viewAnnotation(ctx echo.Context) error {
	a, err := s.annotation(ctx)
	if err != nil {
		return err
	}
	return s.resolve(ctx, viewer.Descriptor{Kind: a.Kind, Title: a.Label, URL: a.Target})
}

func (s *Server) annotationDocument(ctx echo.Context) error {
	a, err := s.annotation(ctx)
	if err != nil {
		return err
	}
	return s.renderDocument(ctx, viewer.Descriptor{Kind: a.Kind, Title: a.Label, URL: a.Target})
}

func (s *Server) resource(ctx echo.Context) (catalog.Resource, error) {
	number, err := intParam(ctx, "page")
	if err != nil {
		return catalog.Resource{}, err
	}
	id, err := intParam(ctx, "resource")
	if err != nil {
		return catalog.Resource{}, err
	}
	r, err := s.catalog.Resource(ctx.Param("subject"), number, id)
	return r, errors.Wrap(err, "getting resource")
}

func (s *Server) viewResource(ctx echo.Context) error {
	r, err := s.resource(ctx)
	if err != nil {
		return err
	}
	return s.resolve(ctx, viewer.Descriptor{Kind: r.Kind, Title: r.Title, URL: r.URL})
}

func (s *Server) resourceDocument(ctx echo.Context) error {
	r, err := s.resource(ctx)
	if err != nil {
		return err
	}
	return s.renderDocument(ctx, viewer.Descriptor{Kind: r.Kind, Title: r.Title, URL: r.URL})
}

func (s *Server) listMaterials(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	filter := new(catalog.MaterialFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to MaterialFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	materials, err := s.catalog.Materials(sess.EffectiveRole(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (s *Server) material(ctx echo.Context) (catalog.Material, error) {
	sess, err := getContextSession(ctx)
	if err != nil {
		return catalog.Material{}, err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return catalog.Material{}, err
	}
	m, err := s.catalog.Material(sess.EffectiveRole(), id)
	return m, errors.Wrap(err, "getting material")
}

func materialDescriptor(m catalog.Material) viewer.Descriptor {
	return viewer.Descriptor{
		Kind:       content.KindDocument,
		Title:      m.Title,
		URL:        m.URL,
		LessonPlan: m.Category == catalog.CategoryLessonPlan,
	}
}

func (s *Server) viewMaterial(ctx echo.Context) error {
	m, err := s.material(ctx)
	if err != nil {
		return err
	}
	return s.resolve(ctx, materialDescriptor(m))
}

func (s *Server) materialDocument(ctx echo.Context) error {
	m, err := s.material(ctx)
	if err != nil {
		return err
	}
	return s.renderDocument(ctx, materialDescriptor(m))
}

// Viewer

func (s *Server) resolve(ctx echo.Context, d viewer.Descriptor) error {
	view, err := viewer.Resolve(d)
	if err != nil {
		return errors.Wrap(err, "resolving view")
	}
	return ctx.JSON(http.StatusOK, view)
}

// renderDocument answers `?page=&zoom=` for a document target. Videos have no document.
// Pages outside the document snap to its first or last page.
func (s *Server) renderDocument(ctx echo.Context, d viewer.Descriptor) error {
	view, err := viewer.Resolve(d)
	if err != nil {
		return errors.Wrap(err, "resolving view")
	}
	if view.Kind == viewer.ViewVideo {
		return errHttpNotFound
	}
	page, err := viewer.ParsePage(ctx.QueryParam("page"))
	if err != nil {
		return err
	}
	zoom, err := viewer.ParseZoom(ctx.QueryParam("zoom"))
	if err != nil {
		return err
	}

	pv, err := s.renderer.Render(ctx.Request().Context(), viewer.Document{URL: view.URL, Title: view.Title}, page, zoom)
	if err != nil {
		return docUnavailable(err)
	}
	return ctx.JSON(http.StatusOK, pv)
}
