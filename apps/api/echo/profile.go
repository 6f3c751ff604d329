package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core/dashboard"
	"github.com/trezcool/classbook/core/session"
	"github.com/trezcool/classbook/core/user"
)

type ViewWardRequest struct {
	Resource string `json:"resource" validate:"required"`
}

func (s *Server) registerProfileAPI(g *echo.Group) {
	g.GET("/profile", s.getProfile)
	g.PUT("/profile", s.updateProfile)
}

// registerWardAPI expects g to be restricted to parents.
func (s *Server) registerWardAPI(g *echo.Group) {
	g.GET("", s.listWards)
	g.POST("/:id/view", s.viewAsWard)
	g.DELETE("/view", s.stopViewingWard)
}

// Handlers

func (s *Server) getProfile(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	prof, err := s.users.Profile(ctx.Request().Context(), sess.Username)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (s *Server) updateProfile(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}

	prof, err := s.users.UpdateProfile(ctx.Request().Context(), sess.Username, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (s *Server) listWards(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	wards, err := s.users.Wards(ctx.Request().Context(), sess.Username)
	if err != nil {
		return errors.Wrap(err, "listing wards")
	}
	return ctx.JSON(http.StatusOK, wards)
}

func (s *Server) viewAsWard(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data ViewWardRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ViewWardRequest")
	}
	if err := s.validateStruct(&data); err != nil {
		return err
	}
	tile, ok := dashboard.ParseTile(data.Resource)
	if !ok {
		return session.ErrInvalidTile
	}

	sess, err = s.sessions.ViewAs(ctx.Request().Context(), sess.ID, ctx.Param("id"), tile)
	if err != nil {
		return errors.Wrap(err, "viewing as ward")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (s *Server) stopViewingWard(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	sess, err = s.sessions.StopViewing(ctx.Request().Context(), sess.ID)
	if err != nil {
		return errors.Wrap(err, "stopping ward view")
	}
	return ctx.JSON(http.StatusOK, sess)
}
