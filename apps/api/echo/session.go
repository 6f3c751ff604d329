package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/dashboard"
	"github.com/trezcool/classbook/core/session"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token   string           `json:"token"`
		Session *session.Session `json:"session,omitempty"`
	}
)

func (lr *LoginRequest) Validate(s *Server) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return s.validateStruct(lr)
}

func (s *Server) registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc) {
	// un-authed endpoints
	g.POST("/auth/login", s.login)

	// authed endpoints
	ag := g.Group("", authed...)
	ag.POST("/auth/logout", s.logout)
	ag.POST("/auth/token-refresh", s.tokenRefresh)
	ag.GET("/session", s.getSession)
	ag.GET("/dashboard", s.getDashboard)
}

// Handlers

func (s *Server) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(s); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	acc, err := s.users.Authenticate(rctx, data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	sess, err := s.sessions.Start(rctx, acc)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	token, err := s.generateToken(newSessionClaims(s.conf, sess))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Session: &sess})
}

func (s *Server) logout(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if err := s.sessions.End(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "ending session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) tokenRefresh(ctx echo.Context) error {
	token, err := s.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (s *Server) getSession(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (s *Server) getDashboard(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dashboard.For(sess.EffectiveRole(), s.catalog.Snapshot()))
}

// validateStruct validates v and translates the field errors.
func (s *Server) validateStruct(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return core.TranslateValidationErrors(err, s.translator)
	}
	return nil
}
