package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/catalog"
	"github.com/trezcool/classbook/core/session"
	"github.com/trezcool/classbook/core/user"
)

var (
	errUnauthorized     = echo.NewHTTPError(http.StatusUnauthorized, middleware.ErrJWTMissing.Message)
	errSessionEnded     = echo.NewHTTPError(http.StatusUnauthorized, "session ended or expired")
	errInvalidCreds     = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
	errRefreshExpired   = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound     = echo.NewHTTPError(http.StatusNotFound, "not found")
	errDocUnavailable   = echo.NewHTTPError(http.StatusBadGateway, "document unavailable")
	errNotViewingAsWard = echo.NewHTTPError(http.StatusConflict, "not viewing as a ward")
)

// domainHTTPError maps the errors of the core services to their HTTP form. Unknown errors are returned as is.
func domainHTTPError(err error) error {
	switch errors.Cause(err) {
	case user.ErrInvalidCredentials:
		return errInvalidCreds
	case catalog.ErrNotFound, user.ErrWardNotFound, user.ErrNotFound:
		return errHttpNotFound
	case catalog.ErrForbidden, session.ErrNotParent, user.ErrNotParent:
		return errHttpForbidden
	case session.ErrNotFound:
		return errSessionEnded
	case session.ErrInvalidTile:
		return core.NewFieldValidationError("resource", "select one of the ward tiles")
	case session.ErrNotViewing:
		return errNotViewingAsWard
	}
	return err
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(domainHTTPError(err)).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
			if code >= http.StatusInternalServerError {
				args := []interface{}{errors.Wrap(err, "http error")}
				if p, ok := person(ctx); ok {
					args = append(args, p)
				}
				logger.Error(http.StatusText(code), args...)
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Error()
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg)}
			if p, ok := person(ctx); ok {
				args = append(args, p)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// docUnavailable reports a document that could not be fetched or read.
func docUnavailable(err error) *echo.HTTPError {
	return &echo.HTTPError{Code: errDocUnavailable.Code, Message: errDocUnavailable.Message, Internal: err}
}
