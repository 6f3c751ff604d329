package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/session"
	"github.com/trezcool/classbook/core/user"
)

const (
	contextTokenKey   = "userToken"
	contextSessionKey = "session"
	tokenAudience     = "portal"
)

var nowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
// Id is the session id; a token stops working as soon as its session ends.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Role         user.Role `json:"role,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func newSessionClaims(conf *core.Config, sess session.Session, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	// a token never outlives its session
	exp := now.Add(conf.Server.JWTExpirationDelta)
	if sess.ExpiresAt.Before(exp) {
		exp = sess.ExpiresAt
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    conf.AppName,
			Subject:   sess.Username,
			Audience:  tokenAudience,
			ExpiresAt: exp.Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         sess.Role,
	}
}

// generateToken generates a signed JWT token string representing the session Claims.
func (s *Server) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(s.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(s.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess, nil
	}
	return session.Session{}, errUnauthorized
}

// sessionMiddleware loads the live session named by the token. It must run after the JWT middleware.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		sess, err := s.sessions.Get(ctx.Request().Context(), claims.Id)
		if err != nil {
			if errors.Cause(err) == session.ErrNotFound {
				return errSessionEnded
			}
			return errors.Wrap(err, "getting session")
		}
		ctx.Set(contextSessionKey, sess)
		return next(ctx)
	}
}

// roleMiddleware lets through sessions whose account has one of roles.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return err
			}
			for _, role := range roles {
				if sess.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func (s *Server) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	sess, err := getContextSession(ctx)
	if err != nil {
		return "", err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(s.conf.Server.JWTRefreshExpirationDelta)
	if nowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := s.generateToken(newSessionClaims(s.conf, sess, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

// person identifies the session owner in logs.
func person(ctx echo.Context) (core.Person, bool) {
	sess, err := getContextSession(ctx)
	if err != nil {
		return core.Person{}, false
	}
	return core.Person{ID: sess.ID, Username: sess.Username, Role: string(sess.Role)}, true
}
