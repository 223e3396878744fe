package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/credgate/auth-gateway/internal/core/domain"
)

const (
	// SessionCookie carries the grant for browser clients.
	SessionCookie = "credgate_session"
	// ContextSessionKey is where Session stores the validated *domain.Session.
	ContextSessionKey = "session"
)

// SessionValidator resolves a presented token to a live session.
type SessionValidator interface {
	Session(ctx context.Context, token string) (*domain.Session, error)
}

// Session requires a valid grant, from the Authorization header or the
// session cookie, and injects the resulting session into the context.
func Session(v SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := TokenFromRequest(c)
			if err != nil {
				return err
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
			}

			session, err := v.Session(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidSession) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
				}
				return err
			}

			c.Set(ContextSessionKey, session)
			return next(c)
		}
	}
}

// TokenFromRequest returns the bearer token, falling back to the session
// cookie. It returns "" when neither is present, and a 401 error for a
// malformed Authorization header.
func TokenFromRequest(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return parts[1], nil
	}

	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value, nil
	}
	return "", nil
}
