package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/credgate/auth-gateway/internal/api/middleware"
	"github.com/credgate/auth-gateway/internal/core/domain"
)

// ctxSession extracts the session injected by the Session middleware. A
// missing value means the route was wired without the middleware.
func ctxSession(c echo.Context) (*domain.Session, error) {
	session, _ := c.Get(middleware.ContextSessionKey).(*domain.Session)
	if session == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return session, nil
}
