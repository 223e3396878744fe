package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/credgate/auth-gateway/internal/api/middleware"
	"github.com/credgate/auth-gateway/internal/core/domain"
	"github.com/credgate/auth-gateway/internal/core/ports"
)

// AccountHandler serves signup, login, logout and the protected dashboard.
type AccountHandler struct {
	registrar    ports.Registrar
	auth         ports.Authenticator
	cookieSecure bool
}

func NewAccountHandler(registrar ports.Registrar, auth ports.Authenticator, cookieSecure bool) *AccountHandler {
	return &AccountHandler{registrar: registrar, auth: auth, cookieSecure: cookieSecure}
}

type signupRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Role     string `json:"role,omitempty" form:"role"`
}

type signupResponse struct {
	Account *domain.Account `json:"account"`
}

type tokenRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type dashboardResponse struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Signup registers a new account. Browser form posts are redirected to the
// login page; API clients get the created account.
//
// @Summary      Register a new account
// @Tags         accounts
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      signupRequest  true  "Signup details"
// @Success      201   {object}  signupResponse
// @Success      303   "form signup, redirected to /"
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /signup [post]
func (h *AccountHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	account, err := h.registrar.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	if isFormPost(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return c.JSON(http.StatusCreated, signupResponse{Account: account})
}

// Token exchanges a username and password for a session grant. The grant is
// returned in the body and set as an HttpOnly cookie.
//
// @Summary      Log in
// @Tags         sessions
// @Accept       x-www-form-urlencoded,json
// @Produce      json
// @Param        username  formData  string  true  "Username"
// @Param        password  formData  string  true  "Password"
// @Success      200  {object}  tokenResponse
// @Failure      400  {object}  errorResponse  "incorrect username or password"
// @Failure      422  {object}  errorResponse
// @Failure      429  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /token [post]
// @Router       /login [post]
func (h *AccountHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	grant, err := h.auth.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    grant.Token,
		Path:     "/",
		Expires:  grant.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: grant.Token,
		TokenType:   grant.TokenType,
		ExpiresAt:   grant.ExpiresAt,
	})
}

// Logout revokes the presented session, clears the cookie and redirects to
// the login page. Requests without a session are redirected all the same.
//
// @Summary      Log out
// @Tags         sessions
// @Security     BearerAuth
// @Success      303  "redirected to /"
// @Failure      401  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /logout [get]
func (h *AccountHandler) Logout(c echo.Context) error {
	token, err := middleware.TokenFromRequest(c)
	if err != nil {
		return err
	}

	if token != "" {
		if err := h.auth.Logout(c.Request().Context(), token); err != nil {
			return err
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusSeeOther, "/")
}

// Dashboard is the protected area; it echoes the caller's session.
//
// @Summary      Protected dashboard
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  errorResponse
// @Router       /dashboard [get]
func (h *AccountHandler) Dashboard(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboardResponse{
		Username:  session.Username,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt,
	})
}

func isFormPost(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm)
}

// errorResponse documents the envelope written by api.NewHTTPErrorHandler.
type errorResponse struct {
	Error string `json:"error"`
}
