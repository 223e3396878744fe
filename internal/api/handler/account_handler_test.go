package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/credgate/auth-gateway/internal/api/middleware"
	"github.com/credgate/auth-gateway/internal/core/domain"
	"github.com/credgate/auth-gateway/internal/core/ports"
)

type stubRegistrar struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error)
}

func (s *stubRegistrar) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, in)
}

type stubAuthenticator struct {
	authenticateFn func(ctx context.Context, username, password string) (*domain.SessionGrant, error)
	logoutFn       func(ctx context.Context, token string) error
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, username, password string) (*domain.SessionGrant, error) {
	return s.authenticateFn(ctx, username, password)
}

func (s *stubAuthenticator) Session(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrInvalidSession
}

func (s *stubAuthenticator) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAccountHandler_Signup_JSON(t *testing.T) {
	e := newEcho()
	reg := &stubRegistrar{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.Account, error) {
			if in.Username != "alice" || in.Password != "s3cret!" || in.Role != "" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return domain.NewAccount(in.Username, "$2a$hash", in.Role, time.Now()), nil
		},
	}
	h := NewAccountHandler(reg, &stubAuthenticator{}, false)

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":"alice","password":"s3cret!"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Signup(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	account, ok := resp["account"].(map[string]any)
	if !ok {
		t.Fatalf("expected account in response: %s", rec.Body.String())
	}
	if account["username"] != "alice" || account["role"] != domain.RoleUser {
		t.Fatalf("unexpected account payload: %+v", account)
	}
	if strings.Contains(rec.Body.String(), "$2a$hash") {
		t.Fatalf("response leaks password hash")
	}
}

func TestAccountHandler_Signup_FormRedirects(t *testing.T) {
	e := newEcho()
	reg := &stubRegistrar{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.Account, error) {
			if in.Username != "bob" || in.Password != "hunter2" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return domain.NewAccount(in.Username, "hash", "", time.Now()), nil
		},
	}
	h := NewAccountHandler(reg, &stubAuthenticator{}, false)

	form := url.Values{"username": {"bob"}, "password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	if err := h.Signup(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}

func TestAccountHandler_Signup_BadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"username":`, http.StatusBadRequest},
		{"missing password", `{"username":"alice"}`, http.StatusUnprocessableEntity},
		{"missing username", `{"password":"pw"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			reg := &stubRegistrar{
				registerFn: func(context.Context, ports.RegisterInput) (*domain.Account, error) {
					t.Fatalf("registrar must not be called")
					return nil, nil
				},
			}
			h := NewAccountHandler(reg, &stubAuthenticator{}, false)

			req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			err := h.Signup(e.NewContext(req, rec))
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != tc.code {
				t.Fatalf("expected HTTP %d, got %v", tc.code, err)
			}
		})
	}
}

func TestAccountHandler_Signup_Duplicate(t *testing.T) {
	e := newEcho()
	reg := &stubRegistrar{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Account, error) {
			return nil, domain.ErrDuplicateAccount
		},
	}
	h := NewAccountHandler(reg, &stubAuthenticator{}, false)

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":"bob","password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Signup(e.NewContext(req, rec)); !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAccountHandler_Token_Success(t *testing.T) {
	e := newEcho()
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	auth := &stubAuthenticator{
		authenticateFn: func(_ context.Context, username, password string) (*domain.SessionGrant, error) {
			if username != "alice" || password != "s3cret!" {
				t.Fatalf("unexpected credentials: %s/%s", username, password)
			}
			return &domain.SessionGrant{ID: "sid", Token: "tok", TokenType: domain.TokenTypeBearer, ExpiresAt: expires}, nil
		},
	}
	h := NewAccountHandler(&stubRegistrar{}, auth, true)

	form := url.Values{"username": {"alice"}, "password": {"s3cret!"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	if err := h.Token(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "tok" || resp["token_type"] != "bearer" {
		t.Fatalf("unexpected token payload: %+v", resp)
	}

	cookie := findCookie(rec, middleware.SessionCookie)
	if cookie == nil {
		t.Fatalf("expected session cookie")
	}
	if cookie.Value != "tok" || !cookie.HttpOnly || !cookie.Secure {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
}

func TestAccountHandler_Token_InvalidCredentials(t *testing.T) {
	e := newEcho()
	auth := &stubAuthenticator{
		authenticateFn: func(context.Context, string, string) (*domain.SessionGrant, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAccountHandler(&stubRegistrar{}, auth, false)

	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{"username":"alice","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Token(e.NewContext(req, rec)); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if findCookie(rec, middleware.SessionCookie) != nil {
		t.Fatalf("no cookie should be set on failed login")
	}
}

func TestAccountHandler_Logout(t *testing.T) {
	cases := []struct {
		name      string
		header    string
		cookie    string
		wantToken string
	}{
		{"bearer header", "Bearer tok-1", "", "tok-1"},
		{"cookie", "", "tok-2", "tok-2"},
		{"no session", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			var got string
			auth := &stubAuthenticator{
				logoutFn: func(_ context.Context, token string) error {
					got = token
					return nil
				},
			}
			h := NewAccountHandler(&stubRegistrar{}, auth, false)

			req := httptest.NewRequest(http.MethodGet, "/logout", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: tc.cookie})
			}
			rec := httptest.NewRecorder()

			if err := h.Logout(e.NewContext(req, rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", rec.Code)
			}
			if got != tc.wantToken {
				t.Fatalf("expected logout of %q, got %q", tc.wantToken, got)
			}

			cookie := findCookie(rec, middleware.SessionCookie)
			if cookie == nil || cookie.MaxAge >= 0 || cookie.Value != "" {
				t.Fatalf("expected cleared session cookie, got %+v", cookie)
			}
		})
	}
}

func TestAccountHandler_Logout_StoreDown(t *testing.T) {
	e := newEcho()
	auth := &stubAuthenticator{
		logoutFn: func(context.Context, string) error { return domain.ErrStoreUnavailable },
	}
	h := NewAccountHandler(&stubRegistrar{}, auth, false)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer tok")
	rec := httptest.NewRecorder()

	if err := h.Logout(e.NewContext(req, rec)); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAccountHandler_Dashboard(t *testing.T) {
	e := newEcho()
	h := NewAccountHandler(&stubRegistrar{}, &stubAuthenticator{}, false)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextSessionKey, &domain.Session{ID: "sid", Username: "alice", Role: domain.RoleUser})

	if err := h.Dashboard(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" {
		t.Fatalf("unexpected dashboard payload: %+v", resp)
	}
}

func TestAccountHandler_Dashboard_NoSession(t *testing.T) {
	e := newEcho()
	h := NewAccountHandler(&stubRegistrar{}, &stubAuthenticator{}, false)

	rec := httptest.NewRecorder()
	err := h.Dashboard(e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard", nil), rec))

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
