package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

type stubAccountService struct {
	loginFn          func(ctx context.Context, email, password string, staySignedIn bool) (domain.SignInResult, *domain.User, *domain.Session, error)
	logoutFn         func(ctx context.Context, principal domain.Principal) error
	refreshFn        func(ctx context.Context, principal domain.Principal, userID string) (*domain.Session, error)
	verifyPasswordFn func(ctx context.Context, userID, password string) (bool, error)
	updateSelfFn     func(ctx context.Context, userID string, in ports.UpdateSelfInput) error
}

func (s *stubAccountService) LoginWithEmail(ctx context.Context, email, password string, staySignedIn bool) (domain.SignInResult, *domain.User, *domain.Session, error) {
	return s.loginFn(ctx, email, password, staySignedIn)
}

func (s *stubAccountService) Logout(ctx context.Context, principal domain.Principal) error {
	return s.logoutFn(ctx, principal)
}

func (s *stubAccountService) RefreshCookie(ctx context.Context, principal domain.Principal, userID string) (*domain.Session, error) {
	return s.refreshFn(ctx, principal, userID)
}

func (s *stubAccountService) VerifyPassword(ctx context.Context, userID, password string) (bool, error) {
	return s.verifyPasswordFn(ctx, userID, password)
}

func (s *stubAccountService) UpdateSelf(ctx context.Context, userID string, in ports.UpdateSelfInput) error {
	return s.updateSelfFn(ctx, userID, in)
}

type stubUserService struct {
	getByPrincipalFn func(ctx context.Context, principal domain.Principal) (*domain.User, error)
	getDetailedFn    func(ctx context.Context, id string) (*domain.DetailedUser, error)
	listFn           func(ctx context.Context) ([]domain.User, error)
	isEmailFreeFn    func(ctx context.Context, email string) (bool, error)
	verifyEmailFn    func(ctx context.Context, email string) error
	addRoleFn        func(ctx context.Context, userID string, role domain.Role) (domain.Result, error)
	removeRoleFn     func(ctx context.Context, userID string, role domain.Role) (domain.Result, error)
	createFn         func(ctx context.Context, in ports.CreateAdminUserInput, creatorEmail string) (*domain.DetailedUser, error)
	createWithPwFn   func(ctx context.Context, in ports.CreateAdminUserInput, password, creatorEmail string) (*domain.DetailedUser, error)
	deleteFn         func(ctx context.Context, id string) (domain.Result, error)
}

func (s *stubUserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubUserService) GetByPrincipal(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	return s.getByPrincipalFn(ctx, principal)
}

func (s *stubUserService) GetDetailed(ctx context.Context, id string) (*domain.DetailedUser, error) {
	return s.getDetailedFn(ctx, id)
}

func (s *stubUserService) List(ctx context.Context) ([]domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) IsEmailFree(ctx context.Context, email string) (bool, error) {
	return s.isEmailFreeFn(ctx, email)
}

func (s *stubUserService) VerifyEmailIsFree(ctx context.Context, email string) error {
	return s.verifyEmailFn(ctx, email)
}

func (s *stubUserService) AddRoleToUser(ctx context.Context, userID string, role domain.Role) (domain.Result, error) {
	return s.addRoleFn(ctx, userID, role)
}

func (s *stubUserService) RemoveRoleFromUser(ctx context.Context, userID string, role domain.Role) (domain.Result, error) {
	return s.removeRoleFn(ctx, userID, role)
}

func (s *stubUserService) CreateAdminUser(ctx context.Context, in ports.CreateAdminUserInput, creatorEmail string) (*domain.DetailedUser, error) {
	return s.createFn(ctx, in, creatorEmail)
}

func (s *stubUserService) CreateAdminUserWithPassword(ctx context.Context, in ports.CreateAdminUserInput, password, creatorEmail string) (*domain.DetailedUser, error) {
	return s.createWithPwFn(ctx, in, password, creatorEmail)
}

func (s *stubUserService) DeleteUserByID(ctx context.Context, id string) (domain.Result, error) {
	return s.deleteFn(ctx, id)
}

type stubCookier struct {
	encoded *domain.Session
	cleared bool
}

func (s *stubCookier) Name() string { return "test_session" }

func (s *stubCookier) Encode(session *domain.Session) (*http.Cookie, error) {
	s.encoded = session
	return &http.Cookie{Name: "test_session", Value: "signed:" + session.ID, HttpOnly: true}, nil
}

func (s *stubCookier) Clear() *http.Cookie {
	s.cleared = true
	return &http.Cookie{Name: "test_session", Value: "", MaxAge: -1}
}

func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func authed(c echo.Context, principal domain.Principal) {
	c.Set("principal", principal)
}

func TestAccountHandler_Login_Success(t *testing.T) {
	session := &domain.Session{ID: "sess-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	accounts := &stubAccountService{
		loginFn: func(_ context.Context, email, password string, staySignedIn bool) (domain.SignInResult, *domain.User, *domain.Session, error) {
			if email != "alice@example.com" || password != "secret" || !staySignedIn {
				t.Fatalf("unexpected args: %s %s %v", email, password, staySignedIn)
			}
			return domain.SignInSuccess, &domain.User{ID: "user-1", Email: email}, session, nil
		},
	}
	cookies := &stubCookier{}
	h := NewAccountHandler(accounts, &stubUserService{}, cookies)

	c, rec := newTestContext(t, http.MethodPost, "/api/account/login",
		`{"email":"alice@example.com","password":"secret","staySignedIn":true}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cookies.encoded == nil || cookies.encoded.ID != "sess-1" {
		t.Fatal("expected the session cookie to be set")
	}

	var user map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if user["id"] != "user-1" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestAccountHandler_Login_FailureIsOpaque(t *testing.T) {
	for name, stub := range map[string]*stubAccountService{
		"unknown email": {
			loginFn: func(context.Context, string, string, bool) (domain.SignInResult, *domain.User, *domain.Session, error) {
				return domain.SignInFailed, nil, nil, nil
			},
		},
		"wrong password": {
			loginFn: func(context.Context, string, string, bool) (domain.SignInResult, *domain.User, *domain.Session, error) {
				return domain.SignInFailed, nil, nil, nil
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			cookies := &stubCookier{}
			h := NewAccountHandler(stub, &stubUserService{}, cookies)
			c, _ := newTestContext(t, http.MethodPost, "/api/account/login",
				`{"email":"alice@example.com","password":"nope"}`)

			err := h.Login(c)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected the opaque credential error, got %v", err)
			}
			if cookies.encoded != nil {
				t.Fatal("no cookie must be issued on failure")
			}
		})
	}
}

func TestAccountHandler_Login_RejectsBadPayload(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{}, &stubUserService{}, &stubCookier{})
	c, _ := newTestContext(t, http.MethodPost, "/api/account/login", `{"email":"not-an-email","password":"x"}`)

	err := h.Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid email, got %v", err)
	}
}

func TestAccountHandler_Logout(t *testing.T) {
	var invalidated domain.Principal
	accounts := &stubAccountService{
		logoutFn: func(_ context.Context, principal domain.Principal) error {
			invalidated = principal
			return nil
		},
	}
	cookies := &stubCookier{}
	h := NewAccountHandler(accounts, &stubUserService{}, cookies)

	c, rec := newTestContext(t, http.MethodPost, "/api/account/logout", "")
	authed(c, domain.Principal{UserID: "user-1", SessionID: "sess-1"})

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if invalidated.SessionID != "sess-1" {
		t.Fatalf("expected the caller's session invalidated, got %+v", invalidated)
	}
	if !cookies.cleared {
		t.Fatal("expected the cookie cleared")
	}
}

func TestAccountHandler_Me_RequiresPrincipal(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{}, &stubUserService{}, &stubCookier{})
	c, _ := newTestContext(t, http.MethodGet, "/api/account", "")

	if err := h.Me(c); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected an authentication error, got %v", err)
	}
}

func TestAccountHandler_RefreshCookie_Self(t *testing.T) {
	refreshed := &domain.Session{ID: "sess-1", UserID: "user-1", Roles: []string{string(domain.RoleSuperAdmin)}}
	accounts := &stubAccountService{
		refreshFn: func(_ context.Context, principal domain.Principal, userID string) (*domain.Session, error) {
			if userID != principal.UserID {
				t.Fatalf("handler should pass the requested id through, got %q", userID)
			}
			return refreshed, nil
		},
	}
	cookies := &stubCookier{}
	h := NewAccountHandler(accounts, &stubUserService{}, cookies)

	c, rec := newTestContext(t, http.MethodPost, "/api/account/refreshcookie", `{"userId":"user-1"}`)
	authed(c, domain.Principal{UserID: "user-1", SessionID: "sess-1"})

	if err := h.RefreshCookie(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if cookies.encoded != refreshed {
		t.Fatal("expected the refreshed session in the cookie")
	}
}

func TestAccountHandler_RefreshCookie_OtherUserRejected(t *testing.T) {
	accounts := &stubAccountService{
		refreshFn: func(_ context.Context, principal domain.Principal, userID string) (*domain.Session, error) {
			return nil, domain.ErrInvalidOperation
		},
	}
	cookies := &stubCookier{}
	h := NewAccountHandler(accounts, &stubUserService{}, cookies)

	c, _ := newTestContext(t, http.MethodPost, "/api/account/refreshcookie", `{"userId":"someone-else"}`)
	authed(c, domain.Principal{UserID: "user-1", SessionID: "sess-1"})

	if err := h.RefreshCookie(c); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected the invalid-operation error, got %v", err)
	}
	if cookies.encoded != nil {
		t.Fatal("no cookie must be issued for a rejected refresh")
	}
}

func TestAccountHandler_VerifyPassword(t *testing.T) {
	accounts := &stubAccountService{
		verifyPasswordFn: func(_ context.Context, userID, password string) (bool, error) {
			return password == "correct", nil
		},
	}
	h := NewAccountHandler(accounts, &stubUserService{}, &stubCookier{})

	c, rec := newTestContext(t, http.MethodPost, "/api/account/verifypassword", `{"password":"correct"}`)
	authed(c, domain.Principal{UserID: "user-1"})
	if err := h.VerifyPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	c, _ = newTestContext(t, http.MethodPost, "/api/account/verifypassword", `{"password":"wrong"}`)
	authed(c, domain.Principal{UserID: "user-1"})
	if err := h.VerifyPassword(c); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected the coded invalid-password error, got %v", err)
	}
}

func TestAccountHandler_UpdateSelf_EmailOnly(t *testing.T) {
	var got ports.UpdateSelfInput
	accounts := &stubAccountService{
		updateSelfFn: func(_ context.Context, userID string, in ports.UpdateSelfInput) error {
			if userID != "user-1" {
				t.Fatalf("expected the caller's id, got %q", userID)
			}
			got = in
			return nil
		},
	}
	h := NewAccountHandler(accounts, &stubUserService{}, &stubCookier{})

	// Extra fields in the payload are ignored; only the email flows through.
	c, rec := newTestContext(t, http.MethodPut, "/api/account",
		`{"email":"new@example.com","username":"hijacked"}`)
	authed(c, domain.Principal{UserID: "user-1"})

	if err := h.UpdateSelf(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got.Email != "new@example.com" {
		t.Fatalf("expected the new email, got %+v", got)
	}
}
