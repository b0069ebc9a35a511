package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

// stubSessions tracks session manager calls without a real store.
type stubSessions struct {
	sessions    map[string]*domain.Session
	issued      int
	refreshed   int
	invalidated []string
	nextID      int
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[string]*domain.Session)}
}

func (s *stubSessions) Issue(_ context.Context, userID string, roles []string, persistent bool) (*domain.Session, error) {
	s.issued++
	s.nextID++
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:         string(rune('a' + s.nextID)),
		UserID:     userID,
		Roles:      roles,
		Persistent: persistent,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(time.Hour),
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *stubSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *stubSessions) Refresh(_ context.Context, id string, roles []string) (*domain.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.refreshed++
	sess.Roles = roles
	sess.ExpiresAt = time.Now().UTC().Add(time.Hour)
	return sess, nil
}

func (s *stubSessions) Invalidate(_ context.Context, id string) error {
	s.invalidated = append(s.invalidated, id)
	delete(s.sessions, id)
	return nil
}

func newAccountService(repo *stubUserRepo) (*AccountService, *stubSessions, *memAudit) {
	sessions := newStubSessions()
	audit := &memAudit{}
	svc := NewAccountService(repo, stubHasher{}, sessions, audit, zerolog.Nop())
	return svc, sessions, audit
}

func seedAccount(repo *stubUserRepo, id, email, password string) {
	repo.users[id] = &domain.User{
		ID:              id,
		Email:           email,
		NormalizedEmail: domain.NormalizeEmail(email),
		UserName:        "user-" + id,
		PasswordHash:    "hashed:" + password,
		CreatedAt:       time.Now().UTC().Add(-24 * time.Hour),
	}
}

func TestAccountService_Login_UnknownEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc, sessions, _ := newAccountService(repo)

	result, user, sess, err := svc.LoginWithEmail(context.Background(), "ghost@x.com", "whatever", false)
	if err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
	if result.Succeeded || user != nil || sess != nil {
		t.Fatalf("expected opaque failure with nil user, got %+v %+v", result, user)
	}
	if sessions.issued != 0 {
		t.Fatalf("no session may be issued on failure")
	}
}

func TestAccountService_Login_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	seedAccount(repo, "u1", "carol@x.com", "goodpass")
	svc, sessions, audit := newAccountService(repo)

	result, user, _, err := svc.LoginWithEmail(context.Background(), "carol@x.com", "badpass", false)
	if err != nil {
		t.Fatalf("wrong password must not error, got %v", err)
	}
	if result.Succeeded || user != nil {
		t.Fatalf("expected failed result and nil user, got %+v %+v", result, user)
	}
	if !repo.users["u1"].LastLoggedIn.IsZero() {
		t.Fatalf("failed login must not touch last-login timestamp")
	}
	if sessions.issued != 0 {
		t.Fatalf("no session may be issued on failure")
	}
	// The audit trail, unlike the response, names the account.
	if len(audit.entries) != 1 || audit.entries[0].Action != domain.AuditLoginFailed {
		t.Fatalf("expected login_failed audit entry, got %+v", audit.entries)
	}
}

func TestAccountService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	seedAccount(repo, "u1", "carol@x.com", "goodpass")
	repo.roles["u1"] = []string{string(domain.RoleSuperAdmin)}
	svc, sessions, _ := newAccountService(repo)

	before := time.Now().UTC()
	result, user, sess, err := svc.LoginWithEmail(context.Background(), "Carol@X.com", "goodpass", true)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !result.Succeeded || user == nil || sess == nil {
		t.Fatalf("expected success, got %+v %+v %+v", result, user, sess)
	}
	if user.LastLoggedIn.Before(before) {
		t.Fatalf("last-login timestamp not refreshed: %v", user.LastLoggedIn)
	}
	if !sess.Persistent {
		t.Fatalf("staySignedIn must produce a persistent session")
	}
	if len(sess.Roles) != 1 || sess.Roles[0] != string(domain.RoleSuperAdmin) {
		t.Fatalf("session must snapshot roles, got %v", sess.Roles)
	}
	if sessions.issued != 1 {
		t.Fatalf("expected exactly one session, got %d", sessions.issued)
	}
}

func TestAccountService_RefreshCookie_OtherUserRejected(t *testing.T) {
	repo := newStubUserRepo()
	seedAccount(repo, "u1", "carol@x.com", "pw")
	seedAccount(repo, "u2", "mallory@x.com", "pw")
	svc, sessions, _ := newAccountService(repo)

	sess, _ := sessions.Issue(context.Background(), "u2", nil, false)
	principal := domain.Principal{UserID: "u2", SessionID: sess.ID}

	// Privilege escalation guard: a caller can never refresh another user's session.
	if _, err := svc.RefreshCookie(context.Background(), principal, "u1"); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if sessions.refreshed != 0 {
		t.Fatalf("no session may be mutated on a cross-user refresh attempt")
	}
}

func TestAccountService_RefreshCookie_Self(t *testing.T) {
	repo := newStubUserRepo()
	seedAccount(repo, "u1", "carol@x.com", "pw")
	repo.roles["u1"] = []string{string(domain.RoleSuperAdmin)}
	svc, sessions, _ := newAccountService(repo)

	sess, _ := sessions.Issue(context.Background(), "u1", nil, false)
	principal := domain.Principal{UserID: "u1", SessionID: sess.ID}

	refreshed, err := svc.RefreshCookie(context.Background(), principal, "u1")
	if err != nil {
		t.Fatalf("RefreshCookie: %v", err)
	}
	if refreshed.ID != sess.ID {
		t.Fatalf("refresh must reuse the caller's session, got %q", refreshed.ID)
	}
	// The refresh picks up the current role snapshot.
	if len(refreshed.Roles) != 1 || refreshed.Roles[0] != string(domain.RoleSuperAdmin) {
		t.Fatalf("expected refreshed role snapshot, got %v", refreshed.Roles)
	}
}

func TestAccountService_VerifyPassword(t *testing.T) {
	repo := newStubUserRepo()
	seedAccount(repo, "u1", "carol@x.com", "goodpass")
	svc, _, _ := newAccountService(repo)

	if _, err := svc.VerifyPassword(context.Background(), "ghost", "pw"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	ok, err := svc.VerifyPassword(context.Background(), "u1", "goodpass")
	if err != nil || !ok {
		t.Fatalf("expected password to verify, got ok=%v err=%v", ok, err)
	}
	ok, err = svc.VerifyPassword(context.Background(), "u1", "badpass")
	if err != nil || ok {
		t.Fatalf("expected password mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestAccountService_UpdateSelf_EmailOnly(t *testing.T) {
	repo := newStubUserRepo()
	seedAccount(repo, "u1", "old@x.com", "pw")
	svc, _, _ := newAccountService(repo)

	if err := svc.UpdateSelf(context.Background(), "u1", ports.UpdateSelfInput{Email: "new@x.com"}); err != nil {
		t.Fatalf("UpdateSelf: %v", err)
	}
	u := repo.users["u1"]
	if u.Email != "new@x.com" || u.NormalizedEmail != "NEW@X.COM" {
		t.Fatalf("email not updated: %+v", u)
	}
	if u.UserName != "user-u1" {
		t.Fatalf("username must stay immutable, got %q", u.UserName)
	}
}

func TestAccountService_UpdateSelf_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	seedAccount(repo, "u1", "one@x.com", "pw")
	seedAccount(repo, "u2", "two@x.com", "pw")
	svc, _, _ := newAccountService(repo)

	err := svc.UpdateSelf(context.Background(), "u1", ports.UpdateSelfInput{Email: "two@x.com"})
	if !errors.Is(err, domain.ErrEmailAlreadyInUse) {
		t.Fatalf("expected ErrEmailAlreadyInUse, got %v", err)
	}
}

func TestAccountService_Logout(t *testing.T) {
	repo := newStubUserRepo()
	svc, sessions, _ := newAccountService(repo)

	sess, _ := sessions.Issue(context.Background(), "u1", nil, false)
	if err := svc.Logout(context.Background(), domain.Principal{UserID: "u1", SessionID: sess.ID}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(sessions.invalidated) != 1 || sessions.invalidated[0] != sess.ID {
		t.Fatalf("session not invalidated: %v", sessions.invalidated)
	}
}
