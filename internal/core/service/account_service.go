package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

// AccountService implements login, logout and session cookie maintenance. It
// depends only on capability ports, never on a concrete hash or store.
type AccountService struct {
	repo     ports.UserRepository
	verifier ports.CredentialVerifier
	sessions ports.SessionManager
	audit    ports.AuditSink
	logger   zerolog.Logger
}

func NewAccountService(
	repo ports.UserRepository,
	verifier ports.CredentialVerifier,
	sessions ports.SessionManager,
	audit ports.AuditSink,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{repo: repo, verifier: verifier, sessions: sessions, audit: audit, logger: logger}
}

var _ ports.AccountService = (*AccountService)(nil)

// LoginWithEmail authenticates credentials and, on success, refreshes the
// last-login timestamp and issues a new session. Both failure branches return
// the same opaque failed result: the caller cannot tell an unknown account
// from a wrong password. The audit trail, in contrast, is user-identifying.
func (s *AccountService) LoginWithEmail(ctx context.Context, email, password string, staySignedIn bool) (domain.SignInResult, *domain.User, *domain.Session, error) {
	user, err := s.repo.GetByNormalizedEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Info().Str("email", email).Msg("user login attempt failed")
		s.audit.Record(domain.AuditEntry{Actor: email, Action: domain.AuditLoginFailed, Detail: "unknown email", CreatedAt: time.Now().UTC()})
		return domain.SignInFailed, nil, nil, nil
	}
	if err != nil {
		return domain.SignInFailed, nil, nil, err
	}

	if user.PasswordHash == "" || !s.verifier.Verify(user.PasswordHash, password) {
		s.logger.Info().Str("email", email).Msg("user login attempt failed")
		s.audit.Record(domain.AuditEntry{Actor: email, Action: domain.AuditLoginFailed, Subject: user.ID, Detail: "wrong password", CreatedAt: time.Now().UTC()})
		return domain.SignInFailed, nil, nil, nil
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLoggedIn(ctx, user.ID, now); err != nil {
		return domain.SignInFailed, nil, nil, err
	}

	roles, err := s.repo.RolesFor(ctx, user.ID)
	if err != nil {
		return domain.SignInFailed, nil, nil, err
	}
	session, err := s.sessions.Issue(ctx, user.ID, roles, staySignedIn)
	if err != nil {
		return domain.SignInFailed, nil, nil, err
	}

	// Fetch the record again so the returned view always reflects what was
	// persisted, updated timestamp included.
	refreshed, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return domain.SignInFailed, nil, nil, err
	}

	s.logger.Info().Str("email", email).Msg("user logged in")
	s.audit.Record(domain.AuditEntry{Actor: email, Action: domain.AuditLoginSucceeded, Subject: user.ID, CreatedAt: now})
	return domain.SignInSuccess, refreshed, session, nil
}

// Logout invalidates the caller's session.
func (s *AccountService) Logout(ctx context.Context, principal domain.Principal) error {
	if err := s.sessions.Invalidate(ctx, principal.SessionID); err != nil {
		return err
	}
	s.logger.Info().Msg("user signed out")
	s.audit.Record(domain.AuditEntry{Actor: principal.UserID, Action: domain.AuditLogout, CreatedAt: time.Now().UTC()})
	return nil
}

// RefreshCookie reissues the request sender's own session with a fresh role
// snapshot. It cannot be used to refresh someone else's cookie: a userID other
// than the authenticated principal is rejected outright.
func (s *AccountService) RefreshCookie(ctx context.Context, principal domain.Principal, userID string) (*domain.Session, error) {
	if userID == "" || userID != principal.UserID {
		return nil, fmt.Errorf("cookie refresh may only target the authenticated caller: %w", domain.ErrInvalidOperation)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.repo.RolesFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Refresh(ctx, principal.SessionID, roles)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", user.Email).Msg("user session refreshed without password")
	s.audit.Record(domain.AuditEntry{Actor: user.Email, Action: domain.AuditCookieRefresh, Subject: user.ID, CreatedAt: time.Now().UTC()})
	return session, nil
}

// VerifyPassword checks the supplied password against the stored hash.
func (s *AccountService) VerifyPassword(ctx context.Context, userID, password string) (bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.PasswordHash == "" {
		return false, nil
	}
	return s.verifier.Verify(user.PasswordHash, password), nil
}

// UpdateSelf updates the caller's own email. Username and full name are kept
// as issued at creation, preserving the externally-issued identity name.
func (s *AccountService) UpdateSelf(ctx context.Context, userID string, in ports.UpdateSelfInput) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateEmail(ctx, user.ID, in.Email, domain.NormalizeEmail(in.Email)); err != nil {
		return err
	}

	s.audit.Record(domain.AuditEntry{Actor: user.Email, Action: domain.AuditSelfUpdated, Subject: user.ID, Detail: in.Email, CreatedAt: time.Now().UTC()})
	return nil
}
