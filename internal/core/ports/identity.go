package ports

import (
	"context"
	"time"

	"github.com/lastmile/admin-api/internal/core/domain"
)

// CredentialVerifier abstracts password hashing so services never depend on a
// concrete hash implementation.
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// SessionManager is the capability interface for session lifecycle: issue,
// resolve, refresh, invalidate. Services depend on this, not on the store or
// the cookie codec.
type SessionManager interface {
	Issue(ctx context.Context, userID string, roles []string, persistent bool) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, sessionID string, roles []string) (*domain.Session, error)
	Invalidate(ctx context.Context, sessionID string) error
}

// SessionRepository is the storage contract behind the SessionManager.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// AuditSink accepts audit events for asynchronous persistence. Record must not
// block the request path.
type AuditSink interface {
	Record(entry domain.AuditEntry)
}
