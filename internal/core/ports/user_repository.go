package ports

import (
	"context"
	"time"

	"github.com/lastmile/admin-api/internal/core/domain"
)

// UserRepository defines the persistence contract for directory records.
// The store owns the canonical record; services operate through
// request-scoped calls with no cross-request shared mutable state.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (*domain.User, error)
	EmailExists(ctx context.Context, normalizedEmail string) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateEmail(ctx context.Context, id, email, normalizedEmail string) error
	UpdateLastLoggedIn(ctx context.Context, id string, at time.Time) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error

	AddRole(ctx context.Context, userID string, role domain.Role) error
	RemoveRole(ctx context.Context, userID string, role domain.Role) error
	RolesFor(ctx context.Context, userID string) ([]string, error)

	// Role definitions; used by startup seeding.
	CreateRole(ctx context.Context, role domain.Role) error
	RoleCount(ctx context.Context) (int, error)
}

// AuditRepository persists identity audit events.
type AuditRepository interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
