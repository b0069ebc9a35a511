package ports

import (
	"context"

	"github.com/lastmile/admin-api/internal/core/domain"
)

// UpdateSelfInput carries the self-service profile fields. Only the email is
// editable; username and full name stay as issued at creation.
type UpdateSelfInput struct {
	Email string
}

// AccountService authenticates credentials and manages the session lifecycle
// behind the cookie.
type AccountService interface {
	// LoginWithEmail returns a failed result with a nil user for an unknown
	// email; that is a normal outcome, not an error. On success the returned
	// user view reflects the refreshed last-login timestamp.
	LoginWithEmail(ctx context.Context, email, password string, staySignedIn bool) (domain.SignInResult, *domain.User, *domain.Session, error)
	Logout(ctx context.Context, principal domain.Principal) error
	// RefreshCookie reissues the caller's own session. A userID naming anyone
	// but the authenticated principal is rejected.
	RefreshCookie(ctx context.Context, principal domain.Principal, userID string) (*domain.Session, error)
	VerifyPassword(ctx context.Context, userID, password string) (bool, error)
	UpdateSelf(ctx context.Context, userID string, in UpdateSelfInput) error
}
