package ports

import (
	"context"

	"github.com/lastmile/admin-api/internal/core/domain"
)

// CreateAdminUserInput carries the admin-panel user creation fields. The
// personal number is explicit; it is never derived from the username.
type CreateAdminUserInput struct {
	Email          string
	UserName       string
	FullName       string
	PhoneNumber    string
	PersonalNumber string
	Role           domain.Role
}

// UserService is the directory service: record lookup, uniqueness checks and
// role management over the user store.
type UserService interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPrincipal(ctx context.Context, principal domain.Principal) (*domain.User, error)
	GetDetailed(ctx context.Context, id string) (*domain.DetailedUser, error)
	List(ctx context.Context) ([]domain.User, error)

	IsEmailFree(ctx context.Context, email string) (bool, error)
	VerifyEmailIsFree(ctx context.Context, email string) error

	AddRoleToUser(ctx context.Context, userID string, role domain.Role) (domain.Result, error)
	RemoveRoleFromUser(ctx context.Context, userID string, role domain.Role) (domain.Result, error)

	CreateAdminUser(ctx context.Context, in CreateAdminUserInput, creatorEmail string) (*domain.DetailedUser, error)
	CreateAdminUserWithPassword(ctx context.Context, in CreateAdminUserInput, password, creatorEmail string) (*domain.DetailedUser, error)
	DeleteUserByID(ctx context.Context, id string) (domain.Result, error)
}
