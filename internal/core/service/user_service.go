package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

// UserService implements the directory service: lookups, email uniqueness
// checks, role management and admin-initiated user provisioning.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.CredentialVerifier
	audit  ports.AuditSink
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher ports.CredentialVerifier, audit ports.AuditSink, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, audit: audit, logger: logger}
}

var _ ports.UserService = (*UserService)(nil)

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByPrincipal resolves the caller's own record. A principal without a user
// identifier means the session layer misbehaved; that is not a client error.
func (s *UserService) GetByPrincipal(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	if principal.UserID == "" {
		return nil, domain.ErrMissingIdentity
	}
	return s.repo.GetByID(ctx, principal.UserID)
}

func (s *UserService) GetDetailed(ctx context.Context, id string) (*domain.DetailedUser, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	roles, err := s.repo.RolesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.DetailedUser{User: *user, Roles: roles}, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

// IsEmailFree reports whether the normalized email is unused. The uniqueness
// option of typical identity frameworks cannot be used here because empty
// emails must be allowed without colliding; the store enforces uniqueness with
// a partial index instead and this check exists for better error messages.
func (s *UserService) IsEmailFree(ctx context.Context, email string) (bool, error) {
	normalized := domain.NormalizeEmail(email)
	if normalized == "" {
		return true, nil
	}
	exists, err := s.repo.EmailExists(ctx, normalized)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// VerifyEmailIsFree fails with ErrEmailAlreadyInUse when the email is taken.
func (s *UserService) VerifyEmailIsFree(ctx context.Context, email string) error {
	free, err := s.IsEmailFree(ctx, email)
	if err != nil {
		return err
	}
	if !free {
		return domain.ErrEmailAlreadyInUse
	}
	return nil
}

// AddRoleToUser grants an allow-listed role. A role already present yields a
// failed result, not an error; only missing users and infrastructure faults
// are raised.
func (s *UserService) AddRoleToUser(ctx context.Context, userID string, role domain.Role) (domain.Result, error) {
	if !role.Mutable() {
		return domain.Result{}, domain.ErrUnsupportedRole
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return domain.Result{}, err
	}

	if err := s.repo.AddRole(ctx, userID, role); err != nil {
		if errors.Is(err, domain.ErrRoleAlreadyGranted) {
			res := domain.Failed("UserAlreadyInRole", "user already has this role")
			s.logger.Info().
				Str("role", string(role)).
				Str("email", user.Email).
				Str("error_codes", strings.Join(res.ErrorCodes(), ", ")).
				Msg("failed adding user to role")
			return res, nil
		}
		return domain.Result{}, err
	}

	s.logger.Info().Str("role", string(role)).Str("email", user.Email).Msg("user was added to role")
	s.audit.Record(domain.AuditEntry{Actor: user.Email, Action: domain.AuditRoleGranted, Subject: userID, Detail: string(role), CreatedAt: time.Now().UTC()})
	return domain.OK(), nil
}

// RemoveRoleFromUser revokes an allow-listed role, mirroring AddRoleToUser.
func (s *UserService) RemoveRoleFromUser(ctx context.Context, userID string, role domain.Role) (domain.Result, error) {
	if !role.Mutable() {
		return domain.Result{}, domain.ErrUnsupportedRole
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return domain.Result{}, err
	}

	if err := s.repo.RemoveRole(ctx, userID, role); err != nil {
		if errors.Is(err, domain.ErrRoleNotGranted) {
			res := domain.Failed("UserNotInRole", "user does not have this role")
			s.logger.Info().
				Str("role", string(role)).
				Str("email", user.Email).
				Str("error_codes", strings.Join(res.ErrorCodes(), ", ")).
				Msg("failed removing user from role")
			return res, nil
		}
		return domain.Result{}, err
	}

	s.logger.Info().Str("role", string(role)).Str("email", user.Email).Msg("user was removed from role")
	s.audit.Record(domain.AuditEntry{Actor: user.Email, Action: domain.AuditRoleRevoked, Subject: userID, Detail: string(role), CreatedAt: time.Now().UTC()})
	return domain.OK(), nil
}

// CreateAdminUser provisions a user and grants the requested admin role. The
// creator email is mandatory so every admin action stays attributable.
func (s *UserService) CreateAdminUser(ctx context.Context, in ports.CreateAdminUserInput, creatorEmail string) (*domain.DetailedUser, error) {
	user, err := s.createAdminUser(ctx, in, creatorEmail)
	if err != nil {
		return nil, err
	}
	return s.GetDetailed(ctx, user.ID)
}

// CreateAdminUserWithPassword additionally sets an initial password.
func (s *UserService) CreateAdminUserWithPassword(ctx context.Context, in ports.CreateAdminUserInput, password, creatorEmail string) (*domain.DetailedUser, error) {
	user, err := s.createAdminUser(ctx, in, creatorEmail)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	return s.GetDetailed(ctx, user.ID)
}

func (s *UserService) createAdminUser(ctx context.Context, in ports.CreateAdminUserInput, creatorEmail string) (*domain.User, error) {
	if creatorEmail == "" {
		return nil, fmt.Errorf("creator of new accounts must have an email set: %w", domain.ErrIllegalArgument)
	}
	if !in.Role.Mutable() {
		return nil, domain.ErrUnsupportedRole
	}
	if !domain.ValidPersonalNumber(in.PersonalNumber) {
		return nil, fmt.Errorf("personal number is required and must be 10-12 digits: %w", domain.ErrIllegalArgument)
	}

	user := &domain.User{
		ID:              uuid.NewString(),
		Email:           in.Email,
		NormalizedEmail: domain.NormalizeEmail(in.Email),
		UserName:        in.UserName,
		FullName:        in.FullName,
		PhoneNumber:     in.PhoneNumber,
		PersonalNumber:  in.PersonalNumber,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Info().
			Str("email", user.Email).
			Str("creator_email", creatorEmail).
			Err(err).
			Msg("user admin creation attempt failed")
		return nil, fmt.Errorf("user creation from admin failed: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("creator_email", creatorEmail).
		Msg("new user created via admin panel")
	s.audit.Record(domain.AuditEntry{Actor: creatorEmail, Action: domain.AuditUserCreated, Subject: user.ID, Detail: user.Email, CreatedAt: time.Now().UTC()})

	if err := s.repo.AddRole(ctx, user.ID, in.Role); err != nil && !errors.Is(err, domain.ErrRoleAlreadyGranted) {
		return nil, err
	}
	return user, nil
}

// DeleteUserByID removes the user and, by cascade, its role assignments.
func (s *UserService) DeleteUserByID(ctx context.Context, id string) (domain.Result, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Result{}, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrConstraint) {
			res := domain.Failed("ConstraintViolation", "user is referenced by other records")
			s.logger.Warn().
				Str("user_id", user.ID).
				Str("email", user.Email).
				Str("error_codes", strings.Join(res.ErrorCodes(), ", ")).
				Msg("failed to delete user")
			return res, nil
		}
		return domain.Result{}, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user deleted")
	s.audit.Record(domain.AuditEntry{Actor: user.Email, Action: domain.AuditUserDeleted, Subject: user.ID, CreatedAt: time.Now().UTC()})
	return domain.OK(), nil
}
