// Package seed provisions the role catalog and the first admin account on a
// fresh database. All identity values come from configuration; nothing is
// hard-coded.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
	"github.com/lastmile/admin-api/internal/infrastructure/config"
)

type Seeder struct {
	repo   ports.UserRepository
	hasher ports.CredentialVerifier
	cfg    config.SeedConfig
	logger zerolog.Logger
}

func NewSeeder(repo ports.UserRepository, hasher ports.CredentialVerifier, cfg config.SeedConfig, logger zerolog.Logger) *Seeder {
	return &Seeder{
		repo:   repo,
		hasher: hasher,
		cfg:    cfg,
		logger: logger.With().Str("component", "seeder").Logger(),
	}
}

// Run seeds roles and the bootstrap admin. A database that already holds any
// role definition is considered seeded and is left untouched.
func (s *Seeder) Run(ctx context.Context) error {
	count, err := s.repo.RoleCount(ctx)
	if err != nil {
		return fmt.Errorf("checking role catalog: %w", err)
	}
	if count > 0 {
		s.logger.Debug().Msg("database already seeded")
		return nil
	}

	if err := s.repo.CreateRole(ctx, domain.RoleSuperAdmin); err != nil {
		return fmt.Errorf("creating role %s: %w", domain.RoleSuperAdmin, err)
	}
	s.logger.Info().Str("role", string(domain.RoleSuperAdmin)).Msg("role created")

	if s.cfg.AdminEmail == "" {
		s.logger.Warn().Msg("no bootstrap admin configured; skipping admin creation")
		return nil
	}
	return s.createAdmin(ctx)
}

func (s *Seeder) createAdmin(ctx context.Context) error {
	// The seeder writes through the repository, so it applies the same
	// personal-number rule the admin endpoints enforce.
	if !domain.ValidPersonalNumber(s.cfg.AdminPersonalNumber) {
		return fmt.Errorf("bootstrap admin personal number %q must be 10-12 digits", s.cfg.AdminPersonalNumber)
	}

	user := &domain.User{
		ID:              uuid.NewString(),
		Email:           s.cfg.AdminEmail,
		NormalizedEmail: domain.NormalizeEmail(s.cfg.AdminEmail),
		UserName:        s.cfg.AdminUserName,
		FullName:        s.cfg.AdminFullName,
		PersonalNumber:  s.cfg.AdminPersonalNumber,
		EmailConfirmed:  true,
		CreatedAt:       time.Now().UTC(),
	}
	if user.UserName == "" {
		user.UserName = s.cfg.AdminEmail
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return fmt.Errorf("creating bootstrap admin: %w", err)
	}
	if err := s.repo.AddRole(ctx, user.ID, domain.RoleSuperAdmin); err != nil {
		return fmt.Errorf("granting %s to bootstrap admin: %w", domain.RoleSuperAdmin, err)
	}

	if s.cfg.AdminPassword != "" {
		hash, err := s.hasher.Hash(s.cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("hashing bootstrap admin password: %w", err)
		}
		if err := s.repo.SetPasswordHash(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("storing bootstrap admin password: %w", err)
		}
	}

	s.logger.Info().Str("user_id", user.ID).Msg("bootstrap admin created")
	return nil
}
