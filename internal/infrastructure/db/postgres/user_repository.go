package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

// UserRepository implements ports.UserRepository backed by PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, normalized_email, username, full_name, phone_number,
	personal_number, email_confirmed, password_hash, created_at, last_logged_in`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, normalized_email, username, full_name, phone_number,
			personal_number, email_confirmed, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, user.ID, user.Email, user.NormalizedEmail, user.UserName, user.FullName,
		user.PhoneNumber, user.PersonalNumber, user.EmailConfirmed, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapError(err))
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (*domain.User, error) {
	if normalizedEmail == "" {
		return nil, domain.ErrUserNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE normalized_email = $1`, normalizedEmail)
	return scanUser(row)
}

func (r *UserRepository) EmailExists(ctx context.Context, normalizedEmail string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE normalized_email = $1 AND normalized_email <> '')
	`, normalizedEmail).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email exists: %w", mapError(err))
	}
	return exists, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", mapError(err))
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateEmail(ctx context.Context, id, email, normalizedEmail string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET email = $2, normalized_email = $3 WHERE id = $1
	`, id, email, normalizedEmail)
	if err != nil {
		return fmt.Errorf("update email: %w", mapError(err))
	}
	return requireRow(res)
}

func (r *UserRepository) UpdateLastLoggedIn(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_logged_in = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", mapError(err))
	}
	return requireRow(res)
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("set password hash: %w", mapError(err))
	}
	return requireRow(res)
}

// Delete removes the user; role assignments cascade via the foreign key.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", mapError(err))
	}
	return requireRow(res)
}

func (r *UserRepository) AddRole(ctx context.Context, userID string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`, userID, role)
	if err != nil {
		return fmt.Errorf("add role: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRoleAlreadyGranted
	}
	return nil
}

func (r *UserRepository) RemoveRole(ctx context.Context, userID string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, role)
	if err != nil {
		return fmt.Errorf("remove role: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRoleNotGranted
	}
	return nil
}

func (r *UserRepository) RolesFor(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("roles for user: %w", mapError(err))
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *UserRepository) CreateRole(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING
	`, role)
	if err != nil {
		return fmt.Errorf("create role: %w", mapError(err))
	}
	return nil
}

func (r *UserRepository) RoleCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("role count: %w", mapError(err))
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u            domain.User
		lastLoggedIn sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.NormalizedEmail, &u.UserName, &u.FullName,
		&u.PhoneNumber, &u.PersonalNumber, &u.EmailConfirmed, &u.PasswordHash,
		&u.CreatedAt, &lastLoggedIn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", mapError(err))
	}
	if lastLoggedIn.Valid {
		u.LastLoggedIn = lastLoggedIn.Time.UTC()
	}
	return &u, nil
}

func requireRow(res sql.Result) error {
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// mapError translates driver errors into the domain taxonomy:
// unique violations on the email index, foreign key and check failures, and
// serialization conflicts each get a stable domain error.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		if pqErr.Constraint == "users_normalized_email_key" {
			return domain.ErrEmailAlreadyInUse
		}
		return domain.ErrDuplicateName
	case "23503", "23514": // foreign_key_violation, check_violation
		return domain.ErrConstraint
	case "40001": // serialization_failure
		return domain.ErrConcurrency
	case "25P02": // in_failed_sql_transaction
		return domain.ErrTxAborted
	}
	return err
}
