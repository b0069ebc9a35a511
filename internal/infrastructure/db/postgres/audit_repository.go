package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

// AuditRepository persists identity audit events.
type AuditRepository struct {
	db *sql.DB
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (actor, action, subject, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.Actor, entry.Action, entry.Subject, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", mapError(err))
	}
	return nil
}

// PurgeOlderThan deletes audit rows created before cutoff and reports how many
// were removed. Invoked by the recurring retention job.
func (r *AuditRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit log: %w", mapError(err))
	}
	n, _ := res.RowsAffected()
	return n, nil
}
