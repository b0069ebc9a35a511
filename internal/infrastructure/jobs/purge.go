package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lastmile/admin-api/internal/core/ports"
)

// AuditPurge deletes audit entries older than the configured retention.
func AuditPurge(repo ports.AuditRepository, retention time.Duration, logger zerolog.Logger) JobFunc {
	return func(ctx context.Context) error {
		cutoff := time.Now().UTC().Add(-retention)
		removed, err := repo.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("purging audit log: %w", err)
		}
		logger.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("audit log purged")
		return nil
	}
}
