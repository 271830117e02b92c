package core

// scheduler.go runs the audit retention job.
//
// Entries older than the retention window are deleted in batches. The job
// runs once on start, then every CheckInterval, and stops with its context.
// A failed cycle is logged and retried on the next tick.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the audit retention job.
// Zero values use defaults.
type RetentionConfig struct {
	Retention     time.Duration // Age after which entries are deleted (default: 90 days)
	BatchSize     int           // Rows per DELETE (default: 5000)
	CheckInterval time.Duration // How often to run (default: 24h)
}

const (
	defaultRetention      = 90 * 24 * time.Hour
	defaultPurgeBatchSize = 5000
	defaultCheckInterval  = 24 * time.Hour
)

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.Retention <= 0 {
		c.Retention = defaultRetention
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultPurgeBatchSize
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultCheckInterval
	}
	return c
}

// AuditPurger deletes audit entries created before a cutoff, at most limit
// at a time, and reports how many it removed.
type AuditPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

const purgeAuditSQL = `
DELETE FROM email_list_audit
WHERE id IN (
	SELECT id FROM email_list_audit WHERE created_at < $1 LIMIT $2
)`

// PurgeBefore implements AuditPurger.
func (r *PgAuditRecorder) PurgeBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	tag, err := r.db.Exec(ctx, purgeAuditSQL, cutoff.UTC(), limit)
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunAuditRetention blocks, purging expired entries until ctx is cancelled.
func RunAuditRetention(ctx context.Context, p AuditPurger, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("audit retention started",
		"retention", cfg.Retention,
		"batch_size", cfg.BatchSize,
		"interval", cfg.CheckInterval,
	)

	// Run immediately on startup
	purgeExpired(ctx, p, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit retention stopped")
			return
		case now := <-ticker.C:
			purgeExpired(ctx, p, cfg, now)
		}
	}
}

// purgeExpired deletes batches until one comes back short. It returns the
// number of entries removed.
func purgeExpired(ctx context.Context, p AuditPurger, cfg RetentionConfig, now time.Time) int64 {
	start := time.Now()
	cutoff := now.Add(-cfg.Retention)

	var total int64
	for ctx.Err() == nil {
		n, err := p.PurgeBefore(ctx, cutoff, cfg.BatchSize)
		if err != nil {
			slog.Error("audit purge failed", "error", err, "purged", total)
			return total
		}
		total += n
		if n < int64(cfg.BatchSize) {
			break
		}
	}

	slog.Info("audit purge completed",
		"entries_purged", total,
		"cutoff", cutoff,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return total
}
