package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RecipientPurger deletes recipients that were removed longer than
// Retention ago.
type RecipientPurger struct {
	DB        *sql.DB
	Retention time.Duration
	Now       func() time.Time
	Log       *zap.Logger
}

// NewRecipientPurger returns a purger on db using the wall clock.
func NewRecipientPurger(db *sql.DB, retention time.Duration, log *zap.Logger) *RecipientPurger {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecipientPurger{DB: db, Retention: retention, Now: time.Now, Log: log}
}

// Purge deletes the expired removed recipients and returns how many rows
// went away.
func (p *RecipientPurger) Purge(ctx context.Context) (int64, error) {
	cutoff := p.Now().Add(-p.Retention)
	res, err := p.DB.ExecContext(ctx,
		`DELETE FROM recipients WHERE deleted = true AND removed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge recipients: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge recipients: %w", err)
	}
	return n, nil
}

// Run purges every interval until ctx is done. Failures are logged and the
// next tick tries again.
func (p *RecipientPurger) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := p.Purge(ctx)
		switch {
		case err != nil:
			p.Log.Error("failed to purge removed recipients", zap.Error(err))
		case n > 0:
			p.Log.Info("purged removed recipients", zap.Int64("count", n))
		}
	}
}
