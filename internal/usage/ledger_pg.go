package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"minerpro-backend/internal/quota"
)

type pgLedger struct {
	DB *sql.DB
}

// NewPGLedger constructs a Postgres-backed ledger over rate_limit_log.
func NewPGLedger(db *sql.DB) Ledger {
	return &pgLedger{DB: db}
}

func (l *pgLedger) CountSince(ctx context.Context, userID string, action quota.Action, since time.Time) (int, error) {
	const query = `
SELECT count(*) FROM rate_limit_log
WHERE user_id = $1 AND action_type = $2 AND created_at >= $3`
	var count int
	err := l.DB.QueryRowContext(ctx, query, userID, string(action), since).Scan(&count)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: count events: %v", ErrStorageUnavailable, err)
	}
	return count, nil
}

func (l *pgLedger) Record(ctx context.Context, event Event) error {
	const query = `
INSERT INTO rate_limit_log (id, user_id, action_type, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := l.DB.ExecContext(ctx, query, event.ID, event.UserID, string(event.Action), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: record event: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (l *pgLedger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM rate_limit_log WHERE created_at < $1`
	res, err := l.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: purge events: %v", ErrStorageUnavailable, err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: purge events: %v", ErrStorageUnavailable, err)
	}
	return purged, nil
}

func (l *pgLedger) Clear(ctx context.Context, userID string) error {
	const query = `DELETE FROM rate_limit_log WHERE user_id = $1`
	if _, err := l.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%w: clear events: %v", ErrStorageUnavailable, err)
	}
	return nil
}
