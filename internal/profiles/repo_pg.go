package profiles

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, profile Profile) error {
	const query = `
INSERT INTO profiles (user_id, premium_tier, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (user_id) DO UPDATE SET
  premium_tier = EXCLUDED.premium_tier,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		profile.UserID,
		nullableString(profile.PremiumTier),
	)
	return err
}

func (r *PGRepo) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	const query = `
SELECT user_id, premium_tier, created_at, updated_at
FROM profiles
WHERE user_id = $1
LIMIT 1`
	var profile Profile
	var tier sql.NullString
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&tier,
		&profile.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	if tier.Valid {
		profile.PremiumTier = tier.String
	}
	if updatedAt.Valid {
		profile.UpdatedAt = updatedAt.Time
	} else {
		profile.UpdatedAt = time.Now().UTC()
	}
	return profile, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
