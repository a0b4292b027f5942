package featureflags

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) GetByName(ctx context.Context, name string) (Flag, error) {
	const query = `
SELECT name, enabled, rollout_percentage, COALESCE(description, '')
FROM feature_flags
WHERE name = $1`
	var flag Flag
	err := r.DB.QueryRowContext(ctx, query, name).Scan(
		&flag.Name,
		&flag.Enabled,
		&flag.RolloutPercentage,
		&flag.Description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Flag{}, ErrNotFound
		}
		return Flag{}, err
	}
	return flag, nil
}

func (r *PGRepo) ListAll(ctx context.Context) ([]Flag, error) {
	const query = `
SELECT name, enabled, rollout_percentage, COALESCE(description, '')
FROM feature_flags
ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Flag
	for rows.Next() {
		var flag Flag
		if err := rows.Scan(
			&flag.Name,
			&flag.Enabled,
			&flag.RolloutPercentage,
			&flag.Description,
		); err != nil {
			return nil, err
		}
		out = append(out, flag)
	}
	return out, rows.Err()
}
