package squads

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) GetSquad(ctx context.Context, squadID string) (Squad, error) {
	const query = `
SELECT s.id, s.name, s.is_active, s.created_at,
       (SELECT count(*) FROM squad_members m WHERE m.squad_id = s.id)
FROM squads s
WHERE s.id = $1`
	var squad Squad
	err := r.DB.QueryRowContext(ctx, query, squadID).Scan(
		&squad.ID,
		&squad.Name,
		&squad.IsActive,
		&squad.CreatedAt,
		&squad.MemberCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Squad{}, ErrNotFound
		}
		return Squad{}, err
	}
	return squad, nil
}

func (r *PGRepo) ListActive(ctx context.Context) ([]Squad, error) {
	const query = `
SELECT s.id, s.name, s.is_active, s.created_at,
       (SELECT count(*) FROM squad_members m WHERE m.squad_id = s.id)
FROM squads s
WHERE s.is_active
ORDER BY s.name`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Squad
	for rows.Next() {
		var squad Squad
		if err := rows.Scan(
			&squad.ID,
			&squad.Name,
			&squad.IsActive,
			&squad.CreatedAt,
			&squad.MemberCount,
		); err != nil {
			return nil, err
		}
		out = append(out, squad)
	}
	return out, rows.Err()
}

func (r *PGRepo) AddMember(ctx context.Context, squadID, userID string, joinedAt time.Time) error {
	const query = `
INSERT INTO squad_members (squad_id, user_id, joined_at)
VALUES ($1, $2, $3)
ON CONFLICT (squad_id, user_id) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query, squadID, userID, joinedAt)
	return err
}

func (r *PGRepo) RemoveMember(ctx context.Context, squadID, userID string) error {
	const query = `DELETE FROM squad_members WHERE squad_id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, squadID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotMember
	}
	return nil
}

func (r *PGRepo) AddMessage(ctx context.Context, message Message) error {
	const query = `
INSERT INTO squad_messages (id, squad_id, user_id, message, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		message.ID,
		message.SquadID,
		message.UserID,
		message.Body,
		message.CreatedAt,
	)
	return err
}
