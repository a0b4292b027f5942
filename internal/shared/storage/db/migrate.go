package db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"

	"minerpro-backend/internal/shared/telemetry"
)

// Schema: profiles, rate_limit_log, squads + membership/messages,
// feature_flags. Migrations ship inside the binary so the server and the
// migrate command apply the same files.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

// RunMigrations applies embedded SQL migrations via goose. A nil database
// is a no-op so memory-backed runs skip it.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(schemaFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		return err
	}
	version, err := goose.GetDBVersionContext(ctx, database)
	if err != nil {
		return err
	}
	telemetry.Info("db.migrated", map[string]any{"version": version})
	return nil
}
