package analytics

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SumedhKolte/ReWear-sub000/pkg/database"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// Migrate applies the analytics schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("analytics migrations: %w", err)
	}
	return database.RunMigrations(ctx, pool, sub, logger)
}
