package db

import (
	"context"
	"io/fs"

	"portal_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending migrations found at the root of migrationsFS.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig, pool *pgxpool.Pool, migrationsFS fs.FS) error {
	if !cfg.GetMigrationsEnabled() {
		return nil
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() {
		_ = sqlDB.Close()
	}()

	return goose.UpContext(ctx, sqlDB, ".")
}
