package db

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/Spok95/gymflow/internal/db/migrations"
)

func init() {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
}

// Migrate — накатывает встроенные миграции до последней версии.
func Migrate(ctx context.Context, database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, ".")
}

// MigrationStatus — текущая версия схемы.
func MigrationStatus(ctx context.Context, database *sql.DB) (int64, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, database)
}
