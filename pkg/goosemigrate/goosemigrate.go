package goosemigrate

import (
	"context"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type Migrator struct {
	postgresURL string
	migrations  fs.FS
	schemaName  string
}

// NewMigrator prepares goose to apply the *.sql files found at the root of
// migrations into schemaName. The version table lives in the same schema.
func NewMigrator(postgresURL string, migrations fs.FS, schemaName string) *Migrator {
	return &Migrator{
		postgresURL: postgresURL,
		migrations:  migrations,
		schemaName:  schemaName,
	}
}

func (m *Migrator) setup() {
	goose.SetBaseFS(m.migrations)
	goose.SetTableName(m.schemaName + "." + "migrations")
}

func (m *Migrator) Up(ctx context.Context) error {
	m.setup()

	db, err := goose.OpenDBWithDriver("postgres", m.postgresURL)
	if err != nil {
		return fmt.Errorf("failed to open DB for migration: %w", err)
	}
	defer db.Close()

	if _, err = db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", m.schemaName)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err = goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to up migrations: %w", err)
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context) error {
	m.setup()

	db, err := goose.OpenDBWithDriver("postgres", m.postgresURL)
	if err != nil {
		return fmt.Errorf("failed to open DB for migration: %w", err)
	}
	defer db.Close()

	if err = goose.ResetContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}

	if _, err = db.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", m.schemaName)); err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}

	return nil
}
