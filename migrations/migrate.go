package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

// Migrate brings the schema up to date. Called once at startup, before the
// pool is handed to the repository.
func Migrate(pgurl string) error {
	migrationDB, err := sql.Open("pgx", pgurl)
	if err != nil {
		return fmt.Errorf("open migration db: %w", err)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(migrationDB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return migrationDB.Close()
}
