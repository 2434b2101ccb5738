package store

import (
	"context"
	"embed"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var embedMigrations embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

var gooseDialects = map[string]string{
	DialectSQLite:   "sqlite3",
	DialectPostgres: "postgres",
	DialectMySQL:    "mysql",
}

func (s *Store) migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	goose.SetBaseFS(fsys)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialects[s.dialect]); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db.DB, s.dialect)
}
