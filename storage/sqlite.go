package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/awantoch/promptgate/utils"
)

// SqliteStore implements KV on a local SQLite file. Useful for development
// and single-instance deployments.
type SqliteStore struct {
	sqlStore
}

var _ KV = (*SqliteStore)(nil)

func NewSqliteStore(ctx context.Context, dsn string) (*SqliteStore, error) {
	// Only create parent directories for plain file paths.
	if dsn != ":memory:" && dsn != "" && !strings.HasPrefix(dsn, "file:") {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, utils.Errorf("failed to create db directory %q: %w", dir, err)
		}
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to db : %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to db : %w", err)
	}
	if err := migrate(ctx, db, goose.DialectSQLite3, "sqlite"); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteStore{sqlStore{db: db}}, nil
}
