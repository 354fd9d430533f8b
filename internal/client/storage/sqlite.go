package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cinemaclub/internal/client/storage/migrations"
	"github.com/dmitrijs2005/cinemaclub/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQLiteBackend persists values in a single credentials table.
type SQLiteBackend struct {
	db *sql.DB
}

// RunMigrations applies the embedded goose migrations. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// OpenSQLite opens (creating if needed) the database at dsn and migrates it.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	// one writer keeps SQLITE_BUSY out of concurrent refresh/logout paths
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, &Error{Op: "open", Err: err}
	}
	return NewSQLiteBackend(db), nil
}

// NewSQLiteBackend wraps an already migrated database.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

func (s *SQLiteBackend) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	if !ns.Valid() {
		return nil, &Error{Op: "get", Key: key, Err: ErrUnknownNamespace}
	}

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM credentials WHERE namespace = ? AND key = ?`, string(ns), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Err: err}
	}
	return value, nil
}

func (s *SQLiteBackend) Apply(ctx context.Context, ops ...Op) error {
	if err := validateOps(ops); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, op := range ops {
			if op.Delete {
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM credentials WHERE namespace = ? AND key = ?`, string(op.Namespace), op.Key); err != nil {
					return fmt.Errorf("delete %s: %w", op.Key, err)
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO credentials (namespace, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
			`, string(op.Namespace), op.Key, op.Value); err != nil {
				return fmt.Errorf("set %s: %w", op.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return &Error{Op: "apply", Err: err}
	}
	return nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
