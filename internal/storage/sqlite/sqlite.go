// Package sqlite implements the C1 storage contract (spec.md §4.1) on
// top of github.com/ncruces/go-sqlite3, a pure-Go (cgo-free) SQLite
// driver. It is grounded on the teacher's internal/storage/sqlite
// package: the same schema.go/migrations.go split, the same
// file:<path>?_pragma=... DSN idiom as cmd/bd/repair.go, and the same
// EXCLUSIVE-transaction migration runner.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/entirecontext/ec/internal/ecerr"
)

// Store is the concrete C1 storage handle for one repo's database.
type Store struct {
	db *sql.DB
}

// dsn builds the connection string used for both read-write and
// read-only handles, following cmd/bd/repair.go's pragma-in-DSN idiom
// generalized to WAL mode and foreign keys on, per SPEC_FULL.md §4.
func dsn(path string, busyTimeout time.Duration, readOnly bool) string {
	busyMs := busyTimeout.Milliseconds()
	s := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_time_format=sqlite",
		path, busyMs,
	)
	if readOnly {
		s += "&mode=ro"
	} else {
		s += "&_txlock=immediate"
	}
	return s
}

// Open opens (creating if absent) the database at path, applies the
// base schema, and runs any pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path, 5*time.Second, false))
	if err != nil {
		return nil, ecerr.New(ecerr.StorageCorrupt, "open database %s: %v", path, err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers via separate handles

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, ecerr.New(ecerr.StorageCorrupt, "init schema: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, ecerr.New(ecerr.StorageCorrupt, "run migrations: %v", err)
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens path without applying schema or migrations, for
// read-only cross-repo fan-out (C7) where the caller must tolerate a
// stale or foreign schema version rather than mutate someone else's store.
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path, 2*time.Second, true))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// UnderlyingDB exposes the raw handle for components (search, purge)
// that need bespoke parametric SQL beyond the Storage interface.
func (s *Store) UnderlyingDB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunInTransaction executes fn within a single BEGIN IMMEDIATE
// transaction, rolling back on error or panic and committing otherwise.
// Grounded on the teacher's Transaction contract doc
// (internal/storage/storage.go): IMMEDIATE mode acquires the write
// lock up front, avoiding the deadlock window that DEFERRED mode opens
// between two concurrent hook processes.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = fn(tx)
	return err
}
