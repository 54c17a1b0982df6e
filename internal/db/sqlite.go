// Package db opens the SQLite audit store and applies its schema.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// DSN parameters applied to every connection.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "FULL"
	defaultJournalMode = "WAL"
	defaultReadPool    = 4
)

type poolMode string

const (
	modeWrite poolMode = "write"
	modeRead  poolMode = "read"
)

// Store is the audit database: a single-connection write pool that
// serializes appends and a read pool for queries.
type Store struct {
	Write *sql.DB
	Read  *sql.DB
}

// Open opens the store at path, creating the parent directory and applying
// pending migrations.
func Open(path string, readMaxOpen int) (*Store, error) {
	if path == "" {
		return nil, errors.New("audit database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create audit database directory: %w", err)
		}
	}
	w, r, err := OpenSQLitePair(path, readMaxOpen)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(w); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, err
	}
	return &Store{Write: w, Read: r}, nil
}

// Ping checks that the read pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.Read.PingContext(ctx)
}

// Close closes both pools.
func (s *Store) Close() error {
	return errors.Join(s.Read.Close(), s.Write.Close())
}

// OpenSQLite opens a *sql.DB pool for the given SQLite file path.
//
// mode controls write-safety and pool sizing:
//   - "write": one connection, immediate transactions
//   - "read":  maxOpen connections (0 means 4)
func OpenSQLite(path string, mode string, maxOpen int) (*sql.DB, error) {
	m := poolMode(mode)
	if m != modeRead && m != modeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be \"read\" or \"write\"", mode)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, m))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	if m == modeWrite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if maxOpen <= 0 {
			maxOpen = defaultReadPool
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}
	return db, nil
}

// OpenSQLitePair opens the write and read pools for the same file.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = OpenSQLite(path, string(modeWrite), 0)
	if err != nil {
		return nil, nil, err
	}
	readDB, err = OpenSQLite(path, string(modeRead), readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}
	return writeDB, readDB, nil
}

// buildDSN constructs a SQLite DSN. Audit rows are synced fully on commit;
// the write pool takes the lock at BEGIN.
func buildDSN(path string, mode poolMode) string {
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	if mode == modeWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
