package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/xlan/socialdesk/internal/infra/logging"
)

// Config holds configuration for the SQLite store.
type Config struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/socialdesk.db"`
}

// Store owns the process-wide SQLite connection shared by all repositories.
// It creates the schema at startup and serializes writes through a single
// mutex because go-sqlite does not support concurrent writers.
type Store struct {
	db        *sqlx.DB
	log       logging.Logger
	writeLock *sync.Mutex
}

// New opens the SQLite database at the configured path, verifies the
// connection and creates the accounts and posts tables if needed.
// Returns an error if the database cannot be opened or initialized.
func New(cfg Config) (*Store, error) {
	log := logging.GetLogger("repo.store.sqlite_store").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := sqlx.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(db); err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &Store{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(db *sqlx.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			username   TEXT    UNIQUE NOT NULL,
			password   TEXT    NOT NULL,
			first_name TEXT,
			last_name  TEXT,
			is_vip     BOOLEAN NOT NULL DEFAULT 0
		)
	`); err != nil {
		return fmt.Errorf("create accounts schema: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id  INTEGER NOT NULL,
			content   TEXT,
			author    TEXT,
			likes     INTEGER,
			shares    INTEGER,
			timestamp TEXT
		)
	`); err != nil {
		return fmt.Errorf("create posts schema: %w", err)
	}

	return nil
}

// DB exposes the underlying connection for repository queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// LockWrites acquires the shared write lock. The returned function releases it.
func (s *Store) LockWrites() func() {
	s.writeLock.Lock()

	return s.writeLock.Unlock
}

// Close releases the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
