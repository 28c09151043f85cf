package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/codecollab-io/codecollab/config"
	"github.com/codecollab-io/codecollab/log"
	_ "github.com/mattn/go-sqlite3"
)

var (
	db *sql.DB
	mu sync.Mutex
)

// GetDB returns the shared database connection, opening it on first use
func GetDB() *sql.DB {
	mu.Lock()
	defer mu.Unlock()

	if db == nil {
		cfg := config.Get()
		conn, err := open(cfg.DatabasePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to open database")
		}
		db = conn
		log.Info().Str("path", cfg.DatabasePath).Msg("database initialized")
	}

	return db
}

// OpenAt opens the database at the given path and makes it the shared
// connection. Used by tests that need an isolated database file.
func OpenAt(path string) (*sql.DB, error) {
	conn, err := open(path)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	if db != nil {
		db.Close()
	}
	db = conn
	mu.Unlock()
	return conn, nil
}

// open opens a connection with SQLite pragmas and runs migrations.
// Using WAL mode, foreign keys, and a single writer connection.
func open(path string) (*sql.DB, error) {
	if err := ensureDatabaseDirectory(path); err != nil {
		return nil, err
	}

	dsn := path + "?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache_size=-64000"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// Close closes the database connection
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// ensureDatabaseDirectory creates the directory for the database file if it doesn't exist
func ensureDatabaseDirectory(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		log.Info().Str("dir", dir).Msg("created database directory")
	}
	return nil
}
