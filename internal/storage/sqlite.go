package storage

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStorage struct {
	*sqlStore
}

// NewSQLiteStorage opens the database file at path, creating its directory
// and applying the schema when needed.
func NewSQLiteStorage(path string, logger *zap.Logger) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path not set")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to sqlite database: %w", err)
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Opened SQLite database", zap.String("path", path))
	return &SQLiteStorage{sqlStore: &sqlStore{db: db, logger: logger}}, nil
}
