package storage

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	*sqlStore
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := NewPostgresStorageFromDB(db, logger)

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return storage, nil
}

// NewPostgresStorageFromDB wraps an already opened connection. The schema is
// not touched.
func NewPostgresStorageFromDB(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{sqlStore: &sqlStore{db: db, numbered: true, logger: logger}}
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err = s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}
