package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/StudyForge-io/studyforge/internal/config"
	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"
)

var dbConn *sql.DB
var dbType string

// Init initializes the database connection and schema
func Init(cfg *config.Config) error {
	if dbConn != nil {
		return nil
	}

	log.Printf("Initializing database (type: %s)", cfg.Database.Type)

	var db *sql.DB
	var err error

	switch cfg.Database.Type {
	case "postgres":
		db, err = initPostgreSQL(cfg)
	case "sqlite", "":
		db, err = initSQLite(cfg)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}

	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %v", err)
	}

	if err = RunMigrations(db, cfg.Database.Type); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %v", err)
	}

	dbConn = db
	dbType = cfg.Database.Type
	if dbType == "" {
		dbType = "sqlite"
	}
	log.Printf("Database initialized successfully (type: %s)", dbType)

	return nil
}

// initPostgreSQL initializes PostgreSQL connection
func initPostgreSQL(cfg *config.Config) (*sql.DB, error) {
	log.Printf("Connecting to PostgreSQL at %s:%s/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %v", err)
	}

	if cfg.Database.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxConns)
	}
	if cfg.Database.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdle)
	}
	if cfg.Database.ConnMaxLifetime != "" && cfg.Database.ConnMaxLifetime != "0" {
		if duration, err := time.ParseDuration(cfg.Database.ConnMaxLifetime); err == nil {
			db.SetConnMaxLifetime(duration)
		}
	}

	return db, nil
}

// initSQLite initializes SQLite connection
func initSQLite(cfg *config.Config) (*sql.DB, error) {
	log.Printf("Initializing SQLite connection at path: %s", cfg.Database.Path)

	dataDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on", cfg.Database.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %v", err)
	}

	return db, nil
}

// GetConnection returns the database connection
func GetConnection() *sql.DB {
	return dbConn
}

// Close closes the database connection
func Close() error {
	if dbConn == nil {
		return nil
	}
	err := dbConn.Close()
	dbConn = nil
	return err
}

// GenerateID generates a unique ID for SQLite rows; PostgreSQL generates
// UUIDs server-side.
func GenerateID() string {
	return uuid.NewString()
}
