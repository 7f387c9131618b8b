package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all database migrations
func GetMigrations(dbType string) []Migration {
	if dbType == "postgres" {
		return getPostgresMigrations()
	}
	return getSQLiteMigrations()
}

// getPostgresMigrations returns PostgreSQL migrations
func getPostgresMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
				CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				email VARCHAR(255) UNIQUE NOT NULL,
				password VARCHAR(255) NOT NULL,
				free_credits INTEGER NOT NULL DEFAULT 1,
				subscription_status VARCHAR(20) NOT NULL DEFAULT 'inactive',
				subscription_plan VARCHAR(20),
				paypal_subscription_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     2,
			Description: "Create tokens table",
			SQL: `CREATE TABLE IF NOT EXISTS tokens (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				token VARCHAR(255) UNIQUE NOT NULL,
				name VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				expires_at TIMESTAMP WITH TIME ZONE
			)`,
		},
		{
			Version:     3,
			Description: "Create study_materials table",
			SQL: `CREATE TABLE IF NOT EXISTS study_materials (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				file_name VARCHAR(255) NOT NULL,
				file_type VARCHAR(100) NOT NULL,
				file_url TEXT,
				extracted_content TEXT,
				quizzes JSONB,
				flashcards JSONB,
				cheat_sheet JSONB,
				predictions JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     4,
			Description: "Create homework_requests table",
			SQL: `CREATE TABLE IF NOT EXISTS homework_requests (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				question TEXT NOT NULL,
				response JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     5,
			Description: "Create indexes",
			SQL: `CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
				CREATE INDEX IF NOT EXISTS idx_users_paypal_subscription_id ON users(paypal_subscription_id);
				CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id);
				CREATE INDEX IF NOT EXISTS idx_tokens_token ON tokens(token);
				CREATE INDEX IF NOT EXISTS idx_study_materials_user_id ON study_materials(user_id);
				CREATE INDEX IF NOT EXISTS idx_homework_requests_user_id ON homework_requests(user_id);`,
		},
	}
}

// getSQLiteMigrations returns SQLite migrations
func getSQLiteMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				password TEXT NOT NULL,
				free_credits INTEGER NOT NULL DEFAULT 1,
				subscription_status TEXT NOT NULL DEFAULT 'inactive',
				subscription_plan TEXT,
				paypal_subscription_id TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
		},
		{
			Version:     2,
			Description: "Create tokens table",
			SQL: `CREATE TABLE IF NOT EXISTS tokens (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				token TEXT UNIQUE NOT NULL,
				name TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
		},
		{
			Version:     3,
			Description: "Create study_materials table",
			SQL: `CREATE TABLE IF NOT EXISTS study_materials (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				file_name TEXT NOT NULL,
				file_type TEXT NOT NULL,
				file_url TEXT,
				extracted_content TEXT,
				quizzes TEXT,
				flashcards TEXT,
				cheat_sheet TEXT,
				predictions TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
		},
		{
			Version:     4,
			Description: "Create homework_requests table",
			SQL: `CREATE TABLE IF NOT EXISTS homework_requests (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				question TEXT NOT NULL,
				response TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
		},
		{
			Version:     5,
			Description: "Create indexes",
			SQL: `CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
				CREATE INDEX IF NOT EXISTS idx_users_paypal_subscription_id ON users(paypal_subscription_id);
				CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id);
				CREATE INDEX IF NOT EXISTS idx_study_materials_user_id ON study_materials(user_id);
				CREATE INDEX IF NOT EXISTS idx_homework_requests_user_id ON homework_requests(user_id);`,
		},
	}
}

// createMigrationsTable creates the migrations tracking table
func createMigrationsTable(db *sql.DB, dbType string) error {
	var query string
	if dbType == "postgres" {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`
	} else {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}

	_, err := db.Exec(query)
	return err
}

// getAppliedMigrations returns the list of applied migration versions
func getAppliedMigrations(db *sql.DB) (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return applied, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return applied, err
		}
		applied[version] = true
	}

	return applied, nil
}

// recordMigration records that a migration has been applied
func recordMigration(db *sql.DB, dbType string, version int) error {
	var query string
	if dbType == "postgres" {
		query = "INSERT INTO schema_migrations (version) VALUES ($1)"
	} else {
		query = "INSERT INTO schema_migrations (version) VALUES (?)"
	}
	_, err := db.Exec(query, version)
	return err
}

// RunMigrations runs all pending migrations
func RunMigrations(db *sql.DB, dbType string) error {
	if err := createMigrationsTable(db, dbType); err != nil {
		return fmt.Errorf("failed to create migrations table: %v", err)
	}

	applied, err := getAppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %v", err)
	}

	migrations := GetMigrations(dbType)

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Applying migration %d: %s", migration.Version, migration.Description)

		statements := strings.Split(migration.SQL, ";")
		for _, stmt := range statements {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}

			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply migration %d: %v", migration.Version, err)
			}
		}

		if err := recordMigration(db, dbType, migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %v", migration.Version, err)
		}
	}

	return nil
}
