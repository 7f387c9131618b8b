package database

import (
	"database/sql"
	"time"

	"github.com/StudyForge-io/studyforge/internal/models"
)

// CreateToken creates a new API token
func CreateToken(userID, name, token string, expiresAt *time.Time) (*models.Token, error) {
	t := &models.Token{
		UserID:    userID,
		Token:     token,
		Name:      name,
		ExpiresAt: expiresAt,
	}

	if dbType == "postgres" {
		err := dbConn.QueryRow(
			"INSERT INTO tokens (user_id, token, name, expires_at) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
			t.UserID, t.Token, t.Name, t.ExpiresAt,
		).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
	} else {
		t.ID = GenerateID()
		t.CreatedAt = time.Now()
		_, err := dbConn.Exec(
			"INSERT INTO tokens (id, user_id, token, name, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)",
			t.ID, t.UserID, t.Token, t.Name, t.CreatedAt, t.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

// GetTokenByValue retrieves a token by its value
func GetTokenByValue(token string) (*models.Token, error) {
	t := &models.Token{}
	var query string
	if dbType == "postgres" {
		query = "SELECT id, user_id, token, name, created_at, expires_at FROM tokens WHERE token = $1"
	} else {
		query = "SELECT id, user_id, token, name, created_at, expires_at FROM tokens WHERE token = ?"
	}
	err := dbConn.QueryRow(query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.Name, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetUserTokens retrieves all tokens for a user
func GetUserTokens(userID string) ([]*models.Token, error) {
	var query string
	if dbType == "postgres" {
		query = "SELECT id, user_id, token, name, created_at, expires_at FROM tokens WHERE user_id = $1"
	} else {
		query = "SELECT id, user_id, token, name, created_at, expires_at FROM tokens WHERE user_id = ?"
	}
	rows, err := dbConn.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*models.Token
	for rows.Next() {
		t := &models.Token{}
		err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Name, &t.CreatedAt, &t.ExpiresAt)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteToken deletes a token owned by the given user
func DeleteToken(userID string, tokenID string) error {
	var query string
	if dbType == "postgres" {
		query = "DELETE FROM tokens WHERE id = $1 AND user_id = $2"
	} else {
		query = "DELETE FROM tokens WHERE id = ? AND user_id = ?"
	}
	result, err := dbConn.Exec(query, tokenID, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
