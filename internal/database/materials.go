package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/StudyForge-io/studyforge/internal/models"
)

// Generated output is written once per material. The update is filtered on
// both id and user_id so a generation call can never touch another user's
// material.

// CreateStudyMaterial inserts a new material row with empty generation
// fields.
func CreateStudyMaterial(m *models.StudyMaterial) error {
	if dbType == "postgres" {
		return dbConn.QueryRow(
			"INSERT INTO study_materials (user_id, file_name, file_type, file_url) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
			m.UserID, m.FileName, m.FileType, m.FileURL,
		).Scan(&m.ID, &m.CreatedAt)
	}

	m.ID = GenerateID()
	m.CreatedAt = time.Now()
	_, err := dbConn.Exec(
		"INSERT INTO study_materials (id, user_id, file_name, file_type, file_url, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		m.ID, m.UserID, m.FileName, m.FileType, m.FileURL, m.CreatedAt,
	)
	return err
}

const materialColumns = "id, user_id, file_name, file_type, file_url, extracted_content, quizzes, flashcards, cheat_sheet, predictions, created_at"

func scanMaterial(scan func(dest ...interface{}) error) (*models.StudyMaterial, error) {
	m := &models.StudyMaterial{}
	var fileURL, extracted, quizzes, flashcards, cheatSheet, predictions sql.NullString
	err := scan(&m.ID, &m.UserID, &m.FileName, &m.FileType, &fileURL, &extracted,
		&quizzes, &flashcards, &cheatSheet, &predictions, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if fileURL.Valid {
		m.FileURL = &fileURL.String
	}
	if extracted.Valid {
		m.ExtractedContent = &extracted.String
	}
	if quizzes.Valid {
		m.Quizzes = json.RawMessage(quizzes.String)
	}
	if flashcards.Valid {
		m.Flashcards = json.RawMessage(flashcards.String)
	}
	if cheatSheet.Valid {
		m.CheatSheet = json.RawMessage(cheatSheet.String)
	}
	if predictions.Valid {
		m.Predictions = json.RawMessage(predictions.String)
	}
	return m, nil
}

// GetStudyMaterial retrieves a material by ID, scoped to its owner.
func GetStudyMaterial(id, userID string) (*models.StudyMaterial, error) {
	var query string
	if dbType == "postgres" {
		query = "SELECT " + materialColumns + " FROM study_materials WHERE id = $1 AND user_id = $2"
	} else {
		query = "SELECT " + materialColumns + " FROM study_materials WHERE id = ? AND user_id = ?"
	}
	return scanMaterial(dbConn.QueryRow(query, id, userID).Scan)
}

// GetStudyMaterialsByUser retrieves all materials for a user, newest first.
func GetStudyMaterialsByUser(userID string) ([]*models.StudyMaterial, error) {
	var query string
	if dbType == "postgres" {
		query = "SELECT " + materialColumns + " FROM study_materials WHERE user_id = $1 ORDER BY created_at DESC"
	} else {
		query = "SELECT " + materialColumns + " FROM study_materials WHERE user_id = ? ORDER BY created_at DESC"
	}

	rows, err := dbConn.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []*models.StudyMaterial
	for rows.Next() {
		m, err := scanMaterial(rows.Scan)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return materials, nil
}

// SaveGeneratedMaterials writes the four generated sections and the
// truncated source text onto the material row. Returns sql.ErrNoRows when
// the (id, user_id) pair matches nothing, so the caller can distinguish a
// rejected write from a storage error.
func SaveGeneratedMaterials(materialID, userID string, out *models.GeneratedMaterials, extractedContent string) error {
	var query string
	if dbType == "postgres" {
		query = `UPDATE study_materials
			SET quizzes = $1, flashcards = $2, cheat_sheet = $3, predictions = $4, extracted_content = $5
			WHERE id = $6 AND user_id = $7`
	} else {
		query = `UPDATE study_materials
			SET quizzes = ?, flashcards = ?, cheat_sheet = ?, predictions = ?, extracted_content = ?
			WHERE id = ? AND user_id = ?`
	}

	result, err := dbConn.Exec(query,
		string(out.Quizzes), string(out.Flashcards), string(out.CheatSheet), string(out.Predictions),
		extractedContent, materialID, userID)
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

// SetStudyMaterialFileURL records where the uploaded source document
// landed in object storage. The material ID is not known until the row
// exists, so the upload flow writes the URL in a second step.
func SetStudyMaterialFileURL(materialID, userID, fileURL string) error {
	var query string
	if dbType == "postgres" {
		query = "UPDATE study_materials SET file_url = $1 WHERE id = $2 AND user_id = $3"
	} else {
		query = "UPDATE study_materials SET file_url = ? WHERE id = ? AND user_id = ?"
	}

	result, err := dbConn.Exec(query, fileURL, materialID, userID)
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

// CreateHomeworkRequest appends one homework-help log entry.
func CreateHomeworkRequest(req *models.HomeworkRequest) error {
	responseJSON, err := json.Marshal(req.Response)
	if err != nil {
		return err
	}

	if dbType == "postgres" {
		return dbConn.QueryRow(
			"INSERT INTO homework_requests (user_id, question, response) VALUES ($1, $2, $3) RETURNING id, created_at",
			req.UserID, req.Question, string(responseJSON),
		).Scan(&req.ID, &req.CreatedAt)
	}

	req.ID = GenerateID()
	req.CreatedAt = time.Now()
	_, err = dbConn.Exec(
		"INSERT INTO homework_requests (id, user_id, question, response, created_at) VALUES (?, ?, ?, ?, ?)",
		req.ID, req.UserID, req.Question, string(responseJSON), req.CreatedAt,
	)
	return err
}
