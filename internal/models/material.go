package models

import (
	"encoding/json"
	"time"
)

// StudyMaterial represents one uploaded document and, once generation has
// run, the study aids produced from it. The four generation sections stay
// nil until the orchestrator writes them, exactly once.
type StudyMaterial struct {
	ID               string          `json:"id" db:"id"`
	UserID           string          `json:"user_id" db:"user_id"`
	FileName         string          `json:"file_name" db:"file_name"`
	FileType         string          `json:"file_type" db:"file_type"`
	FileURL          *string         `json:"file_url" db:"file_url"`
	ExtractedContent *string         `json:"extracted_content" db:"extracted_content"`
	Quizzes          json.RawMessage `json:"quizzes" db:"quizzes"`
	Flashcards       json.RawMessage `json:"flashcards" db:"flashcards"`
	CheatSheet       json.RawMessage `json:"cheat_sheet" db:"cheat_sheet"`
	Predictions      json.RawMessage `json:"predictions" db:"predictions"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// GeneratedMaterials is the parsed shape of the generator's output: four
// sections, all required.
type GeneratedMaterials struct {
	Quizzes     json.RawMessage `json:"quizzes"`
	Flashcards  json.RawMessage `json:"flashcards"`
	CheatSheet  json.RawMessage `json:"cheat_sheet"`
	Predictions json.RawMessage `json:"predictions"`
}

// Quiz is a single generated quiz question.
type Quiz struct {
	ID          int      `json:"id"`
	Type        string   `json:"type"` // multiple_choice, true_false, short_answer
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Correct     *int     `json:"correct"`
	Explanation string   `json:"explanation,omitempty"`
}

// Flashcard is a single generated flashcard.
type Flashcard struct {
	ID         int    `json:"id"`
	Front      string `json:"front"`
	Back       string `json:"back"`
	Difficulty string `json:"difficulty"` // easy, medium, hard
}

// CheatSheet groups key points into titled sections.
type CheatSheet struct {
	Sections []struct {
		Title string   `json:"title"`
		Items []string `json:"items"`
	} `json:"sections"`
}

// Prediction is a forecast of a topic likely to appear on a test.
type Prediction struct {
	Priority   string   `json:"priority"` // high, medium, low
	Topic      string   `json:"topic"`
	Confidence int      `json:"confidence"`
	Reason     string   `json:"reason"`
	Subtopics  []string `json:"subtopics"`
}

// HomeworkAnswer is the tutor-style response to a homework question.
type HomeworkAnswer struct {
	Reasoning        []string `json:"reasoning"`
	Explanation      string   `json:"explanation"`
	PracticeQuestion string   `json:"practiceQuestion"`
}

// HomeworkRequest is an append-only log entry of one homework-help call.
type HomeworkRequest struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Question  string          `json:"question" db:"question"`
	Response  *HomeworkAnswer `json:"response" db:"response"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
