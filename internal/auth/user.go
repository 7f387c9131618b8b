package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/StudyForge-io/studyforge/internal/database"
	"github.com/StudyForge-io/studyforge/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyTaken  = errors.New("email already taken")
)

// RegisterUser creates a new user account. The database seeds the signup
// credit allowance, so a fresh account can run one free generation.
func RegisterUser(email, password string) (*models.User, error) {
	if _, err := database.GetUserByEmail(email); err == nil {
		return nil, ErrEmailAlreadyTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return database.CreateUser(email, string(hashedPassword))
}

// ValidateUser validates user credentials
func ValidateUser(email, password string) (*models.User, error) {
	user, err := database.GetUserByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.ValidatePassword(password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// CreateAPIToken creates a long-lived API token for a user
func CreateAPIToken(userID string, name string) (*models.Token, error) {
	tokenStr, err := generateRandomToken()
	if err != nil {
		return nil, err
	}

	// One year validity
	expiresAt := time.Now().AddDate(1, 0, 0)

	return database.CreateToken(userID, name, tokenStr, &expiresAt)
}

func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return apiTokenPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}
