package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/StudyForge-io/studyforge/internal/database"
	"github.com/go-chi/chi/v5"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenRequest struct {
	Name string `json:"name"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Handlers bundles the auth endpoints around a TokenManager.
type Handlers struct {
	Tokens *TokenManager
}

// RegisterHandler handles user registration
func (h *Handlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Email == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Email and a password of at least 8 characters are required")
		return
	}

	user, err := RegisterUser(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyTaken) {
			writeError(w, http.StatusConflict, "Email already taken")
			return
		}
		log.Printf("Registration failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := h.Tokens.GenerateToken(user.ID, user.Email, 24*time.Hour)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{Token: token})
}

// LoginHandler handles user login and returns a JWT
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := ValidateUser(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.Tokens.GenerateToken(user.ID, user.Email, 24*time.Hour)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{Token: token})
}

// CreateTokenHandler creates a new API token for the authenticated user
func (h *Handlers) CreateTokenHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	token, err := CreateAPIToken(identity.UserID, req.Name)
	if err != nil {
		log.Printf("Error creating token: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(token)
}

// ListTokensHandler returns all API tokens for the authenticated user
func (h *Handlers) ListTokensHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tokens, err := database.GetUserTokens(identity.UserID)
	if err != nil {
		log.Printf("Error listing tokens: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokens)
}

// DeleteTokenHandler removes an API token
func (h *Handlers) DeleteTokenHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tokenID := chi.URLParam(r, "tokenID")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "Token ID required")
		return
	}

	if err := database.DeleteToken(identity.UserID, tokenID); err != nil {
		log.Printf("Error deleting token: %v", err)
		writeError(w, http.StatusNotFound, "Token not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
