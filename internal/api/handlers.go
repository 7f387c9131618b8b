package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/StudyForge-io/studyforge/internal/ai"
	"github.com/StudyForge-io/studyforge/internal/auth"
	"github.com/StudyForge-io/studyforge/internal/billing"
	"github.com/StudyForge-io/studyforge/internal/database"
	"github.com/StudyForge-io/studyforge/internal/generation"
	"github.com/StudyForge-io/studyforge/internal/models"
	"github.com/StudyForge-io/studyforge/internal/storage"
	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 25 << 20 // 25 MB

type GenerateRequest struct {
	Content    string `json:"content"`
	MaterialID string `json:"materialId"`
	Type       string `json:"type,omitempty"`
}

type GenerateResponse struct {
	Success          bool                       `json:"success"`
	Materials        *models.GeneratedMaterials `json:"materials"`
	CreditsRemaining models.CreditsRemaining    `json:"creditsRemaining"`
}

type HomeworkRequest struct {
	Question string `json:"question"`
}

type ProfileResponse struct {
	ID                 string                    `json:"id"`
	Email              string                    `json:"email"`
	FreeCredits        int                       `json:"free_credits"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscription_status"`
	SubscriptionPlan   *models.SubscriptionPlan  `json:"subscription_plan"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"error": msg})
}

// GenerateHandler runs a paid study-materials generation for a material
// the caller owns.
func (api *Api) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.GetIdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Content == "" || req.MaterialID == "" {
		writeErr(w, http.StatusBadRequest, "Content and materialId are required")
		return
	}

	result, err := api.orchestrator.Generate(r.Context(), identity.UserID, req.Content, req.MaterialID)
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrEntitlementDenied):
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"error":                "No credits remaining",
				"requiresSubscription": true,
			})
		case errors.Is(err, ai.ErrRateLimited):
			writeErr(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		case errors.Is(err, ai.ErrPaymentRequired):
			writeErr(w, http.StatusPaymentRequired, "AI service requires payment. Please add credits.")
		default:
			log.Printf("Generation failed for user %s: %v", identity.UserID, err)
			writeErr(w, http.StatusInternalServerError, "Generation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Success:          true,
		Materials:        result.Materials,
		CreditsRemaining: result.CreditsRemaining,
	})
}

// HomeworkHandler answers a tutoring question without spending a credit.
func (api *Api) HomeworkHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.GetIdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req HomeworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Question == "" {
		writeErr(w, http.StatusBadRequest, "Question is required")
		return
	}

	answer, err := api.orchestrator.Homework(r.Context(), identity.UserID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrEntitlementDenied):
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"error":                "Subscription required",
				"requiresSubscription": true,
			})
		case errors.Is(err, ai.ErrRateLimited):
			writeErr(w, http.StatusTooManyRequests, "Rate limit exceeded")
		default:
			log.Printf("Homework help failed for user %s: %v", identity.UserID, err)
			writeErr(w, http.StatusInternalServerError, "Request failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// UploadHandler stores a source document and creates its material row.
// The generated study aids stay empty until /generate runs.
func (api *Api) UploadHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.GetIdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if api.storage == nil {
		writeErr(w, http.StatusServiceUnavailable, "File storage not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	contentType := storage.ContentTypeFor(header.Filename)
	material := &models.StudyMaterial{
		UserID:   identity.UserID,
		FileName: header.Filename,
		FileType: contentType,
	}
	if err := database.CreateStudyMaterial(material); err != nil {
		log.Printf("Failed to create material for user %s: %v", identity.UserID, err)
		writeErr(w, http.StatusInternalServerError, "Failed to create material")
		return
	}

	key := storage.MaterialKey(identity.UserID, material.ID, header.Filename)
	result, err := api.storage.UploadFile(r.Context(), key, file, contentType)
	if err != nil {
		log.Printf("Upload failed for material %s: %v", material.ID, err)
		writeErr(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	if err := database.SetStudyMaterialFileURL(material.ID, identity.UserID, result.URL); err != nil {
		log.Printf("Failed to record file URL for material %s: %v", material.ID, err)
	}
	material.FileURL = &result.URL

	writeJSON(w, http.StatusCreated, material)
}

// ListMaterialsHandler returns the caller's materials, newest first.
func (api *Api) ListMaterialsHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.GetIdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	materials, err := database.GetStudyMaterialsByUser(identity.UserID)
	if err != nil {
		log.Printf("Failed to list materials for user %s: %v", identity.UserID, err)
		writeErr(w, http.StatusInternalServerError, "Failed to list materials")
		return
	}
	if materials == nil {
		materials = []*models.StudyMaterial{}
	}

	writeJSON(w, http.StatusOK, materials)
}

// GetMaterialHandler returns one material the caller owns, including a
// fresh presigned download link for the source document when stored.
func (api *Api) GetMaterialHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.GetIdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	materialID := chi.URLParam(r, "materialID")
	material, err := database.GetStudyMaterial(materialID, identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeErr(w, http.StatusNotFound, "Material not found")
			return
		}
		log.Printf("Failed to fetch material %s: %v", materialID, err)
		writeErr(w, http.StatusInternalServerError, "Failed to fetch material")
		return
	}

	response := map[string]interface{}{"material": material}
	if api.storage != nil && material.FileURL != nil {
		key := storage.MaterialKey(identity.UserID, material.ID, material.FileName)
		if url, err := api.storage.GeneratePresignedURL(r.Context(), key, 15*time.Minute); err == nil {
			response["download_url"] = url
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// ProfileHandler returns the caller's credits and subscription state.
func (api *Api) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.GetIdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := database.GetUserByID(identity.UserID)
	if err != nil {
		log.Printf("Failed to fetch profile %s: %v", identity.UserID, err)
		writeErr(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		ID:                 user.ID,
		Email:              user.Email,
		FreeCredits:        user.FreeCredits,
		SubscriptionStatus: user.SubscriptionStatus,
		SubscriptionPlan:   user.SubscriptionPlan,
	})
}

// PayPalWebhookHandler folds a subscription lifecycle event into account
// state. Malformed and unmatched events are still acknowledged with 200
// so PayPal does not retry them forever.
func (api *Api) PayPalWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var event billing.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Printf("[PAYPAL] Ignoring malformed webhook payload: %v", err)
	} else {
		api.synchronizer.Process(&event)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// ListPlansHandler returns the purchasable subscription catalog.
func (api *Api) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.checkout.Plans())
}

// CheckoutQRHandler returns the approval URL for a plan plus a scannable
// QR code of it.
func (api *Api) CheckoutQRHandler(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")

	approvalURL, err := api.checkout.ApprovalURL(planID)
	if err != nil {
		writeErr(w, http.StatusNotFound, "Unknown plan")
		return
	}

	qr, err := api.checkout.ApprovalQRCode(planID)
	if err != nil {
		log.Printf("Failed to render checkout QR for plan %s: %v", planID, err)
		writeErr(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"approval_url": approvalURL,
		"qr_png_b64":   qr,
	})
}
