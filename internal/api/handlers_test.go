package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/StudyForge-io/studyforge/internal/ai"
	"github.com/StudyForge-io/studyforge/internal/auth"
	"github.com/StudyForge-io/studyforge/internal/billing"
	"github.com/StudyForge-io/studyforge/internal/config"
	"github.com/StudyForge-io/studyforge/internal/generation"
	"github.com/StudyForge-io/studyforge/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProfileStore implements generation.ProfileStore for handler tests.
type stubProfileStore struct {
	user     *models.User
	userErr  error
	debited  bool
	debitErr error
}

func (s *stubProfileStore) GetUserByID(id string) (*models.User, error) {
	return s.user, s.userErr
}

func (s *stubProfileStore) DebitFreeCredit(userID string) (bool, error) {
	return s.debited, s.debitErr
}

// stubMaterialStore implements generation.MaterialStore for handler tests.
type stubMaterialStore struct {
	saveErr error
}

func (s *stubMaterialStore) SaveGeneratedMaterials(materialID, userID string, out *models.GeneratedMaterials, extractedContent string) error {
	return s.saveErr
}

func (s *stubMaterialStore) CreateHomeworkRequest(req *models.HomeworkRequest) error {
	return nil
}

// stubGenerator implements generation.Generator for handler tests.
type stubGenerator struct {
	output string
	err    error
}

func (s *stubGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.output, s.err
}

// stubSubscriptionStore implements billing.SubscriptionStore.
type stubSubscriptionStore struct {
	activated   bool
	deactivated bool
}

func (s *stubSubscriptionStore) ActivateSubscription(email string, plan models.SubscriptionPlan, paypalSubscriptionID string) (bool, error) {
	s.activated = true
	return true, nil
}

func (s *stubSubscriptionStore) DeactivateSubscription(paypalSubscriptionID string) (bool, error) {
	s.deactivated = true
	return true, nil
}

const stubMaterialsJSON = `{
  "quizzes": [],
  "flashcards": [],
  "cheat_sheet": {"sections": []},
  "predictions": []
}`

func testAPIConfig() *config.Config {
	cfg := &config.Config{APIPort: 8081}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.PayPal.ProPlanID = "PRO-PLAN"
	cfg.PayPal.TeamPlanID = "TEAM-PLAN"
	return cfg
}

func setupTestAPI(t *testing.T, profiles generation.ProfileStore, materials generation.MaterialStore, gen generation.Generator) *Api {
	t.Helper()

	cfg := testAPIConfig()
	orchestrator := generation.NewOrchestrator(profiles, materials, gen)
	subStore := &stubSubscriptionStore{}
	synchronizer := billing.NewSynchronizer(subStore, cfg)

	api, err := NewApi(cfg, orchestrator, synchronizer, nil)
	require.NoError(t, err)
	return api
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	identity := &auth.Identity{UserID: "user-1", Email: "student@example.com"}
	return req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, identity))
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	m.Run()
}

func TestGenerateHandlerMissingFields(t *testing.T) {
	api := setupTestAPI(t, &stubProfileStore{}, &stubMaterialStore{}, &stubGenerator{})

	w := httptest.NewRecorder()
	api.GenerateHandler(w, authedRequest(http.MethodPost, "/generate", []byte(`{"content":"notes"}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateHandlerNoCredits(t *testing.T) {
	profiles := &stubProfileStore{user: &models.User{
		ID:                 "user-1",
		SubscriptionStatus: models.SubscriptionInactive,
		FreeCredits:        0,
	}}
	api := setupTestAPI(t, profiles, &stubMaterialStore{}, &stubGenerator{})

	w := httptest.NewRecorder()
	api.GenerateHandler(w, authedRequest(http.MethodPost, "/generate", []byte(`{"content":"notes","materialId":"mat-1"}`)))

	assert.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["requiresSubscription"])
}

func TestGenerateHandlerSuccessWithCredit(t *testing.T) {
	profiles := &stubProfileStore{
		user: &models.User{
			ID:                 "user-1",
			SubscriptionStatus: models.SubscriptionInactive,
			FreeCredits:        1,
		},
		debited: true,
	}
	api := setupTestAPI(t, profiles, &stubMaterialStore{}, &stubGenerator{output: stubMaterialsJSON})

	w := httptest.NewRecorder()
	api.GenerateHandler(w, authedRequest(http.MethodPost, "/generate", []byte(`{"content":"notes","materialId":"mat-1"}`)))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(0), body["creditsRemaining"])
	assert.NotNil(t, body["materials"])
}

func TestGenerateHandlerSubscriberUnlimited(t *testing.T) {
	plan := models.PlanPro
	profiles := &stubProfileStore{user: &models.User{
		ID:                 "user-1",
		SubscriptionStatus: models.SubscriptionActive,
		SubscriptionPlan:   &plan,
	}}
	api := setupTestAPI(t, profiles, &stubMaterialStore{}, &stubGenerator{output: stubMaterialsJSON})

	w := httptest.NewRecorder()
	api.GenerateHandler(w, authedRequest(http.MethodPost, "/generate", []byte(`{"content":"notes","materialId":"mat-1"}`)))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unlimited", body["creditsRemaining"])
}

func TestGenerateHandlerUpstreamErrors(t *testing.T) {
	plan := models.PlanPro
	subscriber := &models.User{
		ID:                 "user-1",
		SubscriptionStatus: models.SubscriptionActive,
		SubscriptionPlan:   &plan,
	}

	tests := []struct {
		name       string
		genErr     error
		wantStatus int
	}{
		{"rate limited", ai.ErrRateLimited, http.StatusTooManyRequests},
		{"payment required", ai.ErrPaymentRequired, http.StatusPaymentRequired},
		{"gateway down", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setupTestAPI(t, &stubProfileStore{user: subscriber}, &stubMaterialStore{}, &stubGenerator{err: tt.genErr})

			w := httptest.NewRecorder()
			api.GenerateHandler(w, authedRequest(http.MethodPost, "/generate", []byte(`{"content":"notes","materialId":"mat-1"}`)))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHomeworkHandlerMissingQuestion(t *testing.T) {
	api := setupTestAPI(t, &stubProfileStore{}, &stubMaterialStore{}, &stubGenerator{})

	w := httptest.NewRecorder()
	api.HomeworkHandler(w, authedRequest(http.MethodPost, "/homework", []byte(`{}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHomeworkHandlerSuccess(t *testing.T) {
	profiles := &stubProfileStore{user: &models.User{
		ID:                 "user-1",
		SubscriptionStatus: models.SubscriptionInactive,
		FreeCredits:        1,
	}}
	answer := `{"reasoning":["isolate x"],"explanation":"inverse operations","practiceQuestion":"solve 2x=8"}`
	api := setupTestAPI(t, profiles, &stubMaterialStore{}, &stubGenerator{output: answer})

	w := httptest.NewRecorder()
	api.HomeworkHandler(w, authedRequest(http.MethodPost, "/homework", []byte(`{"question":"solve 3x=9"}`)))

	require.Equal(t, http.StatusOK, w.Code)

	var body models.HomeworkAnswer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"isolate x"}, body.Reasoning)
}

func TestPayPalWebhookAlwaysAcks(t *testing.T) {
	api := setupTestAPI(t, &stubProfileStore{}, &stubMaterialStore{}, &stubGenerator{})

	payloads := [][]byte{
		[]byte(`{"event_type":"BILLING.SUBSCRIPTION.ACTIVATED","resource":{"id":"I-1","plan_id":"PRO-PLAN","subscriber":{"email_address":"s@example.com"}}}`),
		[]byte(`{"event_type":"SOMETHING.UNKNOWN","resource":{}}`),
		[]byte(`not even json`),
	}

	for _, payload := range payloads {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewReader(payload))
		api.PayPalWebhookHandler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]bool
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body["received"])
	}
}

func TestWebhookPathUsesConfiguredToken(t *testing.T) {
	cfg := testAPIConfig()
	cfg.PayPal.WebhookToken = "s3cret-segment"

	orchestrator := generation.NewOrchestrator(&stubProfileStore{}, &stubMaterialStore{}, &stubGenerator{})
	api, err := NewApi(cfg, orchestrator, billing.NewSynchronizer(&stubSubscriptionStore{}, cfg), nil)
	require.NoError(t, err)

	assert.Equal(t, "/webhooks/paypal/s3cret-segment", api.webhookPath())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal/s3cret-segment", bytes.NewReader([]byte(`{}`)))
	api.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// The bare path must not exist when a token is configured.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewReader([]byte(`{}`)))
	api.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewApiRequiresJWTSecret(t *testing.T) {
	cfg := testAPIConfig()
	cfg.Auth.JWTSecret = ""

	_, err := NewApi(cfg, nil, nil, nil)
	assert.Error(t, err)
}

func TestListPlansHandler(t *testing.T) {
	api := setupTestAPI(t, &stubProfileStore{}, &stubMaterialStore{}, &stubGenerator{})

	w := httptest.NewRecorder()
	api.ListPlansHandler(w, authedRequest(http.MethodGet, "/billing/plans", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var plans []billing.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	require.Len(t, plans, 2)
	assert.Equal(t, "PRO-PLAN", plans[0].ID)
}

func TestCheckoutQRHandler(t *testing.T) {
	api := setupTestAPI(t, &stubProfileStore{}, &stubMaterialStore{}, &stubGenerator{})

	call := func(planID string) *httptest.ResponseRecorder {
		req := authedRequest(http.MethodGet, "/billing/plans/"+planID+"/qr", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("planID", planID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		w := httptest.NewRecorder()
		api.CheckoutQRHandler(w, req)
		return w
	}

	w := call("PRO-PLAN")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["approval_url"], "plan_id=PRO-PLAN")
	assert.NotEmpty(t, body["qr_png_b64"])

	assert.Equal(t, http.StatusNotFound, call("NOPE").Code)
}
