// Package api wires the HTTP surface: auth, uploads, generation,
// homework help, billing and the PayPal webhook.
package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/StudyForge-io/studyforge/internal/auth"
	"github.com/StudyForge-io/studyforge/internal/billing"
	"github.com/StudyForge-io/studyforge/internal/config"
	"github.com/StudyForge-io/studyforge/internal/generation"
	"github.com/StudyForge-io/studyforge/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Api struct {
	Config       *config.Config
	Router       *chi.Mux
	tokenManager *auth.TokenManager
	authHandlers *auth.Handlers
	orchestrator *generation.Orchestrator
	synchronizer *billing.Synchronizer
	checkout     *billing.Checkout
	storage      *storage.S3Client
}

// NewApi assembles the router and all request handlers. The storage
// client may be nil when object storage is not configured; the upload
// route then rejects requests with 503.
func NewApi(cfg *config.Config, orchestrator *generation.Orchestrator, synchronizer *billing.Synchronizer, store *storage.S3Client) (*Api, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwtSecret is required")
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	api := &Api{
		Config:       cfg,
		Router:       chi.NewRouter(),
		tokenManager: tokenManager,
		authHandlers: &auth.Handlers{Tokens: tokenManager},
		orchestrator: orchestrator,
		synchronizer: synchronizer,
		checkout:     billing.NewCheckout(cfg),
		storage:      store,
	}

	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://*.local:*", "http://localhost:*", "http://127.0.0.1:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/heartbeat"))

	// Public routes
	r.Post("/auth/register", api.authHandlers.RegisterHandler)
	r.Post("/auth/login", api.authHandlers.LoginHandler)
	r.Post(api.webhookPath(), api.PayPalWebhookHandler)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(api.tokenManager))

		r.Post("/auth/tokens", api.authHandlers.CreateTokenHandler)
		r.Get("/auth/tokens", api.authHandlers.ListTokensHandler)
		r.Delete("/auth/tokens/{tokenID}", api.authHandlers.DeleteTokenHandler)

		r.Get("/me", api.ProfileHandler)
		r.Post("/upload", api.UploadHandler)
		r.Post("/generate", api.GenerateHandler)
		r.Post("/homework", api.HomeworkHandler)
		r.Get("/materials", api.ListMaterialsHandler)
		r.Get("/materials/{materialID}", api.GetMaterialHandler)

		r.Get("/billing/plans", api.ListPlansHandler)
		r.Get("/billing/plans/{planID}/qr", api.CheckoutQRHandler)
	})
}

// webhookPath mounts the PayPal webhook under an unguessable segment when
// one is configured. PayPal sends no shared-secret header, so a capability
// URL is the available defense.
func (api *Api) webhookPath() string {
	if token := api.Config.PayPal.WebhookToken; token != "" {
		return "/webhooks/paypal/" + token
	}
	return "/webhooks/paypal"
}

func (api *Api) Serve() {
	log.Printf("Starting API server on 0.0.0.0:%d", api.Config.APIPort)
	log.Fatal(http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort), api.Router))
}
