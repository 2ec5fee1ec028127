package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/frontdesk/internal/conversation"
	httpmiddleware "github.com/wolfman30/frontdesk/internal/http/middleware"
	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	LeadsHandler        *leads.Handler
	ConversationHandler *conversation.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// AdminAuthSecret, when set, puts the owner endpoints behind an HS256 bearer token.
	AdminAuthSecret string

	// RateLimitRPS <= 0 disables the per-IP limiter.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/leads", func(api chi.Router) {
		if cfg.RateLimitRPS > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}

		api.Post("/", cfg.LeadsHandler.CreateLead)
		api.Get("/", cfg.LeadsHandler.ListLeads)

		// Owner dashboard endpoints.
		api.Group(func(owner chi.Router) {
			if cfg.AdminAuthSecret != "" {
				owner.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			}
			owner.Get("/summary", cfg.LeadsHandler.Summary)
			if cfg.ConversationHandler != nil {
				owner.Get("/owner-summary", cfg.ConversationHandler.OwnerSummary)
				owner.Post("/{id}/owner-assist", cfg.ConversationHandler.OwnerAssist)
			}
		})

		if cfg.ConversationHandler != nil {
			api.Get("/_env", cfg.ConversationHandler.Env)
			api.Post("/{id}/messages", cfg.ConversationHandler.PostMessage)
			api.Post("/{id}/welcome", cfg.ConversationHandler.Welcome)
		}
		api.Get("/{id}", cfg.LeadsHandler.GetLead)
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
