package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vetcareai/vetcare-platform/internal/conversation"
	httpmiddleware "github.com/vetcareai/vetcare-platform/internal/http/middleware"
	"github.com/vetcareai/vetcare-platform/internal/knowledge"
	"github.com/vetcareai/vetcare-platform/internal/webchat"
	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	WebchatHandler      *webchat.Handler
	KnowledgeHandler    *knowledge.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ConversationHandler != nil {
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/start", cfg.ConversationHandler.Start)
			r.Post("/message", cfg.ConversationHandler.Message)
			r.Get("/{conversationID}/history", cfg.ConversationHandler.History)
		})
	}

	if cfg.WebchatHandler != nil {
		r.Route("/webchat", func(r chi.Router) {
			r.Get("/", cfg.WebchatHandler.HandlePage)
			r.Get("/ws", cfg.WebchatHandler.HandleWebSocket)
		})
	}

	// Admin routes (protected by HMAC-signed JWT)
	if cfg.AdminAuthSecret != "" && cfg.KnowledgeHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Post("/knowledge/reindex", cfg.KnowledgeHandler.Reindex)
			admin.Get("/knowledge/stats", cfg.KnowledgeHandler.Stats)
		})
	}

	return r
}
