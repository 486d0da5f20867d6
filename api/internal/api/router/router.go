// api/internal/api/router/router.go
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/irgordon/helix/api/internal/api/handlers"
	gateway "github.com/irgordon/helix/api/internal/api/middleware"
)

// RouterConfig defines the strict dependencies required to build the API routing tree.
type RouterConfig struct {
	AllowedOrigins   []string
	MaxUploadBytes   int64
	DNAHandler       *handlers.DNAHandler
	StegoHandler     *handlers.StegoHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	WSHandler        *handlers.WebSocketHandler
	HealthHandler    *handlers.HealthHandler
	RateLimiter      *gateway.RateLimiter
	Logger           *slog.Logger
}

// NewRouter constructs the Chi multiplexer, attaches global middleware, and wires all endpoints.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// =========================================================================
	// 1. Global Gateway Middleware Pipeline
	// =========================================================================

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(gateway.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	// Strict CORS Configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Helix-Payload-Size", "X-Helix-Binary-Size",
			"X-Helix-Embedding-Time", "X-Helix-Image-Size",
		},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// =========================================================================
	// 2. API v1 Routing Tree
	// =========================================================================

	r.Route("/api/v1", func(r chi.Router) {

		// 🛡️ In-memory token bucket rate limiting
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}

		// ---------------------------------------------------------------------
		// Request/Response Routes (bounded body and time)
		// ---------------------------------------------------------------------
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// 🛡️ OOM Protection: every upload is capped before it is decoded
			r.Use(gateway.MaxBytes(cfg.MaxUploadBytes))

			r.Post("/dna/encrypt", cfg.DNAHandler.Encrypt)
			r.Post("/dna/decrypt", cfg.DNAHandler.Decrypt)
			r.Post("/keys", cfg.DNAHandler.GenerateKey)

			r.Post("/stego/embed", cfg.StegoHandler.Embed)
			r.Post("/stego/extract", cfg.StegoHandler.Extract)

			r.Post("/messages/encode", cfg.StegoHandler.EncodeMessage)
			r.Post("/messages/decode", cfg.StegoHandler.DecodeMessage)

			r.Post("/metrics/quality", cfg.StegoHandler.Quality)
			r.Post("/images/info", cfg.StegoHandler.Info)

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/history", cfg.AnalyticsHandler.History)
				r.Delete("/history", cfg.AnalyticsHandler.Clear)
				r.Get("/summary", cfg.AnalyticsHandler.Summary)
			})
		})

		// ---------------------------------------------------------------------
		// WebSocket Real-Time Analytics Streaming (long-lived, no timeout)
		// ---------------------------------------------------------------------
		r.Get("/ws/analytics", cfg.WSHandler.StreamAnalytics)
	})

	r.Get("/health", cfg.HealthHandler.Check)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	return r
}
