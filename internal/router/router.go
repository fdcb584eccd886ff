// internal/router/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pchuang/whatever-eat/internal/bot"
)

// Config contains dependencies needed for the router setup
type Config struct {
	WebhookHandler *bot.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Line-Signature"},
		MaxAge:         300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// Health banner for load-balancer checks.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Whatever Eat bot is running! 🤖"))
	})

	// Platform webhook entry point.
	r.Post("/callback", cfg.WebhookHandler.Callback)

	// Diagnostics.
	r.Get("/config", cfg.WebhookHandler.Config)
	r.Get("/stats", cfg.WebhookHandler.Stats)

	return r
}
