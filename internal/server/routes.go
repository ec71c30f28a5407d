package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Register routes with method-based patterns (Go 1.22+)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /feed", h.GetFeed)
	mux.HandleFunc("POST /feed/more", h.LoadMore)
	mux.HandleFunc("POST /feed/refresh", h.Refresh)
	mux.HandleFunc("PUT /feed/query", h.SetQuery)
	mux.HandleFunc("GET /feed/jobs/{id}", h.GetJob)
	mux.HandleFunc("POST /feed/jobs/{id}/bookmark", h.ToggleBookmark)
	mux.HandleFunc("GET /bookmarks", h.ListBookmarks)
	mux.HandleFunc("DELETE /bookmarks/{id}", h.RemoveBookmark)

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
