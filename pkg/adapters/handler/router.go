package handler

import (
	"log/slog"
	"net/http"

	"github.com/snaplink/snaplink/pkg/config"
	"github.com/snaplink/snaplink/pkg/ports"
)

// NewRouter wires the HTTP surface. Shortening is open to anonymous
// requests (ownership recorded when a session is present); the link listing
// requires one.
func NewRouter(cfg *config.Config, links ports.LinkService, auth ports.AuthService, logger *slog.Logger) http.Handler {
	sessions := newSessionIssuer(cfg.JWTSecret, cfg.SessionTTL, cfg.IsProduction())
	mw := NewMiddleware(cfg.JWTSecret)

	lh := NewLinkHandler(links, cfg.BaseURL)
	ah := NewAuthHandler(auth, sessions)
	oh := NewOAuthHandler(cfg, auth, sessions, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"service": "snaplink"})
	})

	mux.Handle("POST /api/shorten", mw.OptionalAuth(http.HandlerFunc(lh.Shorten)))
	mux.HandleFunc("GET /api/stats/{code}", lh.Stats)
	mux.Handle("GET /api/links", mw.RequireAuth(http.HandlerFunc(lh.Links)))

	mux.HandleFunc("POST /api/register", ah.Register)
	mux.HandleFunc("POST /api/login", ah.Login)
	mux.HandleFunc("POST /api/logout", ah.Logout)

	mux.HandleFunc("GET /auth/google/login", oh.Login)
	mux.HandleFunc("GET /auth/google/callback", oh.Callback)

	// Redirects last: a single path segment is a short code.
	mux.HandleFunc("GET /{code}", lh.Redirect)

	return mux
}
