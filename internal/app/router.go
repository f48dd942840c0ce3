package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"parish-site/internal/auth"
	"parish-site/internal/content"
	"parish-site/internal/maintenance"
	"parish-site/internal/media"
	"parish-site/internal/observability"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Components are the already-built collaborators the router mounts.
type Components struct {
	Logger     *observability.Logger
	Service    *auth.Service
	Limiter    *auth.LoginRateLimiter
	Content    *content.Repository
	MediaStore media.Store
	// UploadDir is served under /uploads/ when set.
	UploadDir  string
	CronSecret string
	Database   Pinger
	// TrustProxy logs the forwarded client address, as the limiter keys it.
	TrustProxy bool
}

func NewRouter(c Components) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	tokens := c.Service.Tokens()
	protect := func(next http.Handler) http.Handler { return auth.Middleware(tokens, next) }
	optional := func(next http.Handler) http.Handler { return auth.OptionalMiddleware(tokens, next) }

	authHandler := auth.NewHandler(c.Service, logger)
	sweepHandler := maintenance.NewSweepHandler(c.Limiter, logger, c.CronSecret)

	mux := http.NewServeMux()
	mux.Handle("POST /api/auth/login", c.Limiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/verify", protect(http.HandlerFunc(authHandler.Verify)))
	mux.Handle("POST /api/auth/verify", protect(http.HandlerFunc(authHandler.Verify)))
	mux.Handle("POST /api/auth/admin/create", protect(http.HandlerFunc(authHandler.CreateAdmin)))

	if c.Content != nil {
		content.NewHandler(c.Content, logger).Register(mux, protect, optional)
	}

	mux.Handle("POST /api/media/upload", protect(http.HandlerFunc(media.NewUploadHandler(c.MediaStore, logger).Upload)))
	if c.UploadDir != "" {
		mux.Handle("GET "+media.PublicPrefix, media.FileServer(c.UploadDir))
	}

	mux.HandleFunc("GET /internal/maintenance/sweep", sweepHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/sweep", sweepHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(c.Database))

	return observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, observability.LoggingOptions{TrustProxy: c.TrustProxy}, mux))
}

func healthHandler(database Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if database == nil || database.Ping(ctx) != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
