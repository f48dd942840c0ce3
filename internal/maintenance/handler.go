package maintenance

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Sweeper is the part of the login rate limiter this handler drives.
type Sweeper interface {
	Sweep() int
	Tracked() int
}

type Logger interface {
	Info(message string, fields map[string]any)
}

// SweepHandler lets a scheduler force the limiter sweep on instances that
// do not live long enough for the background ticker to fire.
type SweepHandler struct {
	sweeper    Sweeper
	logger     Logger
	cronSecret string
}

func NewSweepHandler(sweeper Sweeper, logger Logger, cronSecret string) *SweepHandler {
	return &SweepHandler{
		sweeper:    sweeper,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
	}
}

func (h *SweepHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") ||
		subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), []byte(h.cronSecret)) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}

	removed := h.sweeper.Sweep()
	tracked := h.sweeper.Tracked()

	if h.logger != nil {
		h.logger.Info("login_limiter_swept", map[string]any{"removed": removed, "tracked": tracked})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"removed": removed,
		"tracked": tracked,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
