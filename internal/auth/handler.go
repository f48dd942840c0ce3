package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"parish-site/internal/observability"
)

const maxJSONBodyBytes = 1 << 20

const invalidCredentialsMessage = "invalid email or password"

type Handler struct {
	service *Service
	logger  *observability.Logger
}

func NewHandler(service *Service, logger *observability.Logger) *Handler {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Handler{service: service, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool    `json:"success"`
	Token   string  `json:"token"`
	Admin   Profile `json:"admin"`
}

type createAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, ErrMissingCredentials.Error())
		return
	}

	result, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, invalidCredentialsMessage)
		case errors.Is(err, ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, ErrMissingCredentials.Error())
		default:
			h.internalError(w, "login_failed", err, "failed to login")
		}
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: result.Token, Admin: result.Admin})
}

// Logout only acknowledges; tokens are stateless and the client drops its copy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "logged out"})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "admin": identity})
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var body createAdminRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	admin, err := h.service.CreateAdmin(r.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrEmailTaken):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.internalError(w, "create_admin_failed", err, "failed to create admin")
		}
		return
	}

	if identity, ok := IdentityFromContext(r.Context()); ok {
		h.logger.Info("admin_created_by", map[string]any{"admin_id": admin.ID, "created_by": identity.AdminID})
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "admin": admin.Profile()})
}

func (h *Handler) internalError(w http.ResponseWriter, event string, err error, message string) {
	sentry.CaptureException(err)
	h.logger.Error(event, map[string]any{"error": err.Error()})
	writeError(w, http.StatusInternalServerError, message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
