package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"parish-site/internal/auth"
	"parish-site/internal/observability"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	repo   *Repository
	logger *observability.Logger
}

func NewHandler(repo *Repository, logger *observability.Logger) *Handler {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Handler{repo: repo, logger: logger}
}

// Register mounts the public reads behind optional and every mutation
// behind protect.
func (h *Handler) Register(mux *http.ServeMux, protect, optional func(http.Handler) http.Handler) {
	read := func(f http.HandlerFunc) http.Handler { return optional(f) }
	write := func(f http.HandlerFunc) http.Handler { return protect(f) }

	mux.Handle("GET /api/noticias", read(h.ListNews))
	mux.Handle("GET /api/noticias/{id}", read(h.GetNews))
	mux.Handle("POST /api/noticias", write(h.CreateNews))
	mux.Handle("PUT /api/noticias/{id}", write(h.UpdateNews))
	mux.Handle("DELETE /api/noticias/{id}", write(h.DeleteNews))

	mux.Handle("GET /api/missas", read(h.ListMasses))
	mux.Handle("GET /api/missas/{id}", read(h.GetMass))
	mux.Handle("POST /api/missas", write(h.CreateMass))
	mux.Handle("PUT /api/missas/{id}", write(h.UpdateMass))
	mux.Handle("DELETE /api/missas/{id}", write(h.DeleteMass))

	mux.Handle("GET /api/pastorais", read(h.ListPastorals))
	mux.Handle("GET /api/pastorais/{id}", read(h.GetPastoral))
	mux.Handle("POST /api/pastorais", write(h.CreatePastoral))
	mux.Handle("PUT /api/pastorais/{id}", write(h.UpdatePastoral))
	mux.Handle("DELETE /api/pastorais/{id}", write(h.DeletePastoral))

	mux.Handle("GET /api/capelas", read(h.ListChapels))
	mux.Handle("GET /api/capelas/{id}", read(h.GetChapel))
	mux.Handle("POST /api/capelas", write(h.CreateChapel))
	mux.Handle("PUT /api/capelas/{id}", write(h.UpdateChapel))
	mux.Handle("DELETE /api/capelas/{id}", write(h.DeleteChapel))
}

func (h *Handler) ListNews(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListNews(r.Context(), isAdmin(r))
	if err != nil {
		h.internalError(w, r, err, "failed to list news")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.repo.GetNews(r.Context(), id)
	if err == nil && item.Status != StatusPublished && !isAdmin(r) {
		err = pgx.ErrNoRows
	}
	h.respond(w, r, http.StatusOK, item, err, "news not found", "failed to load news")
}

func (h *Handler) CreateNews(w http.ResponseWriter, r *http.Request) {
	var input NewsInput
	if !decodeInput(w, r, &input, input.normalize) {
		return
	}

	item, err := h.repo.CreateNews(r.Context(), input)
	h.respondMutation(w, r, http.StatusCreated, "news_created", item.ID, item, err, "news not found", "failed to create news")
}

func (h *Handler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var input NewsInput
	if !decodeInput(w, r, &input, input.normalize) {
		return
	}

	item, err := h.repo.UpdateNews(r.Context(), id, input)
	h.respondMutation(w, r, http.StatusOK, "news_updated", id, item, err, "news not found", "failed to update news")
}

func (h *Handler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "news_deleted", h.repo.DeleteNews, "news not found", "failed to delete news")
}

func (h *Handler) ListMasses(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListMasses(r.Context())
	if err != nil {
		h.internalError(w, r, err, "failed to list masses")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) GetMass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.repo.GetMass(r.Context(), id)
	h.respond(w, r, http.StatusOK, item, err, "mass not found", "failed to load mass")
}

func (h *Handler) CreateMass(w http.ResponseWriter, r *http.Request) {
	var input MassInput
	if !decodeInput(w, r, &input, input.normalize) {
		return
	}

	item, err := h.repo.CreateMass(r.Context(), input)
	h.respondMutation(w, r, http.StatusCreated, "mass_created", item.ID, item, err, "mass not found", "failed to create mass")
}

func (h *Handler) UpdateMass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var input MassInput
	if !decodeInput(w, r, &input, input.normalize) {
		return
	}

	item, err := h.repo.UpdateMass(r.Context(), id, input)
	h.respondMutation(w, r, http.StatusOK, "mass_updated", id, item, err, "mass not found", "failed to update mass")
}

func (h *Handler) DeleteMass(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "mass_deleted", h.repo.DeleteMass, "mass not found", "failed to delete mass")
}

func (h *Handler) ListPastorals(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListPastorals(r.Context(), isAdmin(r))
	if err != nil {
		h.internalError(w, r, err, "failed to list pastorals")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) GetPastoral(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.repo.GetPastoral(r.Context(), id)
	if err == nil && item.Status != StatusActive && !isAdmin(r) {
		err = pgx.ErrNoRows
	}
	h.respond(w, r, http.StatusOK, item, err, "pastoral not found", "failed to load pastoral")
}

func (h *Handler) CreatePastoral(w http.ResponseWriter, r *http.Request) {
	var input PastoralInput
	if !decodeInput(w, r, &input, input.normalize) {
		return
	}

	item, err := h.repo.CreatePastoral(r.Context(), input)
	h.respondMutation(w, r, http.StatusCreated, "pastoral_created", item.ID, item, err, "pastoral not found", "failed to create pastoral")
}

func (h *Handler) UpdatePastoral(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var input PastoralInput
	if !decodeInput(w, r, &input, input.normalize) {
		return
	}

	item, err := h.repo.UpdatePastoral(r.Context(), id, input)
	h.respondMutation(w, r, http.StatusOK, "pastoral_updated", id, item, err, "pastoral not found", "failed to update pastoral")
}

func (h *Handler) DeletePastoral(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "pastoral_deleted", h.repo.DeletePastoral, "pastoral not found", "failed to delete pastoral")
}

func (h *Handler) ListChapels(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListChapels(r.Context(), isAdmin(r))
	if err != nil {
		h.internalError(w, r, err, "failed to list chapels")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) GetChapel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.repo.GetChapel(r.Context(), id)
	if err == nil && item.Status != StatusActive && !isAdmin(r) {
		err = pgx.ErrNoRows
	}
	h.respond(w, r, http.StatusOK, item, err, "chapel not found", "failed to load chapel")
}

func (h *Handler) CreateChapel(w http.ResponseWriter, r *http.Request) {
	var input ChapelInput
	if !decodeInput(w, r, &input, input.normalize) {
		return
	}

	item, err := h.repo.CreateChapel(r.Context(), input)
	h.respondMutation(w, r, http.StatusCreated, "chapel_created", item.ID, item, err, "chapel not found", "failed to create chapel")
}

func (h *Handler) UpdateChapel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var input ChapelInput
	if !decodeInput(w, r, &input, input.normalize) {
		return
	}

	item, err := h.repo.UpdateChapel(r.Context(), id, input)
	h.respondMutation(w, r, http.StatusOK, "chapel_updated", id, item, err, "chapel not found", "failed to update chapel")
}

func (h *Handler) DeleteChapel(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "chapel_deleted", h.repo.DeleteChapel, "chapel not found", "failed to delete chapel")
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, data any, err error, notFound, failure string) {
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeError(w, http.StatusNotFound, notFound)
		case errors.Is(err, ErrChapelNotFound):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.internalError(w, r, err, failure)
		}
		return
	}

	writeJSON(w, status, data)
}

func (h *Handler) respondMutation(w http.ResponseWriter, r *http.Request, status int, event, id string, data any, err error, notFound, failure string) {
	if err == nil {
		fields := map[string]any{"id": id}
		if identity, ok := auth.IdentityFromContext(r.Context()); ok {
			fields["admin_id"] = identity.AdminID
		}
		h.logger.Info(event, fields)
	}
	h.respond(w, r, status, data, err, notFound, failure)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, event string, remove func(ctx context.Context, id string) error, notFound, failure string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := remove(r.Context(), id); err != nil {
		h.respond(w, r, http.StatusNoContent, nil, err, notFound, failure)
		return
	}

	h.logger.Info(event, map[string]any{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	sentry.CaptureException(err)
	h.logger.Error("content_request_failed", map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err.Error(),
	})
	writeError(w, http.StatusInternalServerError, message)
}

func isAdmin(r *http.Request) bool {
	_, ok := auth.IdentityFromContext(r.Context())
	return ok
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return id, true
}

// decodeInput reads a JSON body into dst and runs normalize on it. The
// normalize method value must be bound to dst.
func decodeInput(w http.ResponseWriter, r *http.Request, dst any, normalize func() error) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}

	if err := normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
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
