package media

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"parish-site/internal/auth"
	"parish-site/internal/observability"
)

const (
	maxUploadSizeBytes = 10 << 20
	// multipart framing on top of the file itself
	maxRequestBytes = maxUploadSizeBytes + 1<<20
)

type UploadHandler struct {
	store  Store
	logger *observability.Logger
}

func NewUploadHandler(store Store, logger *observability.Logger) *UploadHandler {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &UploadHandler{store: store, logger: logger}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "image storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxUploadSizeBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "file is empty")
		return
	}
	if len(data) > maxUploadSizeBytes {
		writeError(w, http.StatusBadRequest, "file is too large")
		return
	}

	// The declared part header is client controlled; sniff the bytes instead.
	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[baseMediaType(contentType)]; !ok || !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	url, err := h.store.Save(r.Context(), contentType, data)
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("media_upload_failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusBadGateway, "failed to store image")
		return
	}

	fields := map[string]any{"url": url, "bytes": len(data)}
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		fields["admin_id"] = identity.AdminID
	}
	h.logger.Info("media_uploaded", fields)

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// FileServer serves files saved by a DiskStore under PublicPrefix without
// directory listings.
func FileServer(dir string) http.Handler {
	files := http.StripPrefix(PublicPrefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
