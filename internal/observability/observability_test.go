package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf)

	logger.Error("login_failed", map[string]any{"reason": "inactive"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "login_failed", entry["message"])
	assert.Equal(t, "inactive", entry["reason"])
	assert.Contains(t, entry, "time")
}

func TestRequestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf)

	handler := RequestLoggingMiddleware(logger, LoggingOptions{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/capelas", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.EqualValues(t, 5, entry["bytes"])
	assert.Equal(t, "/api/capelas", entry["path"])
	assert.Equal(t, "10.1.2.3", entry["ip"])
	assert.NotContains(t, entry, "admin_id")
}

func TestRequestLoggingMiddlewareLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNoContent, "info"},
		{http.StatusUnauthorized, "warn"},
		{http.StatusBadGateway, "error"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		handler := RequestLoggingMiddleware(NewLoggerTo(&buf), LoggingOptions{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, tt.level, entry["level"], tt.status)
	}
}

func TestRequestLoggingMiddlewareCollectsInnerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf)

	type derivedKey struct{}

	// Inner middleware swap the request for one with a derived context.
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), derivedKey{}, "derived")
		AddRequestField(ctx, "admin_id", "admin-1")
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/noticias", nil)
	req.RemoteAddr = "10.0.0.1:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.20, 10.0.0.1")
	RequestLoggingMiddleware(logger, LoggingOptions{TrustProxy: true}, inner).ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "admin-1", entry["admin_id"])
	assert.Equal(t, "198.51.100.20", entry["ip"])
	assert.Equal(t, "info", entry["level"])
}

func TestAddRequestFieldWithoutMiddleware(t *testing.T) {
	assert.NotPanics(t, func() {
		AddRequestField(context.Background(), "admin_id", "admin-1")
	})
}

func TestRecoverMiddleware(t *testing.T) {
	handler := RecoverMiddleware(NewNopLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"internal server error"}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{name: "socket address without port", remoteAddr: "192.0.2.10:41000", want: "192.0.2.10"},
		{name: "forwarded header ignored by default", remoteAddr: "192.0.2.10:41000", forwarded: "203.0.113.7", want: "192.0.2.10"},
		{name: "first forwarded hop when trusted", remoteAddr: "192.0.2.10:41000", forwarded: "203.0.113.7, 10.0.0.1", trustProxy: true, want: "203.0.113.7"},
		{name: "address without port kept", remoteAddr: "pipe", want: "pipe"},
		{name: "empty address", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, ClientIP(req, tt.trustProxy))
		})
	}
}

func TestScrubCredentials(t *testing.T) {
	event := &sentry.Event{Request: &sentry.Request{
		Headers: map[string]string{"Authorization": "Bearer abc.def.ghi", "Accept": "application/json"},
		Data:    `{"password":"secret"}`,
	}}

	scrubbed := scrubCredentials(event, nil)

	assert.Equal(t, "[redacted]", scrubbed.Request.Headers["Authorization"])
	assert.Equal(t, "application/json", scrubbed.Request.Headers["Accept"])
	assert.Empty(t, scrubbed.Request.Data)
}
