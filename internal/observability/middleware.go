package observability

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.statusCode = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// requestFields collects fields inner handlers add to the access log line.
type requestFields struct {
	mu     sync.Mutex
	fields map[string]any
}

type requestFieldsKey struct{}

// AddRequestField attaches key=value to the access log line of the request
// that owns ctx. It is a no-op outside RequestLoggingMiddleware.
func AddRequestField(ctx context.Context, key string, value any) {
	holder, ok := ctx.Value(requestFieldsKey{}).(*requestFields)
	if !ok {
		return
	}

	holder.mu.Lock()
	holder.fields[key] = value
	holder.mu.Unlock()
}

type LoggingOptions struct {
	// TrustProxy logs the first X-Forwarded-For hop, matching the limiter key.
	TrustProxy bool
}

// RequestLoggingMiddleware writes one http_request line per request. 5xx
// responses log at error level and 4xx at warn.
func RequestLoggingMiddleware(logger *Logger, options LoggingOptions, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		holder := &requestFields{fields: make(map[string]any)}
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), requestFieldsKey{}, holder)))

		holder.mu.Lock()
		fields := holder.fields
		holder.mu.Unlock()
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
		fields["status"] = recorder.statusCode
		fields["bytes"] = recorder.bytes
		fields["duration_ms"] = time.Since(start).Milliseconds()
		fields["ip"] = ClientIP(r, options.TrustProxy)

		switch {
		case recorder.statusCode >= http.StatusInternalServerError:
			logger.Error("http_request", fields)
		case recorder.statusCode >= http.StatusBadRequest:
			logger.Warn("http_request", fields)
		default:
			logger.Info("http_request", fields)
		}
	})
}

func RecoverMiddleware(logger *Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			hub := sentry.CurrentHub().Clone()
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("path", r.URL.Path)
				scope.SetExtra("panic", rec)
				scope.SetExtra("stack", string(debug.Stack()))
				hub.CaptureMessage("panic in request")
			})

			logger.Error("panic_recovered", map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"panic":  rec,
			})

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "internal server error"})
		}()

		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the caller's address without the port. The first
// X-Forwarded-For hop is only honoured when trustProxy is set, since the
// header is client controlled.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
