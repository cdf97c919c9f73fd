package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type statusCapturingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusCapturingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusCapturingResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

// logFields collects attributes handlers add while serving a request.
type logFields struct {
	mu    sync.Mutex
	attrs []any
}

// Annotate attaches key/value pairs to the access log line of the current request.
// It is a no-op outside WithAccessLog.
func Annotate(ctx context.Context, args ...any) {
	f, _ := ctx.Value(ctxKeyLogFields).(*logFields)
	if f == nil {
		return
	}
	f.mu.Lock()
	f.attrs = append(f.attrs, args...)
	f.mu.Unlock()
}

func WithAccessLog(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusCapturingResponseWriter{ResponseWriter: w}
			fields := &logFields{}

			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), ctxKeyLogFields, fields)))

			attrs := []any{
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"bytes", sw.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			fields.mu.Lock()
			attrs = append(attrs, fields.attrs...)
			fields.mu.Unlock()
			logger.Info("http request", attrs...)
		})
	}
}
