package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emissioncoresupport/evidence-ledger/pkg/ctxutil"
)

type requestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// requestFields collects identifiers resolved by inner middleware so the
// access log written by Logger can include them.
type requestFields struct {
	tenantID string
	userID   string
}

type requestFieldsKey struct{}

func withRequestFields(ctx context.Context) (context.Context, *requestFields) {
	f := &requestFields{}
	return context.WithValue(ctx, requestFieldsKey{}, f), f
}

// annotateRequest records the caller identity for the access log.
func annotateRequest(ctx context.Context, tenantID, userID string) {
	if f, ok := ctx.Value(requestFieldsKey{}).(*requestFields); ok {
		f.tenantID = tenantID
		f.userID = userID
	}
}

// Logger returns middleware that logs each HTTP request with method, path,
// status code, duration, and context identifiers (request_id, tenant_id,
// user_id). When obs is non-nil the request latency is observed under the
// matched chi route pattern.
func Logger(logger *slog.Logger, obs requestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			ctx, fields := withRequestFields(r.Context())
			r = r.WithContext(ctx)

			next.ServeHTTP(sw, r)

			duration := time.Since(start)
			requestID := ctxutil.RequestIDFromCtx(r.Context())

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", duration),
				slog.String("request_id", requestID),
			}
			if fields.tenantID != "" {
				attrs = append(attrs, slog.String("tenant_id", fields.tenantID))
			}
			if fields.userID != "" {
				attrs = append(attrs, slog.String("user_id", fields.userID))
			}

			level := slog.LevelInfo
			if sw.status >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "http.request", attrs...)

			if obs != nil {
				obs.ObserveRequest(r.Method, routePattern(r), sw.status, duration)
			}
		})
	}
}

// routePattern returns the matched chi pattern, keeping label cardinality
// bounded by the route table rather than by evidence ids.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
