// Package router mounts all HTTP handlers on the standard library ServeMux
// and applies the cross-cutting middleware chain.
package router

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/auth"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/transform"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/user"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/voice"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			// ensure status is set
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
				"request_id", w.Header().Get("X-Request-ID"),
			)
		})
	}
}

// RequestIDMiddleware tags every request with a generated id, echoed in the
// response header, or propagates a caller-supplied one.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
// It is intentionally simple and conservative so it works with most setups.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			// Referrer policy
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")

			// Permissions policy - the API itself never needs these features
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}

			// HSTS only makes sense over TLS
			if r.TLS != nil {
				// 30 days
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Handlers bundles the per-domain HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Ideas     *idea.Handler
	Users     *user.Handler
	Transform *transform.Handler
	Voice     *voice.Handler
}

// RegisterRoutes mounts all endpoints under /api/v1 using the standard
// library's http.ServeMux. Everything except the root banner and health
// probe sits behind bearer authentication.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, verifier *auth.Verifier, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"service":"brainvault-idea-core","status":"running"}`))
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			logger.Warnw("health check db ping failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded","database":"unreachable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","database":"ok"}`))
	})

	authed := func(hf http.HandlerFunc) http.Handler {
		return verifier.Middleware(hf)
	}

	// idea routes; literal segments must be registered so they win over {id}
	mux.Handle("POST /api/v1/ideas", authed(h.Ideas.Create))
	mux.Handle("GET /api/v1/ideas", authed(h.Ideas.List))
	mux.Handle("GET /api/v1/ideas/search", authed(h.Ideas.Search))
	mux.Handle("GET /api/v1/ideas/stats/summary", authed(h.Ideas.Stats))
	mux.Handle("GET /api/v1/ideas/{id}", authed(h.Ideas.Get))
	mux.Handle("PUT /api/v1/ideas/{id}", authed(h.Ideas.Update))
	mux.Handle("DELETE /api/v1/ideas/{id}", authed(h.Ideas.Delete))
	mux.Handle("GET /api/v1/ideas/{id}/analysis", authed(h.Ideas.Analysis))

	// transformation
	mux.Handle("POST /api/v1/transform", authed(h.Transform.Transform))

	// voice intake
	mux.Handle("POST /api/v1/voice/transcribe", authed(h.Voice.Transcribe))
	mux.Handle("POST /api/v1/voice/extract-ideas", authed(h.Voice.ExtractIdeas))

	// account routes
	mux.Handle("POST /api/v1/users", authed(h.Users.Create))
	mux.Handle("GET /api/v1/users/me", authed(h.Users.Me))
	mux.Handle("PUT /api/v1/users/me", authed(h.Users.UpdateMe))
	mux.Handle("DELETE /api/v1/users/me", authed(h.Users.DeleteMe))

	// wrap with request id, then security headers, then logging
	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(RequestIDMiddleware()(mux)))
	return handler
}
