// Package trace assigns request ids and logs request start and completion.
package trace

import (
	"context"
	"net/http"
	"strings"
	"time"

	"finboard/internal/log"

	"github.com/google/uuid"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID is echoed on every response.
	HeaderRequestID = "X-Request-ID"
)

// RequestID returns the id stored by Middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Middleware handles request tracing and logging
type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string
	now       func() time.Time
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{logger: logger, extractIP: extractIP, now: time.Now}
}

// Middleware returns HTTP middleware for request tracing. An inbound
// X-Request-ID is kept when it looks sane; otherwise a uuid is generated.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	withLogger := log.Middleware(m.logger, func(r *http.Request) string {
		return RequestID(r.Context())
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()

		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, requestID))

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		withLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.LogHTTPStart(r.Context(), r, clientIP)
			next.ServeHTTP(w, r)
			log.LogHTTPEnd(r.Context(), r, rw.statusCode, m.now().Sub(start), clientIP)
		})).ServeHTTP(rw, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
