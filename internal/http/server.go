package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/period"
	appweb "finboard/web"
)

// OverviewReader is what the handlers need from the overview service.
type OverviewReader interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	GetAccount(ctx context.Context, id string) (core.Account, error)
	Snapshot(ctx context.Context, accountID string) (*ledger.TransactionSet, error)
	Overview(ctx context.Context, accountID string, key period.RangeKey, now time.Time) (period.Result, error)
}

// Pinger backs the readiness probe when the backend has a cheap check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger       *log.Logger
	Pinger       Pinger
	Location     *time.Location
	DefaultRange period.RangeKey
	RateLimit    ratelimit.Config
	// Now is the clock used for period windows; defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates    *template.Template
	svc          OverviewReader
	pinger       Pinger
	logger       *log.Logger
	loc          *time.Location
	defaultRange period.RangeKey
	clock        func() time.Time
	limiter      *ratelimit.Limiter
	started      time.Time
	shutdownOnce sync.Once
}

// providerTimeout bounds every ledger call made while serving a request.
const providerTimeout = 7 * time.Second

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc OverviewReader, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if !opts.DefaultRange.Valid() {
		opts.DefaultRange = period.DefaultRange
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates:    t,
		svc:          svc,
		pinger:       opts.Pinger,
		logger:       opts.Logger,
		loc:          opts.Location,
		defaultRange: opts.DefaultRange,
		clock:        opts.Now,
		limiter:      ratelimit.NewLimiter(opts.RateLimit),
		started:      opts.Now(),
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static files: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(sub)))))

	limited := s.limiter.Middleware(security.ClientIP)

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /ui/accounts", s.handleAccountsGrid)
	mux.HandleFunc("GET /account/{id}", s.handleAccountPage)
	mux.HandleFunc("GET /ui/account/{id}/overview", s.handleOverviewPartial)
	mux.Handle("GET /account/{id}/chart.svg", limited(http.HandlerFunc(s.handleChart)))
	mux.Handle("GET /api/accounts/{id}/overview", limited(http.HandlerFunc(s.handleOverviewJSON)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var handler http.Handler = mux
	handler = trace.NewMiddleware(s.logger, security.ClientIP).Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// now is the request clock in the dashboard time zone.
func (s *Server) now() time.Time {
	return s.clock().In(s.loc)
}

// Shutdown stops the limiter and drains the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a template into a buffer first so a failing template
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.LogError(r.Context(), "Template execution failed", err, log.OpRender, nil)
		FallbackResponse(name).Status(http.StatusInternalServerError).Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
