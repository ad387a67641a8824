// Package http serves the dashboard: server-rendered pages with htmx
// partials for every form and list.
package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"budgetwise/internal/auth"
	applog "budgetwise/internal/log"
	"budgetwise/internal/middleware/ratelimit"
	"budgetwise/internal/middleware/security"
	"budgetwise/internal/middleware/trace"
	"budgetwise/internal/services"
	appweb "budgetwise/web"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Services *services.Service
	Auth     *auth.Authenticator
	// Sessions is checked by /readyz.
	Sessions           Pinger
	Logger             *applog.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	svc       *services.Service
	auth      *auth.Authenticator
	sessions  Pinger
	logger    *applog.Logger

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	trace       *trace.Middleware
	appMetrics  *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated atomic.Int64
	recordsSaved        atomic.Int64
	recordsDeleted      atomic.Int64
	conflicts           atomic.Int64
	backendErrors       atomic.Int64
}

// NewServer parses the embedded templates and wires the routes.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		svc:         d.Services,
		auth:        d.Auth,
		sessions:    d.Sessions,
		logger:      logger,
		detector:    detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
		trace:       trace.NewMiddleware(detector.ExtractClientIP, logger),
		appMetrics:  &appMetrics{uptime: time.Now()},
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.trace.Middleware)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.With(security.StaticAssetMiddleware(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Get("/login", s.auth.Login)
	r.Get("/auth/callback", s.auth.Callback)
	r.Post("/logout", s.auth.Logout)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(security.NoStore)

		r.Get("/", s.handleDashboard)
		r.Get("/transactions", s.handleTransactionsPage)
		r.Get("/transactions/list", s.handleTransactionList)
		r.Get("/budgets", s.handleBudgetsPage)
		r.Get("/budgets/list", s.handleBudgetList)
		r.Get("/budgets/form", s.handleBudgetForm)
		r.Get("/savings", s.handleSavingsPage)
		r.Get("/savings/list", s.handleSavingsList)
		r.Get("/savings/form", s.handleSavingsForm)
		r.Get("/export/csv", s.handleExportCSV)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimiter.Middleware(s.rateLimitKey, s.onRateLimit))

			r.Post("/transactions", s.handleCreateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
			r.Post("/budgets", s.handleSaveBudget)
			r.Delete("/budgets/{id}", s.handleDeleteBudget)
			r.Post("/savings", s.handleSaveSavings)
			r.Delete("/savings/{id}", s.handleDeleteSavings)
			r.Post("/advice", s.handleAdvice)
			r.Post("/export/sheets", s.handleExportSheets)
		})
	})
	return r
}

// rateLimitKey buckets signed-in users by subject so users behind one NAT
// do not share a budget.
func (s *Server) rateLimitKey(r *http.Request) string {
	if u, ok := auth.UserFrom(r.Context()); ok {
		return "user:" + u.Principal.Subject
	}
	return "ip:" + s.detector.ExtractClientIP(r)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many changes in a short time. Please wait a moment.").
		TriggerErrorNotification("Too many changes in a short time. Please wait a moment.").
		Write(w)
}

// Shutdown stops background goroutines and drains the server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// render executes a named template into a buffer so a failed render never
// leaves a half-written page.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeTemplate renders name with status. Render failures become a 500.
func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := s.render(name, data)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			"template", name)
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(string(body)).Write(w)
}
