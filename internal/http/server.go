// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	applog "aqualedger/internal/log"
	"aqualedger/internal/middleware/ratelimit"
	"aqualedger/internal/middleware/security"
	"aqualedger/internal/services"
	"aqualedger/internal/session"
)

// Options tunes the server. Zero values pick the defaults.
type Options struct {
	WeekStart         time.Weekday
	OverdueAfterDays  int
	RequestsPerMinute int
	Logger            *applog.Logger
	Now               func() time.Time
}

type Server struct {
	http.Server

	ledger   *services.LedgerService
	sessions *session.Manager
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector

	weekStart    time.Weekday
	overdueAfter int
	now          func() time.Time
	started      time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger *services.LedgerService, sessions *session.Manager, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OverdueAfterDays <= 0 {
		opts.OverdueAfterDays = 30
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		ledger:       ledger,
		sessions:     sessions,
		logger:       logger,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector:     security.NewDetector(logger.Slog()),
		weekStart:    opts.WeekStart,
		overdueAfter: opts.OverdueAfterDays,
		now:          opts.Now,
		started:      opts.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/session", s.handleLogin)
	mux.HandleFunc("DELETE /api/session", s.handleLogout)
	mux.HandleFunc("GET /api/session", s.withSession(s.handleWhoAmI))

	mux.HandleFunc("GET /api/customers", s.withSession(s.handleListCustomers))
	mux.HandleFunc("POST /api/customers", s.withSession(s.handleCreateCustomer))
	mux.HandleFunc("DELETE /api/customers/{id}", s.withSession(s.handleDeleteCustomer))
	mux.HandleFunc("PATCH /api/customers/{id}/rate", s.withSession(s.handleUpdateRate))
	mux.HandleFunc("GET /api/customers/{flat}/outstanding", s.withSession(s.handleOutstanding))
	mux.HandleFunc("GET /api/customers/{flat}/history", s.withSession(s.handleHistory))

	mux.HandleFunc("GET /api/deliveries", s.withSession(s.handleListDeliveries))
	mux.HandleFunc("POST /api/deliveries", s.withSession(s.handleCreateDelivery))
	mux.HandleFunc("DELETE /api/deliveries/{id}", s.withSession(s.handleDeleteDelivery))

	mux.HandleFunc("GET /api/payments", s.withSession(s.handleListPayments))
	mux.HandleFunc("POST /api/payments", s.withSession(s.handleRecordPayment))
	mux.HandleFunc("DELETE /api/payments/{id}", s.withSession(s.handleDeletePayment))

	mux.HandleFunc("GET /api/expenses", s.withSession(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.withSession(s.handleCreateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withSession(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/stats", s.withSession(s.handleStats))
	mux.HandleFunc("GET /api/dues", s.withSession(s.handleDues))
	mux.HandleFunc("GET /api/balances", s.withSession(s.handleBalances))
	mux.HandleFunc("GET /api/reports/top-customers", s.withSession(s.handleTopCustomers))
	mux.HandleFunc("GET /api/reports/categories", s.withSession(s.handleCategories))

	mux.HandleFunc("GET /api/export", s.withSession(s.handleExport))
	mux.HandleFunc("GET /api/export.xlsx", s.withSession(s.handleExportWorkbook))
	mux.HandleFunc("POST /api/import", s.withSession(s.handleImport))

	// Outermost first: request logger, request ID, access log, headers,
	// screening, then write throttling.
	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.AccessLog(h)
	h = applog.RequestIDMiddleware(h)
	h = applog.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background loops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		"client_ip", s.detector.ExtractClientIP(r), "method", r.Method, "path", r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the storage medium answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"storage": "ok"}
	status, code := "ready", http.StatusOK
	if err := s.sessions.Ping(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	limits := s.limiter.GetMetrics()
	sec := s.detector.GetMetrics()
	writeJSON(w, code, map[string]any{
		"status":        status,
		"checks":        checks,
		"session_cache": s.sessions.Cache().Size(),
		"rate_limited":  limits.TotalHits,
		"suspicious":    sec.SuspiciousRequests,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
