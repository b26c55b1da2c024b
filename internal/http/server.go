// Package http serves the tracker's JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/assistant"
	"tally/internal/core"
	"tally/internal/export"
	applog "tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/services"
)

// Asker runs one assistant exchange. *assistant.Bridge implements it.
type Asker interface {
	Ask(ctx context.Context, message string) ([]core.ChatMessage, error)
}

// Dependencies are the collaborators the API serves. Assistant and Ready
// may be nil.
type Dependencies struct {
	Tracker               *services.Tracker
	Assistant             Asker
	Ready                 func(ctx context.Context) error
	ChatRequestsPerMinute int
}

type Server struct {
	http.Server
	tracker   *services.Tracker
	assistant Asker
	ready     func(ctx context.Context) error
	logger    *applog.Logger

	clients     *security.ClientResolver
	tracer      *trace.Middleware
	chatLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		tracker:   deps.Tracker,
		assistant: deps.Assistant,
		ready:     deps.Ready,
		logger:    logger,
		clients:   security.NewClientResolver(),
		chatLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.ChatRequestsPerMinute,
		}),
	}
	s.tracer = trace.NewMiddleware(logger, s.clients.ClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses", s.handleDeleteExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/selection", s.handleGetSelection)
	mux.HandleFunc("POST /api/selection", s.handleChangeSelection)
	mux.HandleFunc("DELETE /api/selection", s.handleClearSelection)
	mux.HandleFunc("DELETE /api/selection/expenses", s.handleDeleteSelected)

	mux.HandleFunc("GET /api/budget", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budget", s.handleSetBudget)
	mux.HandleFunc("GET /api/theme", s.handleGetTheme)
	mux.HandleFunc("PUT /api/theme", s.handleSetTheme)
	mux.HandleFunc("POST /api/theme/toggle", s.handleToggleTheme)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	for _, f := range []export.Format{export.FormatCSV, export.FormatJSON, export.FormatXLSX, export.FormatPDF} {
		mux.Handle("GET /api/export."+string(f), s.exportHandler(f))
	}

	mux.HandleFunc("GET /api/chat", s.handleTranscript)
	mux.Handle("POST /api/chat", s.chatLimiter.Middleware(s.clients.ClientIP, s.onChatLimit)(http.HandlerFunc(s.handleChat)))

	var h http.Handler = mux
	h = applog.Middleware(logger, trace.FromRequest)(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		// Assistant calls can take a while.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}
	return s
}

// Shutdown stops the limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.chatLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) onChatLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Chat rate limit exceeded", applog.FieldClientIP, s.clients.ClientIP(r))
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

var _ Asker = (*assistant.Bridge)(nil)
