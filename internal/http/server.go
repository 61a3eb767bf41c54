package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"farmstead/internal/log"
	"farmstead/internal/middleware/ratelimit"
	"farmstead/internal/middleware/security"
	"farmstead/internal/middleware/trace"
	"farmstead/internal/services"
	appweb "farmstead/web"
)

// Deps are the collaborators the server needs. Ready may be nil.
type Deps struct {
	Board     *services.BoardService
	Ledger    *services.LedgerService
	Plantings *services.PlantingService
	Ready     func(ctx context.Context) error
	RateLimit ratelimit.Config
	Logger    *log.Logger
}

type appMetrics struct {
	uptime            time.Time
	movesApplied      int64
	movesRejected     int64
	saveFailures      int64
	cardsChanged      int64
	entriesRecorded   int64
	entriesDeleted    int64
	plantingsRecorded int64
}

type Server struct {
	http.Server
	board     *services.BoardService
	ledger    *services.LedgerService
	plantings *services.PlantingService
	ready     func(ctx context.Context) error

	templates *template.Template
	logger    *log.Logger
	now       func() time.Time

	// saveWait bounds how long a move waits for its board write.
	saveWait time.Duration

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	metrics  appMetrics

	saves        sync.WaitGroup
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		board:     deps.Board,
		ledger:    deps.Ledger,
		plantings: deps.Plantings,
		ready:     deps.Ready,
		logger:    logger.WithComponent(log.ComponentHTTP),
		now:       time.Now,
		saveWait:  5 * time.Second,
		detector:  security.NewDetector(logger),
		limiter:   ratelimit.NewLimiter(deps.RateLimit),
		metrics:   appMetrics{uptime: time.Now()},
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	t, err := appweb.Templates(templateFuncs)
	if err != nil {
		s.logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if sub, err := appweb.Static(); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.CacheStatic(time.Hour)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleBoardPage)
	mux.HandleFunc("GET /ledger", s.handleLedgerPage)
	mux.HandleFunc("GET /ui/statement", s.handleStatementPartial)

	mux.HandleFunc("GET /api/board", s.handleGetBoard)
	mux.HandleFunc("POST /api/board/moves", s.handleMove)
	mux.HandleFunc("POST /api/cards", s.handleCreateCard)
	mux.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard)
	mux.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard)

	mux.HandleFunc("GET /api/ledger", s.handleListEntries)
	mux.HandleFunc("POST /api/ledger", s.handleCreateEntry)
	mux.HandleFunc("DELETE /api/ledger/{id}", s.handleDeleteEntry)

	if s.plantings != nil {
		mux.HandleFunc("GET /plantings", s.handlePlantingsPage)
		mux.HandleFunc("GET /api/plantings", s.handleListPlantings)
		mux.HandleFunc("POST /api/plantings", s.handleCreatePlanting)
		mux.HandleFunc("DELETE /api/plantings/{id}", s.handleDeletePlanting)
	}

	mux.HandleFunc("GET /api/statements/profit-loss", s.handleProfitLoss)
	mux.HandleFunc("GET /api/statements/cash-flow", s.handleCashFlow)

	rateLimited := func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		s.errorResponse(r, http.StatusTooManyRequests, "Too many requests, slow down").Write(w)
	}

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, rateLimited)(h)
	h = security.Headers(security.DefaultPolicy())(h)
	h = s.tracer.Middleware(h)
	h = s.detector.Middleware(h)
	h = log.Middleware(s.logger)(h)
	return h
}

// Shutdown stops accepting requests, waits for in-flight board writes and
// stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
		s.limiter.Stop()

		done := make(chan struct{})
		go func() {
			s.saves.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			shutdownErr = errors.Join(shutdownErr, ctx.Err())
		}
	})
	return shutdownErr
}

// watchSave counts a failed write that finishes after its request returned.
func (s *Server) watchSave(p *services.PendingSave) {
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		<-p.Done()
		if p.Err() != nil {
			atomic.AddInt64(&s.metrics.saveFailures, 1)
		}
	}()
}
