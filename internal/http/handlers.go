package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/services"
	"farmstead/internal/store"
)

// inputError marks a body that could not be decoded at all.
type inputError struct{ err error }

func (e inputError) Error() string { return e.err.Error() }
func (e inputError) Unwrap() error { return e.err }

func badInput(err error) error {
	if statusFor(err) == http.StatusInternalServerError {
		return inputError{err}
	}
	return err
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var bad inputError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSourceIndex),
		errors.Is(err, core.ErrCardMismatch),
		errors.Is(err, services.ErrCardExists):
		return http.StatusConflict
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnknownLane),
		errors.Is(err, core.ErrInvalidCard),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidEntryType),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrDescriptionLong),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyVariety),
		errors.Is(err, core.ErrEmptyLocation),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse renders an HTML fragment for htmx and JSON otherwise.
func (s *Server) errorResponse(r *http.Request, status int, message string) *response {
	if wantsHTML(r) {
		return htmlError(status, message).NotifyError(message)
	}
	return jsonError(status, message)
}

// fail writes err with the status it maps to. Server errors are logged and
// their detail is not sent to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldError, err)
		msg = "internal error"
	}
	s.errorResponse(r, status, msg).Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	newResponse().BodyJSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks templates and the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["storage"] = "ok"
	default:
		if err := s.ready(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	newResponse().Status(code).BodyJSON(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	tm := s.tracer.GetMetrics()
	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v float64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", tm.TotalRequests)
	counter("http_server_errors_total", "Responses with a 5xx status", tm.ServerErrors)
	gauge("http_response_time_avg_seconds", "Average response time", tm.AverageResponseTime.Seconds())
	counter("board_moves_total", "Drops applied to the board", atomic.LoadInt64(&s.metrics.movesApplied))
	counter("board_moves_rejected_total", "Drops rejected by the board", atomic.LoadInt64(&s.metrics.movesRejected))
	counter("board_save_failures_total", "Background board writes that failed", atomic.LoadInt64(&s.metrics.saveFailures))
	counter("board_card_changes_total", "Cards created, updated or deleted", atomic.LoadInt64(&s.metrics.cardsChanged))
	counter("ledger_entries_recorded_total", "Ledger entries recorded", atomic.LoadInt64(&s.metrics.entriesRecorded))
	counter("ledger_entries_deleted_total", "Ledger entries deleted", atomic.LoadInt64(&s.metrics.entriesDeleted))
	counter("plantings_recorded_total", "Plantings recorded", atomic.LoadInt64(&s.metrics.plantingsRecorded))
	counter("security_suspicious_requests_total", "Requests flagged as suspicious", s.detector.SuspiciousRequests())
	counter("rate_limit_hits_total", "Requests rejected by the rate limiter", s.limiter.Hits())
	gauge("rate_limit_active_clients", "Clients tracked by the rate limiter", float64(s.limiter.ActiveClients()))
	gauge("uptime_seconds", "Seconds since the server started", time.Since(s.metrics.uptime).Seconds())
}
