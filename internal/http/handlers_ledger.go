package http

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"farmstead/internal/core"
	"farmstead/internal/log"
)

func (s *Server) dateRange(w http.ResponseWriter, r *http.Request) (core.Date, core.Date, bool) {
	start, end, err := ParseDateRange(r.URL.Query(), s.now())
	if err != nil {
		s.errorResponse(r, http.StatusBadRequest, err.Error()).Write(w)
		return core.Date{}, core.Date{}, false
	}
	return start, end, true
}

func (s *Server) handleLedgerPage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.errorResponse(r, http.StatusInternalServerError, "templates not loaded").Write(w)
		return
	}
	start, end, ok := s.dateRange(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	now := s.now()
	data := ledgerPageData{From: start, To: end, Today: core.NewDate(now.Year(), int(now.Month()), now.Day())}

	var err error
	if data.Entries, err = s.ledger.Entries(ctx, start, end); err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	st, err := s.ledger.Statement(ctx, start, end)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	data.Statement = newProfitLossView(st)
	if data.IncomeCategories, data.ExpenseCategories, err = s.ledger.Categories(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Categories unavailable", log.FieldError, err)
	}
	s.render(w, r, "ledger.html", data)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.dateRange(w, r)
	if !ok {
		return
	}
	entries, err := s.ledger.Entries(r.Context(), start, end)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	newResponse().BodyJSON(entriesView{From: start, To: end, Entries: entries}).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	e, err := ParseEntryInput(NewRequestBodyParser(r), s.now())
	if err != nil {
		s.fail(w, r, log.OpParse, badInput(err))
		return
	}
	saved, err := s.ledger.Record(r.Context(), e)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.metrics.entriesRecorded, 1)

	resp := newResponse().
		Status(http.StatusCreated).
		TriggerLedgerChanged(saved.Date.Year(), saved.Date.Month())
	if wantsHTML(r) {
		msg := fmt.Sprintf("%s recorded: %s %s", titleCase(string(saved.Type)), saved.Category, formatMoney(saved.Amount))
		resp.TriggerFormReset().Notify(msg).Write(w)
		return
	}
	resp.BodyJSON(saved).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	atomic.AddInt64(&s.metrics.entriesDeleted, 1)

	if wantsHTML(r) {
		now := s.now()
		newResponse().TriggerLedgerChanged(now.Year(), int(now.Month())).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.dateRange(w, r)
	if !ok {
		return
	}
	st, err := s.ledger.Statement(r.Context(), start, end)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	newResponse().BodyJSON(newProfitLossView(st)).Write(w)
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.dateRange(w, r)
	if !ok {
		return
	}
	cf, err := s.ledger.CashFlow(r.Context(), start, end)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	newResponse().BodyJSON(newCashFlowView(cf)).Write(w)
}

// handleStatementPartial renders the profit and loss fragment for htmx.
func (s *Server) handleStatementPartial(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.errorResponse(r, http.StatusInternalServerError, "templates not loaded").Write(w)
		return
	}
	start, end, ok := s.dateRange(w, r)
	if !ok {
		return
	}
	st, err := s.ledger.Statement(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, r.Context().Err()) {
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Statement error", log.FieldError, err)
		newResponse().BodyHTML(`<section id="statement" class="statement"><div class="placeholder">Could not load statement</div></section>`).Write(w)
		return
	}
	s.render(w, r, "statement.html", ledgerPageData{From: start, To: end, Statement: newProfitLossView(st)})
}
