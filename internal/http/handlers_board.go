package http

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"farmstead/internal/core"
	"farmstead/internal/log"
)

func (s *Server) handleBoardPage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.errorResponse(r, http.StatusInternalServerError, "templates not loaded").Write(w)
		return
	}
	b, err := s.board.Board(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Board load failed", log.FieldError, err)
		b = core.NewBoard()
	}
	now := s.now()
	data := boardPageData{
		Lanes: newBoardView(b).Lanes,
		Today: core.NewDate(now.Year(), int(now.Month()), now.Day()),
	}
	s.render(w, r, "board.html", data)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.board.Board(r.Context())
	if err != nil {
		s.fail(w, r, log.OpLoad, err)
		return
	}
	v := newBoardView(b)
	if err := s.board.LastSaveError(); err != nil {
		v.SaveError = err.Error()
	}
	newResponse().BodyJSON(v).Write(w)
}

// handleMove applies a drop. The response carries the resulting board; the
// write to storage continues in the background. A cancelled drop is not an
// error: the unchanged board comes back with applied=false.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	ev, err := DecodeDropEvent(r)
	if err != nil {
		s.errorResponse(r, http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	b, pending, err := s.board.Move(r.Context(), ev)
	if err != nil {
		if b == nil {
			s.fail(w, r, log.OpMove, err)
			return
		}
		atomic.AddInt64(&s.metrics.movesRejected, 1)
		status := http.StatusOK
		if !errors.Is(err, core.ErrDropCancelled) {
			status = statusFor(err)
		}
		newResponse().
			Status(status).
			BodyJSON(moveResult{Applied: false, Reason: err.Error(), boardView: newBoardView(b)}).
			Write(w)
		return
	}

	atomic.AddInt64(&s.metrics.movesApplied, 1)
	result := moveResult{Applied: true, boardView: newBoardView(b)}
	status := http.StatusOK

	wait, cancel := context.WithTimeout(r.Context(), s.saveWait)
	defer cancel()
	select {
	case <-pending.Done():
		if err := pending.Err(); err != nil {
			atomic.AddInt64(&s.metrics.saveFailures, 1)
			log.FromContext(r.Context()).WarnContext(r.Context(), "Move applied but not saved",
				log.FieldCardID, ev.CardID, log.FieldError, err)
			status = http.StatusBadGateway
			result.Reason = "board not saved: " + err.Error()
		} else {
			result.Saved = true
		}
	case <-wait.Done():
		s.watchSave(pending)
	}
	newResponse().Status(status).BodyJSON(result).Write(w)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCardInput(NewRequestBodyParser(r))
	if err != nil {
		s.fail(w, r, log.OpParse, badInput(err))
		return
	}
	created, err := s.board.AddCard(r.Context(), c)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.metrics.cardsChanged, 1)

	resp := newResponse().Status(http.StatusCreated).TriggerBoardChanged(created.ID)
	if wantsHTML(r) {
		resp.TriggerFormReset().Notify("Project added: " + created.Name).Write(w)
		return
	}
	resp.BodyJSON(created).Write(w)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCardInput(NewRequestBodyParser(r))
	if err != nil {
		s.fail(w, r, log.OpParse, badInput(err))
		return
	}
	c.ID = r.PathValue("id")
	updated, err := s.board.UpdateCard(r.Context(), c)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	atomic.AddInt64(&s.metrics.cardsChanged, 1)

	resp := newResponse().TriggerBoardChanged(updated.ID)
	if wantsHTML(r) {
		resp.Notify("Project updated").Write(w)
		return
	}
	resp.BodyJSON(updated).Write(w)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.board.DeleteCard(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	atomic.AddInt64(&s.metrics.cardsChanged, 1)

	if wantsHTML(r) {
		newResponse().TriggerBoardChanged(id).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
