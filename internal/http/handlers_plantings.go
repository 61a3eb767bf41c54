package http

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"farmstead/internal/core"
	"farmstead/internal/log"
)

func (s *Server) handlePlantingsPage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.errorResponse(r, http.StatusInternalServerError, "templates not loaded").Write(w)
		return
	}
	ctx := r.Context()
	now := s.now()
	data := plantingsPageData{Today: core.NewDate(now.Year(), int(now.Month()), now.Day())}

	var err error
	if data.Plantings, err = s.plantings.List(ctx); err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	data.Totals = core.TotalPlantings(data.Plantings)
	if data.Varieties, data.Locations, err = s.plantings.Choices(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Planting choices unavailable", log.FieldError, err)
	}
	s.render(w, r, "plantings.html", data)
}

func (s *Server) handleListPlantings(w http.ResponseWriter, r *http.Request) {
	ps, err := s.plantings.List(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	newResponse().BodyJSON(plantingsView{Plantings: ps, Totals: core.TotalPlantings(ps)}).Write(w)
}

func (s *Server) handleCreatePlanting(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePlantingInput(NewRequestBodyParser(r), s.now())
	if err != nil {
		s.fail(w, r, log.OpParse, badInput(err))
		return
	}
	saved, err := s.plantings.Record(r.Context(), p)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.metrics.plantingsRecorded, 1)

	resp := newResponse().Status(http.StatusCreated).TriggerPlantingsChanged()
	if wantsHTML(r) {
		msg := fmt.Sprintf("Planted %d %s in %s", saved.Quantity, saved.Variety, saved.Location)
		resp.TriggerFormReset().Notify(msg).Write(w)
		return
	}
	resp.BodyJSON(saved).Write(w)
}

func (s *Server) handleDeletePlanting(w http.ResponseWriter, r *http.Request) {
	if err := s.plantings.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if wantsHTML(r) {
		newResponse().TriggerPlantingsChanged().Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
