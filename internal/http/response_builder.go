// Package http serves the board, plantings and ledger pages and their JSON
// API.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// response collects status, headers, htmx events and a body, and writes
// them in one go. Events end up in a single HX-Trigger header.
type response struct {
	status int
	header http.Header
	events map[string]any
	body   []byte
}

func newResponse() *response {
	return &response{status: http.StatusOK, header: http.Header{}, events: map[string]any{}}
}

func (r *response) Status(code int) *response {
	r.status = code
	return r
}

// Trigger queues an htmx event carrying payload.
func (r *response) Trigger(event string, payload any) *response {
	r.events[event] = payload
	return r
}

func (r *response) TriggerBoardChanged(cardID string) *response {
	return r.Trigger("board:changed", map[string]string{"cardId": cardID})
}

// TriggerLedgerChanged names the month whose statement went stale.
func (r *response) TriggerLedgerChanged(year, month int) *response {
	return r.Trigger("ledger:changed", map[string]int{"year": year, "month": month})
}

func (r *response) TriggerPlantingsChanged() *response {
	return r.Trigger("plantings:changed", struct{}{})
}

func (r *response) TriggerFormReset() *response {
	return r.Trigger("form:reset", struct{}{})
}

type notification struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Duration int    `json:"duration"`
}

// Notify shows a success toast for three seconds.
func (r *response) Notify(message string) *response {
	return r.Trigger("show-notification", notification{"success", message, 3000})
}

func (r *response) NotifyError(message string) *response {
	return r.Trigger("show-notification", notification{"error", message, 5000})
}

func (r *response) BodyHTML(fragment string) *response {
	r.header.Set("Content-Type", "text/html; charset=utf-8")
	r.body = []byte(fragment)
	return r
}

// BodyJSON encodes v, switching to a 500 if it cannot be encoded.
func (r *response) BodyJSON(v any) *response {
	data, err := json.Marshal(v)
	if err != nil {
		r.status = http.StatusInternalServerError
		data = []byte(`{"error":"encoding response"}`)
	}
	r.header.Set("Content-Type", "application/json")
	r.body = append(data, '\n')
	return r
}

func (r *response) Write(w http.ResponseWriter) {
	h := w.Header()
	for k, v := range r.header {
		h[k] = v
	}
	if len(r.events) > 0 {
		if data, err := json.Marshal(r.events); err == nil {
			h.Set("HX-Trigger", string(data))
		}
	}
	w.WriteHeader(r.status)
	if len(r.body) > 0 {
		_, _ = w.Write(r.body)
	}
}

// htmlError is an escaped error fragment for htmx swaps.
func htmlError(status int, message string) *response {
	return newResponse().Status(status).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

func jsonError(status int, message string) *response {
	return newResponse().Status(status).BodyJSON(map[string]string{"error": message})
}
