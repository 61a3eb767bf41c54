package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponsePlain(t *testing.T) {
	w := httptest.NewRecorder()
	newResponse().Status(http.StatusAccepted).BodyJSON(map[string]int{"n": 1}).Write(w)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "{\"n\":1}\n", w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("HX-Trigger"))
}

func TestResponseTriggers(t *testing.T) {
	w := httptest.NewRecorder()
	newResponse().
		TriggerLedgerChanged(2024, 3).
		TriggerBoardChanged("c1").
		TriggerFormReset().
		Notify("Saved").
		Write(w)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &got))
	assert.JSONEq(t, `{"year":2024,"month":3}`, string(got["ledger:changed"]))
	assert.JSONEq(t, `{"cardId":"c1"}`, string(got["board:changed"]))
	assert.JSONEq(t, `{}`, string(got["form:reset"]))
	assert.JSONEq(t, `{"type":"success","message":"Saved","duration":3000}`, string(got["show-notification"]))
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		r      *response
		status int
		body   string
		ctype  string
	}{
		{"html escapes", htmlError(http.StatusUnprocessableEntity, "<b>bad</b>"), 422, `<div class="error">&lt;b&gt;bad&lt;/b&gt;</div>`, "text/html; charset=utf-8"},
		{"json", jsonError(http.StatusConflict, "stale"), 409, "{\"error\":\"stale\"}\n", "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.r.Write(w)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
			assert.Equal(t, tt.ctype, w.Header().Get("Content-Type"))
		})
	}

	w := httptest.NewRecorder()
	htmlError(http.StatusNotFound, "gone").NotifyError("gone").Write(w)
	assert.Contains(t, w.Header().Get("HX-Trigger"), `"type":"error"`)
}

func TestBodyJSONEncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	newResponse().BodyJSON(math.Inf(1)).Write(w)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "encoding response")
}
