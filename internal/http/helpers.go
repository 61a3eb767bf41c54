package http

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"farmstead/internal/core"
	"farmstead/internal/log"
)

// formatMoney renders cents as "€1.234,56" with a leading minus for
// negative values.
func formatMoney(m core.Money) string {
	s := m.String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "€" + b.String() + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

var templateFuncs = template.FuncMap{
	"money": formatMoney,
	"date": func(d core.Date) string {
		if d.IsEmpty() {
			return ""
		}
		return d.Format("02 Jan 2006")
	},
	"iso": func(d core.Date) string { return d.String() },
}

func titleCase(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// render executes name into a buffer and writes it only on success.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		s.errorResponse(r, http.StatusInternalServerError, "render failed").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
