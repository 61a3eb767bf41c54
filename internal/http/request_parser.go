package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"farmstead/internal/core"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// monthBounds returns the first and last day of the month.
func monthBounds(year int, month time.Month) (core.Date, core.Date) {
	first := core.NewDate(year, int(month), 1)
	last := core.Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}

// ParseDateRange reads from and to (YYYY-MM-DD) from the query. A missing
// bound defaults to the matching bound of the current month.
func ParseDateRange(query url.Values, now time.Time) (core.Date, core.Date, error) {
	start, end := monthBounds(now.Year(), now.Month())

	if v := strings.TrimSpace(query.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("from: %w", err)
		}
		start = d
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("to: %w", err)
		}
		end = d
	}
	return start, end, nil
}

// RequestBodyParser reads a JSON or form-encoded body once and serves
// string values from either.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a trimmed, sanitized value for key.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// optionalDate parses s, treating an empty string as no date.
func optionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

// ParseCardInput builds a card from name, assignee, description, status,
// startDate and dueDate. Status is left empty when absent.
func ParseCardInput(p *RequestBodyParser) (core.Card, error) {
	if err := p.Parse(); err != nil {
		return core.Card{}, err
	}
	c := core.Card{
		Name:        p.Get("name"),
		Assignee:    p.Get("assignee"),
		Description: p.Get("description"),
	}
	if v := p.Get("status"); v != "" {
		lane, err := core.ParseLane(v)
		if err != nil {
			return core.Card{}, err
		}
		c.Status = lane
	}
	var err error
	if c.StartDate, err = optionalDate(p.Get("startDate")); err != nil {
		return core.Card{}, fmt.Errorf("startDate: %w", err)
	}
	if c.DueDate, err = optionalDate(p.Get("dueDate")); err != nil {
		return core.Card{}, fmt.Errorf("dueDate: %w", err)
	}
	return c, nil
}

// ParseEntryInput builds a ledger entry from date, type, amount, category
// and description. Date defaults to today and type to expense.
func ParseEntryInput(p *RequestBodyParser, now time.Time) (core.LedgerEntry, error) {
	if err := p.Parse(); err != nil {
		return core.LedgerEntry{}, err
	}
	e := core.LedgerEntry{
		Date:        core.NewDate(now.Year(), int(now.Month()), now.Day()),
		Type:        core.Expense,
		Category:    p.Get("category"),
		Description: p.Get("description"),
	}
	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.LedgerEntry{}, err
		}
		e.Date = d
	}
	if v := p.Get("type"); v != "" {
		t, err := core.ParseEntryType(v)
		if err != nil {
			return core.LedgerEntry{}, err
		}
		e.Type = t
	}
	cents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		return core.LedgerEntry{}, err
	}
	e.Amount = core.Money{Cents: cents}
	return e, nil
}

// DecodeDropEvent reads a JSON drop event. A missing or null destination
// decodes as a cancelled drop.
func DecodeDropEvent(r *http.Request) (core.DropEvent, error) {
	var ev core.DropEvent
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		return core.DropEvent{}, fmt.Errorf("decode drop event: %w", err)
	}
	return ev, nil
}

// sanitizeInput removes control characters except tab and newlines and trims
// whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// wantsHTML reports whether the request came from htmx.
func wantsHTML(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// ParsePlantingInput builds a planting from variety, location, plantingDate
// and quantity. The date defaults to today.
func ParsePlantingInput(p *RequestBodyParser, now time.Time) (core.Planting, error) {
	if err := p.Parse(); err != nil {
		return core.Planting{}, err
	}
	pl := core.Planting{
		Variety:   p.Get("variety"),
		Location:  p.Get("location"),
		PlantedOn: core.NewDate(now.Year(), int(now.Month()), now.Day()),
	}
	if v := p.Get("plantingDate"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Planting{}, fmt.Errorf("plantingDate: %w", err)
		}
		pl.PlantedOn = d
	}
	q, err := strconv.Atoi(p.Get("quantity"))
	if err != nil {
		return core.Planting{}, core.ErrInvalidQuantity
	}
	pl.Quantity = q
	return pl, nil
}
