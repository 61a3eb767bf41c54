package log

import (
	"context"
	"log/slog"
	"net/http"
)

// Events writes the fixed-shape records other tools grep for: request
// start and end, card moves and recorded entries.
type Events struct {
	logger *Logger
}

func NewEvents(logger *Logger) *Events {
	if logger == nil {
		logger = Discard()
	}
	return &Events{logger: logger}
}

func (e *Events) HTTPStarted(ctx context.Context, r *http.Request, clientIP string) {
	e.logger.LogAttrs(ctx, slog.LevelDebug, "HTTP request started",
		slog.String(FieldMethod, r.Method),
		slog.String(FieldPath, r.URL.Path),
		slog.String(FieldQuery, r.URL.RawQuery),
		slog.String(FieldUserAgent, r.UserAgent()),
		slog.String(FieldClientIP, clientIP))
}

// HTTPFinished logs at warn for 4xx and error for 5xx responses.
func (e *Events) HTTPFinished(ctx context.Context, r *http.Request, status int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	e.logger.LogAttrs(ctx, level, "HTTP request completed",
		slog.String(FieldMethod, r.Method),
		slog.String(FieldPath, r.URL.Path),
		slog.Int(FieldStatusCode, status),
		slog.Int64(FieldDuration, durationMs),
		slog.Bool(FieldSuccess, status < 400),
		slog.String(FieldClientIP, clientIP))
}

func (e *Events) CardMoved(ctx context.Context, cardID, from, to string, index int) {
	e.logger.LogAttrs(ctx, slog.LevelInfo, "Card moved",
		slog.String(FieldOperation, OpMove),
		slog.String(FieldCardID, cardID),
		slog.String(FieldFromLane, from),
		slog.String(FieldToLane, to),
		slog.Int("index", index))
}

func (e *Events) EntryRecorded(ctx context.Context, id, entryType, category string, amountCents int64) {
	e.logger.LogAttrs(ctx, slog.LevelInfo, "Ledger entry recorded",
		append([]slog.Attr{slog.String(FieldOperation, OpCreate)}, EntryAttrs(id, entryType, category, amountCents)...)...)
}

// EntryAttrs are the attributes identifying a ledger entry.
func EntryAttrs(id, entryType, category string, amountCents int64) []slog.Attr {
	return []slog.Attr{
		slog.String(FieldEntryID, id),
		slog.String(FieldEntryType, entryType),
		slog.String(FieldCategory, category),
		slog.Int64(FieldAmountCents, amountCents),
	}
}
