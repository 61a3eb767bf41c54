package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"farmstead/internal/core"
)

// Event names carried in LedgerEventMessage.Event.
const (
	EventEntryRecorded = "ledger.entry.recorded"
	EventEntryDeleted  = "ledger.entry.deleted"
)

// EntryPayload is the wire form of a ledger entry.
type EntryPayload struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// LedgerEventMessage announces a change to the ledger. Recorded events carry
// the full entry so consumers do not need access to the primary store.
type LedgerEventMessage struct {
	Event     string        `json:"event"`
	EntryID   string        `json:"entry_id"`
	Entry     *EntryPayload `json:"entry,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewEntryRecordedMessage builds the event for a newly stored entry.
func NewEntryRecordedMessage(e core.LedgerEntry) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:   EventEntryRecorded,
		EntryID: e.ID,
		Entry: &EntryPayload{
			Date:        e.Date.String(),
			Type:        string(e.Type),
			AmountCents: e.Amount.Cents,
			Category:    e.Category,
			Description: e.Description,
		},
		Timestamp: time.Now(),
	}
}

// NewEntryDeletedMessage builds the event for a removed entry.
func NewEntryDeletedMessage(id string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:     EventEntryDeleted,
		EntryID:   id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate checks the envelope; it does not validate the entry itself.
func (m *LedgerEventMessage) Validate() error {
	if m.EntryID == "" {
		return errors.New("missing entry id")
	}
	switch m.Event {
	case EventEntryRecorded:
		if m.Entry == nil {
			return errors.New("recorded event without entry")
		}
	case EventEntryDeleted:
	default:
		return fmt.Errorf("unknown event %q", m.Event)
	}
	return nil
}

// LedgerEntry rebuilds the domain entry from a recorded event.
func (m *LedgerEventMessage) LedgerEntry() (core.LedgerEntry, error) {
	if m.Entry == nil {
		return core.LedgerEntry{}, errors.New("message has no entry")
	}
	date, err := core.ParseDate(m.Entry.Date)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	typ, err := core.ParseEntryType(m.Entry.Type)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	e := core.LedgerEntry{
		ID:          m.EntryID,
		Date:        date,
		Type:        typ,
		Amount:      core.Money{Cents: m.Entry.AmountCents},
		Category:    m.Entry.Category,
		Description: m.Entry.Description,
	}
	return e, e.Validate()
}

// LedgerEventFromJSON creates a message from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
