package core

import (
	"errors"
	"fmt"
	"strings"
)

// EntryType is the direction of a ledger entry. The set is closed.
type EntryType string

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

var ErrInvalidEntryType = errors.New("invalid entry type")

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryType, s)
	}
}

// LedgerEntry is a single dated income or expense. Amount is always a
// positive magnitude; the sign comes from Type.
type LedgerEntry struct {
	ID          string    `json:"id"`
	Date        Date      `json:"date"`
	Type        EntryType `json:"type"`
	Amount      Money     `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
}

func (e LedgerEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEntryType, e.Type)
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

// Signed returns the amount with income positive and expense negative.
func (e LedgerEntry) Signed() Money {
	switch e.Type {
	case Income:
		return e.Amount
	case Expense:
		return Money{Cents: -e.Amount.Cents}
	default:
		return Money{}
	}
}
