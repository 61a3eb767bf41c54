package core

import (
	"errors"
	"fmt"
)

var (
	ErrDropCancelled = errors.New("drop cancelled")
	ErrSourceIndex   = errors.New("source index out of range")
	ErrCardMismatch  = errors.New("card at source does not match")
)

// Position addresses a slot on the board.
type Position struct {
	Lane  Lane `json:"lane"`
	Index int  `json:"index"`
}

// DropEvent is the outcome of a drag gesture. A nil Destination means the
// card was released outside any lane.
type DropEvent struct {
	CardID      string    `json:"cardId"`
	Source      Position  `json:"source"`
	Destination *Position `json:"destination"`
}

// Reorder moves one card according to ev and returns the resulting board.
// The input board is never modified. On error the input board is returned
// as-is together with the reason the drop was rejected.
//
// The destination index is clamped to the destination lane bounds. When the
// card changes lane its Status follows; no other card is touched.
func Reorder(b Board, ev DropEvent) (Board, error) {
	if ev.Destination == nil {
		return b, ErrDropCancelled
	}
	src, dst := ev.Source, *ev.Destination
	if !src.Lane.Valid() {
		return b, fmt.Errorf("%w: source %q", ErrUnknownLane, src.Lane)
	}
	if !dst.Lane.Valid() {
		return b, fmt.Errorf("%w: destination %q", ErrUnknownLane, dst.Lane)
	}
	srcCards := b[src.Lane]
	if src.Index < 0 || src.Index >= len(srcCards) {
		return b, fmt.Errorf("%w: %d in %q (len %d)", ErrSourceIndex, src.Index, src.Lane, len(srcCards))
	}
	moved := srcCards[src.Index]
	if ev.CardID != "" && moved.ID != ev.CardID {
		return b, fmt.Errorf("%w: want %q, found %q", ErrCardMismatch, ev.CardID, moved.ID)
	}

	next := b.Clone()
	next[src.Lane] = append(next[src.Lane][:src.Index], next[src.Lane][src.Index+1:]...)

	if dst.Lane != src.Lane {
		moved.Status = dst.Lane
	}
	target := next[dst.Lane]
	idx := clamp(dst.Index, 0, len(target))
	target = append(target, Card{})
	copy(target[idx+1:], target[idx:])
	target[idx] = moved
	next[dst.Lane] = target

	return next, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
