package core

import (
	"errors"
	"fmt"
	"strings"
)

// Lane is a board column. The set is closed; see Lanes.
type Lane string

const (
	LaneToDo       Lane = "To Do"
	LaneInProgress Lane = "In Progress"
	LaneDone       Lane = "Done"
)

var (
	ErrUnknownLane = errors.New("unknown lane")
	ErrInvalidCard = errors.New("invalid card")
)

var lanes = [...]Lane{LaneToDo, LaneInProgress, LaneDone}

// Lanes returns every lane in display order.
func Lanes() []Lane {
	out := make([]Lane, len(lanes))
	copy(out, lanes[:])
	return out
}

func (l Lane) Valid() bool {
	for _, known := range lanes {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLane accepts the display name ("In Progress") or a slug
// ("in-progress", "in_progress"), case-insensitively.
func ParseLane(s string) (Lane, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for _, l := range lanes {
		if strings.ToLower(string(l)) == norm {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLane, s)
}

// Slug is the URL-friendly form of the lane name.
func (l Lane) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(l)), " ", "-")
}

type Card struct {
	ID          string `json:"id"`
	Status      Lane   `json:"status"`
	Name        string `json:"name"`
	Assignee    string `json:"assignee,omitempty"`
	Description string `json:"description,omitempty"`
	StartDate   Date   `json:"startDate"`
	DueDate     Date   `json:"dueDate"`
	CreatedAt   Date   `json:"createdAt"`
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownLane, c.Status)
	}
	if len(c.Description) > 2000 {
		return fmt.Errorf("%w: description too long (max 2000 characters)", ErrInvalidCard)
	}
	if !c.StartDate.IsEmpty() && !c.DueDate.IsEmpty() && c.DueDate.Before(c.StartDate.Time) {
		return fmt.Errorf("%w: due date before start date", ErrInvalidCard)
	}
	return nil
}

// Board maps each lane to its ordered cards. A card's position is its index
// in the lane slice and its Status always equals the lane holding it.
type Board map[Lane][]Card

// NewBoard returns a board with every lane present and empty.
func NewBoard() Board {
	b := make(Board, len(lanes))
	for _, l := range lanes {
		b[l] = []Card{}
	}
	return b
}

// BoardFromCards groups a flat, ordered card list by status. Cards whose
// status is not a known lane are returned as orphans and left off the board.
func BoardFromCards(cards []Card) (Board, []Card) {
	b := NewBoard()
	var orphans []Card
	for _, c := range cards {
		if !c.Status.Valid() {
			orphans = append(orphans, c)
			continue
		}
		b[c.Status] = append(b[c.Status], c)
	}
	return b, orphans
}

// Cards flattens the board in lane order, then position order.
func (b Board) Cards() []Card {
	out := make([]Card, 0, b.Count())
	for _, l := range lanes {
		out = append(out, b[l]...)
	}
	return out
}

// Count is the number of cards on the board.
func (b Board) Count() int {
	n := 0
	for _, cards := range b {
		n += len(cards)
	}
	return n
}

// Clone returns a deep copy; lanes missing from b are present and empty in the copy.
func (b Board) Clone() Board {
	out := make(Board, len(lanes))
	for _, l := range lanes {
		out[l] = append([]Card{}, b[l]...)
	}
	for l, cards := range b {
		if _, ok := out[l]; !ok {
			out[l] = append([]Card{}, cards...)
		}
	}
	return out
}

// Find locates a card by id.
func (b Board) Find(id string) (Card, Position, bool) {
	for _, l := range lanes {
		for i, c := range b[l] {
			if c.ID == id {
				return c, Position{Lane: l, Index: i}, true
			}
		}
	}
	return Card{}, Position{}, false
}
