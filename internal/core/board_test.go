package core

import (
	"reflect"
	"testing"
)

func TestNewBoardHasEveryLane(t *testing.T) {
	b := NewBoard()
	for _, l := range Lanes() {
		cards, ok := b[l]
		if !ok || cards == nil || len(cards) != 0 {
			t.Fatalf("lane %q missing or not empty: %v", l, cards)
		}
	}
}

func TestLanesOrder(t *testing.T) {
	want := []Lane{LaneToDo, LaneInProgress, LaneDone}
	if got := Lanes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	// Callers cannot mutate the canonical order.
	Lanes()[0] = "Backlog"
	if Lanes()[0] != LaneToDo {
		t.Fatalf("Lanes returned shared storage")
	}
}

func TestParseLane(t *testing.T) {
	for in, want := range map[string]Lane{
		"To Do":       LaneToDo,
		"to-do":       LaneToDo,
		"in_progress": LaneInProgress,
		" DONE ":      LaneDone,
	} {
		got, err := ParseLane(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %q, got %q (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseLane("Backlog"); err == nil {
		t.Fatalf("expected error for unknown lane")
	}
}

func TestBoardFromCardsRoundTrip(t *testing.T) {
	cards := []Card{
		{ID: "a", Status: LaneToDo, Name: "Plant"},
		{ID: "b", Status: LaneDone, Name: "Harvest"},
		{ID: "c", Status: LaneToDo, Name: "Water"},
		{ID: "x", Status: "Archived", Name: "Old"},
	}
	b, orphans := BoardFromCards(cards)
	if len(orphans) != 1 || orphans[0].ID != "x" {
		t.Fatalf("expected orphan x, got %v", orphans)
	}
	if ids(b[LaneToDo]) != "a,c" || ids(b[LaneDone]) != "b" || len(b[LaneInProgress]) != 0 {
		t.Fatalf("unexpected grouping: %v", b)
	}
	again, _ := BoardFromCards(b.Cards())
	if !reflect.DeepEqual(b, again) {
		t.Fatalf("flatten/group not inverse: %v vs %v", b, again)
	}
}

func TestBoardFind(t *testing.T) {
	b := sampleBoard()
	c, pos, ok := b.Find("t2")
	if !ok || c.Name != "Fence" || pos != (Position{Lane: LaneToDo, Index: 1}) {
		t.Fatalf("unexpected find result %v %v %v", c, pos, ok)
	}
	if _, _, ok := b.Find("nope"); ok {
		t.Fatalf("expected miss")
	}
}

func TestCardValidate(t *testing.T) {
	good := Card{ID: "1", Status: LaneToDo, Name: "Prune orchard"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Card{
		{Status: LaneToDo, Name: " "},
		{Status: "Later", Name: "n"},
		{Status: LaneDone, Name: "n", StartDate: NewDate(2024, 5, 2), DueDate: NewDate(2024, 5, 1)},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func sampleBoard() Board {
	b := NewBoard()
	b[LaneToDo] = []Card{
		{ID: "t1", Status: LaneToDo, Name: "Seed"},
		{ID: "t2", Status: LaneToDo, Name: "Fence"},
		{ID: "t3", Status: LaneToDo, Name: "Irrigate"},
	}
	b[LaneInProgress] = []Card{
		{ID: "p1", Status: LaneInProgress, Name: "Barn roof"},
	}
	b[LaneDone] = []Card{
		{ID: "d1", Status: LaneDone, Name: "Shear"},
		{ID: "d2", Status: LaneDone, Name: "Vaccinate"},
	}
	return b
}

func ids(cards []Card) string {
	s := ""
	for i, c := range cards {
		if i > 0 {
			s += ","
		}
		s += c.ID
	}
	return s
}
