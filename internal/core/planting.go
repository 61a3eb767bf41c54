package core

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrEmptyVariety    = errors.New("empty variety")
	ErrEmptyLocation   = errors.New("empty location")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// MaxPlantingQuantity bounds the plant count of a single planting.
const MaxPlantingQuantity = 1_000_000

// Planting records how many plants of a variety went into a location on a
// given day.
type Planting struct {
	ID        string `json:"id"`
	Variety   string `json:"variety"`
	Location  string `json:"location"`
	PlantedOn Date   `json:"plantingDate"`
	Quantity  int    `json:"quantity"`
}

// Normalize trims the free-text fields.
func (p Planting) Normalize() Planting {
	p.Variety = strings.TrimSpace(p.Variety)
	p.Location = strings.TrimSpace(p.Location)
	return p
}

func (p Planting) Validate() error {
	if strings.TrimSpace(p.Variety) == "" {
		return ErrEmptyVariety
	}
	if strings.TrimSpace(p.Location) == "" {
		return ErrEmptyLocation
	}
	if err := p.PlantedOn.Validate(); err != nil {
		return err
	}
	if p.Quantity <= 0 || p.Quantity > MaxPlantingQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// SortPlantings orders plantings newest first, then by variety and id.
func SortPlantings(ps []Planting) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if !a.PlantedOn.Equal(b.PlantedOn.Time) {
			return a.PlantedOn.After(b.PlantedOn.Time)
		}
		if a.Variety != b.Variety {
			return a.Variety < b.Variety
		}
		return a.ID < b.ID
	})
}

// PlantingTotals sums quantities per variety and per location.
type PlantingTotals struct {
	ByVariety  map[string]int `json:"byVariety"`
	ByLocation map[string]int `json:"byLocation"`
	Total      int            `json:"total"`
}

func TotalPlantings(ps []Planting) PlantingTotals {
	t := PlantingTotals{ByVariety: map[string]int{}, ByLocation: map[string]int{}}
	for _, p := range ps {
		t.ByVariety[p.Variety] += p.Quantity
		t.ByLocation[p.Location] += p.Quantity
		t.Total += p.Quantity
	}
	return t
}
