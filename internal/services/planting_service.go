package services

import (
	"context"
	"fmt"
	"sort"

	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/store"
)

// PlantingService keeps the planting log: what was planted where, when and
// how many.
type PlantingService struct {
	store  store.PlantingStore
	logger *log.Logger
}

func NewPlantingService(s store.PlantingStore, logger *log.Logger) *PlantingService {
	if logger == nil {
		logger = log.Discard()
	}
	return &PlantingService{store: s, logger: logger.WithComponent(log.ComponentPlantings)}
}

// Record validates and stores p, returning it with its assigned id.
func (s *PlantingService) Record(ctx context.Context, p core.Planting) (core.Planting, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return core.Planting{}, err
	}
	id, err := s.store.AddPlanting(ctx, p)
	if err != nil {
		return core.Planting{}, fmt.Errorf("save planting: %w", err)
	}
	p.ID = id
	s.logger.InfoContext(ctx, "Planting recorded",
		log.FieldPlantingID, p.ID,
		log.FieldVariety, p.Variety,
		log.FieldLocation, p.Location,
		log.FieldQuantity, p.Quantity)
	return p, nil
}

// List returns every planting, newest first.
func (s *PlantingService) List(ctx context.Context) ([]core.Planting, error) {
	ps, err := s.store.ListPlantings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plantings: %w", err)
	}
	core.SortPlantings(ps)
	return ps, nil
}

// Delete removes a planting by id.
func (s *PlantingService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePlanting(ctx, id); err != nil {
		return fmt.Errorf("delete planting: %w", err)
	}
	s.logger.InfoContext(ctx, "Planting deleted", log.FieldPlantingID, id)
	return nil
}

// Choices lists the varieties and locations already used, sorted, for the
// planting form's suggestions.
func (s *PlantingService) Choices(ctx context.Context) (varieties, locations []string, err error) {
	ps, err := s.store.ListPlantings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list plantings: %w", err)
	}
	totals := core.TotalPlantings(ps)
	return sortedKeys(totals.ByVariety), sortedKeys(totals.ByLocation), nil
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
