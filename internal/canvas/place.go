package canvas

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ryanbastic/pixel-mosaic/internal/metrics"
	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

// Placement is one entry of a bulk placement batch.
type Placement struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Color string `json:"color"`
}

type write struct {
	id    string
	color string
}

// prepare validates every entry before anything is written. Later entries
// for the same coordinate replace earlier ones.
func prepare(entries []Placement, gridSize int) ([]write, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty placement batch", pixel.ErrInvalidArgument)
	}

	writes := make([]write, 0, len(entries))
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		c := pixel.Coord{Row: e.Row, Col: e.Col}
		if err := c.Validate(gridSize); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		color, err := pixel.NormalizeColor(e.Color)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		id := c.ID()
		if j, ok := index[id]; ok {
			writes[j].color = color
			continue
		}
		index[id] = len(writes)
		writes = append(writes, write{id: id, color: color})
	}
	return writes, nil
}

// Place stamps a batch of colors onto the grid and clears the owner of every
// touched pixel. It bypasses ownership checks. The whole batch is rejected if
// any entry is invalid; once writing starts, pixels are written independently
// and a failure may leave part of the batch applied. Returns the number of
// distinct pixels written.
func (s *Service) Place(ctx context.Context, actorID string, entries []Placement) (int, error) {
	if actorID == "" {
		return 0, pixel.ErrUnauthenticated
	}
	writes, err := prepare(entries, s.cfg.GridSize)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PlacementConcurrency)
	for _, w := range writes {
		g.Go(func() error {
			if err := s.store.Upsert(gctx, w.id, w.color, nil); err != nil {
				return fmt.Errorf("place %s: %w", w.id, err)
			}
			metrics.PlacedPixelsTotal.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("bulk placement failed", "user_id", actorID, "entries", len(writes), "error", err)
		return 0, err
	}

	s.logger.Info("bulk placement applied", "user_id", actorID, "pixels", len(writes))
	return len(writes), nil
}
