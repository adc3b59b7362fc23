// Package canvas implements the pixel ownership workflow: recoloring owned
// pixels, starting checkout for unclaimed ones, reconciling payment events
// into ownership, and stamping bulk patterns onto the grid.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ryanbastic/pixel-mosaic/internal/metrics"
	"github.com/ryanbastic/pixel-mosaic/internal/payment"
	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
	"github.com/ryanbastic/pixel-mosaic/internal/storage"
)

// Config holds the canvas settings the service needs at request time.
type Config struct {
	GridSize             int
	DefaultColor         string
	PriceCents           int64
	Currency             string
	ClientURL            string
	PlacementConcurrency int
}

// Owners reports whether a user account still exists. Implemented by
// *auth.Accounts.
type Owners interface {
	OwnerExists(ctx context.Context, ownerID string) (bool, error)
}

// Service coordinates the pixel store and the payment processor.
type Service struct {
	store     storage.PixelStore
	processor payment.Processor
	owners    Owners
	cfg       Config
	logger    *slog.Logger
}

// NewService creates a Service. A non-positive PlacementConcurrency means one
// write at a time.
func NewService(store storage.PixelStore, processor payment.Processor, cfg Config, logger *slog.Logger) *Service {
	if cfg.PlacementConcurrency < 1 {
		cfg.PlacementConcurrency = 1
	}
	if cfg.DefaultColor == "" {
		cfg.DefaultColor = pixel.DefaultColor
	}
	return &Service{store: store, processor: processor, cfg: cfg, logger: logger}
}

// SetOwners makes Reconcile skip claims for accounts deleted while their
// checkout was open. Without it every paid claim is granted.
func (s *Service) SetOwners(o Owners) {
	s.owners = o
}

// GridSize returns the configured canvas width and height.
func (s *Service) GridSize() int {
	return s.cfg.GridSize
}

// ListPixels returns the full grid keyed by pixel id.
func (s *Service) ListPixels(ctx context.Context) (map[string]pixel.Pixel, error) {
	return s.store.List(ctx)
}

// SeedGrid creates every missing coordinate with the default color and no
// owner. Existing pixels are left alone, so it is safe to run on every start.
func (s *Service) SeedGrid(ctx context.Context) (int64, error) {
	n, err := s.store.Seed(ctx, s.cfg.GridSize, s.cfg.DefaultColor)
	if err != nil {
		return 0, fmt.Errorf("seed grid: %w", err)
	}
	if n > 0 {
		s.logger.Info("seeded grid", "grid_size", s.cfg.GridSize, "inserted", n)
	}
	return n, nil
}

// lookup returns the stored pixel, or nil when no row exists yet.
func (s *Service) lookup(ctx context.Context, id string) (*pixel.Pixel, error) {
	p, err := s.store.Get(ctx, id)
	if errors.Is(err, pixel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pixel %s: %w", id, err)
	}
	return p, nil
}

// Recolor changes the color of a pixel owned by actorID.
func (s *Service) Recolor(ctx context.Context, actorID, id, color string) error {
	if actorID == "" {
		return pixel.ErrUnauthenticated
	}
	if _, err := pixel.ParseID(id, s.cfg.GridSize); err != nil {
		return err
	}
	color, err := pixel.NormalizeColor(color)
	if err != nil {
		return err
	}

	p, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	decision := pixel.Decide(p, actorID, pixel.ActionRecolor)
	metrics.RecolorsTotal.WithLabelValues(decision.String()).Inc()
	switch decision {
	case pixel.Allow:
		if err := s.store.SetColor(ctx, id, color); err != nil {
			return fmt.Errorf("set color of %s: %w", id, err)
		}
		return nil
	case pixel.RequireCheckout:
		return fmt.Errorf("%w: %s", pixel.ErrPaymentRequired, id)
	default:
		return fmt.Errorf("%w: %s", pixel.ErrForbidden, id)
	}
}

// Checkout starts a payment session for an unclaimed pixel and returns the
// processor URL to redirect the client to. The store is not modified;
// ownership is granted only when the payment completes.
func (s *Service) Checkout(ctx context.Context, actorID, id string) (string, error) {
	if actorID == "" {
		return "", pixel.ErrUnauthenticated
	}
	if _, err := pixel.ParseID(id, s.cfg.GridSize); err != nil {
		metrics.CheckoutsTotal.WithLabelValues("invalid").Inc()
		return "", err
	}

	p, err := s.lookup(ctx, id)
	if err != nil {
		return "", err
	}
	if p.Owned() {
		metrics.CheckoutsTotal.WithLabelValues("already_owned").Inc()
		return "", fmt.Errorf("%w: %s", pixel.ErrAlreadyOwned, id)
	}

	url, err := s.processor.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		PixelID:     id,
		UserID:      actorID,
		ProductName: "Pixel " + id,
		AmountCents: s.cfg.PriceCents,
		Currency:    s.cfg.Currency,
		SuccessURL:  s.cfg.ClientURL + "?success=true",
		CancelURL:   s.cfg.ClientURL + "?canceled=true",
	})
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("upstream_error").Inc()
		s.logger.Error("checkout session failed", "pixel_id", id, "user_id", actorID, "error", err)
		return "", fmt.Errorf("%w: %v", pixel.ErrUpstream, err)
	}

	metrics.CheckoutsTotal.WithLabelValues("created").Inc()
	return url, nil
}
