package payment

import (
	"context"

	"github.com/ryanbastic/pixel-mosaic/internal/circuitbreaker"
)

// Guarded routes outbound processor calls through a circuit breaker so a
// failing processor is not hammered by every checkout attempt. Event
// verification is local and is never guarded.
type Guarded struct {
	next    Processor
	breaker *circuitbreaker.Breaker
}

// NewGuarded wraps next with breaker.
func NewGuarded(next Processor, breaker *circuitbreaker.Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	var url string
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		url, err = g.next.CreateCheckoutSession(ctx, req)
		return err
	})
	return url, err
}

func (g *Guarded) VerifyEvent(payload []byte, signature string) (Event, error) {
	return g.next.VerifyEvent(payload, signature)
}
