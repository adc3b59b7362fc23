package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanbastic/pixel-mosaic/internal/circuitbreaker"
)

type stubProcessor struct {
	calls int
	url   string
	err   error
}

func (s *stubProcessor) CreateCheckoutSession(context.Context, CheckoutRequest) (string, error) {
	s.calls++
	return s.url, s.err
}

func (s *stubProcessor) VerifyEvent([]byte, string) (Event, error) {
	return Event{ID: "evt_stub"}, nil
}

func TestGuarded_PassesThrough(t *testing.T) {
	stub := &stubProcessor{url: "https://pay.test/1"}
	g := NewGuarded(stub, circuitbreaker.New(2, time.Minute))

	got, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/1", got)
	assert.Equal(t, 1, stub.calls)
}

func TestGuarded_OpensAfterFailures(t *testing.T) {
	stub := &stubProcessor{err: errors.New("processor down")}
	g := NewGuarded(stub, circuitbreaker.New(2, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := g.CreateCheckoutSession(ctx, CheckoutRequest{})
		require.Error(t, err)
	}

	_, err := g.CreateCheckoutSession(ctx, CheckoutRequest{})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, stub.calls)
}

func TestGuarded_VerifyEventNotGuarded(t *testing.T) {
	stub := &stubProcessor{err: errors.New("processor down")}
	b := circuitbreaker.New(1, time.Minute)
	g := NewGuarded(stub, b)

	g.CreateCheckoutSession(context.Background(), CheckoutRequest{})
	require.Equal(t, circuitbreaker.Open, b.State())

	ev, err := g.VerifyEvent(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "evt_stub", ev.ID)
}
