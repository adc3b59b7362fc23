// Package payment wraps the external payment processor behind a small
// interface: create a checkout session for one pixel, and verify the
// asynchronous events the processor sends back.
package payment

import (
	"context"
	"errors"
)

// Event types the reconciler acts on.
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventAsyncPaymentSucceeded   = "checkout.session.async_payment_succeeded"
	PaymentStatusPaid            = "paid"
	PaymentStatusNoPaymentNeeded = "no_payment_required"
)

// Metadata keys round-tripped through the processor.
const (
	MetadataPixelID = "pixelId"
	MetadataUserID  = "userId"
)

// ErrVerification is returned by VerifyEvent when the signature or payload is bad.
var ErrVerification = errors.New("event verification failed")

// CheckoutRequest describes a one-item, fixed-price checkout for a pixel.
type CheckoutRequest struct {
	PixelID     string
	UserID      string
	ProductName string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// Event is a verified processor event, reduced to the fields reconciliation needs.
type Event struct {
	ID            string
	Type          string
	PaymentStatus string
	Metadata      map[string]string
}

// Completed reports whether the event finalizes a paid checkout.
func (e Event) Completed() bool {
	switch e.Type {
	case EventCheckoutCompleted:
		return e.PaymentStatus == "" || e.PaymentStatus == PaymentStatusPaid || e.PaymentStatus == PaymentStatusNoPaymentNeeded
	case EventAsyncPaymentSucceeded:
		return true
	default:
		return false
	}
}

// Processor is the payment processor as seen by the canvas service.
type Processor interface {
	// CreateCheckoutSession returns the URL the client should be redirected to.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)

	// VerifyEvent checks signature over the raw payload and decodes the event.
	VerifyEvent(payload []byte, signature string) (Event, error)
}
