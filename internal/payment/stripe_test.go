package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test"

// signPayload builds a Stripe-Signature header for payload.
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func checkoutEvent(eventType, paymentStatus, pixelID, userID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"object": "event",
		"type": %q,
		"data": {"object": {
			"id": "cs_test",
			"object": "checkout.session",
			"payment_status": %q,
			"metadata": {"pixelId": %q, "userId": %q}
		}}
	}`, eventType, paymentStatus, pixelID, userID))
}

func TestStripe_VerifyEvent_Valid(t *testing.T) {
	p := NewStripe("sk_test", testWebhookSecret, nil)
	payload := checkoutEvent(EventCheckoutCompleted, "paid", "3-4", "u1")

	ev, err := p.VerifyEvent(payload, signPayload(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_test", ev.ID)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "paid", ev.PaymentStatus)
	assert.Equal(t, "3-4", ev.Metadata[MetadataPixelID])
	assert.Equal(t, "u1", ev.Metadata[MetadataUserID])
	assert.True(t, ev.Completed())
}

func TestStripe_VerifyEvent_BadSignature(t *testing.T) {
	p := NewStripe("sk_test", testWebhookSecret, nil)
	payload := checkoutEvent(EventCheckoutCompleted, "paid", "3-4", "u1")

	tests := map[string]string{
		"wrong secret": signPayload(payload, "whsec_other", time.Now()),
		"stale":        signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour)),
		"garbage":      "not-a-signature",
		"empty":        "",
	}
	for name, sig := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.VerifyEvent(payload, sig)
			assert.ErrorIs(t, err, ErrVerification)
		})
	}
}

func TestStripe_VerifyEvent_TamperedBody(t *testing.T) {
	p := NewStripe("sk_test", testWebhookSecret, nil)
	payload := checkoutEvent(EventCheckoutCompleted, "paid", "3-4", "u1")
	sig := signPayload(payload, testWebhookSecret, time.Now())

	tampered := checkoutEvent(EventCheckoutCompleted, "paid", "3-4", "attacker")
	_, err := p.VerifyEvent(tampered, sig)
	assert.ErrorIs(t, err, ErrVerification)
}

func TestStripe_VerifyEvent_OtherTypeHasNoMetadata(t *testing.T) {
	p := NewStripe("sk_test", testWebhookSecret, nil)
	payload := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	ev, err := p.VerifyEvent(payload, signPayload(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "customer.created", ev.Type)
	assert.Nil(t, ev.Metadata)
	assert.False(t, ev.Completed())
}

func TestEvent_Completed(t *testing.T) {
	assert.True(t, Event{Type: EventCheckoutCompleted, PaymentStatus: "paid"}.Completed())
	assert.True(t, Event{Type: EventCheckoutCompleted, PaymentStatus: "no_payment_required"}.Completed())
	assert.False(t, Event{Type: EventCheckoutCompleted, PaymentStatus: "unpaid"}.Completed())
	assert.True(t, Event{Type: EventAsyncPaymentSucceeded}.Completed())
	assert.False(t, Event{Type: "checkout.session.expired"}.Completed())
}

func newStripeBackend(t *testing.T, handler http.HandlerFunc) *stripe.Backends {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
}

func TestStripe_CreateCheckoutSession(t *testing.T) {
	var form url.Values
	backends := newStripeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.test/c/cs_test_1"}`)
	})
	p := NewStripe("sk_test", testWebhookSecret, backends)

	got, err := p.CreateCheckoutSession(context.Background(), CheckoutRequest{
		PixelID:     "3-4",
		UserID:      "u1",
		ProductName: "Pixel 3-4",
		AmountCents: 100,
		Currency:    "usd",
		SuccessURL:  "http://localhost:3000?success=true",
		CancelURL:   "http://localhost:3000?canceled=true",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/c/cs_test_1", got)

	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "3-4", form.Get("metadata[pixelId]"))
	assert.Equal(t, "u1", form.Get("metadata[userId]"))
	assert.Equal(t, "100", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "usd", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "1", form.Get("line_items[0][quantity]"))
	assert.True(t, strings.HasSuffix(form.Get("success_url"), "success=true"))
}

func TestStripe_CreateCheckoutSession_ProcessorError(t *testing.T) {
	backends := newStripeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"bad currency"}}`)
	})
	p := NewStripe("sk_test", testWebhookSecret, backends)

	_, err := p.CreateCheckoutSession(context.Background(), CheckoutRequest{PixelID: "1-1", UserID: "u1", Currency: "zzz"})
	require.Error(t, err)

	var stripeErr *stripe.Error
	assert.True(t, errors.As(err, &stripeErr))
}
