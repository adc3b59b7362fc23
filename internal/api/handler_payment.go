package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

// --- Huma Input/Output types ---

type CheckoutBody struct {
	PixelID string `json:"pixelId" doc:"Pixel id as <row>-<col>"`
}

type CheckoutInput struct {
	Authorization string `header:"Authorization" doc:"Bearer session token"`
	Body          CheckoutBody
}

type CheckoutResponse struct {
	URL string `json:"url" doc:"Payment page to redirect the client to"`
}

type CheckoutOutput struct {
	Body CheckoutResponse
}

type WebhookInput struct {
	Signature string `header:"Stripe-Signature" doc:"Processor signature over the raw body"`
	RawBody   []byte
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type WebhookOutput struct {
	Body WebhookResponse
}

// --- Handler ---

type PaymentHandler struct {
	canvas   Canvas
	accounts Accounts
	logger   *slog.Logger
}

func NewPaymentHandler(cv Canvas, accounts Accounts, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{canvas: cv, accounts: accounts, logger: logger}
}

func registerPaymentRoutes(api huma.API, h *PaymentHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "create-checkout",
		Method:      http.MethodPost,
		Path:        "/checkout",
		Summary:     "Start checkout for an unclaimed pixel",
		Tags:        []string{"payments"},
	}, h.Checkout)

	huma.Register(api, huma.Operation{
		OperationID: "payment-webhook",
		Method:      http.MethodPost,
		Path:        "/webhook",
		Summary:     "Receive payment processor events",
		Tags:        []string{"payments"},
	}, h.Webhook)
}

func (h *PaymentHandler) Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutOutput, error) {
	actor, err := h.accounts.Authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, httpError(h.logger, "authenticate", err)
	}
	url, err := h.canvas.Checkout(ctx, actor, input.Body.PixelID)
	if err != nil {
		return nil, httpError(h.logger, "checkout", err)
	}
	return &CheckoutOutput{Body: CheckoutResponse{URL: url}}, nil
}

// Webhook acknowledges every verified event, including ones it ignores. A
// store failure returns 500 so the processor redelivers the event.
func (h *PaymentHandler) Webhook(ctx context.Context, input *WebhookInput) (*WebhookOutput, error) {
	res, err := h.canvas.Reconcile(ctx, input.RawBody, input.Signature)
	if err != nil {
		if errors.Is(err, pixel.ErrSignatureInvalid) {
			h.logger.Warn("rejected webhook", "error", err)
		}
		return nil, httpError(h.logger, "reconcile payment event", err)
	}
	h.logger.Debug("webhook processed", "event_id", res.EventID, "type", res.EventType, "claimed", res.Claimed)
	return &WebhookOutput{Body: WebhookResponse{Received: true}}, nil
}
