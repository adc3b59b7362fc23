package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryanbastic/pixel-mosaic/internal/canvas"
	"github.com/ryanbastic/pixel-mosaic/internal/metrics"
	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

// Canvas is the pixel workflow served over HTTP. Implemented by *canvas.Service.
type Canvas interface {
	ListPixels(ctx context.Context) (map[string]pixel.Pixel, error)
	Recolor(ctx context.Context, actorID, id, color string) error
	Checkout(ctx context.Context, actorID, id string) (string, error)
	Reconcile(ctx context.Context, payload []byte, signature string) (canvas.ReconcileResult, error)
	Place(ctx context.Context, actorID string, entries []canvas.Placement) (int, error)
}

// Accounts is the account workflow served over HTTP. Implemented by *auth.Accounts.
type Accounts interface {
	Authenticate(ctx context.Context, header string) (string, error)
	Signup(ctx context.Context, email, password string) (uuid.UUID, error)
	Login(ctx context.Context, email, password string) (string, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	DeleteAccount(ctx context.Context, userID string) error
}

// NewServer creates the HTTP handler with every route configured. Browsers
// may call the API cross-origin only from allowedOrigins.
func NewServer(logger *slog.Logger, cv Canvas, accounts Accounts, deps map[string]Pinger, allowedOrigins []string) http.Handler {
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	mux.Use(RequestID)
	mux.Use(Logging(logger))
	mux.Use(Recovery(logger))
	mux.Use(metrics.Metrics)

	cfg := huma.DefaultConfig("Pixel Mosaic API", "1.0.0")
	// Response bodies are exactly the documented shapes, without a $schema link.
	cfg.CreateHooks = nil
	api := humachi.New(mux, cfg)

	registerPixelRoutes(api, NewPixelHandler(cv, accounts, logger))
	registerPaymentRoutes(api, NewPaymentHandler(cv, accounts, logger))
	registerAccountRoutes(api, NewAccountHandler(accounts, logger))

	health := NewHealthHandler(deps, logger)
	mux.Get("/livez", health.Livez)
	mux.Get("/readyz", health.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// MessageResponse is the body of operations that only confirm success.
type MessageResponse struct {
	Message string `json:"message" doc:"Human readable result"`
}

type MessageOutput struct {
	Body MessageResponse
}

func message(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}
