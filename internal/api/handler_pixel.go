package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/pixel-mosaic/internal/canvas"
)

// --- Huma Input/Output types ---

type PixelResponse struct {
	Color   string  `json:"color" doc:"Color as #rrggbb"`
	OwnerID *string `json:"ownerId" doc:"Owning user id, null when unclaimed"`
}

type ListPixelsOutput struct {
	Body map[string]PixelResponse
}

type RecolorBody struct {
	Color string `json:"color" doc:"New color as #rrggbb"`
}

type RecolorInput struct {
	Authorization string `header:"Authorization" doc:"Bearer session token"`
	ID            string `path:"id" doc:"Pixel id as <row>-<col>"`
	Body          RecolorBody
}

type PlaceInput struct {
	Authorization string `header:"Authorization" doc:"Bearer session token"`
	Body          []canvas.Placement
}

// --- Handler ---

type PixelHandler struct {
	canvas   Canvas
	accounts Accounts
	logger   *slog.Logger
}

func NewPixelHandler(cv Canvas, accounts Accounts, logger *slog.Logger) *PixelHandler {
	return &PixelHandler{canvas: cv, accounts: accounts, logger: logger}
}

func registerPixelRoutes(api huma.API, h *PixelHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-pixels",
		Method:      http.MethodGet,
		Path:        "/pixels",
		Summary:     "Get every pixel of the canvas",
		Tags:        []string{"pixels"},
	}, h.ListPixels)

	huma.Register(api, huma.Operation{
		OperationID: "recolor-pixel",
		Method:      http.MethodPost,
		Path:        "/pixels/{id}/color",
		Summary:     "Change the color of a pixel you own",
		Tags:        []string{"pixels"},
	}, h.Recolor)

	huma.Register(api, huma.Operation{
		OperationID:  "place-pattern",
		Method:       http.MethodPost,
		Path:         "/place-dragon",
		Summary:      "Stamp a pattern onto the canvas, clearing ownership of every touched pixel",
		Tags:         []string{"pixels"},
		MaxBodyBytes: 32 << 20,
	}, h.Place)
}

func (h *PixelHandler) ListPixels(ctx context.Context, _ *struct{}) (*ListPixelsOutput, error) {
	pixels, err := h.canvas.ListPixels(ctx)
	if err != nil {
		return nil, httpError(h.logger, "list pixels", err)
	}

	out := make(map[string]PixelResponse, len(pixels))
	for id, p := range pixels {
		out[id] = PixelResponse{Color: p.Color, OwnerID: p.OwnerID}
	}
	return &ListPixelsOutput{Body: out}, nil
}

func (h *PixelHandler) Recolor(ctx context.Context, input *RecolorInput) (*MessageOutput, error) {
	actor, err := h.accounts.Authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, httpError(h.logger, "authenticate", err)
	}
	if err := h.canvas.Recolor(ctx, actor, input.ID, input.Body.Color); err != nil {
		return nil, httpError(h.logger, "recolor pixel", err)
	}
	return message("Pixel color updated"), nil
}

func (h *PixelHandler) Place(ctx context.Context, input *PlaceInput) (*MessageOutput, error) {
	actor, err := h.accounts.Authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, httpError(h.logger, "authenticate", err)
	}
	n, err := h.canvas.Place(ctx, actor, input.Body)
	if err != nil {
		return nil, httpError(h.logger, "place pattern", err)
	}
	return message(fmt.Sprintf("Placed %d pixels", n)), nil
}
