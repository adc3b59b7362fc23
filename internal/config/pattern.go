package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

// PatternPixel is one colored coordinate of a stamp pattern.
type PatternPixel struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Color string `json:"color"`
}

// Pattern is a named image to stamp onto the canvas with bulk placement.
type Pattern struct {
	Name   string         `json:"name"`
	Pixels []PatternPixel `json:"pixels"`
}

// LoadPattern reads a JSON pattern file and checks every pixel against a
// gridSize×gridSize canvas. Colors are normalized.
func LoadPattern(path string, gridSize int) (*Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern: %w", err)
	}

	var p Pattern
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pattern: %w", err)
	}

	if len(p.Pixels) == 0 {
		return nil, fmt.Errorf("pattern %q: no pixels defined", p.Name)
	}
	for i := range p.Pixels {
		px := &p.Pixels[i]
		if err := (pixel.Coord{Row: px.Row, Col: px.Col}).Validate(gridSize); err != nil {
			return nil, fmt.Errorf("pattern %q: pixel #%d: %w", p.Name, i, err)
		}
		color, err := pixel.NormalizeColor(px.Color)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: pixel #%d: %w", p.Name, i, err)
		}
		px.Color = color
	}

	return &p, nil
}
