package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

func writeTempPattern(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pattern.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp pattern: %v", err)
	}
	return path
}

func TestLoadPattern_Valid(t *testing.T) {
	path := writeTempPattern(t, `{
		"name": "dragon",
		"pixels": [
			{"row": 0, "col": 0, "color": "#FF0000"},
			{"row": 9, "col": 9, "color": "#00ff00"}
		]
	}`)

	p, err := LoadPattern(path, 10)
	if err != nil {
		t.Fatalf("LoadPattern: %v", err)
	}
	if p.Name != "dragon" {
		t.Errorf("name: got %q, want %q", p.Name, "dragon")
	}
	if len(p.Pixels) != 2 {
		t.Fatalf("got %d pixels, want 2", len(p.Pixels))
	}
	if p.Pixels[0].Color != "#ff0000" {
		t.Errorf("color not normalized: got %q", p.Pixels[0].Color)
	}
	if p.Pixels[1].Row != 9 || p.Pixels[1].Col != 9 {
		t.Errorf("coordinate: got (%d, %d)", p.Pixels[1].Row, p.Pixels[1].Col)
	}
}

func TestLoadPattern_Errors(t *testing.T) {
	tests := map[string]struct {
		content string
		want    string
	}{
		"bad json":    {`{not json`, "parse pattern"},
		"empty":       {`{"name": "x", "pixels": []}`, "no pixels"},
		"out of grid": {`{"name": "x", "pixels": [{"row": 10, "col": 0, "color": "#000000"}]}`, "pixel #0"},
		"negative":    {`{"name": "x", "pixels": [{"row": 0, "col": -1, "color": "#000000"}]}`, "pixel #0"},
		"named color": {`{"name": "x", "pixels": [{"row": 0, "col": 0, "color": "#000000"}, {"row": 1, "col": 1, "color": "red"}]}`, "pixel #1"},
		"short color": {`{"name": "x", "pixels": [{"row": 0, "col": 0, "color": "#000"}]}`, "pixel #0"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPattern(writeTempPattern(t, tc.content), 10)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadPattern_InvalidEntryIsInvalidArgument(t *testing.T) {
	path := writeTempPattern(t, `{"pixels": [{"row": 0, "col": 0, "color": "blue"}]}`)

	_, err := LoadPattern(path, 10)
	if !errors.Is(err, pixel.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLoadPattern_MissingFile(t *testing.T) {
	if _, err := LoadPattern(filepath.Join(t.TempDir(), "nope.json"), 10); err == nil {
		t.Error("expected error for missing file")
	}
}
