package pixel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxGridSize is the largest grid whose coordinates fit the 1–3 digit id format.
const MaxGridSize = 1000

// DefaultColor is used when a pixel row is created without an explicit color.
const DefaultColor = "#ffffff"

var (
	idPattern    = regexp.MustCompile(`^(\d{1,3})-(\d{1,3})$`)
	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Pixel is a single addressable cell of the canvas.
type Pixel struct {
	ID      string  `json:"id"`
	Color   string  `json:"color"`
	OwnerID *string `json:"ownerId"`
}

// Owned reports whether the pixel has been claimed.
func (p *Pixel) Owned() bool {
	return p != nil && p.OwnerID != nil
}

// Coord is a parsed pixel coordinate.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ID returns the canonical "<row>-<col>" key.
func (c Coord) ID() string {
	return strconv.Itoa(c.Row) + "-" + strconv.Itoa(c.Col)
}

// Validate checks that c lies within a gridSize×gridSize canvas.
func (c Coord) Validate(gridSize int) error {
	if c.Row < 0 || c.Col < 0 || c.Row >= gridSize || c.Col >= gridSize {
		return fmt.Errorf("%w: coordinate (%d, %d) outside %dx%d grid", ErrInvalidArgument, c.Row, c.Col, gridSize, gridSize)
	}
	return nil
}

// ParseID parses a canonical pixel id and checks it against gridSize.
// Leading zeros are rejected so that each coordinate has exactly one key.
func ParseID(id string, gridSize int) (Coord, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return Coord{}, fmt.Errorf("%w: malformed pixel id %q", ErrInvalidArgument, id)
	}
	for _, part := range m[1:] {
		if len(part) > 1 && part[0] == '0' {
			return Coord{}, fmt.Errorf("%w: non-canonical pixel id %q", ErrInvalidArgument, id)
		}
	}
	row, _ := strconv.Atoi(m[1])
	col, _ := strconv.Atoi(m[2])
	c := Coord{Row: row, Col: col}
	if err := c.Validate(gridSize); err != nil {
		return Coord{}, err
	}
	return c, nil
}

// ValidID reports whether id is a canonical, in-bounds pixel id.
func ValidID(id string, gridSize int) bool {
	_, err := ParseID(id, gridSize)
	return err == nil
}

// NormalizeColor validates a #RRGGBB color and returns it in lowercase.
func NormalizeColor(color string) (string, error) {
	if !colorPattern.MatchString(color) {
		return "", fmt.Errorf("%w: color %q is not #rrggbb", ErrInvalidArgument, color)
	}
	return strings.ToLower(color), nil
}
