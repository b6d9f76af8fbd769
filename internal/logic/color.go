// internal/logic/color.go
//
// Piece colors. The ordinal order of the colors is the default turn order.
package logic

import (
	"fmt"
	"strings"
)

// Color identifies the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
	Yellow
)

// AllColors lists every color in ordinal order.
var AllColors = []Color{White, Black, Yellow}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	case Yellow:
		return "yellow"
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// ParseColor maps a color name (case-insensitive) to a Color.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	case "yellow":
		return Yellow, nil
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

// MarshalText renders the color name; used by JSON encoding of wire messages.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText is the inverse of MarshalText.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// forward is the y delta of one step "forward" for this color.
// White moves up the board (towards y=0); every other color moves down.
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

// NextColor returns the color after c in the given turn order, wrapping around.
// If c is not part of order the first color is returned.
func NextColor(order []Color, c Color) Color {
	for i, o := range order {
		if o == c {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}
