package common

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a "#rrggbb" or "#rgb" hex string into an opaque color.
func ParseColor(hex string) (color.Color, error) {
	if len(hex) != 4 && len(hex) != 7 {
		return nil, fmt.Errorf("invalid color %q: expected #rgb or #rrggbb", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
