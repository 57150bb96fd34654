package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit RGB value.
type Color uint32

const (
	ColorGreen     Color = 0x4CBB17
	ColorPurple    Color = 0x9B59B6
	ColorRed       Color = 0xE74C3C
	ColorOrange    Color = 0xF39C12
	ColorLightBlue Color = 0x3498DB
	ColorYellow    Color = 0xF1C40F
	ColorDarkBlue  Color = 0x00509D

	BombColor Color = 0x000000
)

// Palette holds the colors normal pieces are drawn from. Black is reserved
// for bombs.
var Palette = [...]Color{
	ColorGreen, ColorPurple, ColorRed, ColorOrange, ColorLightBlue, ColorYellow, ColorDarkBlue,
}

// Hex renders c as "#RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF)
}

func (c Color) String() string { return c.Hex() }

// ParseColor accepts "RRGGBB" with or without a leading '#'.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("parse color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color(v), nil
}
