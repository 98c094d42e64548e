package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ColourNameToRGBA maps the named colours accepted in colour settings.
var ColourNameToRGBA = map[string]color.RGBA{
	"black":    {R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	"darkgray": {R: 0x55, G: 0x57, B: 0x53, A: 0xff},
	"red":      {R: 0xEF, G: 0x29, B: 0x29, A: 0xff},
	"green":    {R: 0x8A, G: 0xE2, B: 0x34, A: 0xff},
	"yellow":   {R: 0xFC, G: 0xE9, B: 0x4F, A: 0xff},
	"blue":     {R: 0x72, G: 0x9F, B: 0xCF, A: 0xff},
	"magenta":  {R: 0xEE, G: 0x38, B: 0xDA, A: 0xff},
	"cyan":     {R: 0x34, G: 0xE2, B: 0xE2, A: 0xff},
	"white":    {R: 0xEE, G: 0xEE, B: 0xEC, A: 0xff},
	"pink":     {R: 0xF4, G: 0xC7, B: 0xDF, A: 0xff},
}

// ParseColour accepts a colour name or #rgb / #rrggbb.
func ParseColour(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := ColourNameToRGBA[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("colour %q: want a name or #rrggbb", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("colour %q: want a name or #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
