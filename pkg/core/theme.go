package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 32-bit ARGB color (0xAARRGGBB).
// It marshals as RRGGBB when fully opaque and AARRGGBB otherwise.
type Color uint32

// RGB builds an opaque color.
func RGB(r, g, b uint8) Color {
	return ARGB(0xFF, r, g, b)
}

// ARGB builds a color with an explicit alpha channel.
func ARGB(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// Hex returns the persisted form of the color.
func (c Color) Hex() string {
	if c.A() == 0xFF {
		return fmt.Sprintf("%06X", uint32(c)&0xFFFFFF)
	}
	return fmt.Sprintf("%08X", uint32(c))
}

func (c Color) String() string {
	return "#" + c.Hex()
}

// ParseColor decodes RRGGBB or AARRGGBB, with or without a leading '#'.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 6, 8:
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return Color(v), nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// AppTheme is a named palette applied across the UI.
type AppTheme struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Primary            Color  `json:"primaryColor"`
	Secondary          Color  `json:"secondaryColor"`
	Background         Color  `json:"backgroundColor"`
	NoteCardBackground Color  `json:"noteCardBackgroundColor"`
	Border             Color  `json:"borderColor"`
	Shadow             Color  `json:"shadowColor"`
}

// Built-in themes. Identifiers are fixed so a persisted selection
// still matches after a restart.
var (
	DefaultTheme = AppTheme{
		ID:                 "6d1f3c0a-8b7e-4f55-9c2a-0e4b7d1a5f01",
		Name:               "Default",
		Primary:            RGB(0x00, 0x7A, 0xFF),
		Secondary:          RGB(0x34, 0xC7, 0x59),
		Background:         RGB(0xFF, 0xFF, 0xFF),
		NoteCardBackground: RGB(0xF2, 0xF2, 0xF7),
		Border:             RGB(0xC7, 0xC7, 0xCC),
		Shadow:             ARGB(0x33, 0x00, 0x00, 0x00),
	}
	DarkTheme = AppTheme{
		ID:                 "6d1f3c0a-8b7e-4f55-9c2a-0e4b7d1a5f02",
		Name:               "Dark",
		Primary:            RGB(0xFF, 0xFF, 0xFF),
		Secondary:          RGB(0x8E, 0x8E, 0x93),
		Background:         RGB(0x00, 0x00, 0x00),
		NoteCardBackground: RGB(0x1C, 0x1C, 0x1E),
		Border:             RGB(0x38, 0x38, 0x3A),
		Shadow:             ARGB(0x66, 0x00, 0x00, 0x00),
	}
	LightTheme = AppTheme{
		ID:                 "6d1f3c0a-8b7e-4f55-9c2a-0e4b7d1a5f03",
		Name:               "Light",
		Primary:            RGB(0x00, 0x00, 0x00),
		Secondary:          RGB(0x00, 0x7A, 0xFF),
		Background:         RGB(0xFF, 0xFF, 0xFF),
		NoteCardBackground: RGB(0xFF, 0xFF, 0xFF),
		Border:             RGB(0xD1, 0xD1, 0xD6),
		Shadow:             ARGB(0x1A, 0x00, 0x00, 0x00),
	}
)

// BuiltinThemes returns the fixed set of themes shipped with the app.
func BuiltinThemes() []AppTheme {
	return []AppTheme{DefaultTheme, DarkTheme, LightTheme}
}

// BuiltinTheme looks up a built-in theme by id or case-insensitive name.
func BuiltinTheme(idOrName string) (AppTheme, bool) {
	for _, t := range BuiltinThemes() {
		if t.ID == idOrName || strings.EqualFold(t.Name, idOrName) {
			return t, true
		}
	}
	return AppTheme{}, false
}
