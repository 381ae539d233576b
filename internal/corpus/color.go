package corpus

import (
	"fmt"
	"strings"
)

// Color is a single mana color symbol.
type Color string

// Mana colors.
const (
	White Color = "W"
	Blue  Color = "U"
	Black Color = "B"
	Red   Color = "R"
	Green Color = "G"
)

// AllColors lists the five colors in canonical WUBRG order.
var AllColors = []Color{White, Blue, Black, Red, Green}

func (c Color) bit() ColorIdentity {
	switch c {
	case White:
		return 1 << 0
	case Blue:
		return 1 << 1
	case Black:
		return 1 << 2
	case Red:
		return 1 << 3
	case Green:
		return 1 << 4
	}
	return 0
}

// ParseColor parses a single color symbol, case-insensitively.
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToUpper(strings.TrimSpace(s)))
	if c.bit() == 0 {
		return "", fmt.Errorf("unknown color %q", s)
	}
	return c, nil
}

// ColorIdentity is a set of colors. The zero value is colorless.
// Matching is order-insensitive; String renders canonical WUBRG order.
type ColorIdentity uint8

// Colorless is the empty identity.
const Colorless ColorIdentity = 0

// NewColorIdentity builds an identity from colors.
func NewColorIdentity(colors ...Color) ColorIdentity {
	var ci ColorIdentity
	for _, c := range colors {
		ci |= c.bit()
	}
	return ci
}

// ParseColorIdentity parses strings such as "BG", "w,u", "{R}{G}" or "C".
func ParseColorIdentity(s string) (ColorIdentity, error) {
	var ci ColorIdentity
	for _, r := range strings.ToUpper(s) {
		switch r {
		case ',', ' ', '{', '}', '/', 'C':
			continue
		}
		c := Color(string(r))
		if c.bit() == 0 {
			return 0, fmt.Errorf("unknown color %q in %q", string(r), s)
		}
		ci |= c.bit()
	}
	return ci, nil
}

// Contains reports whether c is part of the identity.
func (ci ColorIdentity) Contains(c Color) bool {
	return ci&c.bit() != 0
}

// SubsetOf reports whether every color of ci is also in other.
func (ci ColorIdentity) SubsetOf(other ColorIdentity) bool {
	return ci&^other == 0
}

// Intersects reports whether the identities share a color.
func (ci ColorIdentity) Intersects(other ColorIdentity) bool {
	return ci&other != 0
}

// Colors returns the colors in WUBRG order.
func (ci ColorIdentity) Colors() []Color {
	out := make([]Color, 0, 5)
	for _, c := range AllColors {
		if ci.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of colors.
func (ci ColorIdentity) Len() int {
	n := 0
	for _, c := range AllColors {
		if ci.Contains(c) {
			n++
		}
	}
	return n
}

// String renders the identity in WUBRG order, or "C" when colorless.
func (ci ColorIdentity) String() string {
	if ci == Colorless {
		return "C"
	}
	var b strings.Builder
	for _, c := range ci.Colors() {
		b.WriteString(string(c))
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (ci ColorIdentity) MarshalText() ([]byte, error) {
	return []byte(ci.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ci *ColorIdentity) UnmarshalText(text []byte) error {
	parsed, err := ParseColorIdentity(string(text))
	if err != nil {
		return err
	}
	*ci = parsed
	return nil
}
