package types

import (
	"fmt"
	"strings"
)

// BlendMode is the pixel combination function used when a layer is painted
// over the accumulated result below it. Names follow the CSS compositing
// keywords.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity
)

var blendNames = [...]string{
	BlendNormal:     "normal",
	BlendMultiply:   "multiply",
	BlendScreen:     "screen",
	BlendOverlay:    "overlay",
	BlendDarken:     "darken",
	BlendLighten:    "lighten",
	BlendColorDodge: "color-dodge",
	BlendColorBurn:  "color-burn",
	BlendHardLight:  "hard-light",
	BlendSoftLight:  "soft-light",
	BlendDifference: "difference",
	BlendExclusion:  "exclusion",
	BlendHue:        "hue",
	BlendSaturation: "saturation",
	BlendColor:      "color",
	BlendLuminosity: "luminosity",
}

// String returns the CSS keyword for the mode.
func (m BlendMode) String() string {
	if m < 0 || int(m) >= len(blendNames) {
		return "unknown"
	}
	return blendNames[m]
}

// Valid reports whether m is one of the defined modes.
func (m BlendMode) Valid() bool {
	return m >= 0 && int(m) < len(blendNames)
}

// IsSeparable reports whether the mode operates on each colour channel
// independently. Hue, saturation, color and luminosity are not.
func (m BlendMode) IsSeparable() bool {
	return m < BlendHue
}

// ParseBlendMode accepts the CSS keyword, case-insensitively. "source-over"
// is accepted as an alias for normal.
func ParseBlendMode(s string) (BlendMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "source-over" {
		return BlendNormal, nil
	}
	for i, n := range blendNames {
		if n == name {
			return BlendMode(i), nil
		}
	}
	return BlendNormal, fmt.Errorf("unknown blend mode %q", s)
}

// BlendModes returns all modes in declaration order.
func BlendModes() []BlendMode {
	modes := make([]BlendMode, len(blendNames))
	for i := range blendNames {
		modes[i] = BlendMode(i)
	}
	return modes
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid blend mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	parsed, err := ParseBlendMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
