package background

import (
	"fmt"
	"strconv"
	"strings"

	"themereel/internal/config"
)

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// DefaultColor is the fallback field green.
var DefaultColor = RGB{R: 34, G: 139, B: 34}

// ParseColor parses #RRGGBB (the leading # is optional).
func ParseColor(value string) (RGB, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(cleaned) != 6 {
		return RGB{}, fmt.Errorf("color %q: expected #RRGGBB", value)
	}
	parsed, err := strconv.ParseUint(cleaned, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q: %w", value, err)
	}
	return RGB{R: uint8(parsed >> 16), G: uint8(parsed >> 8), B: uint8(parsed)}, nil
}

// Hex renders the color as 0xRRGGBB, the form ffmpeg's color source accepts.
func (c RGB) Hex() string {
	return fmt.Sprintf("0x%02X%02X%02X", c.R, c.G, c.B)
}

// SettingsFromConfig copies the [background] section. An unparsable color
// falls back to DefaultColor; Validate rejects it before this point.
func SettingsFromConfig(cfg *config.Config) Settings {
	color, err := ParseColor(cfg.Background.Color)
	if err != nil {
		color = DefaultColor
	}
	return Settings{
		Loop:     cfg.Background.Loop,
		Volume:   cfg.Background.Volume,
		AssetDir: cfg.Background.AssetDir,
		Color:    color,
	}
}
