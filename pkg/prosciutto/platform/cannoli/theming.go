// Package cannoli provides theming support for the Cannoli custom firmware.
// Cannoli is a community-developed CFW for retro handheld gaming devices.
package cannoli

import (
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/internal"
)

// DefaultFontPath is where Cannoli ships its UI font.
const DefaultFontPath = "/mnt/SDCARD/System/fonts/Cannoli.ttf"

// InitCannoliTheme creates a theme with Cannoli's default colors and the specified font.
func InitCannoliTheme(fontPath string) internal.Theme {
	return internal.Theme{
		AccentColor:     internal.HexToColor(0x008080),
		HighlightColor:  internal.HexToColor(0xFFFFFF),
		TextColor:       internal.HexToColor(0xFFFFFF),
		BackgroundColor: internal.HexToColor(0x000000),
		FontPath:        fontPath,
	}
}
