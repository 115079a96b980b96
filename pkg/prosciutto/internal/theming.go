package internal

import (
	"image/color"
	"sync"
)

// Theme defines the colors hosts paint regions with.
type Theme struct {
	AccentColor     color.RGBA // Placeholder fill for views that draw nothing themselves
	HighlightColor  color.RGBA // Region outline while a transition is running
	TextColor       color.RGBA // Default text color
	BackgroundColor color.RGBA // Screen background color
	FontPath        string     // Path to the primary UI font
}

var (
	themeMu      sync.RWMutex
	currentTheme Theme
)

// SetTheme sets the active theme.
func SetTheme(theme Theme) {
	themeMu.Lock()
	defer themeMu.Unlock()
	currentTheme = theme
}

// GetTheme returns the currently active theme.
func GetTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// HexToColor converts 0xRRGGBB to an opaque color.
func HexToColor(hex uint32) color.RGBA {
	return color.RGBA{
		R: uint8(hex >> 16),
		G: uint8(hex >> 8),
		B: uint8(hex),
		A: 0xFF,
	}
}
