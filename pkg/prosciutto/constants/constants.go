// Package constants defines shared constants, types, and configuration values
// used throughout the prosciutto navigation host.
package constants

import (
	"os"
	"time"
)

// Development is the environment variable value for development mode.
const Development = "DEV"

// LogLevelEnvVar overrides the configured log level ("debug", "info", "warn", "error").
const LogLevelEnvVar = "PROSCIUTTO_LOG_LEVEL"

// ConfigPathEnvVar names a config file to load when none is passed explicitly.
const ConfigPathEnvVar = "PROSCIUTTO_CONFIG"

// IsDevMode returns true if running in development mode (ENVIRONMENT=DEV).
func IsDevMode() bool {
	return os.Getenv("ENVIRONMENT") == Development
}

// VirtualButton represents an abstract input button, mapped from physical hardware.
// Input sources translate keys and gamepad codes into these before dispatching.
type VirtualButton int

const (
	VirtualButtonUnassigned VirtualButton = iota
	VirtualButtonUp
	VirtualButtonDown
	VirtualButtonLeft
	VirtualButtonRight
	VirtualButtonA
	VirtualButtonB
	VirtualButtonX
	VirtualButtonY
	VirtualButtonL1
	VirtualButtonL2
	VirtualButtonR1
	VirtualButtonR2
	VirtualButtonStart
	VirtualButtonSelect
	VirtualButtonMenu
	VirtualButtonF1
	VirtualButtonF2
	VirtualButtonVolumeUp
	VirtualButtonVolumeDown
	VirtualButtonPower
)

func (vb VirtualButton) GetName() string {
	switch vb {
	case VirtualButtonUnassigned:
		return "Unassigned"
	case VirtualButtonUp:
		return "Up"
	case VirtualButtonDown:
		return "Down"
	case VirtualButtonLeft:
		return "Left"
	case VirtualButtonRight:
		return "Right"
	case VirtualButtonA:
		return "A"
	case VirtualButtonB:
		return "B"
	case VirtualButtonX:
		return "X"
	case VirtualButtonY:
		return "Y"
	case VirtualButtonL1:
		return "L1"
	case VirtualButtonL2:
		return "L2"
	case VirtualButtonR1:
		return "R1"
	case VirtualButtonR2:
		return "R2"
	case VirtualButtonStart:
		return "Start"
	case VirtualButtonSelect:
		return "Select"
	case VirtualButtonMenu:
		return "Menu"
	case VirtualButtonF1:
		return "F1"
	case VirtualButtonF2:
		return "F2"
	case VirtualButtonVolumeUp:
		return "VolumeUp"
	case VirtualButtonVolumeDown:
		return "VolumeDown"
	case VirtualButtonPower:
		return "Power"
	default:
		return "Unknown"
	}
}

// Default navigation and input tuning values.
const (
	DefaultTransitionDuration = 150 * time.Millisecond // Animation wait between deactivate and activate
	DefaultMaxDepth           = 0                      // Zero means unbounded back stacks
	DefaultInputDelay         = 20 * time.Millisecond  // Debounce delay between input events
	DefaultIconSize           = 48                     // Edge length of rasterized icons
)
