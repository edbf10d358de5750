package player

import (
	"math"
	"regexp"
)

// Default device volumes.
const (
	DefaultMobileVolume   = 0.021
	DefaultDesktopVolume  = 0.164
	DefaultSentenceVolume = 0.8
)

var mobileAgent = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// IsMobile reports whether the user agent belongs to a mobile device.
func IsMobile(userAgent string) bool {
	return mobileAgent.MatchString(userAgent)
}

// Presets holds the background volume per device class.
type Presets struct {
	Mobile  float64
	Desktop float64
}

// DefaultPresets returns the stock device volumes.
func DefaultPresets() Presets {
	return Presets{Mobile: DefaultMobileVolume, Desktop: DefaultDesktopVolume}
}

// For returns the preset matching the user agent.
func (p Presets) For(userAgent string) float64 {
	if IsMobile(userAgent) {
		return p.Mobile
	}
	return p.Desktop
}

// clampLevel keeps a volume level within 0.0 to 1.0.
func clampLevel(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}

// levelToVolume converts a 0.0-1.0 level to beep's Volume value.
// beep uses a logarithmic scale where Volume is in "decibels" with base 2.
// Volume = 0 means no change, -1 = half volume, -2 = quarter, etc.
// We map: 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (essentially silent)
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
