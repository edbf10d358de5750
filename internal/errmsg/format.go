// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Background music operations
	OpBackgroundReload Op = "reload background music"
	OpBackgroundPlay   Op = "start background music"
	OpBackgroundToggle Op = "toggle background music"

	// Effect operations
	OpEffectReload Op = "reload sound effect"
	OpEffectPlay   Op = "play sound effect"
	OpSentenceLoad Op = "load sentence clip"

	// Server checks
	OpCensus Op = "count background tracks"
	OpScan   Op = "check audio files for changes"
	OpProbe  Op = "probe audio file"

	// Local state
	OpStateOpen  Op = "open session store"
	OpStateClear Op = "clear session state"
	OpWatch      Op = "watch local sounds directory"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
