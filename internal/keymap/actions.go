// Package keymap defines key bindings and action dispatch for the control
// surface.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit Action = "quit"

	// Background music actions
	ActionManualReload Action = "manual_reload" // clear markers, reload, notify
	ActionNextTrack    Action = "next_track"
	ActionToggleMusic  Action = "toggle_music" // delegates to the mute control

	// Game environment actions
	ActionToggleGame    Action = "toggle_game"
	ActionToggleVisible Action = "toggle_visible"

	// Sound actions
	ActionPlayShoot     Action = "play_shoot"
	ActionPlayExplosion Action = "play_explosion"
	ActionPlaySentence  Action = "play_sentence" // key digit selects the clip
)
