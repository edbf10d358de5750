package keymap

import "strings"

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // "global", "music", "game", "sounds"
}

// All contains every key binding of the control surface.
var All = []Binding{
	// Global
	{ActionQuit, []string{"q", "ctrl+c"}, "quit", "global"},

	// Background music
	{ActionManualReload, []string{"r"}, "reload", "music"},
	{ActionNextTrack, []string{"n"}, "next track", "music"},
	{ActionToggleMusic, []string{"m"}, "mute", "music"},

	// Game environment
	{ActionToggleGame, []string{" "}, "game", "game"},
	{ActionToggleVisible, []string{"v"}, "visibility", "game"},

	// Sounds
	{ActionPlayShoot, []string{"f"}, "shoot", "sounds"},
	{ActionPlayExplosion, []string{"e"}, "explosion", "sounds"},
	{ActionPlaySentence, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}, "sentence", "sounds"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range All {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}

// Summary renders bindings as a one-line help text.
func Summary(bindings []Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, displayKeys(b.Keys)+" "+b.Description)
	}
	return strings.Join(parts, " · ")
}

// displayKeys shows the first key, or a range for long runs like digits.
func displayKeys(keys []string) string {
	switch len(keys) {
	case 0:
		return ""
	case 1, 2:
		return displayKey(keys[0])
	default:
		return displayKey(keys[0]) + "-" + displayKey(keys[len(keys)-1])
	}
}

func displayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}
