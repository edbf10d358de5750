package playback

// Track describes the installed background handle.
type Track struct {
	Index    int    // rotation index, 1-based
	Path     string // layout path, e.g. sounds/background2.mp3
	URL      string // cache-busted URL the handle was created for
	Fallback bool   // installed without a confirmed load
}
