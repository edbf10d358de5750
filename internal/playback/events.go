package playback

import (
	"time"

	"github.com/llehouerou/soundloader/internal/errmsg"
)

// BackgroundChange is emitted when a new background handle is installed.
type BackgroundChange struct {
	Previous   *Track
	Current    *Track
	Generation uint64
}

// EffectReload is emitted when an effect entry is replaced.
type EffectReload struct {
	Name string
	URL  string
}

// Notice is a short user-facing message, e.g. after a manual reload.
type Notice struct {
	Message  string
	Duration time.Duration
}

// ErrorEvent is emitted when an error occurs during loading or playback.
type ErrorEvent struct {
	Operation errmsg.Op
	Path      string // layout path if applicable
	Err       error
}
