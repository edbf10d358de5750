// Package census counts the background tracks available on the server.
package census

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/soundloader/internal/playlist"
	"github.com/llehouerou/soundloader/internal/probe"
	"github.com/llehouerou/soundloader/internal/state"
)

// DefaultLimit is the highest track index probed.
const DefaultLimit = 20

// Census probes background1..background{limit} and reports the highest
// index present.
type Census struct {
	prober probe.Interface
	layout playlist.Layout
	limit  int
}

// New creates a census. A limit below 1 uses DefaultLimit.
func New(prober probe.Interface, layout playlist.Layout, limit int) *Census {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Census{prober: prober, layout: layout, limit: limit}
}

// Limit returns the highest index probed.
func (c *Census) Limit() int {
	return c.limit
}

// Count probes every candidate concurrently and waits for all of them.
// The result is the highest existing index, or 1 when none exist. If ctx
// ends first the partial result is discarded and ctx's error returned.
func (c *Census) Count(ctx context.Context) (int, error) {
	found := make([]bool, c.limit+1)

	g, gctx := errgroup.WithContext(ctx)
	for i := 1; i <= c.limit; i++ {
		g.Go(func() error {
			found[i] = c.prober.Exists(gctx, c.layout.BackgroundPath(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	maxIndex := 1
	for i := c.limit; i >= 1; i-- {
		if found[i] {
			maxIndex = i
			break
		}
	}
	return maxIndex, nil
}

// Run counts the tracks, then applies the result to the rotation and saves
// it for later sessions. Nothing is applied if the count does not finish.
func (c *Census) Run(ctx context.Context, rot *playlist.Rotation, session *state.Session) (int, error) {
	n, err := c.Count(ctx)
	if err != nil {
		return 0, err
	}

	rot.SetMax(n)
	if err := session.SetMaxTrackIndex(n); err != nil {
		log.Warn().Err(err).Int("max", n).Msg("track count not cached")
	}
	log.Info().Int("max", n).Int("limit", c.limit).Msg("background track census complete")
	return n, nil
}

// ApplyCached sets the rotation bound from a previous session's census.
// It reports whether a cached value was used.
func ApplyCached(rot *playlist.Rotation, session *state.Session) bool {
	res := session.MaxTrackIndex()
	if !res.OK() {
		return false
	}
	rot.SetMax(res.Value)
	log.Debug().Int("max", res.Value).Msg("using cached track count")
	return true
}
