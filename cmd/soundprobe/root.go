package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llehouerou/soundloader/internal/census"
	"github.com/llehouerou/soundloader/internal/config"
	"github.com/llehouerou/soundloader/internal/freshness"
	"github.com/llehouerou/soundloader/internal/playlist"
	"github.com/llehouerou/soundloader/internal/probe"
	"github.com/llehouerou/soundloader/internal/state"
)

// options are the flags shared by every subcommand.
type options struct {
	baseURL   string
	soundsDir string
	effects   []string
	limit     int
	timeout   time.Duration
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "soundprobe",
		Short:        "Inspect the audio files served to the game",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return opts.fillFromConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", "", "game server root (default from config)")
	flags.StringVar(&opts.soundsDir, "sounds-dir", "", "audio directory on the server (default from config)")
	flags.StringSliceVar(&opts.effects, "effects", nil, "effect names to track (default from config)")
	flags.IntVar(&opts.limit, "limit", 0, "highest background index to probe (default from config)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (default from config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every probe")

	root.AddCommand(newCensusCmd(opts), newScanCmd(opts))
	return root
}

// fillFromConfig uses the configuration file for every flag left unset.
func (o *options) fillFromConfig(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	flags := cmd.Flags()
	if !flags.Changed("url") {
		o.baseURL = cfg.BaseURL
	}
	if !flags.Changed("sounds-dir") {
		o.soundsDir = cfg.SoundsDir
	}
	if !flags.Changed("effects") {
		o.effects = cfg.Effects
	}
	if !flags.Changed("limit") {
		o.limit = cfg.GetCensusConfig().Limit
	}
	if !flags.Changed("timeout") {
		o.timeout = cfg.GetTimingConfig().ProbeTimeout
	}
	return nil
}

func (o *options) layout() playlist.Layout {
	return playlist.Layout{Dir: o.soundsDir, Effects: o.effects}
}

func newCensusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "census",
		Short: "Count the background tracks on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prober, err := probe.New(opts.baseURL, opts.timeout)
			if err != nil {
				return err
			}
			return runCensus(cmd.Context(), cmd.OutOrStdout(), prober, opts.layout(), opts.limit)
		},
	}
}

func runCensus(ctx context.Context, out io.Writer, prober probe.Interface, layout playlist.Layout, limit int) error {
	c := census.New(prober, layout, limit)
	n, err := c.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Background tracks: %d (probed 1..%d)\n", n, c.Limit())
	for i := 1; i <= n; i++ {
		fmt.Fprintf(out, "  %s\n", layout.BackgroundPath(i))
	}
	return nil
}

func newScanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Report the Last-Modified marker of every tracked file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prober, err := probe.New(opts.baseURL, opts.timeout)
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), cmd.OutOrStdout(), prober, opts.layout(), opts.limit)
		},
	}
}

// reloadRecorder collects the reloads a scan asks for instead of doing them.
type reloadRecorder struct {
	mu         sync.Mutex
	background int
	effects    []string
}

func (r *reloadRecorder) ReloadBackground(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.background++
	return nil
}

func (r *reloadRecorder) ReloadEffect(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, name)
	return nil
}

// runScan counts the tracks and then runs one change scan against an empty
// session, so every reachable file is reported with its marker.
func runScan(ctx context.Context, out io.Writer, prober probe.Interface, layout playlist.Layout, limit int) error {
	session := state.NewSession(state.NewMemory())
	defer session.Close()

	rotation := playlist.NewRotation(playlist.DefaultMaxIndex)
	if _, err := census.New(prober, layout, limit).Run(ctx, rotation, session); err != nil {
		return err
	}

	rec := &reloadRecorder{}
	detector := freshness.New(freshness.Config{
		Prober:   prober,
		Layout:   layout,
		Rotation: rotation,
		Session:  session,
		Reloader: rec,
	})
	changes := detector.Scan(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	reported := make(map[string]freshness.Change, len(changes))
	for _, c := range changes {
		reported[c.Path] = c
	}

	fmt.Fprintf(out, "Tracked files (%d background tracks):\n", rotation.Max())
	for _, p := range detector.TrackedPaths() {
		c, ok := reported[p]
		if !ok {
			fmt.Fprintf(out, "  %-40s  unavailable\n", p)
			continue
		}
		fmt.Fprintf(out, "  %-40s  %s\n", p, c.Current)
	}

	sort.Strings(rec.effects)
	fmt.Fprintf(out, "Reloads on first scan: background=%d effects=%v\n", rec.background, rec.effects)
	if len(changes) == 0 {
		return errors.New("no tracked file reported a Last-Modified header")
	}
	return nil
}
