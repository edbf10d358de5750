package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/app"
	"github.com/llehouerou/soundloader/internal/config"
	"github.com/llehouerou/soundloader/internal/errmsg"
	"github.com/llehouerou/soundloader/internal/mpris"
	"github.com/llehouerou/soundloader/internal/notify"
	"github.com/llehouerou/soundloader/internal/stderr"
)

const logFileName = "soundloader.log"

// setupLogging sends zerolog output to a file in the XDG state directory,
// since the terminal belongs to the UI.
func setupLogging(level string) (*os.File, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	path, err := xdg.StateFile(filepath.Join("soundloader", logFileName))
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
	return f, nil
}

// muteControl is the host volume control the toggle entry point delegates to.
type muteControl struct {
	app *app.App
}

func (c muteControl) ToggleMute() {
	c.app.SetMuted(!c.app.Muted())
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := setupLogging(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	captured, err := stderr.Start()
	if err != nil {
		log.Warn().Err(err).Msg("stderr capture unavailable")
	}
	defer stderr.Stop()

	notifier, err := notify.New()
	if err != nil {
		log.Debug().Err(err).Msg("desktop notifications unavailable")
		notifier = nil
	}

	a, err := app.New(cfg, app.Deps{Notifier: notifier})
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()
	a.SetVolumeControl(muteControl{app: a})
	a.Start()

	media, err := mpris.New(a)
	if err != nil {
		log.Warn().Err(err).Msg("media controls unavailable")
	} else {
		defer media.Close()
	}

	m := newModel(context.Background(), a, captured)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func main() {
	if err := run(); err != nil {
		stderr.WriteOriginal(fmt.Sprintf("Error: %v\n", err))
		os.Exit(1)
	}
}
