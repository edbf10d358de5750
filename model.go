package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/app"
	"github.com/llehouerou/soundloader/internal/errmsg"
	"github.com/llehouerou/soundloader/internal/keymap"
	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/player"
	"github.com/llehouerou/soundloader/internal/playlist"
	"github.com/llehouerou/soundloader/internal/ui/styles"
)

var (
	keys     = keymap.NewResolver(keymap.All)
	helpText = keymap.Summary(keymap.All)
)

type (
	tickMsg       time.Time
	eventMsg      struct{ event any }
	stderrMsg     string
	reloadDoneMsg struct {
		op  errmsg.Op
		err error
	}
)

type model struct {
	ctx      context.Context
	app      *app.App
	sub      *playback.Subscription
	captured <-chan string

	notice      string
	noticeUntil time.Time
	errMsg      string
	width       int
}

func newModel(ctx context.Context, a *app.App, captured <-chan string) model {
	return model{
		ctx:      ctx,
		app:      a,
		sub:      a.Subscribe(),
		captured: captured,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForEvent(m.sub), waitForStderr(m.captured))
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks until the subscription delivers something.
func waitForEvent(sub *playback.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-sub.BackgroundChanged:
			return eventMsg{e}
		case e := <-sub.EffectReloaded:
			return eventMsg{e}
		case e := <-sub.Notice:
			return eventMsg{e}
		case e := <-sub.Error:
			return eventMsg{e}
		case <-sub.Done:
			return nil
		}
	}
}

func waitForStderr(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return nil
		}
		return stderrMsg(line)
	}
}

func (m model) reload(op errmsg.Op, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return reloadDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		if !m.noticeUntil.IsZero() && time.Time(msg).After(m.noticeUntil) {
			m.notice = ""
			m.noticeUntil = time.Time{}
		}
		return m, tickCmd()

	case eventMsg:
		m = m.handleEvent(msg.event)
		return m, waitForEvent(m.sub)

	case stderrMsg:
		log.Debug().Str("line", string(msg)).Msg("audio backend stderr")
		m.errMsg = string(msg)
		return m, waitForStderr(m.captured)

	case reloadDoneMsg:
		if msg.err != nil {
			m.errMsg = errmsg.Format(msg.op, msg.err)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleEvent(event any) model {
	switch e := event.(type) {
	case playback.Notice:
		m.notice = e.Message
		m.noticeUntil = time.Now().Add(e.Duration)
	case playback.ErrorEvent:
		m.errMsg = errmsg.FormatWith(e.Operation, e.Path, e.Err)
	case playback.BackgroundChange:
		if e.Current != nil && !e.Current.Fallback {
			m.errMsg = ""
		}
	case playback.EffectReload:
		log.Debug().Str("effect", e.Name).Msg("effect entry replaced")
	}
	return m
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch keys.Resolve(key) {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionManualReload:
		return m, m.reload(errmsg.OpBackgroundReload, m.app.ManualReload)
	case keymap.ActionNextTrack:
		m.app.Rotation().Advance()
		return m, m.reload(errmsg.OpBackgroundReload, m.app.ReloadBackgroundMusic)
	case keymap.ActionToggleMusic:
		m.app.ToggleBackgroundMusic()
	case keymap.ActionToggleGame:
		m.app.SetGameActive(!m.app.Signals().GameActive())
	case keymap.ActionToggleVisible:
		m.app.SetVisible(!m.app.Signals().Visible())
	case keymap.ActionPlayShoot:
		m.playEffect(playlist.EffectShoot)
	case keymap.ActionPlayExplosion:
		m.playEffect(playlist.EffectExplosion)
	case keymap.ActionPlaySentence:
		m.playSentence(int(key[0] - '1'))
	}
	return m, nil
}

func (m *model) playEffect(name string) {
	h, ok := m.app.Playback().Effect(name)
	if !ok {
		return
	}
	if err := h.Play(); err != nil {
		m.errMsg = errmsg.FormatWith(errmsg.OpEffectPlay, name, err)
	}
}

func (m *model) playSentence(index int) {
	h := m.app.LoadSentence(index)
	h.OnEnded(func() { go h.Stop() })
	if err := h.Play(); err != nil {
		m.errMsg = errmsg.Format(errmsg.OpSentenceLoad, err)
		h.Stop()
	}
}

func (m model) View() string {
	var b strings.Builder
	th := styles.T()
	b.WriteString(th.Title("Soundloader") + "\n\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf(" Effects: %s\n", strings.Join(m.app.Playback().EffectNames(), ", ")))
	b.WriteString(fmt.Sprintf(" Game: %s  Page: %s  Muted: %t\n",
		onOff(m.app.Signals().GameActive(), "running", "stopped"),
		onOff(m.app.Signals().Visible(), "visible", "hidden"),
		m.app.Muted()))

	if m.notice != "" {
		b.WriteString("\n" + th.S().Notice.Render(m.notice) + "\n")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + th.S().Error.Render(m.errMsg) + "\n")
	}
	b.WriteString("\n" + th.S().Muted.Render(helpText))
	return b.String()
}

func (m model) statusLine() string {
	svc := m.app.Playback()
	track := svc.CurrentTrack()

	var content string
	switch {
	case track == nil:
		content = " No background track loaded"
	default:
		content = fmt.Sprintf(" %s  Track %d/%d  %s",
			renderIcon(svc.State()), track.Index, m.app.Rotation().Max(), track.Path)
		if track.Fallback {
			content += "  " + styles.T().S().Fallback.Render("(fallback)")
		}
		if s, ok := svc.Background().(*player.Stream); ok {
			n, total := s.Buffered()
			if total > 0 {
				content += fmt.Sprintf("  %s / %s", humanize.Bytes(uint64(n)), humanize.Bytes(uint64(total))) //nolint:gosec // sizes are non-negative
			} else {
				content += "  " + humanize.Bytes(uint64(n)) //nolint:gosec // size is non-negative
			}
		}
	}

	width := max(m.width-2, lipgloss.Width(content))
	return styles.T().StatusPanel(m.app.Signals().GameActive()).Width(width).Render(content)
}

func renderIcon(s playback.State) string {
	if s == playback.StatePlaying {
		return styles.T().S().Playing.Render(stateIcon(s))
	}
	return stateIcon(s)
}

func stateIcon(s playback.State) string {
	switch s {
	case playback.StatePlaying:
		return "▶"
	case playback.StatePaused:
		return "⏸"
	default:
		return "■"
	}
}

func onOff(v bool, on, off string) string {
	if v {
		return on
	}
	return off
}
