package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PizzaHomicide/omniplayer/internal/player"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/omniplayer/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/styles"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Playback states shown in the now playing view
const (
	StateIdle      = "idle"
	StateLoading   = "loading"
	StatePlaying   = "playing"
	StatePaused    = "paused"
	StateBuffering = "buffering"
	StateEnded     = "ended"
	StateError     = "error"
)

// NowPlayingModel renders the mounted source and its playback state, built purely from player events
type NowPlayingModel struct {
	width, height int
	url           string
	backend       source.Kind
	position      int // 1-based index in the source list
	total         int
	state         string
	duration      float64
	progress      player.Progress
	volume        float64
	muted         bool
	err           error
	notice        string
	spinner       spinner.Model
	bar           progress.Model
}

// NewNowPlayingModel creates an idle now playing view
func NewNowPlayingModel(volume float64) *NowPlayingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Accent)

	return &NowPlayingModel{
		state:   StateIdle,
		volume:  volume,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m *NowPlayingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles spinner ticks.  Player events are applied through Apply so the app can react to them as well.
func (m *NowPlayingModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Reset starts tracking a newly mounted source
func (m *NowPlayingModel) Reset(url string, position, total int) {
	m.url = url
	m.backend = source.Match(url)
	m.position = position
	m.total = total
	m.state = StateLoading
	m.duration = 0
	m.progress = player.Progress{}
	m.err = nil
	m.notice = ""
}

// Apply folds one canonical event into the view state
func (m *NowPlayingModel) Apply(ev player.Event) {
	if ev.Backend != "" {
		m.backend = ev.Backend
	}
	switch ev.Type {
	case player.EventPlay:
		m.state = StatePlaying
	case player.EventPause:
		m.state = StatePaused
	case player.EventBuffer:
		m.state = StateBuffering
	case player.EventEnded:
		m.state = StateEnded
	case player.EventError:
		m.state = StateError
		m.err = ev.Err
	case player.EventDuration:
		m.duration = ev.Duration
	case player.EventProgress:
		m.progress = ev.Progress
	}
}

// State returns the current playback state
func (m *NowPlayingModel) State() string {
	return m.state
}

// Playing reports whether the last state change left the media playing or about to resume
func (m *NowPlayingModel) Playing() bool {
	return m.state == StatePlaying || m.state == StateBuffering
}

// Volume returns the level the user last asked for, ignoring mute
func (m *NowPlayingModel) Volume() float64 {
	return m.volume
}

// EffectiveVolume is the level the engine should be at
func (m *NowPlayingModel) EffectiveVolume() float64 {
	if m.muted {
		return 0
	}
	return m.volume
}

// AdjustVolume changes the volume by delta, unmuting, and returns the new effective level
func (m *NowPlayingModel) AdjustVolume(delta float64) float64 {
	m.muted = false
	m.volume = min(max(m.volume+delta, 0), 1)
	return m.volume
}

// ToggleMute flips mute and returns the new effective level
func (m *NowPlayingModel) ToggleMute() float64 {
	m.muted = !m.muted
	return m.EffectiveVolume()
}

// SetNotice shows a one line message under the progress bar until the next source is mounted
func (m *NowPlayingModel) SetNotice(notice string) {
	m.notice = notice
}

func (m *NowPlayingModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = max(width-12, 10)
}

func (m *NowPlayingModel) View() string {
	header := styles.Header(m.width, "omniplayer")

	if m.url == "" {
		body := styles.Muted.Render("Nothing loaded. Press u to open a URL.")
		return lipgloss.JoinVertical(lipgloss.Left, header, "", styles.ContentBox(m.width-2, body, 1), "", m.footer())
	}

	var b strings.Builder
	b.WriteString(styles.Url.Render(util.TruncateString(m.url, max(m.width-8, 10))))
	b.WriteString("\n")
	meta := fmt.Sprintf("%s • source %d of %d", m.backend, m.position, m.total)
	b.WriteString(styles.Muted.Render(meta))
	b.WriteString("\n\n")

	state := styles.StateBadge(m.state)
	if m.state == StateLoading || m.state == StateBuffering {
		state = m.spinner.View() + " " + state
	}
	b.WriteString(state)
	b.WriteString("  ")
	b.WriteString(styles.Info.Render(util.FormatPosition(m.progress.PlayedSeconds, m.duration)))
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(m.progress.Played))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(fmt.Sprintf("loaded %3.0f%%", m.progress.Loaded*100)))
	b.WriteString("\n\n")

	volume := fmt.Sprintf("volume %3.0f%%", m.volume*100)
	if m.muted {
		volume += " (muted)"
	}
	b.WriteString(styles.Info.Render(volume))

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.Error.Render(describeError(m.err)))
	}
	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.Muted.Render(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		styles.ContentBox(m.width-2, b.String(), 1),
		"",
		m.footer(),
	)
}

func (m *NowPlayingModel) footer() string {
	return components.ContextBar(m.width, kb.ContextPlayer, []components.ActionLabel{
		{Action: kb.ActionTogglePlay, Label: "Play/pause"},
		{Action: kb.ActionSeekForward, Label: "Seek"},
		{Action: kb.ActionVolumeUp, Label: "Volume"},
		{Action: kb.ActionNextSource, Label: "Next"},
		{Action: kb.ActionOpenURL, Label: "Open URL"},
		{Action: kb.ActionOpenSources, Label: "Sources"},
		{Action: kb.ActionToggleHelp, Label: "Help"},
	})
}

// describeError renders an error event for the user, leading with its kind
func describeError(err error) string {
	var perr *player.Error
	if !errors.As(err, &perr) {
		return "error: " + err.Error()
	}
	switch perr.Kind {
	case player.ErrorUnsupportedSource:
		return "Unsupported source: " + err.Error()
	case player.ErrorBackendLoad:
		return "Could not load media: " + err.Error()
	default:
		return "Playback failed: " + err.Error()
	}
}
