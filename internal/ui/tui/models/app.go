package models

import (
	"context"
	"errors"
	"slices"

	"github.com/PizzaHomicide/omniplayer/internal/log"
	"github.com/PizzaHomicide/omniplayer/internal/player"
	kb "github.com/PizzaHomicide/omniplayer/internal/ui/tui/keybindings"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

const (
	seekShort  = 5.0
	seekLong   = 30.0
	volumeStep = 0.05
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper around
// one player: it owns the source list, turns keys into control calls and feeds player events to the views.
type AppModel struct {
	ctx           context.Context
	player        Controller
	sources       []string
	current       int       // Index into sources of the mounted source, -1 when nothing is mounted
	instance      uuid.UUID // Mount the view is tracking.  Events of any other mount are dropped.
	activeModal   Modal     // Track the current active 'modal overlay' if any
	width, height int

	nowPlaying *NowPlayingModel
	sourceList *SourceListModel
	urlInput   *URLInputModel
	helpModel  *HelpModel
}

// NewAppModel creates the app for p.  Nothing is loaded until Init, which mounts the first of sources.
func NewAppModel(ctx context.Context, p Controller, sources []string) AppModel {
	return AppModel{
		ctx:         ctx,
		player:      p,
		sources:     slices.Clone(sources),
		current:     -1,
		activeModal: ModalNone,
		nowPlaying:  NewNowPlayingModel(p.Options().VolumeLevel()),
		sourceList:  NewSourceListModel(),
		urlInput:    NewURLInputModel(),
		helpModel:   NewHelpModel(ViewNowPlaying),
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising omniplayer TUI", "sources", len(m.sources))
	cmds := []tea.Cmd{m.nowPlaying.Init(), waitForEvent(m.player.Events())}
	if len(m.sources) > 0 {
		cmds = append(cmds, func() tea.Msg { return SourceSelectedMsg{Index: 0} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextGlobal) {
		case kb.ActionQuit:
			log.Info("Quit command received.  Shutting down...")
			return m, tea.Quit
		case kb.ActionToggleHelp:
			return m.toggleHelp(), nil
		case kb.ActionBack:
			// Search mode in the source list consumes esc itself
			if m.activeModal != ModalNone && !(m.activeModal == ModalSources && m.sourceList.Searching()) {
				m.activeModal = ModalNone
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		m.nowPlaying.Resize(msg.Width, msg.Height)
		m.sourceList.Resize(msg.Width, msg.Height)
		m.urlInput.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		_, cmd := m.nowPlaying.Update(msg)
		return m, cmd

	case PlayerEventMsg:
		return m.handlePlayerEvent(msg.Event)

	case PlayerClosedMsg:
		log.Info("Player closed, leaving the TUI")
		return m, tea.Quit

	case SourceSelectedMsg:
		m.activeModal = ModalNone
		return m.switchTo(msg.Index), nil

	case URLSubmittedMsg:
		log.Info("URL opened", "url", msg.URL)
		m.sources = append(m.sources, msg.URL)
		m.activeModal = ModalNone
		return m.switchTo(len(m.sources) - 1), nil

	case ControlErrorMsg:
		log.Warn("Player rejected control call", "action", msg.Action, "error", msg.Error)
		if !errors.Is(msg.Error, player.ErrNotReady) {
			m.nowPlaying.SetNotice(msg.Action + ": " + msg.Error.Error())
		}
		return m, nil

	case CloseModalMsg:
		m.activeModal = ModalNone
		return m, nil

	case HandledMsg:
		log.Trace("Message handled by child model", "reason", msg.Reason)
		return m, nil
	}

	// Prioritise delegating messages to a modal if one is active
	switch m.activeModal {
	case ModalHelp:
		_, cmd := m.helpModel.Update(msg)
		return m, cmd
	case ModalSources:
		_, cmd := m.sourceList.Update(msg)
		return m, cmd
	case ModalURL:
		_, cmd := m.urlInput.Update(msg)
		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return m.handlePlayerKey(keyMsg)
	}
	return m, nil
}

func (m AppModel) View() string {
	switch m.activeModal {
	case ModalHelp:
		return m.helpModel.View()
	case ModalSources:
		return m.sourceList.View()
	case ModalURL:
		return m.urlInput.View()
	}
	return m.nowPlaying.View()
}

// Sources returns the current source list
func (m AppModel) Sources() []string {
	return slices.Clone(m.sources)
}

// Current returns the index of the mounted source, or -1
func (m AppModel) Current() int {
	return m.current
}

// NowPlaying exposes the now playing view state
func (m AppModel) NowPlaying() *NowPlayingModel {
	return m.nowPlaying
}

// ActiveModal returns the modal currently shown
func (m AppModel) ActiveModal() Modal {
	return m.activeModal
}

func (m AppModel) handlePlayerEvent(ev player.Event) (tea.Model, tea.Cmd) {
	next := waitForEvent(m.player.Events())
	if ev.Instance != m.instance {
		log.Debug("Dropping event of a replaced source", "type", string(ev.Type), "instance", ev.Instance.String())
		return m, next
	}

	m.nowPlaying.Apply(ev)
	switch ev.Type {
	case player.EventError:
		log.Warn("Playback error", "backend", string(ev.Backend), "kind", string(player.ErrorKindOf(ev.Err)), "error", ev.Err)
	case player.EventEnded:
		log.Info("Playback ended", "backend", string(ev.Backend), "index", m.current)
		if m.current+1 < len(m.sources) {
			return m.switchTo(m.current + 1), next
		}
	}
	return m, next
}

func (m AppModel) handlePlayerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kb.GetActionByKey(msg, kb.ContextPlayer) {
	case kb.ActionQuit:
		log.Info("Quit command received.  Shutting down...")
		return m, tea.Quit
	case kb.ActionToggleHelp:
		return m.toggleHelp(), nil
	case kb.ActionTogglePlay:
		if m.nowPlaying.State() == StateEnded || m.nowPlaying.State() == StateError {
			if m.current >= 0 {
				return m.switchTo(m.current), nil
			}
			return m, nil
		}
		return m, m.control("play/pause", func() error { return m.player.SetPlaying(!m.nowPlaying.Playing()) })
	case kb.ActionSeekBack:
		return m, m.seekBy(-seekShort)
	case kb.ActionSeekForward:
		return m, m.seekBy(seekShort)
	case kb.ActionSeekBackLong:
		return m, m.seekBy(-seekLong)
	case kb.ActionSeekForwardLong:
		return m, m.seekBy(seekLong)
	case kb.ActionRestart:
		return m, m.control("seek", func() error { return m.player.SeekTo(0, player.SeekSeconds) })
	case kb.ActionVolumeUp:
		level := m.nowPlaying.AdjustVolume(volumeStep)
		return m, m.control("volume", func() error { return m.player.SetVolume(level) })
	case kb.ActionVolumeDown:
		level := m.nowPlaying.AdjustVolume(-volumeStep)
		return m, m.control("volume", func() error { return m.player.SetVolume(level) })
	case kb.ActionToggleMute:
		level := m.nowPlaying.ToggleMute()
		return m, m.control("mute", func() error { return m.player.SetVolume(level) })
	case kb.ActionNextSource:
		if m.current+1 < len(m.sources) {
			return m.switchTo(m.current + 1), nil
		}
	case kb.ActionPrevSource:
		if m.current > 0 {
			return m.switchTo(m.current - 1), nil
		}
	case kb.ActionOpenURL:
		m.activeModal = ModalURL
		return m, m.urlInput.Open()
	case kb.ActionOpenSources:
		m.sourceList.SetSources(m.sources, m.current)
		m.activeModal = ModalSources
		return m, nil
	}
	return m, nil
}

// switchTo mounts sources[index].  Load replaces the previous mount before returning, so from here on only events
// carrying the new instance are applied.  Play state and volume carry over, as the player keeps them in its options.
func (m AppModel) switchTo(index int) AppModel {
	if index < 0 || index >= len(m.sources) {
		return m
	}
	url := m.sources[index]
	log.Info("Switching source", "index", index, "url", url)

	m.current = index
	m.nowPlaying.Reset(url, index+1, len(m.sources))
	if err := m.player.Load(m.ctx, url); err != nil {
		log.Error("Failed to load source", "url", url, "error", err)
		m.nowPlaying.Apply(player.Event{Type: player.EventError, Err: err})
		m.instance = uuid.Nil
		return m
	}
	m.instance = m.player.Instance()
	return m
}

func (m AppModel) seekBy(delta float64) tea.Cmd {
	target := m.player.CurrentTime() + delta
	if d := m.player.Duration(); d > 0 {
		target = min(target, d)
	}
	target = max(target, 0)
	return m.control("seek", func() error { return m.player.SeekTo(target, player.SeekSeconds) })
}

// control runs a control call off the update loop and reports a rejection back as a message
func (m AppModel) control(action string, call func() error) tea.Cmd {
	return func() tea.Msg {
		if err := call(); err != nil {
			return ControlErrorMsg{Action: action, Error: err}
		}
		return nil
	}
}

func (m AppModel) toggleHelp() AppModel {
	log.Debug("Help requested", "active_modal", m.activeModal)
	if m.activeModal == ModalHelp {
		m.activeModal = ModalNone
		return m
	}
	view := ViewNowPlaying
	switch m.activeModal {
	case ModalSources:
		view = ViewSourceList
	case ModalURL:
		view = ViewURLInput
	}
	m.helpModel.SetContext(view)
	m.activeModal = ModalHelp
	return m
}
