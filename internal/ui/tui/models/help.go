package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	kb "github.com/PizzaHomicide/omniplayer/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel displays contextual help with scrolling
type HelpModel struct {
	width, height int
	context       View
	viewport      viewport.Model
}

// NewHelpModel creates a new help model for the given context
func NewHelpModel(context View) *HelpModel {
	return &HelpModel{
		context:  context,
		viewport: viewport.New(0, 0),
	}
}

// SetContext switches the view the help describes
func (m *HelpModel) SetContext(context View) {
	m.context = context
	m.updateContent()
}

func (m *HelpModel) Init() tea.Cmd {
	if m.width > 0 && m.height > 0 {
		m.updateContent()
	}
	return nil
}

func (m *HelpModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
		}
	}
	return m, cmd
}

func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// Account for borders, header and footer
	m.viewport.Width = max(width-4, 1)
	m.viewport.Height = max(height-10, 1)

	m.updateContent()
}

func (m *HelpModel) updateContent() {
	m.viewport.SetContent(m.generateHelpContent())
	m.viewport.GotoTop()
}

func (m *HelpModel) View() string {
	header := styles.Header(m.width, "Help: "+m.contextTitle())

	scrollText := "↑/↓: Scroll • PgUp/PgDn: Page scroll • Home/End: Goto top/bottom • ESC: Return"
	footer := styles.CenteredText(m.width, styles.Info.Render(scrollText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		styles.ContentBox(m.width-2, m.viewport.View(), 1),
		"",
		footer,
	)
}

func (m *HelpModel) contextTitle() string {
	switch m.context {
	case ViewSourceList:
		return "Source List"
	case ViewURLInput:
		return "Open URL"
	default:
		return "Now Playing"
	}
}

func (m *HelpModel) contextName() kb.ContextName {
	switch m.context {
	case ViewSourceList:
		return kb.ContextSourceList
	case ViewURLInput:
		return kb.ContextURLInput
	default:
		return kb.ContextPlayer
	}
}

// formatKeybindingSection formats a section of keybindings with aligned colons
func (m *HelpModel) formatKeybindingSection(title string, bindings []kb.Binding, skipActions map[kb.Action]bool) string {
	if len(bindings) == 0 {
		return ""
	}

	keyText := func(b kb.Binding) string {
		text := kb.DisplayKey(b.KeyMap.Primary)
		if b.KeyMap.Secondary != "" {
			text += " or " + kb.DisplayKey(b.KeyMap.Secondary)
		}
		return text
	}

	maxKeyWidth := 0
	for _, binding := range bindings {
		if skipActions[binding.Action] {
			continue
		}
		maxKeyWidth = max(maxKeyWidth, utf8.RuneCountInString(keyText(binding)))
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")
	for _, binding := range bindings {
		if skipActions[binding.Action] {
			continue
		}
		text := keyText(binding)
		padding := strings.Repeat(" ", maxKeyWidth-utf8.RuneCountInString(text))
		fmt.Fprintf(&b, "• %s%s : %s\n", lipgloss.NewStyle().Bold(true).Render(text), padding, binding.KeyMap.Help)
	}
	return b.String()
}

func (m *HelpModel) generateHelpContent() string {
	var b strings.Builder

	b.WriteString(styles.Section.Render(m.contextTitle()))
	b.WriteString("\n\n")
	b.WriteString(m.contextDescription())
	b.WriteString("\n\n")

	b.WriteString(styles.Section.Render("Keybindings"))
	b.WriteString("\n\n")
	b.WriteString(m.formatKeybindingSection("Global commands:", kb.ContextBindings[kb.ContextGlobal], nil))

	globalActions := make(map[kb.Action]bool)
	for _, binding := range kb.ContextBindings[kb.ContextGlobal] {
		globalActions[binding.Action] = true
	}

	b.WriteString("\n")
	b.WriteString(m.formatKeybindingSection(m.contextTitle()+" commands:", kb.ContextBindings[m.contextName()], globalActions))

	if m.context == ViewSourceList {
		b.WriteString("\n")
		b.WriteString(m.formatKeybindingSection("When in search mode:", kb.ContextBindings[kb.ContextSearchMode], nil))
	}

	if m.context == ViewNowPlaying {
		b.WriteString("\n")
		b.WriteString(m.backendDetails())
	}

	return b.String()
}

func (m *HelpModel) backendDetails() string {
	var b strings.Builder
	b.WriteString(styles.Section.Render("Backends"))
	b.WriteString("\n\n")
	b.WriteString("• youtube    : youtube.com and youtu.be videos and playlists\n")
	b.WriteString("• soundcloud : soundcloud.com tracks\n")
	b.WriteString("• vimeo      : vimeo.com videos\n")
	b.WriteString("• file       : direct media URLs and local files\n\n")
	b.WriteString("Any other web URL is probed, and played as a file when it serves audio or video.\n")
	b.WriteString("A start offset such as #t=1m30s or ?start=90 is honoured for every backend.\n")
	return b.String()
}

func (m *HelpModel) contextDescription() string {
	switch m.context {
	case ViewSourceList:
		return "The source list shows every URL given on the command line or opened since.\n\n" +
			"The source marked ▶ is the one mounted. Select another to switch to it; the previous one is torn down first."
	case ViewURLInput:
		return "Type or paste a URL and press enter to play it. It is appended to the source list.\n\n" +
			"The backend that will play it is shown as you type."
	default:
		return "The now playing screen shows the mounted source and its playback state.\n\n" +
			"Every backend reports the same events: play, pause, buffer, progress, duration, ended and error. " +
			"When a source ends, the next one in the list starts."
	}
}
