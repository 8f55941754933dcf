package models

import (
	"strings"

	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/omniplayer/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// URLInputModel is the open URL prompt.  It previews which backend the typed URL would be played by.
type URLInputModel struct {
	width, height int
	input         textinput.Model
}

// NewURLInputModel creates an empty prompt
func NewURLInputModel() *URLInputModel {
	input := textinput.New()
	input.Placeholder = "https://www.youtube.com/watch?v=..."
	input.Prompt = "URL: "
	input.CharLimit = 2048

	return &URLInputModel{input: input}
}

// Open clears and focuses the prompt
func (m *URLInputModel) Open() tea.Cmd {
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *URLInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *URLInputModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch kb.GetActionByKey(keyMsg, kb.ContextURLInput) {
		case kb.ActionSubmitURL:
			url := strings.TrimSpace(m.input.Value())
			if url == "" {
				return m, Handled("url_input:empty")
			}
			m.input.Blur()
			return m, func() tea.Msg { return URLSubmittedMsg{URL: url} }
		case kb.ActionBack:
			m.input.Blur()
			return m, func() tea.Msg { return CloseModalMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *URLInputModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-16, 10)
}

func (m *URLInputModel) View() string {
	header := styles.Header(m.width, "Open URL")

	preview := "backend: -"
	if v := strings.TrimSpace(m.input.Value()); v != "" {
		kind := source.Match(v)
		if kind == source.KindUnsupported && source.IsWebURL(v) {
			preview = "backend: file (probed when loaded)"
		} else {
			preview = "backend: " + string(kind)
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left, m.input.View(), "", styles.Muted.Render(preview))
	footer := components.ContextBar(m.width, kb.ContextURLInput, []components.ActionLabel{
		{Action: kb.ActionSubmitURL, Label: "Play"},
		{Action: kb.ActionBack, Label: "Cancel"},
	})
	return lipgloss.JoinVertical(lipgloss.Left, header, "", styles.ContentBox(m.width-2, body, 1), "", footer)
}
