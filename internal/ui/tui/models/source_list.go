package models

import (
	"fmt"
	"strings"

	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/omniplayer/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/styles"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// sourceEntry is one row of the list, remembering its index in the unfiltered source list
type sourceEntry struct {
	index int
	url   string
	kind  source.Kind
}

// SourceListModel lets the user pick a source to play, with an optional fuzzy filter
type SourceListModel struct {
	width, height  int
	entries        []sourceEntry
	filtered       []sourceEntry
	current        int
	cursor         int
	viewportOffset int
	searchInput    textinput.Model
	searchMode     bool
}

// NewSourceListModel creates an empty source list
func NewSourceListModel() *SourceListModel {
	input := textinput.New()
	input.Placeholder = "Filter sources..."
	input.Width = 30

	return &SourceListModel{searchInput: input}
}

// SetSources replaces the listed sources and moves the cursor onto the one currently playing
func (m *SourceListModel) SetSources(urls []string, current int) {
	m.entries = make([]sourceEntry, len(urls))
	for i, u := range urls {
		m.entries[i] = sourceEntry{index: i, url: u, kind: source.Match(u)}
	}
	m.current = current
	m.applyFilter()
	for i, e := range m.filtered {
		if e.index == current {
			m.cursor = i
		}
	}
	m.ensureCursorVisible()
}

// Selected returns the source list index under the cursor, or -1 when nothing matches the filter
func (m *SourceListModel) Selected() int {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return -1
	}
	return m.filtered[m.cursor].index
}

// Searching reports whether keystrokes are going to the filter input
func (m *SourceListModel) Searching() bool {
	return m.searchMode
}

func (m *SourceListModel) Init() tea.Cmd {
	return nil
}

func (m *SourceListModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.searchMode {
		return m, m.handleSearchModeKeyMsg(keyMsg)
	}
	return m, m.handleKeyMsg(keyMsg)
}

func (m *SourceListModel) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextSourceList) {
	case kb.ActionSelectSource:
		idx := m.Selected()
		if idx < 0 {
			return Handled("source_list:empty_selection")
		}
		return func() tea.Msg { return SourceSelectedMsg{Index: idx} }
	case kb.ActionEnableSearch:
		m.searchMode = true
		m.searchInput.Focus()
		return Handled("search:enable")
	case kb.ActionMoveDown:
		m.moveCursor(1)
		return Handled("cursor_move:down")
	case kb.ActionMoveUp:
		m.moveCursor(-1)
		return Handled("cursor_move:up")
	case kb.ActionPageDown:
		m.moveCursor(m.pageSize())
		return Handled("cursor_move:pgdown")
	case kb.ActionPageUp:
		m.moveCursor(-m.pageSize())
		return Handled("cursor_move:pgup")
	case kb.ActionMoveTop:
		m.moveCursor(-len(m.filtered))
		return Handled("cursor_move:top")
	case kb.ActionMoveBottom:
		m.moveCursor(len(m.filtered))
		return Handled("cursor_move:bottom")
	}
	return nil
}

func (m *SourceListModel) handleSearchModeKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextSearchMode) {
	case kb.ActionBack:
		// Cancels search, clearing the filter
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.applyFilter()
		return Handled("search:exit")
	case kb.ActionSearchComplete:
		m.searchMode = false
		m.searchInput.Blur()
		m.applyFilter()
		return Handled("search:apply")
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applyFilter()
	if cmd == nil {
		cmd = Handled("search:input")
	}
	return cmd
}

// applyFilter fuzzy matches the search input against each source's URL and backend
func (m *SourceListModel) applyFilter() {
	query := strings.TrimSpace(m.searchInput.Value())
	if query == "" {
		m.filtered = m.entries
	} else {
		m.filtered = nil
		for _, e := range m.entries {
			if fuzzy.MatchFold(query, e.url) || fuzzy.MatchFold(query, string(e.kind)) {
				m.filtered = append(m.filtered, e)
			}
		}
	}
	m.ensureCursorVisible()
}

func (m *SourceListModel) moveCursor(delta int) {
	m.cursor += delta
	m.ensureCursorVisible()
}

func (m *SourceListModel) pageSize() int {
	return max(m.height-11, 1)
}

// ensureCursorVisible clamps the cursor and scrolls the list so the cursor stays on screen
func (m *SourceListModel) ensureCursorVisible() {
	if len(m.filtered) == 0 {
		m.cursor = 0
		m.viewportOffset = 0
		return
	}
	m.cursor = min(max(m.cursor, 0), len(m.filtered)-1)

	visible := m.visibleCount()
	if m.cursor < m.viewportOffset {
		m.viewportOffset = m.cursor
	}
	if m.cursor >= m.viewportOffset+visible {
		m.viewportOffset = m.cursor - visible + 1
	}
	m.viewportOffset = min(m.viewportOffset, max(len(m.filtered)-visible, 0))
}

func (m *SourceListModel) visibleCount() int {
	return max(m.height-10, 1)
}

func (m *SourceListModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.ensureCursorVisible()
}

func (m *SourceListModel) View() string {
	header := styles.Header(m.width, fmt.Sprintf("Sources (%d)", len(m.entries)))
	content := m.renderList()

	if m.searchMode || m.searchInput.Value() != "" {
		searchPrompt := styles.Title.Render("Search: ") + m.searchInput.View()
		content = lipgloss.JoinVertical(lipgloss.Left, searchPrompt, content)
	}

	footer := components.ContextBar(m.width, kb.ContextSourceList, []components.ActionLabel{
		{Action: kb.ActionMoveDown, Label: "Navigate"},
		{Action: kb.ActionSelectSource, Label: "Play"},
		{Action: kb.ActionEnableSearch, Label: "Search"},
	})
	return lipgloss.JoinVertical(lipgloss.Left, header, "", content, "", footer)
}

func (m *SourceListModel) renderList() string {
	if len(m.filtered) == 0 {
		if m.searchInput.Value() != "" {
			return styles.CenteredText(m.width, "No sources match your filter")
		}
		return styles.CenteredText(m.width, "No sources")
	}

	rowWidth := max(m.width-8, 20)
	end := min(m.viewportOffset+m.visibleCount(), len(m.filtered))

	var b strings.Builder
	for i := m.viewportOffset; i < end; i++ {
		e := m.filtered[i]
		marker := "  "
		if e.index == m.current {
			marker = "▶ "
		}
		row := fmt.Sprintf("%s%3d  %-10s %s", marker, e.index+1, e.kind, e.url)
		row = util.PadRight(row, rowWidth)
		if i == m.cursor {
			b.WriteString(styles.Selected.Render(row))
		} else {
			b.WriteString(styles.Item.Render(row))
		}
		b.WriteString("\n")
	}
	if len(m.filtered) > end-m.viewportOffset {
		b.WriteString(styles.CenteredText(rowWidth, fmt.Sprintf("Showing %d-%d of %d", m.viewportOffset+1, end, len(m.filtered))))
	}
	return styles.ContentBox(m.width-2, b.String(), 1)
}
