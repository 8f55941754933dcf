package components

import (
	"fmt"
	"strings"

	kb "github.com/PizzaHomicide/omniplayer/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// KeyBinding represents a single key and its description for the keybinding bar
type KeyBinding struct {
	Key  string
	Desc string
}

// keyStyle is used to highlight keyboard shortcuts in UI
var keyStyle = lipgloss.NewStyle().
	Foreground(styles.Accent).
	Bold(true)

// KeyBindingsBar creates a styled footer showing a set of keybindings, centred on a screen of the given width
func KeyBindingsBar(width int, bindings []KeyBinding) string {
	var parts []string
	for _, b := range bindings {
		parts = append(parts, fmt.Sprintf("%s: %s",
			keyStyle.Render(b.Key),
			b.Desc))
	}

	keyBar := styles.Info.Render(strings.Join(parts, " • "))
	return styles.CenteredText(width, keyBar)
}

// ContextBar builds a footer for the named actions of a keybinding context, using each action's primary key and a
// short label.  Actions the context does not bind are skipped.
func ContextBar(width int, context kb.ContextName, labels []ActionLabel) string {
	bindings := kb.ContextBindings[context]
	var out []KeyBinding
	for _, l := range labels {
		key := kb.GetActionKey(l.Action, bindings)
		if key == "" {
			continue
		}
		out = append(out, KeyBinding{Key: kb.DisplayKey(key), Desc: l.Label})
	}
	return KeyBindingsBar(width, out)
}

// ActionLabel pairs an action with the short text shown for it in a footer
type ActionLabel struct {
	Action kb.Action
	Label  string
}
