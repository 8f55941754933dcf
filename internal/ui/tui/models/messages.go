package models

import (
	"github.com/PizzaHomicide/omniplayer/internal/player"
	tea "github.com/charmbracelet/bubbletea"
)

// PlayerEventMsg carries one canonical event from the player
type PlayerEventMsg struct {
	Event player.Event
}

// PlayerClosedMsg is sent once the player's event channel has been closed
type PlayerClosedMsg struct{}

// SourceSelectedMsg is sent when a source is picked from the source list
type SourceSelectedMsg struct {
	Index int
}

// URLSubmittedMsg is sent when a URL is entered in the open URL prompt
type URLSubmittedMsg struct {
	URL string
}

// ControlErrorMsg is sent when a control call on the player is rejected
type ControlErrorMsg struct {
	Action string
	Error  error
}

// CloseModalMsg asks the app to return to the main view
type CloseModalMsg struct{}

// HandledMsg marks a key as consumed by a child model.  Reason is only used for logging.
type HandledMsg struct {
	Reason string
}

// Handled returns a command reporting that a child model consumed a message
func Handled(reason string) tea.Cmd {
	return func() tea.Msg {
		return HandledMsg{Reason: reason}
	}
}

// waitForEvent blocks on the next player event
func waitForEvent(events <-chan player.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return PlayerClosedMsg{}
		}
		return PlayerEventMsg{Event: ev}
	}
}
