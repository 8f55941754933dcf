package keybindings

import tea "github.com/charmbracelet/bubbletea"

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionToggleHelp Action = "toggle_help"
	ActionBack       Action = "back" // General purpose "go back" or "cancel"

	// Navigation actions
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionPageUp     Action = "page_up"
	ActionPageDown   Action = "page_down"
	ActionMoveTop    Action = "move_top"
	ActionMoveBottom Action = "move_bottom"

	// Player actions
	ActionTogglePlay      Action = "toggle_play"
	ActionSeekBack        Action = "seek_back"
	ActionSeekForward     Action = "seek_forward"
	ActionSeekBackLong    Action = "seek_back_long"
	ActionSeekForwardLong Action = "seek_forward_long"
	ActionRestart         Action = "restart"
	ActionVolumeUp        Action = "volume_up"
	ActionVolumeDown      Action = "volume_down"
	ActionToggleMute      Action = "toggle_mute"
	ActionNextSource      Action = "next_source"
	ActionPrevSource      Action = "prev_source"
	ActionOpenURL         Action = "open_url"
	ActionOpenSources     Action = "open_sources"

	// Source list actions
	ActionSelectSource Action = "select_source"

	// Text entry actions
	ActionEnableSearch   Action = "enable_search"
	ActionSearchComplete Action = "search_complete"
	ActionSubmitURL      Action = "submit_url"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal     ContextName = "global"
	ContextPlayer     ContextName = "player"
	ContextSourceList ContextName = "source_list"
	ContextSearchMode ContextName = "search_mode"
	ContextURLInput   ContextName = "url_input"
	ContextHelp       ContextName = "help"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal:     globalBindings,
	ContextPlayer:     playerBindings,
	ContextSourceList: sourceListBindings,
	ContextSearchMode: searchModeBindings,
	ContextURLInput:   urlInputBindings,
	ContextHelp:       helpBindings,
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// navigationBindings contains general navigation bindings for consistent navigation across the app
var navigationBindings = []Binding{
	{Action: ActionMoveUp, KeyMap: KeyMap{Primary: "up", Secondary: "k", Help: "Move cursor up"}},
	{Action: ActionMoveDown, KeyMap: KeyMap{Primary: "down", Secondary: "j", Help: "Move cursor down"}},
	{Action: ActionPageUp, KeyMap: KeyMap{Primary: "pgup", Help: "Move up one page"}},
	{Action: ActionPageDown, KeyMap: KeyMap{Primary: "pgdown", Help: "Move down one page"}},
	{Action: ActionMoveTop, KeyMap: KeyMap{Primary: "home", Help: "Move top of view"}},
	{Action: ActionMoveBottom, KeyMap: KeyMap{Primary: "end", Help: "Move bottom of view"}},
}

// globalBindings work in every view, including while text is being typed
var globalBindings = []Binding{
	{Action: ActionQuit, KeyMap: KeyMap{Primary: "ctrl+c", Help: "Quit application"}},
	{Action: ActionToggleHelp, KeyMap: KeyMap{Primary: "ctrl+h", Help: "Toggle help screen"}},
	{Action: ActionBack, KeyMap: KeyMap{Primary: "esc", Help: "Go back/cancel current action"}},
}

// playerBindings contains key bindings for the now playing view
var playerBindings = []Binding{
	{Action: ActionTogglePlay, KeyMap: KeyMap{Primary: " ", Secondary: "k", Help: "Play/pause"}},
	{Action: ActionSeekBack, KeyMap: KeyMap{Primary: "left", Secondary: "j", Help: "Seek back 5 seconds"}},
	{Action: ActionSeekForward, KeyMap: KeyMap{Primary: "right", Secondary: "l", Help: "Seek forward 5 seconds"}},
	{Action: ActionSeekBackLong, KeyMap: KeyMap{Primary: "shift+left", Secondary: "J", Help: "Seek back 30 seconds"}},
	{Action: ActionSeekForwardLong, KeyMap: KeyMap{Primary: "shift+right", Secondary: "L", Help: "Seek forward 30 seconds"}},
	{Action: ActionRestart, KeyMap: KeyMap{Primary: "0", Help: "Seek to the start"}},
	{Action: ActionVolumeUp, KeyMap: KeyMap{Primary: "up", Secondary: "+", Help: "Volume up 5%"}},
	{Action: ActionVolumeDown, KeyMap: KeyMap{Primary: "down", Secondary: "-", Help: "Volume down 5%"}},
	{Action: ActionToggleMute, KeyMap: KeyMap{Primary: "m", Help: "Mute/unmute"}},
	{Action: ActionNextSource, KeyMap: KeyMap{Primary: "n", Help: "Play next source"}},
	{Action: ActionPrevSource, KeyMap: KeyMap{Primary: "p", Help: "Play previous source"}},
	{Action: ActionOpenURL, KeyMap: KeyMap{Primary: "u", Help: "Open a URL"}},
	{Action: ActionOpenSources, KeyMap: KeyMap{Primary: "s", Secondary: "tab", Help: "Choose from the source list"}},
	{Action: ActionToggleHelp, KeyMap: KeyMap{Primary: "?", Help: "Toggle help screen"}},
	{Action: ActionQuit, KeyMap: KeyMap{Primary: "q", Help: "Quit application"}},
}

// helpBindings contains key bindings specific to the help view
var helpBindings = withNavigation([]Binding{})

// sourceListBindings contains key bindings specific to the source list view
var sourceListBindings = withNavigation([]Binding{
	{Action: ActionSelectSource, KeyMap: KeyMap{Primary: "enter", Help: "Play selected source"}},
	{Action: ActionEnableSearch, KeyMap: KeyMap{Primary: "/", Secondary: "ctrl+f", Help: "Search sources"}},
})

// searchModeBindings contains key bindings specific for when search mode is active
var searchModeBindings = []Binding{
	{Action: ActionBack, KeyMap: KeyMap{Primary: "esc", Secondary: "ctrl+f", Help: "Exit search mode and remove the filter"}},
	{Action: ActionSearchComplete, KeyMap: KeyMap{Primary: "enter", Help: "Apply the search filter and return control to the list"}},
}

// urlInputBindings contains key bindings for the open URL prompt
var urlInputBindings = []Binding{
	{Action: ActionBack, KeyMap: KeyMap{Primary: "esc", Help: "Close the prompt without playing"}},
	{Action: ActionSubmitURL, KeyMap: KeyMap{Primary: "enter", Help: "Play the entered URL"}},
}

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		key := keyMsg.String()
		for _, binding := range bindings {
			if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
				return binding.Action
			}
		}
	}
	return ""
}

// DisplayKey returns the label shown to users for a key
func DisplayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}

// FormatKeyHelp formats a key binding for display in help text
func FormatKeyHelp(binding Binding) string {
	if binding.KeyMap.Secondary != "" {
		return DisplayKey(binding.KeyMap.Primary) + "/" + DisplayKey(binding.KeyMap.Secondary) + ": " + binding.KeyMap.Help
	}
	return DisplayKey(binding.KeyMap.Primary) + ": " + binding.KeyMap.Help
}

// withNavigation is a helper function to include navigation bindings in other binding sets
func withNavigation(bindings []Binding) []Binding {
	return append(append([]Binding{}, navigationBindings...), bindings...)
}
