package models

// View represents a specific UI view in the application
type View string

// Available views in the application
const (
	ViewNowPlaying View = "now-playing"
	ViewSourceList View = "source-list"
	ViewURLInput   View = "url-input"
	ViewHelp       View = "help"
)

// Modal represents a UI intended to be temporarily shown to the user before returning to the original view
type Modal string

// Available modals in the application
const (
	ModalNone    Modal = "none"
	ModalHelp    Modal = "help"
	ModalSources Modal = "sources"
	ModalURL     Modal = "url"
)
