package models

import (
	"context"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/player"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Model is implemented by every child view of the app
type Model interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Model, tea.Cmd)
	View() string
	Resize(width, height int)
}

// Controller is the part of *player.Player the TUI drives
type Controller interface {
	Events() <-chan player.Event
	Load(ctx context.Context, urls ...string) error
	SetPlaying(playing bool) error
	SetVolume(level float64) error
	SeekTo(amount float64, unit player.SeekUnit) error
	Duration() float64
	CurrentTime() float64
	ActiveBackend() source.Kind
	Options() config.Options
	Instance() uuid.UUID
}

var _ Controller = (*player.Player)(nil)
