package tui

import (
	"context"

	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Run drives p from a full screen TUI until the user quits or ctx is cancelled.  The caller closes p afterwards.
func Run(ctx context.Context, p models.Controller, sources []string) error {
	prog := tea.NewProgram(models.NewAppModel(ctx, p, sources), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
