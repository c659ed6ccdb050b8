package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
	"github.com/desertthunder/ssx/internal/tasks"
	"github.com/desertthunder/ssx/internal/ui"
)

var _ ui.Controller = (*tasks.SnapshotSync)(nil)

// TUI launches the interactive terminal UI over the sync controller.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/ssx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	notes := make(chan models.Notification, 64)
	r.notifier = tasks.NewChannelNotifier(notes)

	s, err := r.snapshots()
	if err != nil {
		return err
	}

	p := tea.NewProgram(ui.NewModel(ctx, s, notes), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
