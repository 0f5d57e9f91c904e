package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/repositories"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/tasks"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/ui"
)

// TUI launches the interactive terminal dashboard for ingestion runs.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.catalog == nil && r.video == nil {
		return fmt.Errorf("%w: no platform services configured", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/trktrk-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	config := r.loadConfig(cmd)

	db, err := r.openDB(config)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := tasks.NewIngestEngine(r.catalog, r.video, repositories.NewResolver(db), tasks.IngestOpts{
		PageSize:  config.Ingestion.PageSize,
		RateLimit: config.Ingestion.RateLimit,
	}, fileLogger)

	model := ui.NewModel(ctx, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
