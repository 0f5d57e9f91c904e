package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/formatter"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/repositories"
)

// Stats summarizes the tracker database in the requested format.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	format := cmd.String("format")
	outputPath := cmd.String("output")
	topN := int(cmd.Int("top"))

	db, err := r.openDB(config)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := repositories.BuildStatsReport(ctx, db, topN)
	if err != nil {
		return fmt.Errorf("failed to build stats report: %w", err)
	}

	if outputPath != "" {
		if err := formatter.WriteExport(report, format, outputPath); err != nil {
			return err
		}
		r.writePlain("✓ Report written to %s\n", outputPath)
		return nil
	}

	data, err := formatter.Export(report, format)
	if err != nil {
		return err
	}

	return r.writePlain("%s", data)
}
