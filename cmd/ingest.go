package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/repositories"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/tasks"
)

// buildEngine assembles an IngestEngine over the configured database,
// applying flag overrides on top of the config file.
func (r *Runner) buildEngine(cmd *cli.Command) (*tasks.IngestEngine, *sql.DB, error) {
	config := r.loadConfig(cmd)

	db, err := r.openDB(config)
	if err != nil {
		return nil, nil, err
	}

	opts := tasks.IngestOpts{
		PageSize:  config.Ingestion.PageSize,
		RateLimit: config.Ingestion.RateLimit,
	}
	if v := cmd.Int("page-size"); v > 0 {
		opts.PageSize = int(v)
	}
	if v := cmd.Int("max-pages"); v > 0 {
		opts.MaxPages = int(v)
	}
	if v := cmd.Float("rate-limit"); v > 0 {
		opts.RateLimit = v
	}

	engine := tasks.NewIngestEngine(r.catalog, r.video, repositories.NewResolver(db), opts, r.logger)
	return engine, db, nil
}

// IngestSpotify pulls new release albums and their tracks from Spotify.
func (r *Runner) IngestSpotify(ctx context.Context, cmd *cli.Command) error {
	return r.runIngestion(ctx, cmd, func(engine *tasks.IngestEngine, progress chan tasks.ProgressUpdate) (*tasks.AllResult, error) {
		result, err := engine.RunSpotify(ctx, progress)
		return &tasks.AllResult{Spotify: result}, err
	})
}

// IngestTikTok pulls trending videos, sounds, and engagement stats from TikTok.
func (r *Runner) IngestTikTok(ctx context.Context, cmd *cli.Command) error {
	return r.runIngestion(ctx, cmd, func(engine *tasks.IngestEngine, progress chan tasks.ProgressUpdate) (*tasks.AllResult, error) {
		result, err := engine.RunTikTok(ctx, progress)
		return &tasks.AllResult{TikTok: result}, err
	})
}

// IngestAll runs both platform ingestions concurrently.
func (r *Runner) IngestAll(ctx context.Context, cmd *cli.Command) error {
	return r.runIngestion(ctx, cmd, func(engine *tasks.IngestEngine, progress chan tasks.ProgressUpdate) (*tasks.AllResult, error) {
		return engine.RunAll(ctx, progress)
	})
}

func (r *Runner) runIngestion(ctx context.Context, cmd *cli.Command, run func(*tasks.IngestEngine, chan tasks.ProgressUpdate) (*tasks.AllResult, error)) error {
	engine, db, err := r.buildEngine(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	asJSON := cmd.Bool("json")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if asJSON {
				continue
			}
			switch update.Phase {
			case tasks.Authenticate:
				r.writePlain("🔑 %s\n", update.Message)
			case tasks.RunComplete:
				r.writePlain("✓ %s\n", update.Message)
			}
		}
	}()

	result, err := run(engine, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	failed := 0
	for _, runResult := range []*tasks.RunResult{result.Spotify, result.TikTok} {
		if runResult != nil {
			failed += runResult.Failed()
		}
	}

	if asJSON {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
		if failed > 0 {
			return cli.Exit(fmt.Sprintf("%d items failed", failed), 1)
		}
		return nil
	}

	r.writePlain("\n")
	r.writePlainHeader("Ingestion Complete")
	for _, runResult := range []*tasks.RunResult{result.Spotify, result.TikTok} {
		if runResult == nil {
			continue
		}
		r.writePlain("%s: %d items, %d new entities, %d snapshots\n",
			runResult.Platform, runResult.ItemsProcessed, runResult.EntitiesCreated, runResult.SnapshotsCreated)

		if runResult.Failed() > 0 {
			r.writePlain("Skipped %d items:\n", runResult.Failed())
			for _, item := range runResult.Errors {
				r.writePlain("  - %s: %v\n", item.ExternalID, item.Err)
			}
		}
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d items failed", failed), 1)
	}

	return nil
}
