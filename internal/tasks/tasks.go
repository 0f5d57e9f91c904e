// package tasks implements the ingestion runs that pull platform metadata
// into the tracker database.
//
// The core abstraction is IngestEngine, which orchestrates paginated fetches,
// payload parsing, and entity resolution. Runs emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/repositories"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/services"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

// ItemError records one item that could not be ingested.
type ItemError struct {
	ExternalID string // Platform identifier of the failed item
	Err        error
}

// RunResult summarizes one ingestion run.
//
// Filtered items (e.g. unclaimable original sounds) count as processed with
// no entity writes; they are not errors. Per-item failures are collected in
// Errors, excluded from ItemsProcessed, and never abort the run.
type RunResult struct {
	Platform         string      // Service name the run ingested from
	ItemsProcessed   int         // Items ingested or filtered; failed items are not counted
	EntitiesCreated  int         // New artist, track, and video rows
	SnapshotsCreated int         // New video_stats observations
	Errors           []ItemError // Items skipped due to per-item failures
}

// Failed reports the number of items that errored during the run.
func (r *RunResult) Failed() int {
	return len(r.Errors)
}

// AllResult bundles the per-platform results of a combined run.
type AllResult struct {
	Spotify *RunResult
	TikTok  *RunResult
}

// Engine defines the ingestion operations exposed to the CLI and TUI.
type Engine interface {
	// RunSpotify ingests new-release albums and their tracks from the music catalog.
	RunSpotify(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error)

	// RunTikTok ingests trending videos, their sounds, and engagement snapshots.
	RunTikTok(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error)

	// RunAll runs both platform ingestions concurrently.
	RunAll(ctx context.Context, progress chan<- ProgressUpdate) (*AllResult, error)
}

// IngestOpts contains tuning knobs for ingestion runs.
type IngestOpts struct {
	PageSize  int     // Items per page (default: 20)
	RateLimit float64 // Page fetches per second (default: 5)
	MaxPages  int     // Page cap per run, 0 for unlimited
}

// IngestEngine implements Engine over the platform services and the resolver.
type IngestEngine struct {
	catalog  services.CatalogService
	video    services.VideoService
	resolver *repositories.Resolver
	opts     IngestOpts
	logger   *log.Logger
}

// NewIngestEngine creates an IngestEngine with the provided services.
// Either service may be nil; the corresponding run then fails fast.
func NewIngestEngine(catalog services.CatalogService, video services.VideoService, resolver *repositories.Resolver, opts IngestOpts, logger *log.Logger) *IngestEngine {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	return &IngestEngine{
		catalog:  catalog,
		video:    video,
		resolver: resolver,
		opts:     opts,
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *IngestEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// RunSpotify pulls the new-release album listing page by page, fetches each
// album's tracks, and resolves every track with its credited artists.
//
// A page or album fetch failure aborts the run; parse and resolution
// failures are per-item and only mark that item as failed.
func (e *IngestEngine) RunSpotify(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	result := &RunResult{Platform: e.catalog.Name()}
	logger := shared.WithLogger(e.logger, "platform", result.Platform)

	e.sendProgress(progress, authenticatingUpdate(result.Platform))
	if err := e.catalog.Authenticate(ctx); err != nil {
		return nil, err
	}

	paginator := services.Paginator[services.SpotifyAlbum]{
		Fetch:    e.catalog.NewReleases,
		Limit:    e.opts.PageSize,
		MaxPages: e.opts.MaxPages,
		Limiter:  rate.NewLimiter(rate.Limit(e.opts.RateLimit), 1),
	}

	albums := 0
	err := paginator.Each(ctx, func(album services.SpotifyAlbum) error {
		albums++
		e.sendProgress(progress, albumTracksUpdate(albums, 0, album.Name))

		tracks, err := e.catalog.AlbumTracks(ctx, album.ID)
		if err != nil {
			return fmt.Errorf("album %s: %w", album.ID, err)
		}
		e.sendProgress(progress, fetchAlbumsUpdate(albums))

		for _, raw := range tracks {
			rec, err := services.ParseSpotifyTrack(raw)
			if err != nil {
				e.recordItemError(logger, progress, result, raw.ID, err)
				continue
			}

			track, created, err := e.resolver.ResolveTrack(ctx, rec)
			if err != nil {
				e.recordItemError(logger, progress, result, raw.ID, err)
				continue
			}

			result.ItemsProcessed++
			result.EntitiesCreated += created.EntitiesCreated
			e.sendProgress(progress, resolvedUpdate(result.ItemsProcessed, trackLabel(track)))
		}

		return nil
	})
	if err != nil {
		return result, err
	}

	logger.Info("ingestion run complete",
		"items", result.ItemsProcessed,
		"entities", result.EntitiesCreated,
		"errors", result.Failed())
	e.sendProgress(progress, runCompleteUpdate(result))

	return result, nil
}

// RunTikTok pulls the trending video feed page by page, resolving each
// video's sound and author and appending one engagement snapshot per metric.
//
// All snapshots in one run share a single observation time taken at run
// start, so re-running within the same instant is a no-op.
func (e *IngestEngine) RunTikTok(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.video == nil {
		return nil, fmt.Errorf("%w: video service not initialized", shared.ErrServiceUnavailable)
	}

	result := &RunResult{Platform: e.video.Name()}
	logger := shared.WithLogger(e.logger, "platform", result.Platform)
	observedAt := time.Now().UTC()

	e.sendProgress(progress, authenticatingUpdate(result.Platform))
	if err := e.video.Authenticate(ctx); err != nil {
		return nil, err
	}

	paginator := services.Paginator[services.TikTokVideo]{
		Fetch:    e.video.TrendingVideos,
		Limit:    e.opts.PageSize,
		MaxPages: e.opts.MaxPages,
		Limiter:  rate.NewLimiter(rate.Limit(e.opts.RateLimit), 1),
	}

	err := paginator.Each(ctx, func(raw services.TikTokVideo) error {
		rec, err := services.ParseTikTokVideo(raw)
		if err != nil {
			e.recordItemError(logger, progress, result, raw.ID, err)
			return nil
		}
		if rec == nil {
			// Filtered: original sound with no claimable track.
			result.ItemsProcessed++
			e.sendProgress(progress, fetchVideosUpdate(result.ItemsProcessed))
			return nil
		}

		_, created, err := e.resolver.IngestVideo(ctx, *rec, observedAt)
		if err != nil {
			e.recordItemError(logger, progress, result, raw.ID, err)
			return nil
		}

		result.ItemsProcessed++
		result.EntitiesCreated += created.EntitiesCreated
		result.SnapshotsCreated += created.SnapshotsCreated
		e.sendProgress(progress, fetchVideosUpdate(result.ItemsProcessed))

		return nil
	})
	if err != nil {
		return result, err
	}

	logger.Info("ingestion run complete",
		"items", result.ItemsProcessed,
		"entities", result.EntitiesCreated,
		"snapshots", result.SnapshotsCreated,
		"errors", result.Failed())
	e.sendProgress(progress, runCompleteUpdate(result))

	return result, nil
}

// RunAll runs both platform ingestions concurrently. Each platform keeps its
// own result; a failure on one platform does not stop the other.
func (e *IngestEngine) RunAll(ctx context.Context, progress chan<- ProgressUpdate) (*AllResult, error) {
	all := &AllResult{}
	var spotifyErr, tiktokErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		all.Spotify, spotifyErr = e.RunSpotify(ctx, progress)
	}()
	go func() {
		defer wg.Done()
		all.TikTok, tiktokErr = e.RunTikTok(ctx, progress)
	}()

	wg.Wait()

	return all, errors.Join(spotifyErr, tiktokErr)
}

// recordItemError counts a per-item failure and logs it with the item's
// platform identifier.
func (e *IngestEngine) recordItemError(logger *log.Logger, progress chan<- ProgressUpdate, result *RunResult, externalID string, err error) {
	result.Errors = append(result.Errors, ItemError{ExternalID: externalID, Err: err})
	logger.Warn("skipping item", "id", externalID, "error", err)
	e.sendProgress(progress, itemErrorUpdate(result.ItemsProcessed, externalID, err))
}

func trackLabel(track *models.Track) string {
	if track.Name != nil {
		return *track.Name
	}
	return track.ID
}
