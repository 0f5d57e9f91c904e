package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Authenticate Phase = iota
	FetchAlbums
	FetchAlbumTracks
	FetchVideos
	ResolveEntities
	RecordSnapshots
	RunComplete
)

func (p Phase) String() string {
	switch p {
	case Authenticate:
		return "authenticate"
	case FetchAlbums:
		return "fetch_albums"
	case FetchAlbumTracks:
		return "fetch_album_tracks"
	case FetchVideos:
		return "fetch_videos"
	case ResolveEntities:
		return "resolve_entities"
	case RecordSnapshots:
		return "record_snapshots"
	case RunComplete:
		return "run_complete"
	default:
		return ""
	}
}

func authenticatingUpdate(service string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Authenticating with %s...", service),
	}
}

func fetchAlbumsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbums,
		Step:    count,
		Message: fmt.Sprintf("Fetched %d new release albums...", count),
	}
}

func albumTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbumTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks for album (%s)...", name),
	}
}

func fetchVideosUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchVideos,
		Step:    count,
		Message: fmt.Sprintf("Processed %d trending videos...", count),
	}
}

func resolvedUpdate(processed int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveEntities,
		Step:    processed,
		Message: fmt.Sprintf("Resolved %s...", name),
	}
}

func itemErrorUpdate(processed int, externalID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveEntities,
		Step:    processed,
		Message: fmt.Sprintf("Skipped %s: %v", externalID, err),
		Data:    err,
	}
}

func runCompleteUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: RunComplete,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("%s run complete: %d items, %d new entities, %d snapshots, %d errors",
			result.Platform, result.ItemsProcessed, result.EntitiesCreated, result.SnapshotsCreated, len(result.Errors)),
		Data: result,
	}
}
