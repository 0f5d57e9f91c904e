// package services defines the platform API clients and payload parsers
//
// Spotify (music catalog), TikTok (short video, via proxy)
package services

import (
	"context"
	"fmt"
)

// CatalogService is the music-catalog side of ingestion (Spotify).
type CatalogService interface {
	// Authenticate acquires an API token for subsequent requests.
	Authenticate(ctx context.Context) error

	// NewReleases retrieves one page of newly released albums.
	NewReleases(ctx context.Context, offset, limit int) (Page[SpotifyAlbum], error)

	// AlbumTracks retrieves all tracks on an album.
	AlbumTracks(ctx context.Context, albumID string) ([]SpotifyTrack, error)

	// Name returns the service name (e.g. "Spotify")
	Name() string
}

// VideoService is the short-video side of ingestion (TikTok).
type VideoService interface {
	// Authenticate validates the browser session token with the proxy.
	Authenticate(ctx context.Context) error

	// TrendingVideos retrieves one page of trending video posts.
	TrendingVideos(ctx context.Context, offset, limit int) (Page[TikTokVideo], error)

	// Name returns the service name (e.g. "TikTok")
	Name() string
}

// Parser errors. Malformed payloads are per-item failures: the orchestrator
// counts and logs them without aborting the run.
var (
	ErrMalformedRecord = fmt.Errorf("malformed record")

	// ErrMalformedSound marks a TikTok sound payload without a title.
	// Distinct from the filtered "original sound" case, which is not an error.
	ErrMalformedSound = fmt.Errorf("%w: sound lacks a title", ErrMalformedRecord)
)
