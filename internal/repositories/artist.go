package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

const artistColumns = `id, sequence, name, spotify_id, spotify_href, spotify_uri, spotify_popularity,
	spotify_genres, spotify_images, tiktok_id, tiktok_username, tiktok_followers, created_at, updated_at`

// ArtistRepository persists [models.Artist] rows.
//
// Artist rows are addressable by either platform identifier; lookups by an
// absent identifier return [ErrNotFound].
type ArtistRepository struct {
	q DBTX
}

// NewArtistRepository creates a new ArtistRepository over the given connection or transaction.
func NewArtistRepository(q DBTX) *ArtistRepository {
	return &ArtistRepository{q: q}
}

// Create inserts a new artist row with generated ID, sequence, and timestamps.
func (r *ArtistRepository) Create(ctx context.Context, artist *models.Artist) error {
	sequence, err := NextSequence(ctx, r.q, "artists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	artist.ID = shared.GenerateID()
	artist.Sequence = sequence

	now := time.Now().UTC()
	artist.CreatedAt = now
	artist.UpdatedAt = now

	genres, err := marshalJSONColumn(artist.SpotifyGenres)
	if err != nil {
		return err
	}
	images, err := marshalJSONColumn(artist.SpotifyImages)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO artists (` + artistColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.q.ExecContext(ctx, query,
		artist.ID,
		artist.Sequence,
		nullString(artist.Name),
		nullString(artist.SpotifyID),
		nullString(artist.SpotifyHref),
		nullString(artist.SpotifyURI),
		nullInt(artist.SpotifyPopularity),
		genres,
		images,
		nullString(artist.TikTokID),
		nullString(artist.TikTokUsername),
		nullInt(artist.TikTokFollowers),
		artist.CreatedAt,
		artist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	return nil
}

// Get retrieves an artist by row ID.
func (r *ArtistRepository) Get(ctx context.Context, id string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetBySpotifyID retrieves an artist by its Spotify identifier.
func (r *ArtistRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE spotify_id = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, query, spotifyID))
}

// GetByTikTokID retrieves an artist by its TikTok identifier.
func (r *ArtistRepository) GetByTikTokID(ctx context.Context, tiktokID string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE tiktok_id = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, query, tiktokID))
}

// Update writes the artist's mutable columns and bumps updated_at.
func (r *ArtistRepository) Update(ctx context.Context, artist *models.Artist) error {
	artist.UpdatedAt = time.Now().UTC()

	genres, err := marshalJSONColumn(artist.SpotifyGenres)
	if err != nil {
		return err
	}
	images, err := marshalJSONColumn(artist.SpotifyImages)
	if err != nil {
		return err
	}

	query := `
		UPDATE artists
		SET name = ?, spotify_id = ?, spotify_href = ?, spotify_uri = ?, spotify_popularity = ?,
			spotify_genres = ?, spotify_images = ?, tiktok_id = ?, tiktok_username = ?,
			tiktok_followers = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(artist.Name),
		nullString(artist.SpotifyID),
		nullString(artist.SpotifyHref),
		nullString(artist.SpotifyURI),
		nullInt(artist.SpotifyPopularity),
		genres,
		images,
		nullString(artist.TikTokID),
		nullString(artist.TikTokUsername),
		nullInt(artist.TikTokFollowers),
		artist.UpdatedAt,
		artist.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("artist %s: %w", artist.ID, ErrNotFound)
	}

	return nil
}

// Count returns the total number of artist rows.
func (r *ArtistRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM artists").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count artists: %w", err)
	}
	return count, nil
}

// scanOne scans a single [sql.Row] into a [models.Artist]
func (r *ArtistRepository) scanOne(row *sql.Row) (*models.Artist, error) {
	var (
		id         string
		sequence   int
		name       sql.NullString
		spotifyID  sql.NullString
		href       sql.NullString
		uri        sql.NullString
		popularity sql.NullInt64
		genres     sql.NullString
		images     sql.NullString
		tiktokID   sql.NullString
		username   sql.NullString
		followers  sql.NullInt64
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&id, &sequence, &name, &spotifyID, &href, &uri, &popularity,
		&genres, &images, &tiktokID, &username, &followers, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artist: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	artist := &models.Artist{
		ID:                id,
		Sequence:          sequence,
		Name:              stringPtr(name),
		SpotifyID:         stringPtr(spotifyID),
		SpotifyHref:       stringPtr(href),
		SpotifyURI:        stringPtr(uri),
		SpotifyPopularity: intPtr(popularity),
		TikTokID:          stringPtr(tiktokID),
		TikTokUsername:    stringPtr(username),
		TikTokFollowers:   intPtr(followers),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}

	if err := unmarshalJSONColumn(genres, &artist.SpotifyGenres); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(images, &artist.SpotifyImages); err != nil {
		return nil, err
	}

	return artist, nil
}
