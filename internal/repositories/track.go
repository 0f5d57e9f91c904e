package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

const trackColumns = `id, sequence, name, spotify_id, spotify_href, spotify_uri, spotify_duration_ms,
	spotify_explicit, spotify_popularity, spotify_preview_url, spotify_external_ids,
	tiktok_sound_id, tiktok_duration_s, tiktok_is_original, created_at, updated_at`

// TrackRepository persists [models.Track] rows and the track-artist join table.
type TrackRepository struct {
	q DBTX
}

// NewTrackRepository creates a new TrackRepository over the given connection or transaction.
func NewTrackRepository(q DBTX) *TrackRepository {
	return &TrackRepository{q: q}
}

// Create inserts a new track row with generated ID, sequence, and timestamps.
func (r *TrackRepository) Create(ctx context.Context, track *models.Track) error {
	sequence, err := NextSequence(ctx, r.q, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	track.ID = shared.GenerateID()
	track.Sequence = sequence

	now := time.Now().UTC()
	track.CreatedAt = now
	track.UpdatedAt = now

	externalIDs, err := marshalJSONColumn(track.SpotifyExternalIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tracks (` + trackColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.q.ExecContext(ctx, query,
		track.ID,
		track.Sequence,
		nullString(track.Name),
		nullString(track.SpotifyID),
		nullString(track.SpotifyHref),
		nullString(track.SpotifyURI),
		nullInt(track.SpotifyDurationMS),
		nullBool(track.SpotifyExplicit),
		nullInt(track.SpotifyPopularity),
		nullString(track.SpotifyPreviewURL),
		externalIDs,
		nullString(track.TikTokSoundID),
		nullInt(track.TikTokDurationS),
		nullBool(track.TikTokIsOriginal),
		track.CreatedAt,
		track.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by row ID.
func (r *TrackRepository) Get(ctx context.Context, id string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetBySpotifyID retrieves a track by its Spotify identifier.
func (r *TrackRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE spotify_id = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, query, spotifyID))
}

// GetByTikTokSoundID retrieves a track by its TikTok sound identifier.
func (r *TrackRepository) GetByTikTokSoundID(ctx context.Context, soundID string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE tiktok_sound_id = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, query, soundID))
}

// Update writes the track's mutable columns and bumps updated_at.
func (r *TrackRepository) Update(ctx context.Context, track *models.Track) error {
	track.UpdatedAt = time.Now().UTC()

	externalIDs, err := marshalJSONColumn(track.SpotifyExternalIDs)
	if err != nil {
		return err
	}

	query := `
		UPDATE tracks
		SET name = ?, spotify_id = ?, spotify_href = ?, spotify_uri = ?, spotify_duration_ms = ?,
			spotify_explicit = ?, spotify_popularity = ?, spotify_preview_url = ?,
			spotify_external_ids = ?, tiktok_sound_id = ?, tiktok_duration_s = ?,
			tiktok_is_original = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(track.Name),
		nullString(track.SpotifyID),
		nullString(track.SpotifyHref),
		nullString(track.SpotifyURI),
		nullInt(track.SpotifyDurationMS),
		nullBool(track.SpotifyExplicit),
		nullInt(track.SpotifyPopularity),
		nullString(track.SpotifyPreviewURL),
		externalIDs,
		nullString(track.TikTokSoundID),
		nullInt(track.TikTokDurationS),
		nullBool(track.TikTokIsOriginal),
		track.UpdatedAt,
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track %s: %w", track.ID, ErrNotFound)
	}

	return nil
}

// LinkArtist records an artist credit on a track. The (track, artist, role)
// triple is unique; re-linking an existing credit is a no-op.
//
// Returns true when a new join row was created.
func (r *TrackRepository) LinkArtist(ctx context.Context, trackID, artistID string, role models.Role) (bool, error) {
	if err := role.Validate(); err != nil {
		return false, err
	}

	query := `
		INSERT INTO track_artists (id, track_id, artist_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (track_id, artist_id, role) DO NOTHING
	`

	result, err := r.q.ExecContext(ctx, query, shared.GenerateID(), trackID, artistID, string(role), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to link track artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// ArtistCredit is one row of the track_artists join table.
type ArtistCredit struct {
	ArtistID string
	Role     models.Role
}

// ArtistCredits returns the artist credits on a track in insertion order.
func (r *TrackRepository) ArtistCredits(ctx context.Context, trackID string) ([]ArtistCredit, error) {
	query := `
		SELECT artist_id, role FROM track_artists
		WHERE track_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track artists: %w", err)
	}
	defer rows.Close()

	var credits []ArtistCredit
	for rows.Next() {
		var artistID, role string
		if err := rows.Scan(&artistID, &role); err != nil {
			return nil, fmt.Errorf("failed to scan track artist: %w", err)
		}
		credits = append(credits, ArtistCredit{ArtistID: artistID, Role: models.Role(role)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return credits, nil
}

// Count returns the total number of track rows.
func (r *TrackRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// scanOne scans a single [sql.Row] into a [models.Track]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.Track, error) {
	var (
		id          string
		sequence    int
		name        sql.NullString
		spotifyID   sql.NullString
		href        sql.NullString
		uri         sql.NullString
		durationMS  sql.NullInt64
		explicit    sql.NullBool
		popularity  sql.NullInt64
		previewURL  sql.NullString
		externalIDs sql.NullString
		soundID     sql.NullString
		durationS   sql.NullInt64
		isOriginal  sql.NullBool
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&id, &sequence, &name, &spotifyID, &href, &uri, &durationMS,
		&explicit, &popularity, &previewURL, &externalIDs, &soundID, &durationS,
		&isOriginal, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track := &models.Track{
		ID:                id,
		Sequence:          sequence,
		Name:              stringPtr(name),
		SpotifyID:         stringPtr(spotifyID),
		SpotifyHref:       stringPtr(href),
		SpotifyURI:        stringPtr(uri),
		SpotifyDurationMS: intPtr(durationMS),
		SpotifyExplicit:   boolPtr(explicit),
		SpotifyPopularity: intPtr(popularity),
		SpotifyPreviewURL: stringPtr(previewURL),
		TikTokSoundID:     stringPtr(soundID),
		TikTokDurationS:   intPtr(durationS),
		TikTokIsOriginal:  boolPtr(isOriginal),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}

	if err := unmarshalJSONColumn(externalIDs, &track.SpotifyExternalIDs); err != nil {
		return nil, err
	}

	return track, nil
}
