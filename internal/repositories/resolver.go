package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
)

var (
	// ErrNoIdentity is returned when a record carries no external identifier
	// and therefore cannot be matched to a row.
	ErrNoIdentity = fmt.Errorf("record has no platform identity")

	// ErrIdentityConflict is returned when a record's identifiers resolve to
	// two different existing rows, or would bind an identifier already owned
	// by another row. Conflicting records are skipped, not merged.
	ErrIdentityConflict = fmt.Errorf("identity conflict")
)

// Resolver matches canonical records against existing rows by platform
// identifier and upserts them.
//
// Each resolved record runs in its own transaction, so a failure in one
// record never corrupts another. Merging is fill-only: a resolved row gains
// columns the incoming record knows and the row does not, and never loses
// or overwrites a value it already holds.
type Resolver struct {
	db *sql.DB
}

// NewResolver creates a Resolver over an open database handle.
func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// IngestResult reports what one resolved record changed.
type IngestResult struct {
	EntitiesCreated  int
	SnapshotsCreated int
}

// ResolveArtist upserts a canonical artist record in its own transaction.
// Returns the persisted row and whether it was newly created.
func (r *Resolver) ResolveArtist(ctx context.Context, rec models.ArtistRecord) (*models.Artist, bool, error) {
	var artist *models.Artist
	var created bool

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		artist, created, err = r.resolveArtist(ctx, tx, rec)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return artist, created, nil
}

// ResolveTrack upserts a canonical track record along with its credited
// artists, all in one transaction. Returns the persisted track and the
// number of rows created.
func (r *Resolver) ResolveTrack(ctx context.Context, rec models.TrackRecord) (*models.Track, IngestResult, error) {
	var track *models.Track
	var result IngestResult

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		track, result, err = r.resolveTrack(ctx, tx, rec)
		return err
	})
	if err != nil {
		return nil, IngestResult{}, err
	}

	return track, result, nil
}

// IngestVideo upserts a video record: its sound's track, its author, the
// video row itself, and one engagement snapshot per carried metric at
// observedAt. The whole record is one transaction.
//
// Re-ingesting the same video at the same observation time changes nothing.
func (r *Resolver) IngestVideo(ctx context.Context, rec models.VideoRecord, observedAt time.Time) (*models.Video, IngestResult, error) {
	if rec.TikTokID == nil {
		return nil, IngestResult{}, fmt.Errorf("video: %w", ErrNoIdentity)
	}

	var video *models.Video
	var result IngestResult

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		track, trackResult, err := r.resolveTrack(ctx, tx, rec.Sound.Track())
		if err != nil {
			return err
		}
		result.EntitiesCreated += trackResult.EntitiesCreated

		author, authorCreated, err := r.resolveArtist(ctx, tx, rec.Author)
		if err != nil {
			return fmt.Errorf("video author: %w", err)
		}
		if authorCreated {
			result.EntitiesCreated++
		}

		videos := NewVideoRepository(tx)
		video, err = videos.GetByTikTokID(ctx, *rec.TikTokID)
		if errors.Is(err, ErrNotFound) {
			video = &models.Video{
				TrackID:    track.ID,
				AuthorID:   author.ID,
				TikTokID:   rec.TikTokID,
				CreateTime: rec.CreateTime,
			}
			if err := videos.Create(ctx, video); err != nil {
				return err
			}
			result.EntitiesCreated++
		} else if err != nil {
			return err
		}

		snapshots, err := NewStatRepository(tx).RecordBatch(ctx, video.ID, rec.Stats, observedAt)
		if err != nil {
			return err
		}
		result.SnapshotsCreated += snapshots

		return nil
	})
	if err != nil {
		return nil, IngestResult{}, err
	}

	return video, result, nil
}

func (r *Resolver) resolveTrack(ctx context.Context, tx *sql.Tx, rec models.TrackRecord) (*models.Track, IngestResult, error) {
	var result IngestResult

	track, created, err := r.upsertTrack(ctx, tx, rec)
	if err != nil {
		return nil, result, err
	}
	if created {
		result.EntitiesCreated++
	}

	tracks := NewTrackRepository(tx)
	for _, credit := range rec.Artists {
		if !credit.Artist.HasIdentity() {
			continue
		}

		artist, artistCreated, err := r.resolveArtist(ctx, tx, credit.Artist)
		if err != nil {
			return nil, result, fmt.Errorf("track artist: %w", err)
		}
		if artistCreated {
			result.EntitiesCreated++
		}

		if _, err := tracks.LinkArtist(ctx, track.ID, artist.ID, credit.Role); err != nil {
			return nil, result, err
		}
	}

	return track, result, nil
}

func (r *Resolver) resolveArtist(ctx context.Context, q DBTX, rec models.ArtistRecord) (*models.Artist, bool, error) {
	if !rec.HasIdentity() {
		return nil, false, fmt.Errorf("artist: %w", ErrNoIdentity)
	}

	artists := NewArtistRepository(q)

	artist, err := r.lookupArtist(ctx, artists, rec)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if artist != nil {
		if mergeArtist(artist, rec) {
			if err := artists.Update(ctx, artist); err != nil {
				if isUniqueViolation(err) {
					return nil, false, fmt.Errorf("artist %s: %w", artist.ID, ErrIdentityConflict)
				}
				return nil, false, err
			}
		}
		return artist, false, nil
	}

	artist = newArtist(rec)
	if err := artists.Create(ctx, artist); err != nil {
		if !isUniqueViolation(err) {
			return nil, false, err
		}
		// Lost an insert race: another run claimed one of our keys. Fetch the
		// winner and merge into it instead.
		winner, lerr := r.lookupArtist(ctx, artists, rec)
		if lerr != nil {
			return nil, false, fmt.Errorf("artist: %w", ErrIdentityConflict)
		}
		if mergeArtist(winner, rec) {
			if uerr := artists.Update(ctx, winner); uerr != nil {
				if isUniqueViolation(uerr) {
					return nil, false, fmt.Errorf("artist %s: %w", winner.ID, ErrIdentityConflict)
				}
				return nil, false, uerr
			}
		}
		return winner, false, nil
	}

	return artist, true, nil
}

// lookupArtist finds the row a record resolves to, checking both identifiers
// when present. Two identifiers pointing at different rows, or at a row
// already bound to a different value of the other identifier, is a conflict.
func (r *Resolver) lookupArtist(ctx context.Context, artists *ArtistRepository, rec models.ArtistRecord) (*models.Artist, error) {
	var bySpotify, byTikTok *models.Artist

	if rec.SpotifyID != nil {
		found, err := artists.GetBySpotifyID(ctx, *rec.SpotifyID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		bySpotify = found
	}
	if rec.TikTokID != nil {
		found, err := artists.GetByTikTokID(ctx, *rec.TikTokID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		byTikTok = found
	}

	switch {
	case bySpotify != nil && byTikTok != nil:
		if bySpotify.ID != byTikTok.ID {
			return nil, fmt.Errorf("artist spotify %s / tiktok %s: %w", *rec.SpotifyID, *rec.TikTokID, ErrIdentityConflict)
		}
		return bySpotify, nil
	case bySpotify != nil:
		if rec.TikTokID != nil && bySpotify.TikTokID != nil && *bySpotify.TikTokID != *rec.TikTokID {
			return nil, fmt.Errorf("artist spotify %s: %w", *rec.SpotifyID, ErrIdentityConflict)
		}
		return bySpotify, nil
	case byTikTok != nil:
		if rec.SpotifyID != nil && byTikTok.SpotifyID != nil && *byTikTok.SpotifyID != *rec.SpotifyID {
			return nil, fmt.Errorf("artist tiktok %s: %w", *rec.TikTokID, ErrIdentityConflict)
		}
		return byTikTok, nil
	default:
		return nil, ErrNotFound
	}
}

func (r *Resolver) upsertTrack(ctx context.Context, q DBTX, rec models.TrackRecord) (*models.Track, bool, error) {
	if !rec.HasIdentity() {
		return nil, false, fmt.Errorf("track: %w", ErrNoIdentity)
	}

	tracks := NewTrackRepository(q)

	track, err := r.lookupTrack(ctx, tracks, rec)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if track != nil {
		if mergeTrack(track, rec) {
			if err := tracks.Update(ctx, track); err != nil {
				if isUniqueViolation(err) {
					return nil, false, fmt.Errorf("track %s: %w", track.ID, ErrIdentityConflict)
				}
				return nil, false, err
			}
		}
		return track, false, nil
	}

	track = newTrack(rec)
	if err := tracks.Create(ctx, track); err != nil {
		if !isUniqueViolation(err) {
			return nil, false, err
		}
		winner, lerr := r.lookupTrack(ctx, tracks, rec)
		if lerr != nil {
			return nil, false, fmt.Errorf("track: %w", ErrIdentityConflict)
		}
		if mergeTrack(winner, rec) {
			if uerr := tracks.Update(ctx, winner); uerr != nil {
				if isUniqueViolation(uerr) {
					return nil, false, fmt.Errorf("track %s: %w", winner.ID, ErrIdentityConflict)
				}
				return nil, false, uerr
			}
		}
		return winner, false, nil
	}

	return track, true, nil
}

func (r *Resolver) lookupTrack(ctx context.Context, tracks *TrackRepository, rec models.TrackRecord) (*models.Track, error) {
	var bySpotify, bySound *models.Track

	if rec.SpotifyID != nil {
		found, err := tracks.GetBySpotifyID(ctx, *rec.SpotifyID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		bySpotify = found
	}
	if rec.TikTokSoundID != nil {
		found, err := tracks.GetByTikTokSoundID(ctx, *rec.TikTokSoundID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		bySound = found
	}

	switch {
	case bySpotify != nil && bySound != nil:
		if bySpotify.ID != bySound.ID {
			return nil, fmt.Errorf("track spotify %s / sound %s: %w", *rec.SpotifyID, *rec.TikTokSoundID, ErrIdentityConflict)
		}
		return bySpotify, nil
	case bySpotify != nil:
		if rec.TikTokSoundID != nil && bySpotify.TikTokSoundID != nil && *bySpotify.TikTokSoundID != *rec.TikTokSoundID {
			return nil, fmt.Errorf("track spotify %s: %w", *rec.SpotifyID, ErrIdentityConflict)
		}
		return bySpotify, nil
	case bySound != nil:
		if rec.SpotifyID != nil && bySound.SpotifyID != nil && *bySound.SpotifyID != *rec.SpotifyID {
			return nil, fmt.Errorf("track sound %s: %w", *rec.TikTokSoundID, ErrIdentityConflict)
		}
		return bySound, nil
	default:
		return nil, ErrNotFound
	}
}

func newArtist(rec models.ArtistRecord) *models.Artist {
	return &models.Artist{
		Name:              rec.Name,
		SpotifyID:         rec.SpotifyID,
		SpotifyHref:       rec.SpotifyHref,
		SpotifyURI:        rec.SpotifyURI,
		SpotifyPopularity: rec.SpotifyPopularity,
		SpotifyGenres:     rec.SpotifyGenres,
		SpotifyImages:     rec.SpotifyImages,
		TikTokID:          rec.TikTokID,
		TikTokUsername:    rec.TikTokUsername,
		TikTokFollowers:   rec.TikTokFollowers,
	}
}

func newTrack(rec models.TrackRecord) *models.Track {
	return &models.Track{
		Name:               rec.Name,
		SpotifyID:          rec.SpotifyID,
		SpotifyHref:        rec.SpotifyHref,
		SpotifyURI:         rec.SpotifyURI,
		SpotifyDurationMS:  rec.SpotifyDurationMS,
		SpotifyExplicit:    rec.SpotifyExplicit,
		SpotifyPopularity:  rec.SpotifyPopularity,
		SpotifyPreviewURL:  rec.SpotifyPreviewURL,
		SpotifyExternalIDs: rec.SpotifyExternalIDs,
		TikTokSoundID:      rec.TikTokSoundID,
		TikTokDurationS:    rec.TikTokDurationS,
		TikTokIsOriginal:   rec.TikTokIsOriginal,
	}
}

// mergeArtist fills columns the row is missing from the record. Reports
// whether anything changed.
func mergeArtist(artist *models.Artist, rec models.ArtistRecord) bool {
	changed := false

	changed = fillString(&artist.Name, rec.Name) || changed
	changed = fillString(&artist.SpotifyID, rec.SpotifyID) || changed
	changed = fillString(&artist.SpotifyHref, rec.SpotifyHref) || changed
	changed = fillString(&artist.SpotifyURI, rec.SpotifyURI) || changed
	changed = fillInt(&artist.SpotifyPopularity, rec.SpotifyPopularity) || changed
	changed = fillString(&artist.TikTokID, rec.TikTokID) || changed
	changed = fillString(&artist.TikTokUsername, rec.TikTokUsername) || changed
	changed = fillInt(&artist.TikTokFollowers, rec.TikTokFollowers) || changed

	if len(artist.SpotifyGenres) == 0 && len(rec.SpotifyGenres) > 0 {
		artist.SpotifyGenres = rec.SpotifyGenres
		changed = true
	}
	if len(artist.SpotifyImages) == 0 && len(rec.SpotifyImages) > 0 {
		artist.SpotifyImages = rec.SpotifyImages
		changed = true
	}

	return changed
}

func mergeTrack(track *models.Track, rec models.TrackRecord) bool {
	changed := false

	changed = fillString(&track.Name, rec.Name) || changed
	changed = fillString(&track.SpotifyID, rec.SpotifyID) || changed
	changed = fillString(&track.SpotifyHref, rec.SpotifyHref) || changed
	changed = fillString(&track.SpotifyURI, rec.SpotifyURI) || changed
	changed = fillInt(&track.SpotifyDurationMS, rec.SpotifyDurationMS) || changed
	changed = fillBool(&track.SpotifyExplicit, rec.SpotifyExplicit) || changed
	changed = fillInt(&track.SpotifyPopularity, rec.SpotifyPopularity) || changed
	changed = fillString(&track.SpotifyPreviewURL, rec.SpotifyPreviewURL) || changed
	changed = fillString(&track.TikTokSoundID, rec.TikTokSoundID) || changed
	changed = fillInt(&track.TikTokDurationS, rec.TikTokDurationS) || changed
	changed = fillBool(&track.TikTokIsOriginal, rec.TikTokIsOriginal) || changed

	if len(track.SpotifyExternalIDs) == 0 && len(rec.SpotifyExternalIDs) > 0 {
		track.SpotifyExternalIDs = rec.SpotifyExternalIDs
		changed = true
	}

	return changed
}

func fillString(dst **string, src *string) bool {
	if *dst != nil || src == nil {
		return false
	}
	*dst = src
	return true
}

func fillInt(dst **int, src *int) bool {
	if *dst != nil || src == nil {
		return false
	}
	*dst = src
	return true
}

func fillBool(dst **bool, src *bool) bool {
	if *dst != nil || src == nil {
		return false
	}
	*dst = src
	return true
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (r *Resolver) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
