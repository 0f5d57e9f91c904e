package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func strPtr(s string) *string { return &s }
func numPtr(i int) *int       { return &i }

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(ctx, db, "artists")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	// Tables keep independent counters
	got, err := NextSequence(ctx, db, "tracks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	if got != 1 {
		t.Errorf("expected tracks sequence 1, got %d", got)
	}
}

func TestArtistRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		artist := &models.Artist{
			Name:          strPtr("Test Artist"),
			SpotifyID:     strPtr("sp1"),
			SpotifyGenres: []string{"indie"},
			SpotifyImages: []models.Image{{URL: "https://img", Width: 300, Height: 300}},
		}

		if err := repo.Create(ctx, artist); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}
		if artist.ID == "" {
			t.Error("expected generated ID")
		}
		if artist.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", artist.Sequence)
		}

		got, err := repo.Get(ctx, artist.ID)
		if err != nil {
			t.Fatalf("failed to get artist: %v", err)
		}
		if got.Name == nil || *got.Name != "Test Artist" {
			t.Error("expected name to round-trip")
		}
		if got.TikTokID != nil {
			t.Error("expected absent tiktok id to stay nil")
		}
		if len(got.SpotifyGenres) != 1 || got.SpotifyGenres[0] != "indie" {
			t.Error("expected genres to round-trip")
		}
		if len(got.SpotifyImages) != 1 || got.SpotifyImages[0].Width != 300 {
			t.Error("expected images to round-trip")
		}
	})

	t.Run("Get By Platform IDs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		artist := &models.Artist{SpotifyID: strPtr("sp2"), TikTokID: strPtr("tt2")}
		if err := repo.Create(ctx, artist); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}

		bySpotify, err := repo.GetBySpotifyID(ctx, "sp2")
		if err != nil {
			t.Fatalf("failed lookup by spotify id: %v", err)
		}
		byTikTok, err := repo.GetByTikTokID(ctx, "tt2")
		if err != nil {
			t.Fatalf("failed lookup by tiktok id: %v", err)
		}
		if bySpotify.ID != artist.ID || byTikTok.ID != artist.ID {
			t.Error("expected both lookups to find the same row")
		}

		if _, err := repo.GetBySpotifyID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		artist := &models.Artist{SpotifyID: strPtr("sp3")}
		if err := repo.Create(ctx, artist); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}

		artist.TikTokID = strPtr("tt3")
		artist.TikTokFollowers = numPtr(500)
		if err := repo.Update(ctx, artist); err != nil {
			t.Fatalf("failed to update artist: %v", err)
		}

		got, err := repo.Get(ctx, artist.ID)
		if err != nil {
			t.Fatalf("failed to get artist: %v", err)
		}
		if got.TikTokID == nil || *got.TikTokID != "tt3" {
			t.Error("expected tiktok id after update")
		}
		if got.TikTokFollowers == nil || *got.TikTokFollowers != 500 {
			t.Error("expected follower count after update")
		}
	})

	t.Run("Update Missing Row", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		err := repo.Update(ctx, &models.Artist{ID: "missing"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Unique Platform IDs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		if err := repo.Create(ctx, &models.Artist{SpotifyID: strPtr("dup")}); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}

		err := repo.Create(ctx, &models.Artist{SpotifyID: strPtr("dup")})
		if err == nil {
			t.Fatal("expected unique violation")
		}
		if !isUniqueViolation(err) {
			t.Errorf("expected unique violation detection, got %v", err)
		}
	})
}

func TestTrackRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And Lookups", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := &models.Track{
			Name:               strPtr("Test Track"),
			SpotifyID:          strPtr("trk1"),
			TikTokSoundID:      strPtr("snd1"),
			SpotifyExternalIDs: map[string]string{"isrc": "US123"},
		}

		if err := repo.Create(ctx, track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		got, err := repo.GetBySpotifyID(ctx, "trk1")
		if err != nil {
			t.Fatalf("failed lookup by spotify id: %v", err)
		}
		if got.SpotifyExternalIDs["isrc"] != "US123" {
			t.Error("expected external ids to round-trip")
		}

		bySound, err := repo.GetByTikTokSoundID(ctx, "snd1")
		if err != nil {
			t.Fatalf("failed lookup by sound id: %v", err)
		}
		if bySound.ID != got.ID {
			t.Error("expected both lookups to find the same row")
		}
	})

	t.Run("LinkArtist Is Idempotent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		artists := NewArtistRepository(db)
		tracks := NewTrackRepository(db)

		artist := &models.Artist{SpotifyID: strPtr("a1")}
		if err := artists.Create(ctx, artist); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}
		track := &models.Track{SpotifyID: strPtr("t1")}
		if err := tracks.Create(ctx, track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		created, err := tracks.LinkArtist(ctx, track.ID, artist.ID, models.RolePrimary)
		if err != nil {
			t.Fatalf("failed to link artist: %v", err)
		}
		if !created {
			t.Error("expected first link to create a row")
		}

		created, err = tracks.LinkArtist(ctx, track.ID, artist.ID, models.RolePrimary)
		if err != nil {
			t.Fatalf("failed to re-link artist: %v", err)
		}
		if created {
			t.Error("expected duplicate link to be a no-op")
		}

		// Same pair under a different role is a distinct credit
		created, err = tracks.LinkArtist(ctx, track.ID, artist.ID, models.RoleProducer)
		if err != nil {
			t.Fatalf("failed to link producer credit: %v", err)
		}
		if !created {
			t.Error("expected distinct role to create a row")
		}

		credits, err := tracks.ArtistCredits(ctx, track.ID)
		if err != nil {
			t.Fatalf("failed to list credits: %v", err)
		}
		if len(credits) != 2 {
			t.Errorf("expected 2 credits, got %d", len(credits))
		}
	})

	t.Run("LinkArtist Rejects Unknown Role", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		tracks := NewTrackRepository(db)
		if _, err := tracks.LinkArtist(ctx, "t", "a", models.Role("composer")); err == nil {
			t.Error("expected error for unknown role")
		}
	})
}

func TestVideoRepository(t *testing.T) {
	ctx := context.Background()

	db := setupTestDB(t)
	defer db.Close()

	artists := NewArtistRepository(db)
	tracks := NewTrackRepository(db)
	videos := NewVideoRepository(db)

	author := &models.Artist{TikTokID: strPtr("u1")}
	if err := artists.Create(ctx, author); err != nil {
		t.Fatalf("failed to create author: %v", err)
	}
	track := &models.Track{TikTokSoundID: strPtr("s1")}
	if err := tracks.Create(ctx, track); err != nil {
		t.Fatalf("failed to create track: %v", err)
	}

	createTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	video := &models.Video{
		TrackID:    track.ID,
		AuthorID:   author.ID,
		TikTokID:   strPtr("v1"),
		CreateTime: &createTime,
	}
	if err := videos.Create(ctx, video); err != nil {
		t.Fatalf("failed to create video: %v", err)
	}

	got, err := videos.GetByTikTokID(ctx, "v1")
	if err != nil {
		t.Fatalf("failed lookup by tiktok id: %v", err)
	}
	if got.TrackID != track.ID || got.AuthorID != author.ID {
		t.Error("expected references to round-trip")
	}
	if got.CreateTime == nil || !got.CreateTime.Equal(createTime) {
		t.Error("expected create time to round-trip")
	}

	count, err := videos.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count videos: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 video, got %d", count)
	}
}

func TestStatRepository(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*sql.DB, string) {
		db := setupTestDB(t)
		t.Cleanup(func() { db.Close() })

		artists := NewArtistRepository(db)
		tracks := NewTrackRepository(db)
		videos := NewVideoRepository(db)

		author := &models.Artist{TikTokID: strPtr("u1")}
		if err := artists.Create(ctx, author); err != nil {
			t.Fatalf("failed to create author: %v", err)
		}
		track := &models.Track{TikTokSoundID: strPtr("s1")}
		if err := tracks.Create(ctx, track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		video := &models.Video{TrackID: track.ID, AuthorID: author.ID, TikTokID: strPtr("v1")}
		if err := videos.Create(ctx, video); err != nil {
			t.Fatalf("failed to create video: %v", err)
		}

		return db, video.ID
	}

	t.Run("Record Suppresses Duplicates", func(t *testing.T) {
		db, videoID := setup(t)
		stats := NewStatRepository(db)
		at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		created, err := stats.Record(ctx, videoID, models.StatViews, 1000, at)
		if err != nil {
			t.Fatalf("failed to record stat: %v", err)
		}
		if !created {
			t.Error("expected first observation to create a row")
		}

		// Same observation again, even with a different value, is suppressed
		created, err = stats.Record(ctx, videoID, models.StatViews, 9999, at)
		if err != nil {
			t.Fatalf("failed to re-record stat: %v", err)
		}
		if created {
			t.Error("expected duplicate observation to be a no-op")
		}

		history, err := stats.History(ctx, videoID, models.StatViews)
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(history) != 1 {
			t.Fatalf("expected 1 observation, got %d", len(history))
		}
		if history[0].StatValue != 1000 {
			t.Errorf("expected first value to win, got %d", history[0].StatValue)
		}
	})

	t.Run("Series Grows Over Time", func(t *testing.T) {
		db, videoID := setup(t)
		stats := NewStatRepository(db)
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		latest, err := stats.LatestRecordedAt(ctx)
		if err != nil {
			t.Fatalf("failed to read latest time on empty series: %v", err)
		}
		if latest != nil {
			t.Errorf("expected nil latest time on empty series, got %v", latest)
		}

		for i := 0; i < 3; i++ {
			at := base.Add(time.Duration(i) * time.Hour)
			if _, err := stats.Record(ctx, videoID, models.StatViews, int64(1000*(i+1)), at); err != nil {
				t.Fatalf("failed to record stat: %v", err)
			}
		}

		history, err := stats.History(ctx, videoID, models.StatViews)
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("expected 3 observations, got %d", len(history))
		}
		for i := 1; i < len(history); i++ {
			if !history[i].RecordedAt.After(history[i-1].RecordedAt) {
				t.Error("expected chronological order")
			}
		}

		latest, err = stats.LatestRecordedAt(ctx)
		if err != nil {
			t.Fatalf("failed to read latest time: %v", err)
		}
		if latest == nil || !latest.Equal(base.Add(2*time.Hour)) {
			t.Error("expected latest observation time")
		}
	})

	t.Run("RecordBatch", func(t *testing.T) {
		db, videoID := setup(t)
		stats := NewStatRepository(db)
		at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		batch := map[models.StatName]int64{
			models.StatViews: 1000,
			models.StatLikes: 50,
		}

		created, err := stats.RecordBatch(ctx, videoID, batch, at)
		if err != nil {
			t.Fatalf("failed to record batch: %v", err)
		}
		if created != 2 {
			t.Errorf("expected 2 rows created, got %d", created)
		}

		created, err = stats.RecordBatch(ctx, videoID, batch, at)
		if err != nil {
			t.Fatalf("failed to re-record batch: %v", err)
		}
		if created != 0 {
			t.Errorf("expected idempotent re-record, got %d new rows", created)
		}
	})

	t.Run("Rejects Unknown Stat Name", func(t *testing.T) {
		db, videoID := setup(t)
		stats := NewStatRepository(db)

		if _, err := stats.Record(ctx, videoID, models.StatName("clicks"), 1, time.Now()); err == nil {
			t.Error("expected error for unknown stat name")
		}
	})
}

func TestBuildStatsReport(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	artists := NewArtistRepository(db)
	tracks := NewTrackRepository(db)
	videos := NewVideoRepository(db)
	stats := NewStatRepository(db)

	author := &models.Artist{TikTokID: strPtr("u1")}
	if err := artists.Create(ctx, author); err != nil {
		t.Fatalf("failed to create author: %v", err)
	}

	crossPlatform := &models.Track{Name: strPtr("Both"), SpotifyID: strPtr("sp1"), TikTokSoundID: strPtr("s1")}
	spotifyOnly := &models.Track{Name: strPtr("Spotify Only"), SpotifyID: strPtr("sp2")}
	for _, track := range []*models.Track{crossPlatform, spotifyOnly} {
		if err := tracks.Create(ctx, track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
	}

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, tiktokID := range []string{"v1", "v2"} {
		video := &models.Video{TrackID: crossPlatform.ID, AuthorID: author.ID, TikTokID: strPtr(tiktokID)}
		if err := videos.Create(ctx, video); err != nil {
			t.Fatalf("failed to create video: %v", err)
		}
		if _, err := stats.Record(ctx, video.ID, models.StatViews, int64(100*(i+1)), at); err != nil {
			t.Fatalf("failed to record stat: %v", err)
		}
	}

	report, err := BuildStatsReport(ctx, db, 5)
	if err != nil {
		t.Fatalf("failed to build report: %v", err)
	}

	if report.Artists != 1 || report.Tracks != 2 || report.Videos != 2 || report.Snapshots != 2 {
		t.Errorf("unexpected counts: %+v", report)
	}
	if report.CrossPlatform != 1 {
		t.Errorf("expected 1 cross-platform track, got %d", report.CrossPlatform)
	}
	if report.LatestSnapshot == nil || !report.LatestSnapshot.Equal(at) {
		t.Error("expected latest snapshot time")
	}
	if len(report.TopTracks) != 1 {
		t.Fatalf("expected 1 ranked track, got %d", len(report.TopTracks))
	}
	if report.TopTracks[0].TrackID != crossPlatform.ID || report.TopTracks[0].VideoCount != 2 {
		t.Errorf("unexpected top track: %+v", report.TopTracks[0])
	}
}
