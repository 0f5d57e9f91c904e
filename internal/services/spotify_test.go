package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
)

func newTestSpotifyService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	srv.SetBaseURL(server.URL)
	srv.SetHTTPClient(server.Client())
	return srv
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "c"})
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})
	})

	t.Run("Requires Authentication", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := srv.NewReleases(ctx, 0, 10); err == nil {
			t.Error("expected error before authentication")
		}
	})

	t.Run("NewReleases", func(t *testing.T) {
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/browse/new-releases" {
				t.Errorf("unexpected path: %s", req.URL.Path)
			}

			offset := req.URL.Query().Get("offset")
			next := `"https://api.spotify.com/v1/browse/new-releases?offset=2"`
			if offset == "2" {
				next = "null"
			}
			fmt.Fprintf(w, `{"albums": {"items": [
				{"id": "album_%s_a", "name": "First", "total_tracks": 3},
				{"id": "album_%s_b", "name": "Second", "total_tracks": 5}
			], "next": %s}}`, offset, offset, next)
		}))

		page, err := srv.NewReleases(ctx, 0, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Items) != 2 {
			t.Fatalf("expected 2 albums, got %d", len(page.Items))
		}
		if page.Items[0].ID != "album_0_a" {
			t.Errorf("unexpected album id %s", page.Items[0].ID)
		}
		if !page.HasNext {
			t.Error("expected HasNext on first page")
		}

		last, err := srv.NewReleases(ctx, 2, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if last.HasNext {
			t.Error("expected final page to report no next")
		}
	})

	t.Run("AlbumTracks", func(t *testing.T) {
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/albums/abc/tracks" {
				t.Errorf("unexpected path: %s", req.URL.Path)
			}
			fmt.Fprint(w, `{"items": [
				{"id": "t1", "name": "Opener", "artists": [{"id": "a1", "name": "Lead"}]},
				{"id": "t2", "name": "Closer", "artists": [{"id": "a1", "name": "Lead"}]}
			], "next": null}`)
		}))

		tracks, err := srv.AlbumTracks(ctx, "abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[1].ID != "t2" {
			t.Errorf("unexpected track id %s", tracks[1].ID)
		}
	})

	t.Run("AlbumTracks Requires ID", func(t *testing.T) {
		srv := newTestSpotifyService(t, http.NewServeMux())
		if _, err := srv.AlbumTracks(ctx, ""); err == nil {
			t.Error("expected error for missing album ID")
		}
	})

	t.Run("API Error Status", func(t *testing.T) {
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		if _, err := srv.NewReleases(ctx, 0, 10); err == nil {
			t.Error("expected error on 429 response")
		}
	})
}

func TestParseSpotifyArtist(t *testing.T) {
	t.Run("Full Payload", func(t *testing.T) {
		name := "Test Artist"
		popularity := 78
		a := SpotifyArtist{
			ID:         "artist1",
			Href:       "https://api.spotify.com/v1/artists/artist1",
			Name:       &name,
			Genres:     []string{"indie", "electronic"},
			Popularity: &popularity,
			Images:     []SpotifyImage{{URL: "https://img", Width: 640, Height: 640}},
		}

		rec, err := ParseSpotifyArtist(a)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.SpotifyID == nil || *rec.SpotifyID != "artist1" {
			t.Error("expected spotify id to be set")
		}
		if rec.TikTokID != nil {
			t.Error("expected no tiktok id")
		}
		if len(rec.SpotifyGenres) != 2 {
			t.Errorf("expected 2 genres, got %d", len(rec.SpotifyGenres))
		}
		if len(rec.SpotifyImages) != 1 || rec.SpotifyImages[0].Width != 640 {
			t.Error("expected image to carry over")
		}
	})

	t.Run("Minimal Payload", func(t *testing.T) {
		rec, err := ParseSpotifyArtist(SpotifyArtist{ID: "artist2"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Name != nil || rec.SpotifyHref != nil || rec.SpotifyPopularity != nil {
			t.Error("expected absent fields to stay nil")
		}
		if !rec.HasIdentity() {
			t.Error("expected record to have identity")
		}
	})

	t.Run("Missing ID", func(t *testing.T) {
		_, err := ParseSpotifyArtist(SpotifyArtist{})
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("expected ErrMalformedRecord, got %v", err)
		}
	})
}

func TestParseSpotifyTrack(t *testing.T) {
	t.Run("Artist Roles", func(t *testing.T) {
		name := "Collab"
		lead := "Lead"
		feat := "Feature"
		track := SpotifyTrack{
			ID:   "track1",
			Name: &name,
			Artists: []SpotifyArtist{
				{ID: "a1", Name: &lead},
				{ID: "a2", Name: &feat},
			},
		}

		rec, err := ParseSpotifyTrack(track)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(rec.Artists) != 2 {
			t.Fatalf("expected 2 credits, got %d", len(rec.Artists))
		}
		if rec.Artists[0].Role != models.RolePrimary {
			t.Errorf("expected first credit primary, got %s", rec.Artists[0].Role)
		}
		if rec.Artists[1].Role != models.RoleFeatured {
			t.Errorf("expected second credit featured, got %s", rec.Artists[1].Role)
		}
	})

	t.Run("Missing ID", func(t *testing.T) {
		_, err := ParseSpotifyTrack(SpotifyTrack{})
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("expected ErrMalformedRecord, got %v", err)
		}
	})

	t.Run("Malformed Nested Artist", func(t *testing.T) {
		track := SpotifyTrack{
			ID:      "track2",
			Artists: []SpotifyArtist{{}},
		}

		_, err := ParseSpotifyTrack(track)
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("expected ErrMalformedRecord, got %v", err)
		}
	})

	t.Run("External IDs Carried", func(t *testing.T) {
		track := SpotifyTrack{
			ID:          "track3",
			ExternalIDs: map[string]string{"isrc": "USRC12345678"},
		}

		rec, err := ParseSpotifyTrack(track)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.SpotifyExternalIDs["isrc"] != "USRC12345678" {
			t.Error("expected isrc to carry over")
		}
	})
}
