// Spotify API implementation of [CatalogService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
//
// Optional fields are pointers so that payloads omitting them parse as
// absent rather than as zero values.
type SpotifyArtist struct {
	ID         string         `json:"id"`
	Href       string         `json:"href"`
	Name       *string        `json:"name"`
	URI        *string        `json:"uri"`
	Genres     []string       `json:"genres"`
	Images     []SpotifyImage `json:"images"`
	Popularity *int           `json:"popularity"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string            `json:"id"`
	Href        string            `json:"href"`
	Name        *string           `json:"name"`
	URI         *string           `json:"uri"`
	Artists     []SpotifyArtist   `json:"artists"`
	DurationMS  *int              `json:"duration_ms"`
	Explicit    *bool             `json:"explicit"`
	Popularity  *int              `json:"popularity"`
	PreviewURL  *string           `json:"preview_url"`
	ExternalIDs map[string]string `json:"external_ids"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
}

// spotifyPaging is the generic Spotify paging envelope.
type spotifyPaging[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// SpotifyService implements [CatalogService] using the client-credentials
// flow; new-release browsing needs no user authorization.
type SpotifyService struct {
	config     *clientcredentials.Config
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service with the given API credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyService{config: config, baseURL: spotifyBaseURL}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate acquires a client-credentials token and installs the
// auto-refreshing HTTP client.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	if _, err := s.config.Token(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	s.httpClient = s.config.Client(ctx)
	return nil
}

// SetHTTPClient overrides the HTTP client, bypassing token acquisition. Used in tests.
func (s *SpotifyService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// SetBaseURL replaces the API base URL. Used in tests against [httptest.Server].
func (s *SpotifyService) SetBaseURL(base string) {
	s.baseURL = strings.TrimSuffix(base, "/")
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// NewReleases retrieves one page of newly released albums.
func (s *SpotifyService) NewReleases(ctx context.Context, offset, limit int) (Page[SpotifyAlbum], error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/browse/new-releases?limit=%d&offset=%d", limit, offset)

	var response struct {
		Albums spotifyPaging[SpotifyAlbum] `json:"albums"`
	}
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return Page[SpotifyAlbum]{}, err
	}

	return Page[SpotifyAlbum]{
		Items:   response.Albums.Items,
		HasNext: response.Albums.Next != nil,
	}, nil
}

// AlbumTracks retrieves all tracks on an album, draining the album's
// track pagination.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]SpotifyTrack, error) {
	if albumID == "" {
		return nil, fmt.Errorf("%w: album ID is required", shared.ErrMissingArgument)
	}

	pager := Paginator[SpotifyTrack]{
		Limit: 50,
		Fetch: func(ctx context.Context, offset, limit int) (Page[SpotifyTrack], error) {
			endpoint := fmt.Sprintf("/albums/%s/tracks?limit=%d&offset=%d", url.PathEscape(albumID), limit, offset)

			var response spotifyPaging[SpotifyTrack]
			if err := s.doRequest(ctx, endpoint, &response); err != nil {
				return Page[SpotifyTrack]{}, err
			}

			return Page[SpotifyTrack]{Items: response.Items, HasNext: response.Next != nil}, nil
		},
	}

	return pager.All(ctx)
}

// Artist retrieves a single artist by ID with full metadata (genres,
// images, popularity), which album and track payloads omit.
func (s *SpotifyService) Artist(ctx context.Context, artistID string) (*SpotifyArtist, error) {
	if artistID == "" {
		return nil, fmt.Errorf("%w: artist ID is required", shared.ErrMissingArgument)
	}

	var artist SpotifyArtist
	endpoint := fmt.Sprintf("/artists/%s", url.PathEscape(artistID))
	if err := s.doRequest(ctx, endpoint, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// SeveralArtists retrieves multiple artists by their IDs (up to 50).
func (s *SpotifyService) SeveralArtists(ctx context.Context, artistIDs []string) ([]SpotifyArtist, error) {
	if len(artistIDs) == 0 {
		return nil, fmt.Errorf("%w: no artist IDs provided", shared.ErrMissingArgument)
	}
	if len(artistIDs) > 50 {
		return nil, fmt.Errorf("%w: maximum 50 artist IDs allowed", shared.ErrInvalidArgument)
	}

	ids := strings.Join(artistIDs, ",")
	endpoint := fmt.Sprintf("/artists?ids=%s", url.QueryEscape(ids))

	var response struct {
		Artists []SpotifyArtist `json:"artists"`
	}
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return response.Artists, nil
}

// ParseSpotifyArtist converts a Spotify artist payload into a canonical
// artist record. The platform identifier is required; everything else is
// optional metadata.
func ParseSpotifyArtist(a SpotifyArtist) (models.ArtistRecord, error) {
	if a.ID == "" {
		return models.ArtistRecord{}, fmt.Errorf("%w: artist missing id", ErrMalformedRecord)
	}

	id := a.ID
	rec := models.ArtistRecord{
		SpotifyID:         &id,
		Name:              a.Name,
		SpotifyURI:        a.URI,
		SpotifyPopularity: a.Popularity,
		SpotifyGenres:     a.Genres,
	}

	if a.Href != "" {
		href := a.Href
		rec.SpotifyHref = &href
	}

	for _, img := range a.Images {
		rec.SpotifyImages = append(rec.SpotifyImages, models.Image{
			URL:    img.URL,
			Width:  img.Width,
			Height: img.Height,
		})
	}

	return rec, nil
}

// ParseSpotifyTrack converts a Spotify track payload into a canonical track
// record, extracting the nested artist list into ordered credits: the first
// listed artist is the primary credit, the rest are featured.
func ParseSpotifyTrack(t SpotifyTrack) (models.TrackRecord, error) {
	if t.ID == "" {
		return models.TrackRecord{}, fmt.Errorf("%w: track missing id", ErrMalformedRecord)
	}

	id := t.ID
	rec := models.TrackRecord{
		SpotifyID:          &id,
		Name:               t.Name,
		SpotifyURI:         t.URI,
		SpotifyDurationMS:  t.DurationMS,
		SpotifyExplicit:    t.Explicit,
		SpotifyPopularity:  t.Popularity,
		SpotifyPreviewURL:  t.PreviewURL,
		SpotifyExternalIDs: t.ExternalIDs,
	}

	if t.Href != "" {
		href := t.Href
		rec.SpotifyHref = &href
	}

	for i, a := range t.Artists {
		artist, err := ParseSpotifyArtist(a)
		if err != nil {
			return models.TrackRecord{}, fmt.Errorf("track %s: %w", t.ID, err)
		}

		role := models.RolePrimary
		if i > 0 {
			role = models.RoleFeatured
		}
		rec.Artists = append(rec.Artists, models.TrackCredit{Artist: artist, Role: role})
	}

	return rec, nil
}
