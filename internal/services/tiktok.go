// TikTok API [VideoService] implementation
//
// Communicates with a local proxy wrapping the TikTok web API. The proxy
// needs the ms_token session cookie from an active browser session, passed
// here as a session token header.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

const defaultTikTokBaseURL = "http://localhost:8090"

// The TikTok-assigned default title for user-uploaded original audio.
// Sounds carrying it are valid but hold no track metadata worth keeping.
const originalSoundTitle = "original sound"

// TikTokAuthor represents a creator in TikTok responses.
type TikTokAuthor struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Followers *int   `json:"follower_count"`
}

// TikTokSound represents the audio attached to a video post.
type TikTokSound struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Author   *TikTokAuthor `json:"author"`
	Duration *int          `json:"duration"`
	Original *bool         `json:"original"`
}

// TikTokStats carries the engagement counters of a video at fetch time.
//
// Counts are pointers so absent metrics are absent, not zero.
type TikTokStats struct {
	PlayCount    *int64 `json:"play_count"`
	DiggCount    *int64 `json:"digg_count"`
	ShareCount   *int64 `json:"share_count"`
	CommentCount *int64 `json:"comment_count"`
}

// TikTokVideo represents a video post from the trending feed.
type TikTokVideo struct {
	ID         string        `json:"id"`
	CreateTime int64         `json:"create_time"` // Unix seconds
	Author     *TikTokAuthor `json:"author"`
	Sound      *TikTokSound  `json:"sound"`
	Stats      *TikTokStats  `json:"stats"`
}

// TikTokService implements [VideoService] against the proxy.
type TikTokService struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
}

// NewTikTokService creates a new TikTok service instance.
func NewTikTokService(baseURL, sessionToken string) *TikTokService {
	if baseURL == "" {
		baseURL = defaultTikTokBaseURL
	}

	return &TikTokService{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		sessionToken: sessionToken,
		httpClient:   http.DefaultClient,
	}
}

func (t *TikTokService) Name() string {
	return "TikTok"
}

// SetHTTPClient overrides the HTTP client. Used in tests.
func (t *TikTokService) SetHTTPClient(client *http.Client) {
	t.httpClient = client
}

// Authenticate validates the session token against the proxy's health endpoint.
func (t *TikTokService) Authenticate(ctx context.Context) error {
	if t.sessionToken == "" {
		return fmt.Errorf("%w: missing TikTok session token", shared.ErrMissingCredentials)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := t.doRequest(ctx, "/health", &health); err != nil {
		return err
	}

	if health.Status != "ok" {
		return fmt.Errorf("%w: proxy health %q", shared.ErrAuthFailed, health.Status)
	}

	return nil
}

func (t *TikTokService) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := t.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if t.sessionToken != "" {
		req.Header.Set("X-Session-Token", t.sessionToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// TrendingVideos retrieves one page of trending video posts.
func (t *TikTokService) TrendingVideos(ctx context.Context, offset, limit int) (Page[TikTokVideo], error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	endpoint := fmt.Sprintf("/api/trending/videos?offset=%d&limit=%d", offset, limit)

	var response struct {
		Items   []TikTokVideo `json:"items"`
		HasMore bool          `json:"has_more"`
	}
	if err := t.doRequest(ctx, endpoint, &response); err != nil {
		return Page[TikTokVideo]{}, err
	}

	return Page[TikTokVideo]{Items: response.Items, HasNext: response.HasMore}, nil
}

// ParseTikTokAuthor converts a TikTok creator payload into a canonical
// artist record.
func ParseTikTokAuthor(a TikTokAuthor) (models.ArtistRecord, error) {
	if a.UserID == "" {
		return models.ArtistRecord{}, fmt.Errorf("%w: author missing user id", ErrMalformedRecord)
	}

	id := a.UserID
	rec := models.ArtistRecord{
		TikTokID:        &id,
		TikTokFollowers: a.Followers,
	}

	if a.Username != "" {
		username := a.Username
		rec.TikTokUsername = &username
		rec.Name = &username
	}

	return rec, nil
}

// ParseTikTokSound converts a sound payload into a canonical sound record.
//
// Three outcomes:
//   - a sound without a title is malformed: (nil, [ErrMalformedSound])
//   - a sound titled "original sound" is valid but filtered: (nil, nil)
//   - anything else parses to a record; a missing author yields a record
//     with a nil Author, since author data is optional metadata
func ParseTikTokSound(s TikTokSound) (*models.SoundRecord, error) {
	if s.Title == "" {
		return nil, fmt.Errorf("sound %s: %w", s.ID, ErrMalformedSound)
	}

	if s.Title == originalSoundTitle {
		return nil, nil
	}

	rec := &models.SoundRecord{
		Name:      s.Title,
		DurationS: s.Duration,
	}

	if s.ID != "" {
		id := s.ID
		rec.TikTokID = &id
	}

	if s.Original != nil {
		original := *s.Original
		rec.IsOriginal = &original
	}

	if s.Author != nil {
		author, err := ParseTikTokAuthor(*s.Author)
		if err != nil {
			return nil, fmt.Errorf("sound %s: %w", s.ID, err)
		}
		rec.Author = &author
	}

	return rec, nil
}

// ParseTikTokVideo converts a video payload into a canonical video record.
//
// Returns (nil, nil) when the video's sound is filtered; the whole post is
// skipped silently in that case. A video without a sound or without an
// author is malformed.
func ParseTikTokVideo(v TikTokVideo) (*models.VideoRecord, error) {
	if v.ID == "" {
		return nil, fmt.Errorf("%w: video missing id", ErrMalformedRecord)
	}

	if v.Sound == nil {
		return nil, fmt.Errorf("%w: video %s lacks a sound", ErrMalformedRecord, v.ID)
	}

	sound, err := ParseTikTokSound(*v.Sound)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", v.ID, err)
	}
	if sound == nil {
		return nil, nil
	}

	if v.Author == nil {
		return nil, fmt.Errorf("%w: video %s lacks an author", ErrMalformedRecord, v.ID)
	}

	author, err := ParseTikTokAuthor(*v.Author)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", v.ID, err)
	}

	id := v.ID
	rec := &models.VideoRecord{
		TikTokID: &id,
		Sound:    *sound,
		Author:   author,
		Stats:    make(map[models.StatName]int64),
	}

	if v.CreateTime > 0 {
		created := time.Unix(v.CreateTime, 0).UTC()
		rec.CreateTime = &created
	}

	if v.Stats != nil {
		if v.Stats.PlayCount != nil {
			rec.Stats[models.StatViews] = *v.Stats.PlayCount
		}
		if v.Stats.DiggCount != nil {
			rec.Stats[models.StatLikes] = *v.Stats.DiggCount
		}
		if v.Stats.ShareCount != nil {
			rec.Stats[models.StatShares] = *v.Stats.ShareCount
		}
		if v.Stats.CommentCount != nil {
			rec.Stats[models.StatComments] = *v.Stats.CommentCount
		}
	}

	return rec, nil
}
