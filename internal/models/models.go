package models

import (
	"fmt"
	"time"
)

// Role tags an artist's credit on a track.
type Role string

const (
	RolePrimary  Role = "primary"
	RoleFeatured Role = "featured"
	RoleProducer Role = "producer"
)

// Validate checks that the role is one of the known credit types.
func (r Role) Validate() error {
	switch r {
	case RolePrimary, RoleFeatured, RoleProducer:
		return nil
	default:
		return fmt.Errorf("invalid track credit role: %q", string(r))
	}
}

// StatName identifies one engagement metric in the video_stats time series.
type StatName string

const (
	StatViews    StatName = "views"
	StatLikes    StatName = "likes"
	StatShares   StatName = "shares"
	StatComments StatName = "comments"
)

// Validate checks that the stat name is one of the recorded metrics.
func (s StatName) Validate() error {
	switch s {
	case StatViews, StatLikes, StatShares, StatComments:
		return nil
	default:
		return fmt.Errorf("invalid stat name: %q", string(s))
	}
}

// Image is an image resource attached to platform metadata.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ArtistRecord is the canonical, platform-agnostic artist candidate produced
// by the parsers. Optional platform fields are nil when the source payload
// did not carry them; the resolver only fills persisted columns from non-nil
// fields.
type ArtistRecord struct {
	Name              *string
	SpotifyID         *string
	SpotifyHref       *string
	SpotifyURI        *string
	SpotifyPopularity *int
	SpotifyGenres     []string
	SpotifyImages     []Image
	TikTokID          *string
	TikTokUsername    *string
	TikTokFollowers   *int
}

// HasIdentity reports whether at least one external identifier is present.
// Records without identity cannot be resolved to a row.
func (a ArtistRecord) HasIdentity() bool {
	return a.SpotifyID != nil || a.TikTokID != nil
}

// TrackCredit pairs a nested artist record with its credit role, preserving
// the order the platform listed the artists in.
type TrackCredit struct {
	Artist ArtistRecord
	Role   Role
}

// TrackRecord is the canonical track/sound candidate keyed by either
// platform identifier.
type TrackRecord struct {
	Name               *string
	SpotifyID          *string
	SpotifyHref        *string
	SpotifyURI         *string
	SpotifyDurationMS  *int
	SpotifyExplicit    *bool
	SpotifyPopularity  *int
	SpotifyPreviewURL  *string
	SpotifyExternalIDs map[string]string
	TikTokSoundID      *string
	TikTokDurationS    *int
	TikTokIsOriginal   *bool
	Artists            []TrackCredit
}

// HasIdentity reports whether at least one external identifier is present.
func (t TrackRecord) HasIdentity() bool {
	return t.SpotifyID != nil || t.TikTokSoundID != nil
}

// SoundRecord is a parsed TikTok sound. Author is nil when the platform
// supplied no author metadata; that is acceptable, author data is not
// identity-critical.
type SoundRecord struct {
	Name       string
	Author     *ArtistRecord
	TikTokID   *string
	DurationS  *int
	IsOriginal *bool
}

// Track converts the sound into a canonical track candidate, crediting the
// sound's author as the primary artist when known.
func (s SoundRecord) Track() TrackRecord {
	name := s.Name
	rec := TrackRecord{
		Name:             &name,
		TikTokSoundID:    s.TikTokID,
		TikTokDurationS:  s.DurationS,
		TikTokIsOriginal: s.IsOriginal,
	}

	if s.Author != nil {
		rec.Artists = []TrackCredit{{Artist: *s.Author, Role: RolePrimary}}
	}

	return rec
}

// VideoRecord is a parsed short-video post using a sound.
type VideoRecord struct {
	TikTokID   *string
	Sound      SoundRecord
	Author     ArtistRecord
	CreateTime *time.Time
	Stats      map[StatName]int64
}

// Artist is a persisted artist row with identity merged across platforms.
type Artist struct {
	ID                string
	Sequence          int
	Name              *string
	SpotifyID         *string
	SpotifyHref       *string
	SpotifyURI        *string
	SpotifyPopularity *int
	SpotifyGenres     []string
	SpotifyImages     []Image
	TikTokID          *string
	TikTokUsername    *string
	TikTokFollowers   *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Track is a persisted track row.
type Track struct {
	ID                 string
	Sequence           int
	Name               *string
	SpotifyID          *string
	SpotifyHref        *string
	SpotifyURI         *string
	SpotifyDurationMS  *int
	SpotifyExplicit    *bool
	SpotifyPopularity  *int
	SpotifyPreviewURL  *string
	SpotifyExternalIDs map[string]string
	TikTokSoundID      *string
	TikTokDurationS    *int
	TikTokIsOriginal   *bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Video is a persisted short-video row. Video rows are immutable once
// created except for their stat history.
type Video struct {
	ID         string
	Sequence   int
	TrackID    string
	AuthorID   string
	TikTokID   *string
	CreateTime *time.Time
	CreatedAt  time.Time
}

// VideoStat is one append-only observation in the engagement time series.
type VideoStat struct {
	ID         string
	VideoID    string
	StatName   StatName
	StatValue  int64
	RecordedAt time.Time
}
