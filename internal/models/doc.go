// Package models defines domain entities for the Track Tracker ingestion service.
//
// The package contains two categories of types:
//
// 1. Canonical records: platform-agnostic candidates produced by the payload parsers
//   - [ArtistRecord] : artist candidate keyed by spotify_id and/or tiktok_id
//   - [TrackRecord] : track/sound candidate keyed by spotify_id and/or tiktok_sound_id
//   - [SoundRecord] : parsed TikTok sound, convertible to a [TrackRecord]
//   - [VideoRecord] : parsed short-video post carrying its sound, author, and stats
//
// 2. Persisted entities: rows as stored by internal/repositories
//   - [Artist], [Track], [Video], [VideoStat]
//
// Canonical records use nil pointers for fields the source payload did not carry;
// the entity resolver never fabricates defaults and only fills persisted columns
// from non-nil candidate fields.
package models
