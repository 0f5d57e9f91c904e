package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StatsReport is a point-in-time summary of the tracker database.
type StatsReport struct {
	Artists        int             `json:"artists"`
	Tracks         int             `json:"tracks"`
	Videos         int             `json:"videos"`
	Snapshots      int             `json:"snapshots"`
	CrossPlatform  int             `json:"cross_platform_tracks"`
	LatestSnapshot *time.Time      `json:"latest_snapshot,omitempty"`
	TopTracks      []TrackActivity `json:"top_tracks,omitempty"`
}

// TrackActivity ranks a track by how many videos use its sound.
type TrackActivity struct {
	TrackID    string `json:"track_id"`
	Name       string `json:"name"`
	VideoCount int    `json:"video_count"`
}

// BuildStatsReport assembles a [StatsReport] from the current database state.
// topN bounds the ranked track list; zero omits it.
func BuildStatsReport(ctx context.Context, db *sql.DB, topN int) (*StatsReport, error) {
	report := &StatsReport{}

	var err error
	if report.Artists, err = NewArtistRepository(db).Count(ctx); err != nil {
		return nil, err
	}
	if report.Tracks, err = NewTrackRepository(db).Count(ctx); err != nil {
		return nil, err
	}
	if report.Videos, err = NewVideoRepository(db).Count(ctx); err != nil {
		return nil, err
	}

	stats := NewStatRepository(db)
	if report.Snapshots, err = stats.Count(ctx); err != nil {
		return nil, err
	}
	if report.LatestSnapshot, err = stats.LatestRecordedAt(ctx); err != nil {
		return nil, err
	}

	query := `SELECT COUNT(*) FROM tracks WHERE spotify_id IS NOT NULL AND tiktok_sound_id IS NOT NULL`
	if err := db.QueryRowContext(ctx, query).Scan(&report.CrossPlatform); err != nil {
		return nil, fmt.Errorf("failed to count cross-platform tracks: %w", err)
	}

	if topN > 0 {
		report.TopTracks, err = topTracksByVideos(ctx, db, topN)
		if err != nil {
			return nil, err
		}
	}

	return report, nil
}

func topTracksByVideos(ctx context.Context, db *sql.DB, limit int) ([]TrackActivity, error) {
	query := `
		SELECT t.id, COALESCE(t.name, ''), COUNT(v.id) AS video_count
		FROM tracks t
		JOIN videos v ON v.track_id = t.id
		GROUP BY t.id
		ORDER BY video_count DESC, t.sequence ASC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top tracks: %w", err)
	}
	defer rows.Close()

	var top []TrackActivity
	for rows.Next() {
		var t TrackActivity
		if err := rows.Scan(&t.TrackID, &t.Name, &t.VideoCount); err != nil {
			return nil, fmt.Errorf("failed to scan top track: %w", err)
		}
		top = append(top, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return top, nil
}
