package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

// StatRepository appends engagement observations to the video_stats time
// series. The series is append-only: rows are never updated or deleted, and
// re-recording the same (video, metric, time) observation is a no-op.
type StatRepository struct {
	q DBTX
}

// NewStatRepository creates a new StatRepository over the given connection or transaction.
func NewStatRepository(q DBTX) *StatRepository {
	return &StatRepository{q: q}
}

// Record appends one observation. Returns true when a new row was created,
// false when the identical observation already existed.
func (r *StatRepository) Record(ctx context.Context, videoID string, name models.StatName, value int64, recordedAt time.Time) (bool, error) {
	if err := name.Validate(); err != nil {
		return false, err
	}

	query := `
		INSERT INTO video_stats (id, video_id, stat_name, stat_value, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (video_id, stat_name, recorded_at) DO NOTHING
	`

	result, err := r.q.ExecContext(ctx, query, shared.GenerateID(), videoID, string(name), value, recordedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to record stat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// RecordBatch appends every observation in stats at the same recorded_at.
// Returns the number of rows actually created.
func (r *StatRepository) RecordBatch(ctx context.Context, videoID string, stats map[models.StatName]int64, recordedAt time.Time) (int, error) {
	names := make([]models.StatName, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	created := 0
	for _, name := range names {
		ok, err := r.Record(ctx, videoID, name, stats[name], recordedAt)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	return created, nil
}

// History returns a video's observations for one metric in chronological order.
func (r *StatRepository) History(ctx context.Context, videoID string, name models.StatName) ([]models.VideoStat, error) {
	query := `
		SELECT id, video_id, stat_name, stat_value, recorded_at
		FROM video_stats
		WHERE video_id = ? AND stat_name = ?
		ORDER BY recorded_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, videoID, string(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var stats []models.VideoStat
	for rows.Next() {
		var s models.VideoStat
		var statName string
		if err := rows.Scan(&s.ID, &s.VideoID, &statName, &s.StatValue, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stat: %w", err)
		}
		s.StatName = models.StatName(statName)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

// Count returns the total number of recorded observations.
func (r *StatRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM video_stats").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stats: %w", err)
	}
	return count, nil
}

// LatestRecordedAt returns the most recent observation time, or nil when the
// series is empty.
//
// Selects the bare column rather than MAX(recorded_at): the aggregate loses
// the column's declared type and the driver would hand back a string.
func (r *StatRepository) LatestRecordedAt(ctx context.Context) (*time.Time, error) {
	var latest time.Time
	err := r.q.QueryRowContext(ctx, "SELECT recorded_at FROM video_stats ORDER BY recorded_at DESC LIMIT 1").Scan(&latest)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest stat time: %w", err)
	}
	return &latest, nil
}
