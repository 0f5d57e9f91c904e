package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

const videoColumns = `id, sequence, track_id, author_id, tiktok_id, create_time, created_at`

// VideoRepository persists [models.Video] rows. Video rows are never updated
// after creation; engagement history lives in video_stats.
type VideoRepository struct {
	q DBTX
}

// NewVideoRepository creates a new VideoRepository over the given connection or transaction.
func NewVideoRepository(q DBTX) *VideoRepository {
	return &VideoRepository{q: q}
}

// Create inserts a new video row with generated ID and sequence.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	sequence, err := NextSequence(ctx, r.q, "videos")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	video.ID = shared.GenerateID()
	video.Sequence = sequence
	video.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO videos (` + videoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.q.ExecContext(ctx, query,
		video.ID,
		video.Sequence,
		video.TrackID,
		video.AuthorID,
		nullString(video.TikTokID),
		nullTime(video.CreateTime),
		video.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}

	return nil
}

// Get retrieves a video by row ID.
func (r *VideoRepository) Get(ctx context.Context, id string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByTikTokID retrieves a video by its TikTok identifier.
func (r *VideoRepository) GetByTikTokID(ctx context.Context, tiktokID string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE tiktok_id = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, query, tiktokID))
}

// Count returns the total number of video rows.
func (r *VideoRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

func (r *VideoRepository) scanOne(row *sql.Row) (*models.Video, error) {
	var (
		id         string
		sequence   int
		trackID    string
		authorID   string
		tiktokID   sql.NullString
		createTime sql.NullTime
		createdAt  time.Time
	)

	err := row.Scan(&id, &sequence, &trackID, &authorID, &tiktokID, &createTime, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan video: %w", err)
	}

	return &models.Video{
		ID:         id,
		Sequence:   sequence,
		TrackID:    trackID,
		AuthorID:   authorID,
		TikTokID:   stringPtr(tiktokID),
		CreateTime: timePtr(createTime),
		CreatedAt:  createdAt,
	}, nil
}
