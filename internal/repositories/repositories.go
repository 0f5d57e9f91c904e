// package repositories provides the persistence layer: per-entity
// repositories over database/sql plus the cross-platform entity resolver.
//
// Repositories are constructed over a [DBTX] so the same code runs against
// a *sql.DB directly or inside a resolver-owned transaction.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/models"
)

// DBTX is the subset of *sql.DB / *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = fmt.Errorf("not found")

// NextSequence increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities. Callers
// that need atomicity run this inside a transaction.
func NextSequence(ctx context.Context, q DBTX, table string) (int, error) {
	sequenceTable := table + "_sequence"

	if _, err := q.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}

// nullString converts an optional string to its sql representation.
func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullBool(p *bool) sql.NullBool {
	if p == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func boolPtr(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	b := n.Bool
	return &b
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// marshalJSONColumn serializes a value for storage in a TEXT column,
// mapping empty values to NULL.
func marshalJSONColumn(v any) (sql.NullString, error) {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return sql.NullString{}, nil
		}
	case map[string]string:
		if len(val) == 0 {
			return sql.NullString{}, nil
		}
	case []models.Image:
		if len(val) == 0 {
			return sql.NullString{}, nil
		}
	case nil:
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal column: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalJSONColumn deserializes a TEXT column into target. NULL leaves
// target untouched.
func unmarshalJSONColumn(n sql.NullString, target any) error {
	if !n.Valid {
		return nil
	}
	if err := json.Unmarshal([]byte(n.String), target); err != nil {
		return fmt.Errorf("failed to unmarshal column: %w", err)
	}
	return nil
}
