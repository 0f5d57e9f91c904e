// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/services"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

// MustOpenDB opens an in-memory database with migrations applied and
// registers cleanup.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

// MockCatalogService is a configurable test double for [services.CatalogService]
type MockCatalogService struct {
	AuthenticateFunc func(ctx context.Context) error
	NewReleasesFunc  func(ctx context.Context, offset, limit int) (services.Page[services.SpotifyAlbum], error)
	AlbumTracksFunc  func(ctx context.Context, albumID string) ([]services.SpotifyTrack, error)
}

func (m *MockCatalogService) Authenticate(ctx context.Context) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx)
	}
	return nil
}

func (m *MockCatalogService) NewReleases(ctx context.Context, offset, limit int) (services.Page[services.SpotifyAlbum], error) {
	if m.NewReleasesFunc != nil {
		return m.NewReleasesFunc(ctx, offset, limit)
	}
	return services.Page[services.SpotifyAlbum]{}, nil
}

func (m *MockCatalogService) AlbumTracks(ctx context.Context, albumID string) ([]services.SpotifyTrack, error) {
	if m.AlbumTracksFunc != nil {
		return m.AlbumTracksFunc(ctx, albumID)
	}
	return nil, nil
}

func (m *MockCatalogService) Name() string { return "mock-catalog" }

// MockVideoService is a configurable test double for [services.VideoService]
type MockVideoService struct {
	AuthenticateFunc   func(ctx context.Context) error
	TrendingVideosFunc func(ctx context.Context, offset, limit int) (services.Page[services.TikTokVideo], error)
}

func (m *MockVideoService) Authenticate(ctx context.Context) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx)
	}
	return nil
}

func (m *MockVideoService) TrendingVideos(ctx context.Context, offset, limit int) (services.Page[services.TikTokVideo], error) {
	if m.TrendingVideosFunc != nil {
		return m.TrendingVideosFunc(ctx, offset, limit)
	}
	return services.Page[services.TikTokVideo]{}, nil
}

func (m *MockVideoService) Name() string { return "mock-video" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }

// Int64Ptr returns a pointer to i.
func Int64Ptr(i int64) *int64 { return &i }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
