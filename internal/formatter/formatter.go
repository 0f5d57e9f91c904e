// package formatter provides functions to export stats reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/repositories"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

// ExportToCSV converts a StatsReport to CSV format with one metric per row.
func ExportToCSV(report *repositories.StatsReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Metric", "Value"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	rows := [][]string{
		{"artists", strconv.Itoa(report.Artists)},
		{"tracks", strconv.Itoa(report.Tracks)},
		{"cross_platform_tracks", strconv.Itoa(report.CrossPlatform)},
		{"videos", strconv.Itoa(report.Videos)},
		{"snapshots", strconv.Itoa(report.Snapshots)},
		{"latest_snapshot", formatSnapshotTime(report.LatestSnapshot)},
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	for _, top := range report.TopTracks {
		record := []string{
			fmt.Sprintf("top_track:%s", top.TrackID),
			strconv.Itoa(top.VideoCount),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a StatsReport to Markdown format
func ExportToMarkdown(report *repositories.StatsReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Track Tracker Stats\n\n")
	buf.WriteString(fmt.Sprintf("**Artists**: %d\n", report.Artists))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d (%d cross-platform)\n", report.Tracks, report.CrossPlatform))
	buf.WriteString(fmt.Sprintf("**Videos**: %d\n", report.Videos))
	buf.WriteString(fmt.Sprintf("**Snapshots**: %d\n", report.Snapshots))
	buf.WriteString(fmt.Sprintf("**Latest snapshot**: %s\n", formatSnapshotTime(report.LatestSnapshot)))

	if len(report.TopTracks) > 0 {
		buf.WriteString("\n## Most Used Sounds\n\n")
		for i, top := range report.TopTracks {
			name := top.Name
			if name == "" {
				name = top.TrackID
			}
			buf.WriteString(fmt.Sprintf("%d. %s [%d videos]\n", i+1, name, top.VideoCount))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a StatsReport to plain text format
func ExportToText(report *repositories.StatsReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Artists: %d\n", report.Artists))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n", report.Tracks))
	buf.WriteString(fmt.Sprintf("Cross-platform tracks: %d\n", report.CrossPlatform))
	buf.WriteString(fmt.Sprintf("Videos: %d\n", report.Videos))
	buf.WriteString(fmt.Sprintf("Snapshots: %d\n", report.Snapshots))
	buf.WriteString(fmt.Sprintf("Latest snapshot: %s\n", formatSnapshotTime(report.LatestSnapshot)))

	for i, top := range report.TopTracks {
		if i == 0 {
			buf.WriteString("\nMost used sounds:\n")
		}
		name := top.Name
		if name == "" {
			name = top.TrackID
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%d videos)\n", i+1, name, top.VideoCount))
	}

	return buf.Bytes(), nil
}

// ToJSON generates a JSON representation of the report
func ToJSON(report *repositories.StatsReport) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// Export renders the report in the named format: json, csv, markdown, or txt.
func Export(report *repositories.StatsReport, format string) ([]byte, error) {
	switch format {
	case "json":
		return ToJSON(report)
	case "csv":
		return ExportToCSV(report)
	case "markdown", "md":
		return ExportToMarkdown(report)
	case "txt", "text":
		return ExportToText(report)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders the report and writes it to path.
func WriteExport(report *repositories.StatsReport, format, path string) error {
	data, err := Export(report, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	return nil
}

func formatSnapshotTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
