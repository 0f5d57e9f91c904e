// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for ingestion runs:
//  1. [PlatformListView] : Pick a platform to ingest from
//  2. [ConfirmView] : Confirm the run
//  3. [IngestView] : Monitor real-time progress updates
//  4. [ResultView] : Display run counts and skipped items
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the IngestEngine, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
