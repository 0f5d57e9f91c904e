package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlatformListView ViewState = iota
	ConfirmView
	IngestView
	ResultView
)

// Platform identifies an ingestion target selectable in the TUI.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformTikTok  Platform = "tiktok"
	PlatformAll     Platform = "all"
)

// platformItem wraps a [Platform] to implement [list.Item].
type platformItem struct {
	platform    Platform
	label       string
	description string
}

var _ list.Item = platformItem{}

func (i platformItem) FilterValue() string { return i.label }
func (i platformItem) Title() string       { return i.label }
func (i platformItem) Description() string { return i.description }

func platformItems() []list.Item {
	return []list.Item{
		platformItem{PlatformSpotify, "Spotify", "New release albums and tracks"},
		platformItem{PlatformTikTok, "TikTok", "Trending videos, sounds, and engagement stats"},
		platformItem{PlatformAll, "Both", "Run both platforms concurrently"},
	}
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	result *tasks.AllResult
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.Engine
	width        int
	height       int
	platformList list.Model
	selected     Platform
	progressChan chan tasks.ProgressUpdate
	doneChan     chan runCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.AllResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine tasks.Engine) *Model {
	platforms := list.New(platformItems(), list.NewDefaultDelegate(), 0, 0)
	platforms.Title = "Ingest From"
	platforms.SetShowStatusBar(false)
	platforms.SetFilteringEnabled(false)

	return &Model{
		ctx:          ctx,
		view:         PlatformListView,
		engine:       engine,
		platformList: platforms,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init is a no-op; the platform list is static.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.platformList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlatformListView:
			return m.handlePlatformListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == PlatformListView {
		m.platformList, cmd = m.platformList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlatformListView:
		return m.renderPlatformList()
	case ConfirmView:
		return m.renderConfirm()
	case IngestView:
		return m.renderIngest()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlatformListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if item, ok := m.platformList.SelectedItem().(platformItem); ok {
			m.selected = item.platform
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.platformList, cmd = m.platformList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PlatformListView
		return m, nil
	case "y":
		m.view = IngestView
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlatformListView
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, nil
	}
	return m, nil
}

func (m *Model) startRun() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	m.progressChan = progress
	done := make(chan runCompleteMsg, 1)

	go func() {
		var msg runCompleteMsg
		switch m.selected {
		case PlatformSpotify:
			result, err := m.engine.RunSpotify(m.ctx, progress)
			msg = runCompleteMsg{result: &tasks.AllResult{Spotify: result}, err: err}
		case PlatformTikTok:
			result, err := m.engine.RunTikTok(m.ctx, progress)
			msg = runCompleteMsg{result: &tasks.AllResult{TikTok: result}, err: err}
		default:
			result, err := m.engine.RunAll(m.ctx, progress)
			msg = runCompleteMsg{result: result, err: err}
		}
		done <- msg
		close(progress)
	}()

	m.doneChan = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	done := m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlatformList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.platformList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Start %s ingestion run?", m.selected))
	info := "\nFetches platform metadata and records it in the tracker database.\n"

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderIngest() string {
	title := styles.title.Render("Ingesting")

	var phase string
	switch m.progress.Phase {
	case tasks.Authenticate:
		phase = "Authenticating..."
	case tasks.FetchAlbums, tasks.FetchAlbumTracks:
		phase = fmt.Sprintf("Fetching catalog (%d albums)", m.progress.Step)
	case tasks.FetchVideos:
		phase = fmt.Sprintf("Processing videos (%d)", m.progress.Step)
	case tasks.ResolveEntities:
		phase = fmt.Sprintf("Resolving entities (%d items)", m.progress.Step)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Run Complete")
	body := ""
	for _, run := range []*tasks.RunResult{m.result.Spotify, m.result.TikTok} {
		if run == nil {
			continue
		}
		body += fmt.Sprintf(
			"\n%s: %d items, %d new entities, %d snapshots",
			run.Platform, run.ItemsProcessed, run.EntitiesCreated, run.SnapshotsCreated,
		)
		if run.Failed() > 0 {
			body += fmt.Sprintf("\n%s", styles.warn.Render(fmt.Sprintf("  skipped %d items:", run.Failed())))
			for _, item := range run.Errors {
				body += fmt.Sprintf("\n  • %s: %v", item.ExternalID, item.Err)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s\n\n%s", title, body, helpView)
}
