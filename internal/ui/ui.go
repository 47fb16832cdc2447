package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	ChartView
	ConfirmView
	SyncView
	ResultView
)

// logLines is how many recent progress messages the sync view keeps.
const logLines = 8

// ChartFunc fetches the chart to sync.
type ChartFunc func(ctx context.Context) ([]models.ChartEntry, error)

// SyncFunc reconciles the playlist with chart, reporting progress.
type SyncFunc func(ctx context.Context, chart []models.ChartEntry, progress chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error)

// Options configures a [Model].
type Options struct {
	Title      string // chart label, e.g. "Psy-Trance Top 100"
	PlaylistID string
	FetchChart ChartFunc
	Sync       SyncFunc

	// AutoStart skips the chart and confirm views.
	AutoStart bool
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	opts     Options
	view     ViewState
	width    int
	height   int
	chart    []models.ChartEntry
	list     list.Model
	spinner  spinner.Model
	progress chan tasks.ProgressUpdate
	done     chan Msg
	cancel   context.CancelFunc
	quitting bool
	phase    tasks.Phase
	step     int
	total    int
	log      []string
	result   *tasks.SyncResult
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:     ctx,
		opts:    opts,
		view:    LoadingView,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the outcome of the last sync, if any.
func (m *Model) Result() (*tasks.SyncResult, error) {
	return m.result, m.err
}

// Init starts the chart fetch.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchChart())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ChartView {
			m.list.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != LoadingView && m.view != SyncView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == ChartView {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgChartFetched:
		data := msg.data.(chartFetched)
		if data.err != nil {
			m.err = data.err
			m.view = ResultView
			return m, nil
		}
		m.chart = data.entries
		if m.opts.AutoStart {
			return m, m.startSync()
		}
		m.list = list.New(chartItems(data.entries), list.NewDefaultDelegate(), 0, 0)
		m.list.Title = m.opts.Title
		m.list.SetSize(m.width-4, m.height-8)
		m.view = ChartView
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.phase, m.step, m.total = update.Phase, update.Step, update.Total
		if update.Message != "" {
			m.log = append(m.log, update.Message)
			if len(m.log) > logLines {
				m.log = m.log[len(m.log)-logLines:]
			}
		}
		return m, m.waitForSync()

	case MsgSyncComplete:
		data := msg.data.(syncComplete)
		m.result, m.err = data.result, data.err
		m.progress, m.done = nil, nil
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.view = ResultView
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case ChartView:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			m.view = ConfirmView
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case ConfirmView:
		switch {
		case key.Matches(msg, m.keys.yes):
			return m, m.startSync()
		case key.Matches(msg, m.keys.no):
			m.view = ChartView
			return m, nil
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		}

	case ResultView:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.restart):
			m.result, m.err = nil, nil
			if m.chart == nil {
				m.view = LoadingView
				return m, tea.Batch(m.spinner.Tick, m.fetchChart())
			}
			return m, m.startSync()
		}

	case SyncView:
		if key.Matches(msg, m.keys.quit) {
			return m.interrupt()
		}

	default:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	if m.view == ChartView {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// interrupt cancels the running sync and quits once it has returned its partial result.
// A second quit key gives up waiting.
func (m *Model) interrupt() (tea.Model, tea.Cmd) {
	if m.quitting {
		m.err = fmt.Errorf("sync abandoned before it returned: %w", context.Canceled)
		return m, tea.Quit
	}
	m.quitting = true
	if m.cancel != nil {
		m.cancel()
	}
	return m, nil
}

func (m *Model) fetchChart() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.opts.FetchChart(m.ctx)
		return chartFetchedMsg(entries, err)
	}
}

// startSync runs the sync in a goroutine. The result travels on its own channel, so it arrives
// even if progress updates were dropped.
func (m *Model) startSync() tea.Cmd {
	m.view = SyncView
	m.log = nil
	m.quitting = false
	m.phase, m.step, m.total = tasks.PhaseIndex, 0, 0
	m.progress = make(chan tasks.ProgressUpdate, 64)
	m.done = make(chan Msg, 1)

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel

	progress, done, chart := m.progress, m.done, m.chart
	go func() {
		result, err := m.opts.Sync(ctx, chart, progress)
		done <- syncCompleteMsg(result, err)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForSync())
}

func (m *Model) waitForSync() tea.Cmd {
	progress, done := m.progress, m.done
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Fetching %s...\n", m.spinner.View(), m.opts.Title)
	case ChartView:
		return m.renderChart()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderChart() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.list.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync %s to playlist %s?", m.opts.Title, m.opts.PlaylistID))
	info := fmt.Sprintf("Chart entries: %d\nTracked items missing from the chart are removed; untagged items are never touched.\n", len(m.chart))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing " + m.opts.Title)

	phase := phaseLabel(m.phase)
	if m.total > 1 {
		phase = fmt.Sprintf("%s (%d/%d)", phase, m.step, m.total)
	}

	var b strings.Builder
	if m.quitting {
		phase = "Cancelling, waiting for the current call to return... (press again to abandon)"
	}
	fmt.Fprintf(&b, "%s\n\n%s %s\n\n", title, m.spinner.View(), phase)
	for _, line := range m.log {
		b.WriteString(styles.help.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderResult() string {
	restart := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.result == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Sync failed: %v", m.err)
		}
		return fmt.Sprintf("%s\n\n%s", styles.error.Render(msg), restart)
	}

	stats := m.result.Stats()
	var title string
	switch {
	case m.err != nil:
		title = styles.warning.Render(fmt.Sprintf("Sync interrupted: %v", m.err))
	case stats.Failed > 0 || m.result.MetadataErr != nil:
		title = styles.warning.Render("Sync finished with errors")
	default:
		title = styles.success.Render("✓ Sync complete")
	}

	info := styles.box.Render(fmt.Sprintf(
		"Playlist: %s\nChart: %d\nAdded: %d\nRemoved: %d\nNot found: %d\nFailed: %d\nMetadata updated: %t",
		m.result.PlaylistID, stats.ChartSize, stats.Added, stats.Removed, stats.NotFound, stats.Failed, stats.MetadataUpdated,
	))

	var issues []string
	for _, o := range m.result.Outcomes() {
		switch {
		case o.Action == models.ActionNotFound:
			issues = append(issues, fmt.Sprintf("  • no video for #%s", o.ExternalID))
		case o.Err != nil:
			issues = append(issues, fmt.Sprintf("  • %s #%s: %v", o.Action, o.ExternalID, o.Err))
		}
	}
	details := ""
	if len(issues) > 0 {
		details = "\n\n" + styles.warning.Render(fmt.Sprintf("%d issues:", len(issues))) + "\n" + strings.Join(issues, "\n")
	}

	return fmt.Sprintf("%s\n\n%s%s\n\n%s", title, info, details, restart)
}

func phaseLabel(p tasks.Phase) string {
	switch p {
	case tasks.PhaseIndex:
		return "Reading playlist..."
	case tasks.PhaseDiff:
		return "Comparing with chart..."
	case tasks.PhaseRemove:
		return "Removing dropped tracks"
	case tasks.PhaseAdd:
		return "Adding new tracks"
	case tasks.PhaseMetadata:
		return "Updating playlist description..."
	case tasks.PhaseDone:
		return "Finishing..."
	default:
		return "Processing..."
	}
}
