package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rigbench/rigview/internal/api"
	"github.com/rigbench/rigview/internal/chart"
	"github.com/rigbench/rigview/internal/telemetry"
)

// Poll cadence and page size of the live loop.
const (
	PollInterval   = 2 * time.Second
	LiveBatchLimit = 500
)

const fetchTimeout = 15 * time.Second

// View selects the main content pane.
type View int

const (
	ViewLive View = iota
	ViewHistory
	ViewChar
)

// Model is the root bubbletea model for the rigview dashboard.
type Model struct {
	client *api.Client
	log    *slog.Logger

	// Selection state
	tests       []api.TestRun
	testIndex   int
	system      int // 1..3
	testsLoaded bool

	view View

	// Live session
	live        bool
	series      *telemetry.Series
	lastUpdated time.Time
	pollError   string

	// Historical series (loaded once per request)
	history        []telemetry.Sample
	historyLoading bool

	// Characterization grid
	charGrid    api.CharGrid
	charLoading bool

	// UI state
	width  int
	height int

	errorMessage   string
	errorTransient bool
	statusText     string

	exportDir  string
	exportNote string
}

// New creates a Model with default state: first test (once loaded), system 1,
// live off.
func New(client *api.Client, log *slog.Logger, exportDir string) Model {
	return Model{
		client:     client,
		log:        log,
		system:     1,
		series:     telemetry.NewSeries(),
		statusText: "Loading tests...",
		exportDir:  exportDir,
	}
}

// Init loads the test list.
func (m Model) Init() tea.Cmd {
	return loadTestsCmd(m.client)
}

// selectedTest returns the current test run, if any.
func (m Model) selectedTest() (api.TestRun, bool) {
	if m.testIndex < 0 || m.testIndex >= len(m.tests) {
		return api.TestRun{}, false
	}
	return m.tests[m.testIndex], true
}

// loadTestsCmd fetches the available test runs.
func loadTestsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		tests, err := client.Tests(ctx)
		return TestsLoadedMsg{Tests: tests, Err: err}
	}
}

// fetchLiveCmd issues one live poll for samples beyond the cursor. The epoch
// recorded at issue time rides along so stale results can be discarded.
func fetchLiveCmd(client *api.Client, testID string, system, epoch, fromIdx int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		samples, err := client.LiveSeries(ctx, testID, system, fromIdx, LiveBatchLimit)
		return LiveBatchMsg{Epoch: epoch, Samples: samples, Err: err}
	}
}

// liveTickCmd schedules the next poll. It is only ever issued after a fetch
// completes, so at most one request is in flight per session.
func liveTickCmd(epoch int) tea.Cmd {
	return tea.Tick(PollInterval, func(time.Time) tea.Msg {
		return LiveTickMsg{Epoch: epoch}
	})
}

// loadHistoryCmd fetches the full downsampled series once.
func loadHistoryCmd(client *api.Client, testID string, system int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		samples, err := client.Series(ctx, testID, api.SeriesQuery{System: system, Step: 10})
		return HistoryLoadedMsg{Samples: samples, Err: err}
	}
}

// loadCharCmd fetches the characterization grid.
func loadCharCmd(client *api.Client, testID string, system int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		grid, err := client.Characterization(ctx, testID, system)
		return CharLoadedMsg{Grid: grid, Err: err}
	}
}

// exportChartsCmd writes all six charts of the given sequence as PNG files.
func exportChartsCmd(dir, prefix string, samples []telemetry.Sample) tea.Cmd {
	return func() tea.Msg {
		derived := telemetry.DeriveAll(samples)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ChartsExportedMsg{Err: fmt.Errorf("export dir: %w", err)}
		}
		count := 0
		for _, k := range chart.Kinds() {
			png, err := chart.RenderPNG(k, derived, 900, 420)
			if err != nil {
				continue // kinds with no data are skipped, not fatal
			}
			name := filepath.Join(dir, fmt.Sprintf("%s_%s.png", prefix, k.Slug()))
			if err := os.WriteFile(name, png, 0o644); err != nil {
				return ChartsExportedMsg{Err: fmt.Errorf("write %s: %w", name, err)}
			}
			count++
		}
		return ChartsExportedMsg{Dir: dir, Count: count}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TestsLoadedMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.statusText = "Backend unreachable"
			m.log.Error("list tests failed", "err", msg.Err)
			return m, nil
		}
		m.tests = msg.Tests
		m.testsLoaded = true
		if m.testIndex >= len(m.tests) {
			m.testIndex = 0
		}
		m.errorMessage = ""
		m.statusText = fmt.Sprintf("%d tests available", len(m.tests))
		return m, nil

	case LiveBatchMsg:
		return m.handleLiveBatch(msg)

	case LiveTickMsg:
		if !m.live || msg.Epoch != m.series.Epoch() {
			return m, nil
		}
		test, ok := m.selectedTest()
		if !ok {
			return m, nil
		}
		return m, fetchLiveCmd(m.client, test.ID, m.system, msg.Epoch, m.series.Cursor())

	case HistoryLoadedMsg:
		m.historyLoading = false
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.errorTransient = true
			m.log.Warn("history load failed", "err", msg.Err)
			return m, clearTransientErrorCmd()
		}
		m.history = msg.Samples
		m.statusText = fmt.Sprintf("History: %d samples", len(msg.Samples))
		return m, nil

	case CharLoadedMsg:
		m.charLoading = false
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.errorTransient = true
			m.log.Warn("characterization load failed", "err", msg.Err)
			return m, clearTransientErrorCmd()
		}
		m.charGrid = msg.Grid
		m.statusText = "Characterization loaded"
		return m, nil

	case ChartsExportedMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.errorTransient = true
			return m, clearTransientErrorCmd()
		}
		m.exportNote = fmt.Sprintf("exported %d charts to %s", msg.Count, msg.Dir)
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// handleLiveBatch ingests one poll result. Stale sessions (stopped live mode
// or an epoch from before a reset) are dropped without scheduling a tick,
// which is what tears the loop down.
func (m Model) handleLiveBatch(msg LiveBatchMsg) (tea.Model, tea.Cmd) {
	if !m.live || msg.Epoch != m.series.Epoch() {
		return m, nil
	}

	if msg.Err != nil {
		// Transient: surface it and let the next tick retry.
		m.pollError = msg.Err.Error()
		m.log.Warn("live poll failed", "err", msg.Err)
		return m, liveTickCmd(msg.Epoch)
	}

	m.pollError = ""
	if n := m.series.Append(msg.Epoch, msg.Samples); n > 0 {
		m.lastUpdated = time.Now()
	}
	return m, liveTickCmd(msg.Epoch)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m, tea.Quit

	case KeyLive, KeyLiveUpper:
		if m.live {
			m.stopLive()
			return m, nil
		}
		test, ok := m.selectedTest()
		if !ok {
			return m, nil // start is disabled without a selection
		}
		m.live = true
		m.view = ViewLive
		m.pollError = ""
		m.series.Reset()
		m.statusText = "Live: " + test.Name
		return m, fetchLiveCmd(m.client, test.ID, m.system, m.series.Epoch(), 0)

	case KeyNext, KeyDown:
		if m.live || len(m.tests) == 0 {
			return m, nil // selectors are disabled during live mode
		}
		if m.testIndex < len(m.tests)-1 {
			m.testIndex++
			m.onSelectionChanged()
		}
		return m, nil

	case KeyPrev, KeyUp:
		if m.live || len(m.tests) == 0 {
			return m, nil
		}
		if m.testIndex > 0 {
			m.testIndex--
			m.onSelectionChanged()
		}
		return m, nil

	case KeySystem1, KeySystem2, KeySystem3:
		if m.live {
			return m, nil
		}
		sys := int(msg.String()[0] - '0')
		if sys != m.system {
			m.system = sys
			m.onSelectionChanged()
		}
		return m, nil

	case KeyHistory:
		test, ok := m.selectedTest()
		if !ok {
			return m, nil
		}
		m.stopLive() // leaving the live view disarms the poller
		m.view = ViewHistory
		m.historyLoading = true
		return m, loadHistoryCmd(m.client, test.ID, m.system)

	case KeyChar:
		test, ok := m.selectedTest()
		if !ok {
			return m, nil
		}
		m.stopLive()
		m.view = ViewChar
		m.charLoading = true
		return m, loadCharCmd(m.client, test.ID, m.system)

	case KeyExport:
		test, ok := m.selectedTest()
		if !ok {
			return m, nil
		}
		samples := m.series.All()
		if m.view == ViewHistory {
			samples = m.history
		}
		if len(samples) == 0 {
			return m, nil
		}
		prefix := fmt.Sprintf("%s_sys%d", test.ID, m.system)
		return m, exportChartsCmd(m.exportDir, prefix, samples)

	case KeyReload:
		if m.live {
			return m, nil
		}
		m.statusText = "Reloading tests..."
		return m, loadTestsCmd(m.client)
	}

	return m, nil
}

// stopLive disarms the poller. The epoch check on result and tick messages
// makes anything still in flight a no-op.
func (m *Model) stopLive() {
	if m.live {
		m.live = false
		m.statusText = "Live stopped"
	}
}

// onSelectionChanged resets per-selection state. The series reset bumps the
// epoch, so anything still in flight for the old selection is discarded.
func (m *Model) onSelectionChanged() {
	m.series.Reset()
	m.history = nil
	m.charGrid = nil
	m.lastUpdated = time.Time{}
	m.pollError = ""
	m.exportNote = ""
}
