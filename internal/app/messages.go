package app

import (
	"github.com/rigbench/rigview/internal/api"
	"github.com/rigbench/rigview/internal/telemetry"
)

// TestsLoadedMsg carries the available test runs (or the failure to list them).
type TestsLoadedMsg struct {
	Tests []api.TestRun
	Err   error
}

// LiveBatchMsg is the result of one live poll. Epoch identifies the session
// the fetch was issued for; results from a stale epoch are discarded.
type LiveBatchMsg struct {
	Epoch   int
	Samples []telemetry.Sample
	Err     error
}

// LiveTickMsg fires when the poll period elapses after a completed fetch.
type LiveTickMsg struct {
	Epoch int
}

// HistoryLoadedMsg carries a full downsampled series.
type HistoryLoadedMsg struct {
	Samples []telemetry.Sample
	Err     error
}

// CharLoadedMsg carries the characterization grid.
type CharLoadedMsg struct {
	Grid api.CharGrid
	Err  error
}

// ChartsExportedMsg reports a PNG export of the current charts.
type ChartsExportedMsg struct {
	Dir   string
	Count int
	Err   error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
