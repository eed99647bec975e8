// Package api provides the HTTP client and wire types for the test-bench
// backend.
package api

// TestRun identifies one stored test run.
type TestRun struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UploadResult is returned by the backend after ingesting an uploaded file.
type UploadResult struct {
	Test   string `json:"test"`
	Rows   int    `json:"rows"`
	TestID string `json:"test_id"`
}

// SeriesQuery selects a historical downsampled series.
type SeriesQuery struct {
	System    int
	Step      int
	DtSec     float64
	TStartSec float64
	TEndSec   float64
}

// CharCell is one characterization grid cell: voltage-drop statistics over
// the samples falling into a (temperature, current, rpm) bucket.
type CharCell struct {
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Count  int     `json:"count"`
}

// CharGrid maps ambient-temperature bucket -> current bucket -> rpm bucket.
type CharGrid map[string]map[string]map[string]CharCell
