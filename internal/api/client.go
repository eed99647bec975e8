package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rigbench/rigview/internal/telemetry"
)

// Client talks to the test-bench backend over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Tests lists the available test runs.
func (c *Client) Tests(ctx context.Context) ([]TestRun, error) {
	var runs []TestRun
	if err := c.get(ctx, "/tests", nil, &runs); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return runs, nil
}

// LiveSeries fetches samples with idx > fromIdx for one test and system, in
// ascending idx order, at most limit entries. An empty slice means no new
// data yet.
func (c *Client) LiveSeries(ctx context.Context, testID string, system, fromIdx, limit int) ([]telemetry.Sample, error) {
	q := url.Values{}
	q.Set("test_id", testID)
	q.Set("system", strconv.Itoa(system))
	q.Set("from_idx", strconv.Itoa(fromIdx))
	q.Set("limit", strconv.Itoa(limit))

	var samples []telemetry.Sample
	if err := c.get(ctx, "/live_series", q, &samples); err != nil {
		return nil, fmt.Errorf("live series: %w", err)
	}
	return samples, nil
}

// Series fetches the historical downsampled series for a test.
func (c *Client) Series(ctx context.Context, testID string, sq SeriesQuery) ([]telemetry.Sample, error) {
	q := url.Values{}
	q.Set("system", strconv.Itoa(sq.System))
	if sq.Step > 0 {
		q.Set("step", strconv.Itoa(sq.Step))
	}
	if sq.DtSec > 0 {
		q.Set("dt_sec", strconv.FormatFloat(sq.DtSec, 'f', -1, 64))
	}
	if sq.TStartSec > 0 {
		q.Set("t_start_sec", strconv.FormatFloat(sq.TStartSec, 'f', -1, 64))
	}
	if sq.TEndSec > 0 {
		q.Set("t_end_sec", strconv.FormatFloat(sq.TEndSec, 'f', -1, 64))
	}

	var samples []telemetry.Sample
	if err := c.get(ctx, "/series/"+url.PathEscape(testID), q, &samples); err != nil {
		return nil, fmt.Errorf("series %s: %w", testID, err)
	}
	return samples, nil
}

// Characterization fetches the aggregate voltage-drop grid for a test.
func (c *Client) Characterization(ctx context.Context, testID string, system int) (CharGrid, error) {
	q := url.Values{}
	q.Set("system", strconv.Itoa(system))

	var grid CharGrid
	if err := c.get(ctx, "/characterization/"+url.PathEscape(testID), q, &grid); err != nil {
		return nil, fmt.Errorf("characterization %s: %w", testID, err)
	}
	return grid, nil
}

// Upload posts a CSV file to the backend as multipart form data.
func (c *Client) Upload(ctx context.Context, path string) (UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, fmt.Errorf("upload: %s", readErrorBody(resp))
	}

	var res UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	return res, nil
}

// get issues a GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s", readErrorBody(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readErrorBody extracts a useful message from a non-200 response. The
// backend returns {"error": "..."} on failures.
func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Sprintf("%s: %s", resp.Status, e.Error)
	}
	return resp.Status
}
