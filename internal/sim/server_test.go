package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigbench/rigview/internal/api"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, cfg Config) (*Server, *Store) {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "rigsim.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(store, cfg, log), store
}

func uploadCSV(t *testing.T, ts *httptest.Server, csv string) api.UploadResult {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "bench_run.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Decode through the client types to keep the wire honest.
	var res api.UploadResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

const benchCSV = `idx,t_sec,system,rpm,current,tap1,tap2,tap3,ambient
1,0,1,3000,100,1.0,1.1,1.2,25
2,2,1,3000,100,1.0,1.1,1.2,25
3,4,1,3000,100,,1.1,1.2,25
4,6,1,3000,100,1.2,1.3,1.4,25
5,8,1,3000,100,1.2,1.3,1.4,25
`

func TestUploadAndRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	res := uploadCSV(t, ts, benchCSV)
	assert.Equal(t, "bench_run", res.Test)
	assert.Equal(t, 5, res.Rows)
	require.NotEmpty(t, res.TestID)

	client := api.New(ts.URL)
	ctx := context.Background()

	runs, err := client.Tests(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.TestID, runs[0].ID)

	// Full series at step 1 returns every uploaded row.
	samples, err := client.Series(ctx, res.TestID, api.SeriesQuery{System: 1, Step: 1})
	require.NoError(t, err)
	require.Len(t, samples, 5)
	assert.Nil(t, samples[2].Tap1, "empty CSV cell must survive as absent")
}

func TestLiveSeriesPagination(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	res := uploadCSV(t, ts, benchCSV)
	client := api.New(ts.URL)
	ctx := context.Background()

	batch, err := client.LiveSeries(ctx, res.TestID, 1, 0, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, 1, batch[0].Idx)
	assert.Equal(t, 2, batch[1].Idx)

	// Next poll from the cursor gets strictly newer samples.
	batch, err = client.LiveSeries(ctx, res.TestID, 1, 2, 500)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, 3, batch[0].Idx)

	// Cursor at the end: empty batch, not an error.
	batch, err = client.LiveSeries(ctx, res.TestID, 1, 5, 500)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestLiveSeriesReplayPacing(t *testing.T) {
	srv, _ := newTestServer(t, Config{ReplayRate: 1}) // 1 row/sec
	base := time.Now()
	srv.now = func() time.Time { return base }

	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	res := uploadCSV(t, ts, benchCSV)
	client := api.New(ts.URL)
	ctx := context.Background()

	// First poll starts the replay clock: nothing visible yet.
	batch, err := client.LiveSeries(ctx, res.TestID, 1, 0, 500)
	require.NoError(t, err)
	assert.Empty(t, batch)

	// Three seconds later, three rows are visible.
	srv.now = func() time.Time { return base.Add(3 * time.Second) }
	batch, err = client.LiveSeries(ctx, res.TestID, 1, 0, 500)
	require.NoError(t, err)
	assert.Len(t, batch, 3)
}

func TestSeriesUnknownTest(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	_, err := api.New(ts.URL).Series(context.Background(), "nope", api.SeriesQuery{System: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown test")
}

func TestCharacterizationEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	res := uploadCSV(t, ts, benchCSV)
	grid, err := api.New(ts.URL).Characterization(context.Background(), res.TestID, 1)
	require.NoError(t, err)

	require.Contains(t, grid, "25")
	cell := grid["25"]["100"]["3000"]
	// Rows 1,2,4,5 have complete taps; row 3 contributes nothing.
	assert.Equal(t, 4, cell.Count)
}

func TestUploadRejectsBadCSV(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "bad.csv")
	part.Write([]byte("idx,rpm\n1,3000\n")) // no time column
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
