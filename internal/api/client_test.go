package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tests", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"t-1","name":"run A"},{"id":"t-2","name":"run B"}]`))
	}))
	defer srv.Close()

	runs, err := New(srv.URL).Tests(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "t-1", runs[0].ID)
	assert.Equal(t, "run B", runs[1].Name)
}

func TestLiveSeriesQueryAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/live_series", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "t-1", q.Get("test_id"))
		assert.Equal(t, "2", q.Get("system"))
		assert.Equal(t, "17", q.Get("from_idx"))
		assert.Equal(t, "500", q.Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"idx":18,"t_hour":0.5,"tap1":1.0,"tap2":2.0,"tap3":3.0},{"idx":19,"t_hour":0.51,"rpm":3000}]`))
	}))
	defer srv.Close()

	samples, err := New(srv.URL).LiveSeries(context.Background(), "t-1", 2, 17, 500)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, 18, samples[0].Idx)
	require.NotNil(t, samples[0].Tap2)
	assert.Equal(t, 2.0, *samples[0].Tap2)
	assert.Nil(t, samples[0].RPM, "absent channel must decode to nil, not zero")

	require.NotNil(t, samples[1].RPM)
	assert.Equal(t, 3000.0, *samples[1].RPM)
	assert.Nil(t, samples[1].Tap1)
}

func TestLiveSeriesEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	samples, err := New(srv.URL).LiveSeries(context.Background(), "t-1", 1, 0, 500)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestSeriesQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/series/t-9", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "3", q.Get("system"))
		assert.Equal(t, "10", q.Get("step"))
		assert.Equal(t, "2.5", q.Get("dt_sec"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"idx":1,"t_hour":0}]`))
	}))
	defer srv.Close()

	samples, err := New(srv.URL).Series(context.Background(), "t-9", SeriesQuery{System: 3, Step: 10, DtSec: 2.5})
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestCharacterizationDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/characterization/t-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"25":{"100":{"3000":{"median":1.2,"p95":1.9,"count":42}}}}`))
	}))
	defer srv.Close()

	grid, err := New(srv.URL).Characterization(context.Background(), "t-1", 1)
	require.NoError(t, err)
	cell := grid["25"]["100"]["3000"]
	assert.Equal(t, 1.2, cell.Median)
	assert.Equal(t, 1.9, cell.P95)
	assert.Equal(t, 42, cell.Count)
}

func TestErrorBodySurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"unknown test"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Tests(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown test")
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.csv")
	require.NoError(t, os.WriteFile(path, []byte("idx,t_sec,system\n1,0,1\n"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		file, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "run.csv", hdr.Filename)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"test":"run","rows":1,"test_id":"t-new"}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "t-new", res.TestID)
	assert.Equal(t, 1, res.Rows)
}
