package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	assert.Zero(t, percentile(nil, 0.5))

	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(6), percentile(sorted, 0.50))
	assert.Equal(t, time.Duration(10), percentile(sorted, 0.95))
	assert.Equal(t, time.Duration(10), percentile(sorted, 1))
}

func TestPerfStatsSummaries(t *testing.T) {
	stats := NewPerfStats()
	stats.Add(Result{Bundle: "overview", StatusCode: http.StatusOK, Duration: 3 * time.Millisecond})
	stats.Add(Result{Bundle: "overview", StatusCode: http.StatusOK, Duration: time.Millisecond, Degraded: true})
	stats.Add(Result{Bundle: "overview", StatusCode: http.StatusBadRequest})
	stats.Add(Result{Bundle: "actors", Error: errors.New("connection refused")})

	summaries := stats.Summaries()
	require.Len(t, summaries, 2)

	assert.Equal(t, BundleSummary{Bundle: "actors", Requests: 1, Failed: 1}, summaries[0])
	assert.Equal(t, "overview", summaries[1].Bundle)
	assert.Equal(t, 3, summaries[1].Requests)
	assert.Equal(t, 1, summaries[1].Failed)
	assert.Equal(t, 1, summaries[1].Degraded)
	assert.Equal(t, 3*time.Millisecond, summaries[1].Max)
	assert.Equal(t, map[int]int{http.StatusOK: 2, http.StatusBadRequest: 1}, stats.Statuses)

	var out bytes.Buffer
	require.NoError(t, stats.WriteTable(&out))
	assert.Contains(t, out.String(), "BUNDLE")
	assert.Contains(t, out.String(), "overview")

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, stats.Save(path))
	assert.FileExists(t, path)
}

func TestSendRequestDetectsDegradedReports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reports/feedback", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"meta":{"bundle":"feedback","sections":{"feedback":"unavailable"}}}`))
	}))
	defer srv.Close()

	result := sendRequest(context.Background(), srv.Client(), srv.URL, "feedback")
	require.NoError(t, result.Error)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.True(t, result.Degraded)
}
