package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redactyl/dlpagent/internal/types"
)

func newClient(t *testing.T, h http.Handler, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", Options{
		Timeout:           time.Second,
		MaxRetries:        retries,
		RequestsPerSecond: 1000,
		InitialBackoff:    time.Millisecond,
	}, zerolog.Nop())
}

func TestShouldRun(t *testing.T) {
	cases := map[string]bool{
		`{"should_run": true}`:  true,
		`{"should_run": false}`: false,
		`{}`:                    false,
		`{"other": 1}`:          false,
	}
	for body, want := range cases {
		t.Run(body, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, PathScanStatus, r.URL.Path)
				_, _ = io.WriteString(w, body)
			}), 0)
			got, err := c.ShouldRun(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestShouldRun_BadJSON(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}), 0)
	_, err := c.ShouldRun(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode scan status")
}

func TestSendData(t *testing.T) {
	var got types.Report
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathData, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}), 0)

	report := types.Report{
		Tool: "dlpagent", Version: "test", Schema: types.SchemaVersion, CycleID: "c1", Root: "/srv",
		Findings: []types.Finding{{Path: "a.txt", Rule: "ssn", Value: "123-45-6789", Fingerprint: "abc"}},
	}
	require.NoError(t, c.SendData(context.Background(), report))
	assert.Equal(t, report, got)
}

func TestSignalComplete_StatusError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}), 3)
	err := c.SignalComplete(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Equal(t, PathScanComplete, se.Path)
	assert.Equal(t, "nope", se.Body)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"should_run": true}`)
	}), 3)
	ok, err := c.ShouldRun(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), 2)
	err := c.SignalComplete(context.Background())
	assert.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}), 5)
	require.Error(t, c.SendData(context.Background(), types.Report{}))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, Options{Timeout: 30 * time.Millisecond, RequestsPerSecond: 1000}, zerolog.Nop())
	_, err := c.ShouldRun(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchConfig(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathConfig, r.URL.Path)
		_, _ = io.WriteString(w, `{"scan_path": "/data", "file_types": ["pdf"], "polling_interval": 15}`)
	}), 0)
	fc, err := c.FetchConfig(context.Background())
	require.NoError(t, err)
	require.NotNil(t, fc.ScanPath)
	assert.Equal(t, "/data", *fc.ScanPath)
	assert.Equal(t, []string{"pdf"}, fc.FileTypes)
	require.NotNil(t, fc.PollingInterval)
	assert.Equal(t, 15.0, *fc.PollingInterval)
	assert.Nil(t, fc.ServerHost)
}

func TestEndpointTrimsSlash(t *testing.T) {
	c := New("http://controller:8080/", Options{}, zerolog.Nop())
	assert.Equal(t, "http://controller:8080", c.Endpoint())
}
