// Copyright © 2021-2025 The Gomon Project.

package serve

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zosmac/pidmon/format"
	"github.com/zosmac/pidmon/monitor"
	"github.com/zosmac/pidmon/process"
	"golang.org/x/net/websocket"
)

var (
	session = uuid.New()

	sampled = monitor.Report{
		Session: session,
		Pid:     4242,
		Sample: process.Sample{
			Pid:     4242,
			Time:    time.Date(2025, 9, 8, 15, 44, 0, 0, time.Local),
			Rss:     3 << 20,
			Vms:     1 << 30,
			Uss:     process.Unavailable[uint64](),
			Percent: process.Present(2.5),
		},
		Peak:    4 << 20,
		Samples: 2,
	}
)

func scrape(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics(t *testing.T) {
	s := New(true)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	body := scrape(t, ts.URL)
	assert.NotContains(t, body, "pidmon_process_resident_bytes", "no sample yet")
	assert.Contains(t, body, "pidmon_http_requests_total 1")

	s.Observe(sampled)
	body = scrape(t, ts.URL)
	labels := `{pid="4242",session="` + session.String() + `"}`
	assert.Contains(t, body, "pidmon_process_resident_bytes"+labels+" 3.145728e+06")
	assert.Contains(t, body, "pidmon_process_virtual_bytes"+labels+" 1.073741824e+09")
	assert.Contains(t, body, "pidmon_process_resident_peak_bytes"+labels+" 4.194304e+06")
	assert.Contains(t, body, "pidmon_process_memory_percent"+labels+" 2.5")
	assert.Contains(t, body, "pidmon_samples_total"+labels+" 2")
	assert.NotContains(t, body, "pidmon_process_unique_bytes{", "unavailable USS is not reported")

	stopped := sampled
	stopped.Outcome = monitor.Exited
	s.Observe(stopped)
	body = scrape(t, ts.URL)
	assert.Contains(t, body, "pidmon_process_resident_peak_bytes"+labels)
	assert.NotContains(t, body, "pidmon_process_resident_bytes{")
}

func TestSampleJSON(t *testing.T) {
	s := New(true)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sample")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no sample yet")

	decode := func() map[string]any {
		resp, err := http.Get(ts.URL + "/sample")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		var m map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
		return m
	}

	s.Observe(sampled)
	m := decode()
	assert.Equal(t, session.String(), m["session"])
	assert.Equal(t, float64(4<<20), m["peak"])
	assert.Equal(t, float64(2), m["samples"])
	assert.NotContains(t, m, "outcome")
	require.IsType(t, map[string]any{}, m["sample"])
	sample := m["sample"].(map[string]any)
	assert.Equal(t, float64(4242), sample["pid"])
	assert.Equal(t, float64(3<<20), sample["rss"])
	assert.Equal(t, float64(1<<30), sample["vms"])
	assert.Contains(t, sample, "uss")
	assert.Nil(t, sample["uss"], "unavailable USS is null")
	assert.Equal(t, 2.5, sample["percent"])

	stopped := sampled
	stopped.Outcome = monitor.Exited
	s.Observe(stopped)
	assert.Equal(t, "exited", decode()["outcome"])
}

func TestStream(t *testing.T) {
	s := New(true)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ws, err := websocket.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", "", ts.URL)
	require.NoError(t, err)
	defer ws.Close()

	receive := func() string {
		var line string
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, websocket.Message.Receive(ws, &line))
		return line
	}

	header := format.Header(true)
	assert.Equal(t, header[0], receive())
	assert.Equal(t, header[1], receive())

	// the handler subscribes before sending the header
	s.Observe(sampled)
	assert.Equal(t, format.Row(sampled.Sample, true), receive())

	stopped := sampled
	stopped.Outcome = monitor.Cancelled
	s.Observe(stopped)
	assert.Equal(t, "Peak RSS: 4.00 MB", receive())

	var line string
	assert.Error(t, websocket.Message.Receive(ws, &line), "stream closes when the session stops")
}

func TestStreamAfterStop(t *testing.T) {
	s := New(false)
	stopped := sampled
	stopped.Outcome = monitor.Denied
	s.Observe(stopped)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ws, err := websocket.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", "", ts.URL)
	require.NoError(t, err)
	defer ws.Close()

	var lines []string
	for {
		var line string
		if err := websocket.Message.Receive(ws, &line); err != nil {
			break
		}
		lines = append(lines, line)
	}
	assert.Equal(t, append(format.Header(false), "Peak RSS: 4.00 MB"), lines)
}

func TestPublishSlowSubscriber(t *testing.T) {
	s := New(false)
	ch, ok := s.subscribe()
	require.True(t, ok)

	for range backlog + 10 {
		s.Observe(sampled)
	}
	stopped := sampled
	stopped.Outcome = monitor.Exited
	s.Observe(stopped)

	var last string
	var n int
	for line := range ch {
		last = line
		n++
	}
	assert.Equal(t, backlog, n)
	assert.Equal(t, "Peak RSS: 4.00 MB", last)

	_, ok = s.subscribe()
	assert.False(t, ok)
	s.unsubscribe(ch) // already closed by the stop
}
