package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialpress/internal/queue"
	"socialpress/internal/schedule"
	logx "socialpress/pkg/logx"
)

type fakeTrigger struct {
	report  schedule.Report
	err     error
	running bool
	next    time.Time
}

func (f *fakeTrigger) RunNow(context.Context) (schedule.Report, error) { return f.report, f.err }
func (f *fakeTrigger) Running() bool                                   { return f.running }

func (f *fakeTrigger) NextRun() (time.Time, bool) {
	if f.next.IsZero() {
		return time.Time{}, false
	}
	return f.next, true
}

func newTestServer(t *testing.T, maxSize int, trigger *fakeTrigger) (*Server, queue.Store) {
	t.Helper()
	store, err := queue.Open(queue.Config{
		Driver:  "file",
		Path:    filepath.Join(t.TempDir(), "queue.json"),
		MaxSize: maxSize,
	}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s, err := New(Config{Addr: ":0"}, store, trigger, logx.Nop())
	require.NoError(t, err)
	return s, store
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echoContentType, "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "body: %s", rec.Body.String())
	return rec, decoded
}

const echoContentType = "Content-Type"

func TestEnqueueEndpoint(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, 5, &fakeTrigger{})

	rec, body := doJSON(t, s, http.MethodPost, "/requests",
		`{"url":"https://example.com/post","platforms":{"telegram":true,"linkedin":true}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "queued", body["status"])
	assert.EqualValues(t, 1, body["position"])
	assert.EqualValues(t, 1, body["queue_size"])
}

func TestEnqueueValidation(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, 5, &fakeTrigger{})

	cases := []struct {
		name string
		body string
	}{
		{"no payload", `{"platforms":{"telegram":true}}`},
		{"both payloads", `{"url":"https://a.com","text":"b","platforms":{"telegram":true}}`},
		{"no platforms", `{"text":"hello"}`},
		{"bad scheme", `{"url":"ftp://a.com","platforms":{"telegram":true}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := doJSON(t, s, http.MethodPost, "/requests", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "rejected", body["status"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestEnqueueQueueFull(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, 2, &fakeTrigger{})

	for i := 0; i < 2; i++ {
		rec, _ := doJSON(t, s, http.MethodPost, "/requests",
			`{"text":"note","platforms":{"telegram":true}}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := doJSON(t, s, http.MethodPost, "/requests",
		`{"text":"one too many","platforms":{"telegram":true}}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rejected", body["status"])
	assert.Contains(t, body["message"], "full")
}

func TestQueueListing(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t, 5, &fakeTrigger{})
	_, err := store.Enqueue(context.Background(), queue.Request{
		Text: "hello", Platforms: queue.Platforms{Twitter: true},
	})
	require.NoError(t, err)

	rec, body := doJSON(t, s, http.MethodGet, "/queue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])
	entries, ok := body["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
}

func TestQueueStatus(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC)
	s, store := newTestServer(t, 5, &fakeTrigger{running: true, next: next})
	_, err := store.Enqueue(context.Background(), queue.Request{
		Text: "hello", Platforms: queue.Platforms{Twitter: true},
	})
	require.NoError(t, err)

	rec, body := doJSON(t, s, http.MethodGet, "/queue/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["pending"])
	assert.EqualValues(t, 0, body["dead"])
	assert.Equal(t, true, body["processing"])
	assert.Contains(t, body["next_scheduled_time"], "2026-09-01T23:00:00")
}

func TestProcessAll(t *testing.T) {
	t.Parallel()

	trigger := &fakeTrigger{report: schedule.Report{RunID: "r1", Total: 3, Processed: 2, Failed: 1}}
	s, _ := newTestServer(t, 5, trigger)

	rec, body := doJSON(t, s, http.MethodPost, "/process/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", body["run_id"])
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["processed"])
	assert.EqualValues(t, 1, body["failed"])
}

func TestProcessAllWhileRunning(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, 5, &fakeTrigger{err: schedule.ErrBatchRunning})

	rec, body := doJSON(t, s, http.MethodPost, "/process/all", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "rejected", body["status"])
}

func TestServiceInfo(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, 5, &fakeTrigger{})

	rec, body := doJSON(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "socialpress", body["service"])
}
