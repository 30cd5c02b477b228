package bulk

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labqc/pkg/core/agent"
	"labqc/pkg/core/bulk"
	"labqc/pkg/core/prompt"
	"labqc/pkg/core/settings"
	"labqc/pkg/core/store"
)

// MockRunner records the last request; StartFunc overrides Start.
type MockRunner struct {
	mu        sync.Mutex
	StartFunc func(req bulk.Request) (bulk.RunInfo, error)
	Last      bulk.Request
	Stopped   bool
	ResetErr  error
	Jobs      []bulk.Job
	ch        chan bulk.Event
}

func (m *MockRunner) Start(req bulk.Request) (bulk.RunInfo, error) {
	m.mu.Lock()
	m.Last = req
	m.mu.Unlock()
	if m.StartFunc != nil {
		return m.StartFunc(req)
	}
	return bulk.RunInfo{State: bulk.StateRunning, StartID: req.StartID, EndID: req.EndID}, nil
}

func (m *MockRunner) Stop() bool {
	m.Stopped = true
	return true
}

func (m *MockRunner) Reset() error { return m.ResetErr }

func (m *MockRunner) Status() bulk.RunInfo {
	return bulk.RunInfo{State: bulk.StateIdle, Jobs: m.Jobs, Total: len(m.Jobs)}
}

func (m *MockRunner) Subscribe() (chan bulk.Event, []bulk.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ch = make(chan bulk.Event, 10)
	return m.ch, m.Jobs
}

func (m *MockRunner) Unsubscribe(ch chan bulk.Event) {}

func (m *MockRunner) channel() chan bulk.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ch
}

type memoryStore struct{}

func (memoryStore) GetSettings(ctx context.Context) *store.SettingsRecord           { return nil }
func (memoryStore) SaveSettings(ctx context.Context, rec store.SettingsRecord) bool { return true }

func newHandler(r Runner) (*Handler, *settings.Service) {
	svc := settings.New(memoryStore{}, agent.DefaultCatalog(), prompt.InitialState(), zerolog.Nop())
	return NewHandler(r, svc, zerolog.Nop()), svc
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return w
}

func TestHandleStartCapturesSettings(t *testing.T) {
	runner := &MockRunner{}
	h, svc := newHandler(runner)
	_, err := svc.SavePrompt(context.Background(), "focus", "Review {{lab_id}}", "")
	require.NoError(t, err)

	w := post(h.HandleStart, `{"start_id":"2510010001","end_id":"2510010003","force_regenerate":true}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, "2510010001", runner.Last.StartID)
	assert.True(t, runner.Last.ForceRegenerate)
	assert.Equal(t, "Review {{lab_id}}", runner.Last.PromptTemplate)
	assert.Equal(t, svc.Snapshot().Prompts.ActiveVersionID, runner.Last.PromptID)
	assert.Equal(t, "google", runner.Last.Settings.Provider)
}

func TestHandleStartErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"missing bounds", `{"start_id":"2510010001"}`, nil, http.StatusBadRequest},
		{"already running", `{"start_id":"2510010001","end_id":"2510010002"}`, bulk.ErrBatchRunning, http.StatusConflict},
		{"empty range", `{"start_id":"2510010005","end_id":"2510010002"}`, bulk.ErrEmptyRange, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHandler(&MockRunner{StartFunc: func(req bulk.Request) (bulk.RunInfo, error) {
				return bulk.RunInfo{}, tt.err
			}})
			w := post(h.HandleStart, tt.body)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestHandleStopResetStatus(t *testing.T) {
	runner := &MockRunner{Jobs: []bulk.Job{{LabID: "2510010001", Status: bulk.StatusCompleted}}}
	h, _ := newHandler(runner)

	w := post(h.HandleStop, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, runner.Stopped)

	runner.ResetErr = bulk.ErrBatchRunning
	w = post(h.HandleReset, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	runner.ResetErr = nil
	w = post(h.HandleReset, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var info bulk.RunInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 1, info.Total)
}

func TestHandleStream(t *testing.T) {
	runner := &MockRunner{Jobs: []bulk.Job{{LabID: "2510010001", Status: bulk.StatusPending}}}
	h, _ := newHandler(runner)

	srv := httptest.NewServer(http.HandlerFunc(h.HandleStream))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "" && name != "":
				return name, data
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	name, data := readEvent()
	assert.Equal(t, "snapshot", name)
	assert.Contains(t, data, "2510010001")

	require.Eventually(t, func() bool { return runner.channel() != nil }, time.Second, 10*time.Millisecond)
	runner.channel() <- bulk.Event{Type: bulk.EventJob, Index: 0, Job: bulk.Job{LabID: "2510010001", Status: bulk.StatusCompleted}}

	name, data = readEvent()
	assert.Equal(t, string(bulk.EventJob), name)
	assert.Contains(t, data, `"status":"completed"`)
}
