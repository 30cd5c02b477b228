package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labqc/pkg/core/agent"
	"labqc/pkg/core/bulk"
	"labqc/pkg/core/report"
	"labqc/pkg/core/store"
)

func runLabid(t *testing.T, args ...string) string {
	t.Helper()
	cmd := labidCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestLabidCommands(t *testing.T) {
	assert.Equal(t, "2510010001\n", runLabid(t, "next", "2510019999"))
	assert.Equal(t, "2510019999\n", runLabid(t, "prev", "2510010001"))

	out := runLabid(t, "range", "2510010098", "2510010100")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "2510010100", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "3 ids"))

	out = runLabid(t, "range", "--count", "2510010005", "2510010001")
	assert.True(t, strings.HasPrefix(out, "0 ids"), out)
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Lab ID", "Status"}, [][]string{{"2510010001", "completed"}, {"2510010002"}})
	assert.Contains(t, out, "2510010001")
	assert.Contains(t, out, "completed")
	assert.Equal(t, "", renderTable(nil, nil))
}

func TestInterruptBatch(t *testing.T) {
	sigs := make(chan os.Signal, 2)
	done := make(chan struct{})
	exited := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag := &bulk.Flag{}
	var out bytes.Buffer
	go func() {
		defer close(exited)
		interruptBatch(sigs, done, flag, cancel, &out)
	}()

	sigs <- syscall.SIGINT
	require.Eventually(t, flag.Raised, time.Second, 5*time.Millisecond)
	assert.NoError(t, ctx.Err(), "first interrupt leaves the context alive")

	sigs <- syscall.SIGINT
	<-exited
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Contains(t, out.String(), "Stopping after the current report")
}

func TestInterruptBatchExitsWhenDone(t *testing.T) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		interruptBatch(make(chan os.Signal), done, &bulk.Flag{}, func() {}, &bytes.Buffer{})
	}()
	close(done)
	<-exited
}

type fixedSource struct{}

func (fixedSource) Fetch(ctx context.Context, labID string) (*report.Report, error) {
	return &report.Report{LabID: labID}, nil
}

type memArchive struct {
	mu       sync.Mutex
	inserted []string
}

func (m *memArchive) FindLatestByKey(ctx context.Context, labID string) *store.AIReport { return nil }

func (m *memArchive) Insert(ctx context.Context, r *store.AIReport) *store.AIReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, r.LabID)
	return r
}

// interruptingAnalyzer delivers a signal while the first call is in flight.
type interruptingAnalyzer struct {
	sigs chan<- os.Signal
	flag *bulk.Flag
}

func (a interruptingAnalyzer) Infer(ctx context.Context, s agent.Settings, compiled string) (string, error) {
	a.sigs <- syscall.SIGINT
	for !a.flag.Raised() {
		time.Sleep(time.Millisecond)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "- **Status**: PASS", nil
}

func TestInterruptFinishesItemInFlight(t *testing.T) {
	sigs := make(chan os.Signal, 2)
	done := make(chan struct{})
	defer close(done)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag := &bulk.Flag{}
	go interruptBatch(sigs, done, flag, cancel, &bytes.Buffer{})

	archive := &memArchive{}
	orch := bulk.NewOrchestrator(fixedSource{}, archive,
		interruptingAnalyzer{sigs: sigs, flag: flag}, bulk.NoDelay{}, zerolog.Nop(), nil)

	summary, err := orch.Run(ctx, bulk.Request{
		StartID:  "2510010001",
		EndID:    "2510010003",
		Settings: agent.Settings{Provider: "google", Model: "gemini-1.5-flash"},
	}, flag)
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	jobs := orch.Snapshot()
	require.Len(t, jobs, 3)
	assert.Equal(t, bulk.StatusCompleted, jobs[0].Status)
	assert.Empty(t, jobs[0].Error)
	assert.Equal(t, bulk.StatusPending, jobs[1].Status)
	assert.Equal(t, []string{"2510010001"}, archive.inserted)
}
