package settings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labqc/pkg/core/agent"
	"labqc/pkg/core/prompt"
	"labqc/pkg/core/store"
)

// MockStore keeps the last saved record in memory.
type MockStore struct {
	mu      sync.Mutex
	Record  *store.SettingsRecord
	Saves   int
	FailAll bool
}

func (m *MockStore) GetSettings(ctx context.Context) *store.SettingsRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Record
}

func (m *MockStore) SaveSettings(ctx context.Context, rec store.SettingsRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.FailAll {
		return false
	}
	m.Record = &rec
	return true
}

func newService(st Store) *Service {
	s := New(st, agent.DefaultCatalog(), prompt.InitialState(), zerolog.Nop())
	s.now = func() time.Time { return time.UnixMilli(1718000000000) }
	return s
}

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	s := newService(&MockStore{})
	assert.False(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, agent.DefaultSettings(), snap.AI)
	assert.Equal(t, prompt.DefaultVersionID, snap.ActivePrompt().ID)
}

func TestLoadValidatesStoredRecord(t *testing.T) {
	st := &MockStore{Record: &store.SettingsRecord{
		AISettings:  agent.Settings{Provider: "cerebras", Model: "retired-model", CerebrasKey: "csk"},
		PromptState: prompt.State{Versions: []prompt.Version{{ID: "a", Content: "x"}}, ActiveVersionID: "stale"},
	}}
	s := newService(st)
	assert.True(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, "gpt-oss-120b", snap.AI.Model)
	assert.Equal(t, "csk", snap.AI.CerebrasKey)
	assert.Equal(t, "a", snap.Prompts.ActiveVersionID)
}

func TestUpdateAIKeepsRedactedKey(t *testing.T) {
	st := &MockStore{}
	s := newService(st)
	ctx := context.Background()

	s.UpdateAI(ctx, agent.Settings{Provider: "google", Model: "gemini-1.5-pro", GeminiKey: "AIzaSyExampleKey1234"})
	redacted := s.Snapshot().AI.Redacted()

	out := s.UpdateAI(ctx, agent.Settings{Provider: "google", Model: "gemini-1.5-flash", GeminiKey: redacted.GeminiKey})
	assert.Equal(t, "AIzaSyExampleKey1234", out.GeminiKey)
	assert.Equal(t, "gemini-1.5-flash", out.Model)

	out = s.UpdateAI(ctx, agent.Settings{Provider: "google", Model: "gemini-1.5-flash"})
	assert.Empty(t, out.GeminiKey, "an empty key clears the stored key")

	assert.Equal(t, 3, st.Saves)
	require.NotNil(t, st.Record)
	assert.Equal(t, store.SettingsID, st.Record.ID)
}

func TestPromptMutationsPersist(t *testing.T) {
	st := &MockStore{}
	s := newService(st)
	ctx := context.Background()

	_, err := s.SavePrompt(ctx, "empty", "  ", "")
	assert.ErrorIs(t, err, ErrEmptyContent)

	v, err := s.SavePrompt(ctx, "CBC focus", "{{test_results}}", "narrow")
	require.NoError(t, err)
	assert.Equal(t, "v1718000000000", v.ID)
	assert.Equal(t, v.ID, st.Record.PromptState.ActiveVersionID)

	require.NoError(t, s.ActivatePrompt(ctx, prompt.DefaultVersionID))
	assert.ErrorIs(t, s.ActivatePrompt(ctx, "missing"), prompt.ErrVersionNotFound)

	state := s.DeletePrompt(ctx, prompt.DefaultVersionID)
	assert.Len(t, state.Versions, 1)
	assert.Equal(t, v.ID, state.ActiveVersionID)

	state = s.ResetPrompts(ctx)
	assert.Equal(t, prompt.DefaultVersionID, state.ActiveVersionID)
	assert.Len(t, st.Record.PromptState.Versions, 1)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := newService(&MockStore{})
	ctx := context.Background()

	before := s.Snapshot()
	_, err := s.SavePrompt(ctx, "new", "changed", "")
	require.NoError(t, err)
	s.UpdateAI(ctx, agent.Settings{Provider: "cerebras", Model: "llama3.1-8b"})

	assert.Equal(t, prompt.DefaultVersionID, before.ActivePrompt().ID)
	assert.Len(t, before.Prompts.Versions, 1)
	assert.Equal(t, "google", before.AI.Provider)
}

func TestFailedWriteKeepsMemoryState(t *testing.T) {
	s := newService(&MockStore{FailAll: true})
	out := s.UpdateAI(context.Background(), agent.Settings{Provider: "cerebras", Model: "llama3.1-8b"})
	assert.Equal(t, "llama3.1-8b", out.Model)
	assert.Equal(t, "cerebras", s.Snapshot().AI.Provider)
}
