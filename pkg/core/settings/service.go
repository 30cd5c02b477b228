// Package settings holds the live AI settings and prompt versions and keeps
// them in sync with the archive.
package settings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"labqc/pkg/core/agent"
	"labqc/pkg/core/prompt"
	"labqc/pkg/core/store"
)

// ErrEmptyContent is returned when saving a prompt version without text.
var ErrEmptyContent = errors.New("prompt content is empty")

// Store persists the singleton settings record. store.Gateway implements it.
type Store interface {
	GetSettings(ctx context.Context) *store.SettingsRecord
	SaveSettings(ctx context.Context, rec store.SettingsRecord) bool
}

// Ensure interface compliance
var _ Store = (*store.Gateway)(nil)

// Snapshot is a deep copy of the current configuration.
type Snapshot struct {
	AI      agent.Settings `json:"ai_settings"`
	Prompts prompt.State   `json:"prompt_state"`
}

// ActivePrompt returns the version in use.
func (s Snapshot) ActivePrompt() prompt.Version {
	return s.Prompts.Active()
}

// Service guards the mutable configuration. Every mutation is written
// through to the store; a failed write is logged by the store and the
// in-memory value still applies.
type Service struct {
	store   Store
	catalog agent.Catalog
	seed    prompt.State
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	ai      agent.Settings
	prompts prompt.State
}

// New returns a service holding defaults. seed is the prompt state used on
// first run and by ResetPrompts.
func New(st Store, catalog agent.Catalog, seed prompt.State, logger zerolog.Logger) *Service {
	seed = seed.Normalize()
	return &Service{
		store:   st,
		catalog: catalog,
		seed:    seed,
		logger:  logger.With().Str("component", "settings").Logger(),
		now:     time.Now,
		ai:      catalog.Validate(agent.DefaultSettings()),
		prompts: seed.Clone(),
	}
}

// Load replaces the in-memory configuration with the stored record, if any.
// It reports whether a stored record was found.
func (s *Service) Load(ctx context.Context) bool {
	rec := s.store.GetSettings(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec == nil {
		s.logger.Info().Msg("no stored settings; using defaults")
		return false
	}
	s.ai = s.catalog.Validate(rec.AISettings)
	s.prompts = rec.PromptState.Normalize()
	s.logger.Info().
		Str("provider", s.ai.Provider).
		Str("model", s.ai.Model).
		Str("active_prompt", s.prompts.ActiveVersionID).
		Int("versions", len(s.prompts.Versions)).
		Msg("settings loaded")
	return true
}

// Snapshot returns a copy that later mutations do not affect. Batches and
// single analyses capture their inputs through it once.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{AI: s.ai, Prompts: s.prompts.Clone()}
}

// UpdateAI validates and stores new AI settings. A key sent back in its
// redacted form keeps the stored key.
func (s *Service) UpdateAI(ctx context.Context, in agent.Settings) agent.Settings {
	s.mu.Lock()
	current := s.ai
	in.GeminiKey = keepRedacted(strings.TrimSpace(in.GeminiKey), current.GeminiKey)
	in.CerebrasKey = keepRedacted(strings.TrimSpace(in.CerebrasKey), current.CerebrasKey)
	s.ai = s.catalog.Validate(in)
	out := s.ai
	s.mu.Unlock()

	s.persist(ctx)
	return out
}

// SavePrompt adds a version and activates it.
func (s *Service) SavePrompt(ctx context.Context, name, content, description string) (prompt.Version, error) {
	if strings.TrimSpace(content) == "" {
		return prompt.Version{}, ErrEmptyContent
	}
	s.mu.Lock()
	var v prompt.Version
	s.prompts, v = s.prompts.Save(name, content, description, s.now())
	s.mu.Unlock()

	s.persist(ctx)
	return v, nil
}

// ActivatePrompt switches the active version.
func (s *Service) ActivatePrompt(ctx context.Context, id string) error {
	s.mu.Lock()
	next, err := s.prompts.Activate(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.prompts = next
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// DeletePrompt removes a version; the last one is never removed.
func (s *Service) DeletePrompt(ctx context.Context, id string) prompt.State {
	s.mu.Lock()
	s.prompts = s.prompts.Delete(id)
	out := s.prompts.Clone()
	s.mu.Unlock()

	s.persist(ctx)
	return out
}

// ResetPrompts restores the seed versions.
func (s *Service) ResetPrompts(ctx context.Context) prompt.State {
	s.mu.Lock()
	s.prompts = s.seed.Clone()
	out := s.prompts.Clone()
	s.mu.Unlock()

	s.persist(ctx)
	return out
}

func (s *Service) persist(ctx context.Context) {
	snap := s.Snapshot()
	if !s.store.SaveSettings(ctx, store.SettingsRecord{
		ID:          store.SettingsID,
		AISettings:  snap.AI,
		PromptState: snap.Prompts,
		UpdatedAt:   s.now(),
	}) {
		s.logger.Warn().Msg("settings kept in memory only")
	}
}

func keepRedacted(incoming, stored string) string {
	if incoming != "" && incoming == agent.MaskKey(stored) {
		return stored
	}
	return incoming
}
