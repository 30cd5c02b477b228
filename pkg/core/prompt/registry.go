package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds prompt versions shipped with the deployment.
type Registry struct {
	versions map[string]Version
	mu       sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{versions: make(map[string]Version)}
}

// Register adds a version, replacing any with the same id.
func (r *Registry) Register(v Version) error {
	if v.ID == "" {
		return fmt.Errorf("prompt version ID cannot be empty")
	}
	if v.Content == "" {
		return fmt.Errorf("prompt version %s has no content", v.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.versions[v.ID] = v
	return nil
}

// Get retrieves a version by id.
func (r *Registry) Get(id string) (Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if v, ok := r.versions[id]; ok {
		return v, nil
	}
	return Version{}, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
}

// List returns all versions ordered by creation time, then id.
func (r *Registry) List() []Version {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Version, 0, len(r.versions))
	for _, v := range r.versions {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of registered versions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.versions)
}

// SeedState builds the first-run state from the library. The newest version
// is active. An empty library yields InitialState.
func (r *Registry) SeedState() State {
	versions := r.List()
	if len(versions) == 0 {
		return InitialState()
	}
	return State{
		Versions:        versions,
		ActiveVersionID: versions[len(versions)-1].ID,
	}
}
