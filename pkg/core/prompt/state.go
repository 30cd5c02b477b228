package prompt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrVersionNotFound is returned when an id does not name a saved version.
var ErrVersionNotFound = errors.New("prompt version not found")

// Active returns the version in use. An unresolved active id falls back to
// the first version and an empty state to the stock version.
func (s State) Active() Version {
	if len(s.Versions) == 0 {
		return DefaultVersion()
	}
	for _, v := range s.Versions {
		if v.ID == s.ActiveVersionID {
			return v
		}
	}
	return s.Versions[0]
}

// Find returns the version with the given id.
func (s State) Find(id string) (Version, bool) {
	for _, v := range s.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return Version{}, false
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{ActiveVersionID: s.ActiveVersionID}
	if s.Versions != nil {
		out.Versions = append([]Version(nil), s.Versions...)
	}
	return out
}

// Save appends a new version stamped at now and makes it active.
func (s State) Save(name, content, description string, now time.Time) (State, Version) {
	v := Version{
		ID:          fmt.Sprintf("v%d", now.UnixMilli()),
		Name:        strings.TrimSpace(name),
		Content:     content,
		Description: strings.TrimSpace(description),
		CreatedAt:   now.UnixMilli(),
	}
	// Two saves inside the same millisecond must not collide.
	for _, ok := s.Find(v.ID); ok; _, ok = s.Find(v.ID) {
		v.CreatedAt++
		v.ID = fmt.Sprintf("v%d", v.CreatedAt)
	}
	if v.Name == "" {
		v.Name = "Version " + v.ID
	}

	out := s.Clone()
	out.Versions = append(out.Versions, v)
	out.ActiveVersionID = v.ID
	return out, v
}

// Activate switches the active version.
func (s State) Activate(id string) (State, error) {
	if _, ok := s.Find(id); !ok {
		return s, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
	}
	out := s.Clone()
	out.ActiveVersionID = id
	return out, nil
}

// Delete removes a version. The last remaining version cannot be deleted;
// removing the active one activates the last version left.
func (s State) Delete(id string) State {
	if len(s.Versions) <= 1 {
		return s.Clone()
	}
	out := State{ActiveVersionID: s.ActiveVersionID}
	for _, v := range s.Versions {
		if v.ID != id {
			out.Versions = append(out.Versions, v)
		}
	}
	if out.ActiveVersionID == id {
		out.ActiveVersionID = out.Versions[len(out.Versions)-1].ID
	}
	return out
}

// Normalize repairs a state loaded from storage: at least one version, and
// an active id that resolves.
func (s State) Normalize() State {
	if len(s.Versions) == 0 {
		return InitialState()
	}
	out := s.Clone()
	if _, ok := out.Find(out.ActiveVersionID); !ok {
		out.ActiveVersionID = out.Versions[0].ID
	}
	return out
}
