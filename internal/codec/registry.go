package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory creates a Codec. Codecs are stateless, so a factory may return the
// same value on every call.
type Factory func() Codec

// Registration describes a registered codec.
type Registration struct {
	Name      string
	Extension string
	Aliases   []string
}

type entry struct {
	Registration
	factory Factory
}

// Registry maps codec identifiers and extensions to codec factories.
// A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*entry
	entries []*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*entry)}
}

// Register adds a codec under name and optional aliases. Identifiers are
// matched case-insensitively. Registering an existing name replaces it.
func (r *Registry) Register(name string, f Factory, aliases ...string) error {
	if name == "" {
		return errors.New("codec: empty name")
	}
	if f == nil {
		return fmt.Errorf("codec: nil factory for %q", name)
	}

	e := &entry{
		Registration: Registration{
			Name:      name,
			Extension: f().Extension(),
			Aliases:   aliases,
		},
		factory: f,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byName[key(name)]; ok {
		r.removeLocked(old)
	}
	r.entries = append(r.entries, e)
	r.byName[key(name)] = e
	for _, alias := range aliases {
		r.byName[key(alias)] = e
	}
	return nil
}

func (r *Registry) removeLocked(old *entry) {
	for k, e := range r.byName {
		if e == old {
			delete(r.byName, k)
		}
	}
	for i, e := range r.entries {
		if e == old {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
}

// Resolve returns the codec registered under id.
// Returns ErrNotFound if id is unknown.
func (r *Registry) Resolve(id string) (Codec, error) {
	r.mu.RLock()
	e, ok := r.byName[key(id)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return e.factory(), nil
}

// ResolveByExtension returns the codec whose suffix ends path. When several
// suffixes match, the longest wins. Codecs without an extension never match.
// The boolean is false if no codec matches.
func (r *Registry) ResolveByExtension(path string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *entry
	for _, e := range r.entries {
		if e.Extension == "" {
			continue
		}
		if !strings.HasSuffix(path, "."+e.Extension) {
			continue
		}
		if best == nil || len(e.Extension) > len(best.Extension) {
			best = e
		}
	}
	if best == nil {
		return nil, false
	}
	return best.factory(), true
}

// Registrations returns the registered codecs sorted by name.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	regs := make([]Registration, 0, len(r.entries))
	for _, e := range r.entries {
		regs = append(regs, e.Registration)
	}
	r.mu.RUnlock()

	sort.Slice(regs, func(i, j int) bool { return regs[i].Name < regs[j].Name })
	return regs
}

func key(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
