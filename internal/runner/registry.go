package runner

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kingrea/ogc/internal/spec"
)

// Factory constructs a runner for one configuration object of a phase.
type Factory func(rc *Context, phase string, cfg spec.Config) Runner

// Entry describes a registered plugin.
type Entry struct {
	Name        string
	Description string
	// Source names where the plugin came from ("builtin" or a file path).
	Source  string
	Factory Factory
}

// Registry maintains known plugin factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]Entry{}}
}

// Register installs a plugin factory. Returns an error if the name already exists.
func (r *Registry) Register(entry Entry) error {
	if entry.Name == "" {
		return fmt.Errorf("runner: plugin name is required")
	}
	if entry.Factory == nil {
		return fmt.Errorf("runner: factory is required for %s", entry.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, exists := r.entries[entry.Name]; exists {
		return fmt.Errorf("runner: %s already registered from %s", entry.Name, existing.Source)
	}
	r.entries[entry.Name] = entry
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(entry Entry) {
	if err := r.Register(entry); err != nil {
		panic(err)
	}
}

// Lookup returns the factory for name. A missing plugin is reported through
// the boolean, not as an error.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Factory, true
}

// Entry returns the full registration for name.
func (r *Registry) Entry(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// Names returns a sorted list of registered plugin names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
