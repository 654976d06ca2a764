// Package exclusion collects the names of external processes that must not
// be suspended while a capture is in progress.
package exclusion

import (
	"slices"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// Notifier receives one-way exclusion notices from destinations.
type Notifier interface {
	ExcludeFromFreeze(process string)
}

type Registry struct {
	Log logr.Logger

	mu        sync.RWMutex
	processes map[string]struct{}
}

func NewRegistry(log logr.Logger) *Registry {
	return &Registry{
		Log:       log,
		processes: map[string]struct{}{},
	}
}

func (r *Registry) ExcludeFromFreeze(process string) {
	name := normalize(process)
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.processes == nil {
		r.processes = map[string]struct{}{}
	}
	if _, ok := r.processes[name]; ok {
		return
	}
	r.processes[name] = struct{}{}
	r.Log.V(1).Info("excluding process from freeze", "process", name)
}

func (r *Registry) Excluded(process string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.processes[normalize(process)]
	return ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.processes))
	for name := range r.processes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func normalize(process string) string {
	name := strings.ToLower(strings.TrimSpace(process))
	return strings.TrimSuffix(name, ".exe")
}

// Discard ignores every notice.
type Discard struct{}

func (Discard) ExcludeFromFreeze(string) {}
