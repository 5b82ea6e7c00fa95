package driver

import (
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type entry struct {
	name    string
	factory Factory
}

// Info describes one registered driver.
type Info struct {
	Key          Key          `json:"key"`
	Name         string       `json:"name"`
	Capabilities []Capability `json:"capabilities"`
}

// Registry maps product fingerprints to driver factories.
//
// It is populated once at startup, before traffic is accepted, and is
// read-mostly afterwards. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[Key]entry
	logger  Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Key]entry),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register records factory under key. Re-registering a key replaces the
// previous factory, so registration order between packages does not matter.
func (r *Registry) Register(key Key, name string, factory Factory) {
	r.mu.Lock()
	_, replaced := r.entries[key]
	r.entries[key] = entry{name: name, factory: factory}
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("driver re-registered", "key", key.String(), "driver", name)
	}
}

// Resolve returns a driver bound to target. It never fails: unknown keys
// get the capability-less fallback driver.
func (r *Registry) Resolve(key Key, target Target) Driver {
	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()

	if !ok {
		r.logger.Info("driver resolved", "key", key.String(), "matched", false, "driver", fallbackName)
		return Fallback()
	}

	r.logger.Info("driver resolved", "key", key.String(), "matched", true, "driver", e.name)
	return e.factory(target)
}

// List describes every registered driver, ordered by key.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.entries))
	for key, e := range r.entries {
		infos = append(infos, Info{
			Key:          key,
			Name:         e.name,
			Capabilities: e.factory(nil).Capabilities(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key.String() < infos[j].Key.String()
	})
	return infos
}

// Len returns the number of registered drivers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
