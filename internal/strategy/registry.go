package strategy

import (
	"fmt"
	"sync"
	"time"
)

// InjectorInfo holds runtime info for a registered injector (for status APIs).
type InjectorInfo struct {
	Name       string
	LastRun    *time.Time
	EdgesAdded int
	ErrorCount int64
}

// Registry manages the ordered injector pipeline. Injectors run in the order
// they were registered. It is safe for concurrent use.
type Registry struct {
	order  []EdgeInjector
	byName map[string]EdgeInjector
	info   map[string]*InjectorInfo
	mu     sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]EdgeInjector),
		info:   make(map[string]*InjectorInfo),
	}
}

// Register appends an injector to the pipeline. Registering a name twice
// replaces the injector but keeps its pipeline position.
func (r *Registry) Register(inj EdgeInjector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := inj.Name()
	if _, ok := r.byName[name]; !ok {
		r.order = append(r.order, inj)
		r.info[name] = &InjectorInfo{Name: name}
	} else {
		for i, existing := range r.order {
			if existing.Name() == name {
				r.order[i] = inj
				break
			}
		}
	}
	r.byName[name] = inj
}

// Get retrieves an injector by name.
func (r *Registry) Get(name string) (EdgeInjector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inj, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("injector %q: not registered", name)
	}
	return inj, nil
}

// Injectors returns the pipeline in registration order.
func (r *Registry) Injectors() []EdgeInjector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EdgeInjector, len(r.order))
	copy(out, r.order)
	return out
}

// List returns injector names in pipeline order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.order))
	for _, inj := range r.order {
		names = append(names, inj.Name())
	}
	return names
}

// RecordRun updates runtime info after one pipeline step.
func (r *Registry) RecordRun(name string, edgesAdded int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.info[name]
	if !ok {
		return
	}
	now := time.Now()
	info.LastRun = &now
	info.EdgesAdded = edgesAdded
	if err != nil {
		info.ErrorCount++
	}
}

// ListInfo returns runtime info in pipeline order.
func (r *Registry) ListInfo() []InjectorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]InjectorInfo, 0, len(r.order))
	for _, inj := range r.order {
		if info, ok := r.info[inj.Name()]; ok {
			infos = append(infos, *info)
		}
	}
	return infos
}
