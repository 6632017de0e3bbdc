// Package physics holds the process and particle name tables shared by all
// events of a simulation run.
//
// A Registry is populated once, before any event is built, and then frozen.
// After Freeze it is read-only and may be shared across goroutines without
// locking.
package physics

import (
	"errors"
	"fmt"
	"sort"
)

// NotFound is returned by id lookups that miss.
const NotFound = -1

var (
	// ErrFrozen is returned when inserting into a frozen registry.
	ErrFrozen = errors.New("physics registry is frozen")
	// ErrConflict is returned when an id or name is already bound differently.
	ErrConflict = errors.New("conflicting physics name mapping")
)

// table is a bijective id <-> name map.
type table struct {
	names map[int]string
	ids   map[string]int
}

func newTable() table {
	return table{names: make(map[int]string), ids: make(map[string]int)}
}

func (t table) insert(kind string, id int, name string) error {
	if existing, ok := t.names[id]; ok {
		if existing == name {
			return nil
		}
		return fmt.Errorf("%s id %d already bound to %q, cannot bind %q: %w", kind, id, existing, name, ErrConflict)
	}
	if existing, ok := t.ids[name]; ok {
		return fmt.Errorf("%s %q already bound to id %d, cannot bind %d: %w", kind, name, existing, id, ErrConflict)
	}
	t.names[id] = name
	t.ids[name] = id
	return nil
}

func (t table) name(id int) string {
	return t.names[id]
}

func (t table) id(name string) int {
	if id, ok := t.ids[name]; ok {
		return id
	}
	return NotFound
}

func (t table) sortedNames() []string {
	out := make([]string, 0, len(t.ids))
	for name := range t.ids {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Registry maps physics process and particle names to integer ids.
type Registry struct {
	processes    table
	particles    table
	processTypes map[string]string
	frozen       bool
}

// NewRegistry returns an empty, writable registry.
func NewRegistry() *Registry {
	return &Registry{
		processes:    newTable(),
		particles:    newTable(),
		processTypes: make(map[string]string),
	}
}

// InsertProcess binds a process id to its name. Re-inserting an identical
// binding is a no-op.
func (r *Registry) InsertProcess(id int, name string) error {
	if r.frozen {
		return ErrFrozen
	}
	return r.processes.insert("process", id, name)
}

// InsertProcessType records the process category (e.g. "hadronic",
// "electromagnetic") for an already-known process name.
func (r *Registry) InsertProcessType(name, processType string) error {
	if r.frozen {
		return ErrFrozen
	}
	r.processTypes[name] = processType
	return nil
}

// InsertParticle binds a particle id to its name.
func (r *Registry) InsertParticle(id int, name string) error {
	if r.frozen {
		return ErrFrozen
	}
	return r.particles.insert("particle", id, name)
}

// RegisterProcess returns the id bound to name, assigning the next free id
// if the name is new.
func (r *Registry) RegisterProcess(name string) (int, error) {
	if id := r.processes.id(name); id != NotFound {
		return id, nil
	}
	id := len(r.processes.names)
	for r.processes.names[id] != "" {
		id++
	}
	return id, r.InsertProcess(id, name)
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen }

// ProcessName returns the name bound to id, or "" if unknown.
func (r *Registry) ProcessName(id int) string { return r.processes.name(id) }

// ProcessID returns the id bound to name, or NotFound.
func (r *Registry) ProcessID(name string) int { return r.processes.id(name) }

// ProcessType returns the category recorded for a process name, or "".
func (r *Registry) ProcessType(name string) string { return r.processTypes[name] }

// ParticleName returns the particle name bound to id, or "" if unknown.
func (r *Registry) ParticleName(id int) string { return r.particles.name(id) }

// ParticleID returns the id bound to a particle name, or NotFound.
func (r *Registry) ParticleID(name string) int { return r.particles.id(name) }

// ProcessNames returns all known process names, sorted.
func (r *Registry) ProcessNames() []string { return r.processes.sortedNames() }

// ParticleNames returns all known particle names, sorted.
func (r *Registry) ParticleNames() []string { return r.particles.sortedNames() }

// NumberOfProcesses returns the number of bound processes.
func (r *Registry) NumberOfProcesses() int { return len(r.processes.names) }
