// Package geometry provides the volume lookup contract consumed by the
// event model, and an in-memory implementation of it.
//
// The geometry description itself (GDML) is parsed elsewhere; callers
// populate a Registry from it once per run and then Freeze it.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// NotFound is returned by name lookups that miss.
const NotFound = -1

var (
	// ErrFrozen is returned when adding to a frozen registry.
	ErrFrozen = errors.New("geometry registry is frozen")
	// ErrDuplicateVolume is returned when a volume name is added twice.
	ErrDuplicateVolume = errors.New("duplicate volume name")
	// ErrEmptyName is returned for volumes without a name.
	ErrEmptyName = errors.New("volume name is empty")
)

// VolumeIndex is the read-only lookup contract for simulation volumes.
type VolumeIndex interface {
	// VolumeID returns the id for name, or NotFound.
	VolumeID(name string) int
	// VolumeName returns the name for id, or "".
	VolumeName(id int) string
	// Position returns the volume placement in mm, or a NaN vector.
	Position(id int) r3.Vec
	// Material returns the volume material name, or "".
	Material(id int) string
	// IsValidVolume reports whether name is a known volume.
	IsValidVolume(name string) bool
}

// Volume describes one physical volume.
type Volume struct {
	Name     string
	Position r3.Vec // mm
	Material string
}

// Registry is a slice-backed VolumeIndex; ids are insertion indices.
type Registry struct {
	volumes []Volume
	ids     map[string]int
	frozen  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]int)}
}

// AddVolume appends v and returns its id.
func (r *Registry) AddVolume(v Volume) (int, error) {
	if r.frozen {
		return NotFound, ErrFrozen
	}
	if v.Name == "" {
		return NotFound, ErrEmptyName
	}
	if id, ok := r.ids[v.Name]; ok {
		return id, fmt.Errorf("volume %q (id %d): %w", v.Name, id, ErrDuplicateVolume)
	}
	id := len(r.volumes)
	r.volumes = append(r.volumes, v)
	r.ids[v.Name] = id
	return id, nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() { r.frozen = true }

// NumberOfVolumes returns the number of registered volumes.
func (r *Registry) NumberOfVolumes() int { return len(r.volumes) }

// Volumes returns a copy of all volumes in id order.
func (r *Registry) Volumes() []Volume {
	out := make([]Volume, len(r.volumes))
	copy(out, r.volumes)
	return out
}

// VolumeID returns the id for name, or NotFound.
func (r *Registry) VolumeID(name string) int {
	if id, ok := r.ids[name]; ok {
		return id
	}
	return NotFound
}

// VolumeName returns the name for id, or "".
func (r *Registry) VolumeName(id int) string {
	if id < 0 || id >= len(r.volumes) {
		return ""
	}
	return r.volumes[id].Name
}

// Position returns the placement of id, or a NaN vector if unknown.
func (r *Registry) Position(id int) r3.Vec {
	if id < 0 || id >= len(r.volumes) {
		return r3.Vec{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
	}
	return r.volumes[id].Position
}

// Material returns the material of id, or "".
func (r *Registry) Material(id int) string {
	if id < 0 || id >= len(r.volumes) {
		return ""
	}
	return r.volumes[id].Material
}

// IsValidVolume reports whether name is registered.
func (r *Registry) IsValidVolume(name string) bool {
	_, ok := r.ids[name]
	return ok
}

// VolumesMatching returns the names containing substr, in id order.
// An empty substr matches nothing.
func (r *Registry) VolumesMatching(substr string) []string {
	if substr == "" {
		return nil
	}
	var out []string
	for _, v := range r.volumes {
		if strings.Contains(v.Name, substr) {
			out = append(out, v.Name)
		}
	}
	return out
}
