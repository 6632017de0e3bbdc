package event

import (
	"fmt"

	"github.com/banshee-data/detsim/internal/geometry"
	"github.com/banshee-data/detsim/internal/physics"
)

// Metadata is what an event needs from the simulation description to turn
// ids into names and back. Implementations must be read-only once events
// reference them.
type Metadata interface {
	Physics() *physics.Registry
	Geometry() geometry.VolumeIndex
	// SensitiveVolume names the volume whose energy is tracked separately.
	SensitiveVolume() string
}

// StaticMetadata is a plain Metadata implementation.
type StaticMetadata struct {
	Names     *physics.Registry
	Volumes   geometry.VolumeIndex
	Sensitive string
}

// Physics implements Metadata.
func (m StaticMetadata) Physics() *physics.Registry { return m.Names }

// Geometry implements Metadata.
func (m StaticMetadata) Geometry() geometry.VolumeIndex { return m.Volumes }

// SensitiveVolume implements Metadata.
func (m StaticMetadata) SensitiveVolume() string { return m.Sensitive }

// InitializeReferences re-links the non-persisted state of a decoded (or
// hand-assembled) event: the metadata link, the track id index, the
// volume index, and every Track -> Event and Hits -> Track back-reference.
// md may be nil, in which case name resolution stays unavailable.
func (e *Event) InitializeReferences(md Metadata) error {
	e.metadata = md
	e.trackIndex = make(map[int]int, len(e.Tracks))
	for i, t := range e.Tracks {
		if t == nil {
			return fmt.Errorf("run %d event %d: track at index %d: %w", e.RunID, e.EventID, i, ErrNilTrack)
		}
		if prev, ok := e.trackIndex[t.TrackID]; ok {
			return fmt.Errorf("run %d event %d: track id %d at indices %d and %d: %w",
				e.RunID, e.EventID, t.TrackID, prev, i, ErrDuplicateTrackID)
		}
		e.trackIndex[t.TrackID] = i
		t.event = e
		t.initialized = true
		t.Hits.track = t
	}
	e.volumeIndex = make(map[string]int, len(e.Volumes))
	for i, v := range e.Volumes {
		e.volumeIndex[v.Name] = i
	}
	if e.EnergyBreakdown == nil {
		e.EnergyBreakdown = make(map[string]map[string]map[string]float64)
	}
	e.bounds = nil
	return nil
}

// Metadata returns the attached metadata, or nil.
func (e *Event) Metadata() Metadata { return e.metadata }

// SetMetadata attaches md without touching the track index.
func (e *Event) SetMetadata(md Metadata) { e.metadata = md }
