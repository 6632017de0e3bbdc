package event

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ActiveVolume is a volume registered for energy storage in an event.
type ActiveVolume struct {
	Name   string
	Stored bool
	Energy float64 // keV deposited
}

// Primary describes one primary particle of an event.
type Primary struct {
	ParticleName string
	Origin       r3.Vec
	Direction    r3.Vec
	Energy       float64 // keV
}

// Event collects the tracks sharing one causal origin and the energy they
// deposited. Exported fields are the persisted state; everything else is
// rebuilt by InitializeReferences.
type Event struct {
	RunID      int
	EventID    int
	SubEventID int

	TotalDepositedEnergy  float64 // keV
	SensitiveVolumeEnergy float64 // keV

	Volumes   []ActiveVolume
	Tracks    []*Track
	Primaries []Primary

	// EnergyBreakdown is volume -> particle -> process -> keV. Only
	// positive contributions are recorded.
	EnergyBreakdown map[string]map[string]map[string]float64

	trackIndex  map[int]int
	volumeIndex map[string]int
	metadata    Metadata
	bounds      *BoundingBox
}

// NewEvent returns an empty event linked to md (which may be nil).
func NewEvent(runID, eventID int, md Metadata) *Event {
	return &Event{
		RunID:           runID,
		EventID:         eventID,
		EnergyBreakdown: make(map[string]map[string]map[string]float64),
		trackIndex:      make(map[int]int),
		volumeIndex:     make(map[string]int),
		metadata:        md,
	}
}

// SetSubEventID sets the index of this event among the time-separated
// sub-events that share its EventID.
func (e *Event) SetSubEventID(id int) { e.SubEventID = id }

// NumberOfTracks returns the number of tracks.
func (e *Event) NumberOfTracks() int { return len(e.Tracks) }

// AddTrack appends t and indexes it by id. A second track with the same id
// is rejected with ErrDuplicateTrackID and the event must be discarded.
func (e *Event) AddTrack(t *Track) error {
	if t == nil {
		return fmt.Errorf("run %d event %d: %w", e.RunID, e.EventID, ErrNilTrack)
	}
	if e.trackIndex == nil {
		if len(e.Tracks) > 0 {
			return fmt.Errorf("run %d event %d: index missing for %d tracks: %w",
				e.RunID, e.EventID, len(e.Tracks), ErrTrackIndexInconsistent)
		}
		e.trackIndex = make(map[int]int)
	}
	if _, ok := e.trackIndex[t.TrackID]; ok {
		return fmt.Errorf("run %d event %d: track id %d: %w", e.RunID, e.EventID, t.TrackID, ErrDuplicateTrackID)
	}
	e.trackIndex[t.TrackID] = len(e.Tracks)
	e.Tracks = append(e.Tracks, t)
	t.event = e
	t.Hits.track = t
	e.bounds = nil
	return nil
}

// TrackByID returns the track with the given id in O(1). A miss returns
// (nil, nil). If the index points at a track with a different id the event
// is corrupt and ErrTrackIndexInconsistent is returned.
func (e *Event) TrackByID(id int) (*Track, error) {
	if e.trackIndex == nil {
		if len(e.Tracks) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("run %d event %d: index missing for %d tracks: %w",
			e.RunID, e.EventID, len(e.Tracks), ErrTrackIndexInconsistent)
	}
	idx, ok := e.trackIndex[id]
	if !ok {
		return nil, nil
	}
	if idx < 0 || idx >= len(e.Tracks) || e.Tracks[idx] == nil || e.Tracks[idx].TrackID != id {
		return nil, fmt.Errorf("run %d event %d: track id %d maps to index %d: %w",
			e.RunID, e.EventID, id, idx, ErrTrackIndexInconsistent)
	}
	return e.Tracks[idx], nil
}

// AddPrimary records a primary particle.
func (e *Event) AddPrimary(p Primary) { e.Primaries = append(e.Primaries, p) }

// PrimaryEventOrigin returns the origin of the first primary, or
// UndefinedPosition when there are none.
func (e *Event) PrimaryEventOrigin() r3.Vec {
	if len(e.Primaries) == 0 {
		return UndefinedPosition()
	}
	return e.Primaries[0].Origin
}

// AddActiveVolume registers name for storage with zero energy and the
// stored flag set. Registering a known name is a no-op. It returns the
// volume's index in Volumes.
func (e *Event) AddActiveVolume(name string) int {
	if e.volumeIndex == nil {
		e.volumeIndex = make(map[string]int, len(e.Volumes))
		for i, v := range e.Volumes {
			e.volumeIndex[v.Name] = i
		}
	}
	if idx, ok := e.volumeIndex[name]; ok {
		return idx
	}
	e.volumeIndex[name] = len(e.Volumes)
	e.Volumes = append(e.Volumes, ActiveVolume{Name: name, Stored: true})
	return len(e.Volumes) - 1
}

// NumberOfActiveVolumes returns len(Volumes).
func (e *Event) NumberOfActiveVolumes() int { return len(e.Volumes) }

// ActiveVolumeIndex returns the index of name in Volumes, or -1.
func (e *Event) ActiveVolumeIndex(name string) int {
	if idx, ok := e.volumeIndex[name]; ok {
		return idx
	}
	return -1
}

// IsActiveVolume reports whether name was registered.
func (e *Event) IsActiveVolume(name string) bool { return e.ActiveVolumeIndex(name) >= 0 }

// SetVolumeStored sets the stored flag of an active volume. It reports
// whether the volume exists.
func (e *Event) SetVolumeStored(name string, stored bool) bool {
	idx := e.ActiveVolumeIndex(name)
	if idx < 0 {
		return false
	}
	e.Volumes[idx].Stored = stored
	return true
}

// IsVolumeStored reports the stored flag of an active volume; unknown
// volumes are not stored.
func (e *Event) IsVolumeStored(name string) bool {
	idx := e.ActiveVolumeIndex(name)
	return idx >= 0 && e.Volumes[idx].Stored
}

// AddEnergyToSensitiveVolume adds energy to the sensitive-volume total.
func (e *Event) AddEnergyToSensitiveVolume(energy float64) {
	e.SensitiveVolumeEnergy += energy
}

// SetEnergyDepositedInVolume sets the accumulated energy of the active
// volume at index id. It reports false for an out-of-range index.
func (e *Event) SetEnergyDepositedInVolume(id int, energy float64) bool {
	if id < 0 || id >= len(e.Volumes) {
		return false
	}
	e.Volumes[id].Energy = energy
	return true
}

// EnergyDepositedInVolume returns the accumulated energy of the active
// volume name, or 0.
func (e *Event) EnergyDepositedInVolume(name string) float64 {
	idx := e.ActiveVolumeIndex(name)
	if idx < 0 {
		return 0
	}
	return e.Volumes[idx].Energy
}

// AddEnergyInVolumeForParticleForProcess is the accumulation entry point
// for deposited energy. Non-positive energies are ignored. The energy is
// added to the breakdown map and to TotalDepositedEnergy; callers must not
// add the same deposition to the total through another path.
func (e *Event) AddEnergyInVolumeForParticleForProcess(energy float64, volume, particle, process string) {
	if energy <= 0 {
		return
	}
	e.addBreakdown(volume, particle, process, energy)
	e.TotalDepositedEnergy += energy
}

// addBreakdown adds delta to one cell, deleting cells that fall to <= 0.
func (e *Event) addBreakdown(volume, particle, process string, delta float64) {
	if e.EnergyBreakdown == nil {
		e.EnergyBreakdown = make(map[string]map[string]map[string]float64)
	}
	particles, ok := e.EnergyBreakdown[volume]
	if !ok {
		particles = make(map[string]map[string]float64)
		e.EnergyBreakdown[volume] = particles
	}
	processes, ok := particles[particle]
	if !ok {
		processes = make(map[string]float64)
		particles[particle] = processes
	}
	processes[process] += delta
	if processes[process] <= 0 {
		delete(processes, process)
		if len(processes) == 0 {
			delete(particles, particle)
		}
		if len(particles) == 0 {
			delete(e.EnergyBreakdown, volume)
		}
	}
}
