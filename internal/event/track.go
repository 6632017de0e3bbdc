package event

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// RadioactiveDecayProcess is the creator process name of decay products.
const RadioactiveDecayProcess = "RadioactiveDecay"

// Track is the lifetime of one simulated particle.
type Track struct {
	TrackID  int
	ParentID int // 0 for primaries

	ParticleName         string
	CreatorProcess       string
	InitialKineticEnergy float64 // keV
	InitialPosition      r3.Vec  // mm
	Weight               float64
	Length               float64 // mm, cumulative
	NumberOfSecondaries  int

	Hits Hits

	initialized bool
	event       *Event // not persisted
}

// NewTrack creates a track from the transport engine's track record.
func NewTrack(info TrackInfo) *Track {
	t := &Track{Weight: 1}
	t.UpdateTrack(info)
	return t
}

// UpdateTrack overwrites identity and creation kinematics from info.
// A zero weight leaves the current weight unchanged.
func (t *Track) UpdateTrack(info TrackInfo) {
	t.TrackID = info.TrackID
	t.ParentID = info.ParentID
	t.ParticleName = info.ParticleName
	t.CreatorProcess = info.CreatorProcess
	t.InitialKineticEnergy = info.InitialKineticEnergy
	t.InitialPosition = info.InitialPosition
	t.NumberOfSecondaries = info.NumberOfSecondaries
	if info.Weight != 0 {
		t.Weight = info.Weight
	}
	t.initialized = true
	t.Hits.track = t
}

// InsertStep appends s as a hit. The first call on a track that was not
// created from a TrackInfo takes identity from the step, using the step
// position as origin and the pre-step kinetic energy as initial energy.
func (t *Track) InsertStep(s Step) {
	if !t.initialized {
		t.UpdateTrack(TrackInfo{
			TrackID:              s.TrackID,
			ParentID:             s.ParentID,
			ParticleName:         s.ParticleName,
			CreatorProcess:       s.CreatorProcess,
			InitialKineticEnergy: s.KineticEnergyPre,
			InitialPosition:      s.Position,
		})
		if t.Weight == 0 {
			t.Weight = 1
		}
	}

	previous := t.InitialPosition
	if n := t.Hits.Len(); n > 0 {
		previous = t.Hits.Position[n-1]
	}
	t.Length += r3.Norm(r3.Sub(s.Position, previous))
	t.Hits.InsertStep(s)
}

// Event returns the event the track belongs to, or nil.
func (t *Track) Event() *Event { return t.event }

// IsPrimary reports whether the track has no parent.
func (t *Track) IsPrimary() bool { return t.ParentID == 0 }

// IsRadioactiveDecay reports whether the track was created by a decay.
func (t *Track) IsRadioactiveDecay() bool { return t.CreatorProcess == RadioactiveDecayProcess }

// NumberOfHits counts hits in volumeID.
func (t *Track) NumberOfHits(volumeID int) int { return t.Hits.NumberOfHitsInVolume(volumeID) }

// NumberOfPhysicalHits counts hits in volumeID with energy > 0.
func (t *Track) NumberOfPhysicalHits(volumeID int) int {
	return t.Hits.NumberOfPhysicalHitsInVolume(volumeID)
}

// TotalEnergy is the energy deposited by the whole track.
func (t *Track) TotalEnergy() float64 { return t.Hits.TotalEnergy() }

// EnergyInVolume is the energy deposited by the track in volumeID.
func (t *Track) EnergyInVolume(volumeID int) float64 { return t.Hits.EnergyInVolume(volumeID) }

// MeanPositionInVolume delegates to Hits.
func (t *Track) MeanPositionInVolume(volumeID int) r3.Vec {
	return t.Hits.MeanPositionInVolume(volumeID)
}

// FirstPositionInVolume delegates to Hits.
func (t *Track) FirstPositionInVolume(volumeID int) r3.Vec {
	return t.Hits.FirstPositionInVolume(volumeID)
}

// LastPositionInVolume delegates to Hits.
func (t *Track) LastPositionInVolume(volumeID int) r3.Vec {
	return t.Hits.LastPositionInVolume(volumeID)
}

// TimeLength is the time between the first and last hit, 0 without hits.
func (t *Track) TimeLength() float64 {
	n := t.Hits.Len()
	if n == 0 {
		return 0
	}
	return t.Hits.Time[n-1] - t.Hits.Time[0]
}

// VolumesVisited returns the distinct volume ids in first-visit order.
func (t *Track) VolumesVisited() []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range t.Hits.VolumeID {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// RemoveHits drops the hits while keeping the track identity.
func (t *Track) RemoveHits() { t.Hits.RemoveHits() }

// ContainsProcessInVolume reports whether any hit in volumeID was produced
// by processID.
func (t *Track) ContainsProcessInVolume(processID, volumeID int) bool {
	return t.Hits.ContainsProcessInVolume(processID, volumeID)
}

// ContainsProcessNameInVolume resolves name through the event metadata.
// Without an event or metadata it returns false.
func (t *Track) ContainsProcessNameInVolume(name string, volumeID int) bool {
	id, err := t.ProcessID(name)
	if err != nil || id < 0 {
		return false
	}
	return t.ContainsProcessInVolume(id, volumeID)
}

func (t *Track) metadata() (Metadata, error) {
	if t.event == nil || t.event.metadata == nil {
		return nil, fmt.Errorf("track %d: %w", t.TrackID, ErrNoMetadataContext)
	}
	return t.event.metadata, nil
}

// ProcessName resolves a process id. It fails with ErrNoMetadataContext when
// the track is not attached to an event with metadata.
func (t *Track) ProcessName(id int) (string, error) {
	md, err := t.metadata()
	if err != nil {
		return "", err
	}
	return md.Physics().ProcessName(id), nil
}

// ProcessID resolves a process name; unknown names yield -1.
func (t *Track) ProcessID(name string) (int, error) {
	md, err := t.metadata()
	if err != nil {
		return -1, err
	}
	return md.Physics().ProcessID(name), nil
}

// ParentTrack returns the parent track within the same event, or nil.
func (t *Track) ParentTrack() *Track {
	if t.event == nil || t.ParentID == 0 {
		return nil
	}
	parent, err := t.event.TrackByID(t.ParentID)
	if err != nil {
		return nil
	}
	return parent
}

// SecondaryTracks returns the tracks whose parent is t, in track order.
func (t *Track) SecondaryTracks() []*Track {
	if t.event == nil {
		return nil
	}
	var out []*Track
	for _, other := range t.event.Tracks {
		if other.ParentID == t.TrackID && other != t {
			out = append(out, other)
		}
	}
	return out
}

func (t *Track) clone() *Track {
	c := *t
	c.Hits = t.Hits.clone()
	c.event = nil
	c.Hits.track = &c
	return &c
}
