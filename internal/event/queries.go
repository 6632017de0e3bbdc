package event

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// NumberOfHits sums the hit count in volumeID over all tracks.
func (e *Event) NumberOfHits(volumeID int) int {
	n := 0
	for _, t := range e.Tracks {
		n += t.NumberOfHits(volumeID)
	}
	return n
}

// NumberOfPhysicalHits sums the count of hits with energy > 0.
func (e *Event) NumberOfPhysicalHits(volumeID int) int {
	n := 0
	for _, t := range e.Tracks {
		n += t.NumberOfPhysicalHits(volumeID)
	}
	return n
}

// Hits flattens the hits in volumeID into one sequence: tracks in track
// order, hits in per-track order. The result is not sorted by time.
func (e *Event) Hits(volumeID int) *Hits {
	out := &Hits{}
	for _, t := range e.Tracks {
		for i, v := range t.Hits.VolumeID {
			if volumeMatches(volumeID, v) {
				out.appendHit(&t.Hits, i)
			}
		}
	}
	return out
}

// EnergyInVolume sums the energy every track deposited in volumeID.
func (e *Event) EnergyInVolume(volumeID int) float64 {
	var sum float64
	for _, t := range e.Tracks {
		sum += t.EnergyInVolume(volumeID)
	}
	return sum
}

// MeanPositionInVolume is the energy-weighted mean over all tracks, or
// UndefinedPosition if no energy was deposited in volumeID.
func (e *Event) MeanPositionInVolume(volumeID int) r3.Vec {
	var sum r3.Vec
	var energy float64
	for _, t := range e.Tracks {
		s, en := t.Hits.weightedPositionSum(volumeID)
		sum = r3.Add(sum, s)
		energy += en
	}
	if energy == 0 {
		return UndefinedPosition()
	}
	return r3.Scale(1/energy, sum)
}

// FirstPositionInVolume returns the first hit position in volumeID of the
// first track, in track order, that deposited energy there. This is not
// necessarily the earliest hit in time.
func (e *Event) FirstPositionInVolume(volumeID int) r3.Vec {
	for _, t := range e.Tracks {
		if t.EnergyInVolume(volumeID) > 0 {
			return t.FirstPositionInVolume(volumeID)
		}
	}
	return UndefinedPosition()
}

// LastPositionInVolume returns the last hit position in volumeID of the
// last track, in track order, that deposited energy there.
func (e *Event) LastPositionInVolume(volumeID int) r3.Vec {
	for i := len(e.Tracks) - 1; i >= 0; i-- {
		if e.Tracks[i].EnergyInVolume(volumeID) > 0 {
			return e.Tracks[i].LastPositionInVolume(volumeID)
		}
	}
	return UndefinedPosition()
}

// UniqueParticles returns the distinct particle names, sorted.
func (e *Event) UniqueParticles() []string {
	seen := make(map[string]struct{})
	for _, t := range e.Tracks {
		seen[t.ParticleName] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ContainsProcessInVolume reports whether any track has a hit of processID
// in volumeID.
func (e *Event) ContainsProcessInVolume(processID, volumeID int) bool {
	for _, t := range e.Tracks {
		if t.ContainsProcessInVolume(processID, volumeID) {
			return true
		}
	}
	return false
}

// ContainsProcessNameInVolume resolves name through the metadata and then
// behaves like ContainsProcessInVolume.
func (e *Event) ContainsProcessNameInVolume(name string, volumeID int) (bool, error) {
	if e.metadata == nil {
		return false, ErrNoMetadataContext
	}
	id := e.metadata.Physics().ProcessID(name)
	if id < 0 {
		return false, nil
	}
	return e.ContainsProcessInVolume(id, volumeID), nil
}

// ContainsParticle reports whether any track is a particleName.
func (e *Event) ContainsParticle(particleName string) bool {
	for _, t := range e.Tracks {
		if t.ParticleName == particleName {
			return true
		}
	}
	return false
}

// ContainsParticleInVolume reports whether a particleName track has at
// least one hit in volumeID.
func (e *Event) ContainsParticleInVolume(particleName string, volumeID int) bool {
	for _, t := range e.Tracks {
		if t.ParticleName == particleName && t.NumberOfHits(volumeID) > 0 {
			return true
		}
	}
	return false
}

// BoundingBox is the axis-aligned extent of all hit positions.
type BoundingBox struct {
	Min, Max r3.Vec
}

// Empty reports whether the box contains no hits.
func (b BoundingBox) Empty() bool { return b.Min.X > b.Max.X }

// BoundingBox returns the extent of the hits with energy > 0. The value
// cached by UpdateBoundingBox is used when present.
func (e *Event) BoundingBox() BoundingBox {
	if e.bounds != nil {
		return *e.bounds
	}
	return e.computeBoundingBox()
}

// UpdateBoundingBox caches the bounding box. Call it once construction is
// complete; any later AddTrack drops the cache.
func (e *Event) UpdateBoundingBox() {
	b := e.computeBoundingBox()
	e.bounds = &b
}

func (e *Event) computeBoundingBox() BoundingBox {
	inf := math.Inf(1)
	b := BoundingBox{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
	for _, t := range e.Tracks {
		for i, p := range t.Hits.Position {
			if t.Hits.Energy[i] <= 0 {
				continue
			}
			b.Min = r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
			b.Max = r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
		}
	}
	return b
}
