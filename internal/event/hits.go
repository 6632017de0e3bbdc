package event

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hits is the ordered, append-only sequence of energy depositions of one
// track. The slices are parallel: index i of every slice describes hit i.
// Order is step arrival order and is never changed.
type Hits struct {
	Position          []r3.Vec // mm
	MomentumDirection []r3.Vec // unit vector
	Time              []float64
	Energy            []float64 // keV deposited
	KineticEnergy     []float64 // keV before the step
	VolumeID          []int
	ProcessID         []int
	Target            []TargetIsotope

	track *Track // not persisted; set by InitializeReferences
}

// InsertStep appends one hit built from s. It never fails.
func (h *Hits) InsertStep(s Step) {
	h.Position = append(h.Position, s.Position)
	h.MomentumDirection = append(h.MomentumDirection, s.MomentumDirection)
	h.Time = append(h.Time, s.Time)
	h.Energy = append(h.Energy, s.Energy)
	h.KineticEnergy = append(h.KineticEnergy, s.KineticEnergyPre)
	h.VolumeID = append(h.VolumeID, s.VolumeID)
	h.ProcessID = append(h.ProcessID, s.ProcessID)
	h.Target = append(h.Target, s.Target)
}

// appendHit copies hit i of src onto h.
func (h *Hits) appendHit(src *Hits, i int) {
	h.Position = append(h.Position, src.Position[i])
	h.MomentumDirection = append(h.MomentumDirection, src.MomentumDirection[i])
	h.Time = append(h.Time, src.Time[i])
	h.Energy = append(h.Energy, src.Energy[i])
	h.KineticEnergy = append(h.KineticEnergy, src.KineticEnergy[i])
	h.VolumeID = append(h.VolumeID, src.VolumeID[i])
	h.ProcessID = append(h.ProcessID, src.ProcessID[i])
	h.Target = append(h.Target, src.Target[i])
}

// Len returns the number of hits.
func (h *Hits) Len() int { return len(h.Energy) }

// Consistent reports whether all parallel slices have equal length.
func (h *Hits) Consistent() bool {
	n := len(h.Energy)
	return len(h.Position) == n && len(h.MomentumDirection) == n &&
		len(h.Time) == n && len(h.KineticEnergy) == n &&
		len(h.VolumeID) == n && len(h.ProcessID) == n && len(h.Target) == n
}

// Track returns the owning track, or nil before references are initialized.
func (h *Hits) Track() *Track { return h.track }

// TotalEnergy returns the energy deposited by all hits.
func (h *Hits) TotalEnergy() float64 {
	return floats.Sum(h.Energy)
}

// EnergyInVolume sums the energy of hits in volumeID.
func (h *Hits) EnergyInVolume(volumeID int) float64 {
	if volumeID == AnyVolume {
		return h.TotalEnergy()
	}
	var sum float64
	for i, v := range h.VolumeID {
		if v == volumeID {
			sum += h.Energy[i]
		}
	}
	return sum
}

// NumberOfHitsInVolume counts hits in volumeID.
func (h *Hits) NumberOfHitsInVolume(volumeID int) int {
	if volumeID == AnyVolume {
		return h.Len()
	}
	n := 0
	for _, v := range h.VolumeID {
		if v == volumeID {
			n++
		}
	}
	return n
}

// NumberOfPhysicalHitsInVolume counts hits in volumeID with energy > 0.
func (h *Hits) NumberOfPhysicalHitsInVolume(volumeID int) int {
	n := 0
	for i, v := range h.VolumeID {
		if volumeMatches(volumeID, v) && h.Energy[i] > 0 {
			n++
		}
	}
	return n
}

// weightedPositionSum returns Σ E·pos and Σ E over hits in volumeID.
func (h *Hits) weightedPositionSum(volumeID int) (r3.Vec, float64) {
	var sum r3.Vec
	var energy float64
	for i, v := range h.VolumeID {
		if !volumeMatches(volumeID, v) {
			continue
		}
		sum = r3.Add(sum, r3.Scale(h.Energy[i], h.Position[i]))
		energy += h.Energy[i]
	}
	return sum, energy
}

// MeanPositionInVolume returns the energy-weighted mean hit position in
// volumeID, or UndefinedPosition if no energy was deposited there.
func (h *Hits) MeanPositionInVolume(volumeID int) r3.Vec {
	sum, energy := h.weightedPositionSum(volumeID)
	if energy == 0 {
		return UndefinedPosition()
	}
	return r3.Scale(1/energy, sum)
}

// FirstPositionInVolume returns the position of the first hit in volumeID.
func (h *Hits) FirstPositionInVolume(volumeID int) r3.Vec {
	for i, v := range h.VolumeID {
		if volumeMatches(volumeID, v) {
			return h.Position[i]
		}
	}
	return UndefinedPosition()
}

// LastPositionInVolume returns the position of the last hit in volumeID.
func (h *Hits) LastPositionInVolume(volumeID int) r3.Vec {
	for i := len(h.VolumeID) - 1; i >= 0; i-- {
		if volumeMatches(volumeID, h.VolumeID[i]) {
			return h.Position[i]
		}
	}
	return UndefinedPosition()
}

// ContainsProcessInVolume reports whether any hit in volumeID was produced
// by processID.
func (h *Hits) ContainsProcessInVolume(processID, volumeID int) bool {
	for i, p := range h.ProcessID {
		if p == processID && volumeMatches(volumeID, h.VolumeID[i]) {
			return true
		}
	}
	return false
}

// ProcessName resolves the process of hit i through the owning track.
func (h *Hits) ProcessName(i int) (string, error) {
	if h.track == nil {
		return "", ErrNoMetadataContext
	}
	return h.track.ProcessName(h.ProcessID[i])
}

// RemoveHits drops every hit, keeping the owning track intact.
func (h *Hits) RemoveHits() {
	h.Position = nil
	h.MomentumDirection = nil
	h.Time = nil
	h.Energy = nil
	h.KineticEnergy = nil
	h.VolumeID = nil
	h.ProcessID = nil
	h.Target = nil
}

func (h *Hits) clone() Hits {
	return Hits{
		Position:          append([]r3.Vec(nil), h.Position...),
		MomentumDirection: append([]r3.Vec(nil), h.MomentumDirection...),
		Time:              append([]float64(nil), h.Time...),
		Energy:            append([]float64(nil), h.Energy...),
		KineticEnergy:     append([]float64(nil), h.KineticEnergy...),
		VolumeID:          append([]int(nil), h.VolumeID...),
		ProcessID:         append([]int(nil), h.ProcessID...),
		Target:            append([]TargetIsotope(nil), h.Target...),
	}
}
