package event

import (
	"fmt"
	"math"
)

// RescaleTrackEnergy multiplies the energy of the track's hits in volumeID
// by factor and applies the same change to the per-volume energies, the
// breakdown map, the total and the sensitive-volume energy. Passes that
// alter hit energies must use this instead of writing Hits.Energy, which
// would leave the aggregates stale.
func (e *Event) RescaleTrackEnergy(trackID, volumeID int, factor float64) error {
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return fmt.Errorf("factor %v: %w", factor, ErrInvalidFactor)
	}
	t, err := e.TrackByID(trackID)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("run %d event %d: track id %d: %w", e.RunID, e.EventID, trackID, ErrTrackNotFound)
	}
	if e.metadata == nil {
		return fmt.Errorf("run %d event %d: rescale: %w", e.RunID, e.EventID, ErrNoMetadataContext)
	}

	phys := e.metadata.Physics()
	geo := e.metadata.Geometry()
	sensitive := e.metadata.SensitiveVolume()
	for i, vid := range t.Hits.VolumeID {
		old := t.Hits.Energy[i]
		if old <= 0 || !volumeMatches(volumeID, vid) {
			continue
		}
		scaled := old * factor
		delta := scaled - old
		t.Hits.Energy[i] = scaled

		name := geo.VolumeName(vid)
		if idx := e.ActiveVolumeIndex(name); idx >= 0 {
			e.Volumes[idx].Energy += delta
			e.addBreakdown(name, t.ParticleName, phys.ProcessName(t.Hits.ProcessID[i]), delta)
			e.TotalDepositedEnergy += delta
		}
		if name != "" && name == sensitive {
			e.SensitiveVolumeEnergy += delta
		}
	}
	return nil
}

// RescaleEnergy rescales this track's hits in volumeID. On a detached track
// only the hits change; on an attached track the event aggregates follow.
func (t *Track) RescaleEnergy(volumeID int, factor float64) error {
	if t.event != nil {
		return t.event.RescaleTrackEnergy(t.TrackID, volumeID, factor)
	}
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return fmt.Errorf("factor %v: %w", factor, ErrInvalidFactor)
	}
	for i, vid := range t.Hits.VolumeID {
		if volumeMatches(volumeID, vid) {
			t.Hits.Energy[i] *= factor
		}
	}
	return nil
}

// RecomputeEnergyTotals rebuilds the per-volume energies, the breakdown
// map, the total and the sensitive-volume energy from the hits.
func (e *Event) RecomputeEnergyTotals() error {
	if e.metadata == nil {
		return fmt.Errorf("run %d event %d: recompute: %w", e.RunID, e.EventID, ErrNoMetadataContext)
	}
	phys := e.metadata.Physics()
	geo := e.metadata.Geometry()
	sensitive := e.metadata.SensitiveVolume()

	e.EnergyBreakdown = make(map[string]map[string]map[string]float64)
	e.TotalDepositedEnergy = 0
	e.SensitiveVolumeEnergy = 0
	for i := range e.Volumes {
		e.Volumes[i].Energy = 0
	}
	for _, t := range e.Tracks {
		for i, vid := range t.Hits.VolumeID {
			energy := t.Hits.Energy[i]
			if energy <= 0 {
				continue
			}
			name := geo.VolumeName(vid)
			if idx := e.ActiveVolumeIndex(name); idx >= 0 {
				e.Volumes[idx].Energy += energy
				e.AddEnergyInVolumeForParticleForProcess(energy, name, t.ParticleName, phys.ProcessName(t.Hits.ProcessID[i]))
			}
			if name != "" && name == sensitive {
				e.SensitiveVolumeEnergy += energy
			}
		}
	}
	e.bounds = nil
	return nil
}

// RemoveUnwantedTracks drops the hits of tracks that deposited no energy in
// a stored active volume nor in the sensitive volume. Track identities are
// kept, so parent links stay valid. It returns the number of pruned tracks.
func (e *Event) RemoveUnwantedTracks() (int, error) {
	if e.metadata == nil {
		return 0, fmt.Errorf("run %d event %d: prune: %w", e.RunID, e.EventID, ErrNoMetadataContext)
	}
	geo := e.metadata.Geometry()
	wanted := make(map[int]bool, len(e.Volumes)+1)
	for _, v := range e.Volumes {
		if !v.Stored {
			continue
		}
		if id := geo.VolumeID(v.Name); id >= 0 {
			wanted[id] = true
		}
	}
	if id := geo.VolumeID(e.metadata.SensitiveVolume()); id >= 0 {
		wanted[id] = true
	}

	pruned := 0
	for _, t := range e.Tracks {
		if t.Hits.Len() == 0 {
			continue
		}
		keep := false
		for i, vid := range t.Hits.VolumeID {
			if wanted[vid] && t.Hits.Energy[i] > 0 {
				keep = true
				break
			}
		}
		if !keep {
			t.RemoveHits()
			pruned++
		}
	}
	if pruned > 0 {
		e.bounds = nil
	}
	return pruned, nil
}

// Clone returns a deep copy linked to the same metadata. It fails when the
// source's tracks do not index cleanly (nil or duplicate ids).
func (e *Event) Clone() (*Event, error) {
	c := &Event{
		RunID:                 e.RunID,
		EventID:               e.EventID,
		SubEventID:            e.SubEventID,
		TotalDepositedEnergy:  e.TotalDepositedEnergy,
		SensitiveVolumeEnergy: e.SensitiveVolumeEnergy,
		Volumes:               append([]ActiveVolume(nil), e.Volumes...),
		Primaries:             append([]Primary(nil), e.Primaries...),
		EnergyBreakdown:       make(map[string]map[string]map[string]float64, len(e.EnergyBreakdown)),
		Tracks:                make([]*Track, 0, len(e.Tracks)),
	}
	for volume, particles := range e.EnergyBreakdown {
		cp := make(map[string]map[string]float64, len(particles))
		for particle, processes := range particles {
			cproc := make(map[string]float64, len(processes))
			for process, energy := range processes {
				cproc[process] = energy
			}
			cp[particle] = cproc
		}
		c.EnergyBreakdown[volume] = cp
	}
	for _, t := range e.Tracks {
		if t == nil {
			c.Tracks = append(c.Tracks, nil)
			continue
		}
		c.Tracks = append(c.Tracks, t.clone())
	}
	if err := c.InitializeReferences(e.metadata); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return c, nil
}
