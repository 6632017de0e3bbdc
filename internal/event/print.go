package event

import (
	"fmt"
	"io"
	"sort"
)

// PrintTrack writes a human-readable dump of the track to w. maxHits limits
// the number of hits listed; 0 lists all of them. Process and volume names
// are shown when metadata is attached, ids otherwise.
func (t *Track) PrintTrack(w io.Writer, maxHits int) {
	fmt.Fprintf(w, "* Track ID: %d | Parent ID: %d | Particle: %s | Created by: %s\n",
		t.TrackID, t.ParentID, t.ParticleName, t.CreatorProcess)
	fmt.Fprintf(w, "  Initial kinetic energy: %.3f keV | Origin: (%.3f, %.3f, %.3f) mm | Length: %.3f mm | Weight: %g\n",
		t.InitialKineticEnergy, t.InitialPosition.X, t.InitialPosition.Y, t.InitialPosition.Z, t.Length, t.Weight)
	fmt.Fprintf(w, "  Hits: %d | Energy deposited: %.3f keV\n", t.Hits.Len(), t.TotalEnergy())

	var md Metadata
	if t.event != nil {
		md = t.event.metadata
	}
	n := t.Hits.Len()
	if maxHits > 0 && maxHits < n {
		n = maxHits
	}
	for i := 0; i < n; i++ {
		process := fmt.Sprintf("%d", t.Hits.ProcessID[i])
		volume := fmt.Sprintf("%d", t.Hits.VolumeID[i])
		if md != nil {
			if name := md.Physics().ProcessName(t.Hits.ProcessID[i]); name != "" {
				process = name
			}
			if name := md.Geometry().VolumeName(t.Hits.VolumeID[i]); name != "" {
				volume = name
			}
		}
		p := t.Hits.Position[i]
		fmt.Fprintf(w, "  - Hit %d: process %s | volume %s | (%.3f, %.3f, %.3f) mm | E %.3f keV | Ek %.3f keV | t %g s",
			i, process, volume, p.X, p.Y, p.Z, t.Hits.Energy[i], t.Hits.KineticEnergy[i], t.Hits.Time[i])
		if target := t.Hits.Target[i]; !target.IsZero() {
			fmt.Fprintf(w, " | target %s (A=%d, Z=%d)", target.Name, target.A, target.Z)
		}
		fmt.Fprintln(w)
	}
	if n < t.Hits.Len() {
		fmt.Fprintf(w, "  ... %d more hits\n", t.Hits.Len()-n)
	}
}

// PrintEvent writes a summary of the event followed by its tracks. maxTracks
// and maxHits limit the listing; 0 means no limit.
func (e *Event) PrintEvent(w io.Writer, maxTracks, maxHits int) {
	fmt.Fprintf(w, "Run %d | Event %d | Sub-event %d\n", e.RunID, e.EventID, e.SubEventID)
	fmt.Fprintf(w, "Total deposited energy: %.3f keV | Sensitive volume energy: %.3f keV\n",
		e.TotalDepositedEnergy, e.SensitiveVolumeEnergy)
	for _, p := range e.Primaries {
		fmt.Fprintf(w, "Primary %s: %.3f keV from (%.3f, %.3f, %.3f) mm\n",
			p.ParticleName, p.Energy, p.Origin.X, p.Origin.Y, p.Origin.Z)
	}
	for _, v := range e.Volumes {
		fmt.Fprintf(w, "Volume %s: %.3f keV (stored: %t)\n", v.Name, v.Energy, v.Stored)
	}

	perParticle := e.EnergyPerParticleMap()
	particles := make([]string, 0, len(perParticle))
	for p := range perParticle {
		particles = append(particles, p)
	}
	sort.Strings(particles)
	for _, p := range particles {
		fmt.Fprintf(w, "Particle %s: %.3f keV\n", p, perParticle[p])
	}

	n := len(e.Tracks)
	if maxTracks > 0 && maxTracks < n {
		n = maxTracks
	}
	fmt.Fprintf(w, "Tracks: %d\n", len(e.Tracks))
	for _, t := range e.Tracks[:n] {
		t.PrintTrack(w, maxHits)
	}
}
