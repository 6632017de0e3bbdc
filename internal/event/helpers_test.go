package event

import (
	"testing"

	"github.com/banshee-data/detsim/internal/geometry"
	"github.com/banshee-data/detsim/internal/physics"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	volWorld = 0
	volGas   = 1
	volVeto  = 2

	procTransportation = 0
	procEIoni          = 1
	procNCapture       = 2
	procHadElastic     = 3
)

func newTestMetadata(t *testing.T) StaticMetadata {
	t.Helper()

	geo := geometry.NewRegistry()
	for _, name := range []string{"world", "gas", "veto"} {
		_, err := geo.AddVolume(geometry.Volume{Name: name})
		require.NoError(t, err)
	}
	geo.Freeze()

	phys := physics.NewRegistry()
	for id, name := range []string{"Transportation", "eIoni", "nCapture", "hadElastic"} {
		require.NoError(t, phys.InsertProcess(id, name))
	}
	phys.Freeze()

	return StaticMetadata{Names: phys, Volumes: geo, Sensitive: "gas"}
}

func step(trackID, parentID int, particle string, volumeID, processID int, energy float64, pos r3.Vec) Step {
	return Step{
		TrackID:      trackID,
		ParentID:     parentID,
		ParticleName: particle,
		Position:     pos,
		Energy:       energy,
		VolumeID:     volumeID,
		ProcessID:    processID,
	}
}

// deposit mirrors the ingestion pipeline: append the step to its track
// (creating it on first sight) and account the energy when the volume is
// active.
func deposit(t *testing.T, ev *Event, s Step) *Track {
	t.Helper()

	tr, err := ev.TrackByID(s.TrackID)
	require.NoError(t, err)
	if tr == nil {
		tr = &Track{}
		tr.InsertStep(s)
		require.NoError(t, ev.AddTrack(tr))
	} else {
		tr.InsertStep(s)
	}

	md := ev.Metadata()
	volume := md.Geometry().VolumeName(s.VolumeID)
	if ev.IsActiveVolume(volume) {
		ev.AddEnergyInVolumeForParticleForProcess(s.Energy, volume, s.ParticleName, md.Physics().ProcessName(s.ProcessID))
	}
	if volume == md.SensitiveVolume() {
		ev.AddEnergyToSensitiveVolume(s.Energy)
	}
	return tr
}

func finalizeVolumes(ev *Event) {
	geo := ev.Metadata().Geometry()
	for i, v := range ev.Volumes {
		ev.SetEnergyDepositedInVolume(i, ev.EnergyInVolume(geo.VolumeID(v.Name)))
	}
}
