// Package testutil provides shared test utilities and fixtures.
//
// The fixtures describe a small detector: an argon gas target surrounded
// by two plastic veto panels and a lead shield. Events are assembled
// through the public event API with the same energy accounting the
// ingestion pipeline performs.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/metadata"
)

// MetadataYAML is the fixture simulation description.
const MetadataYAML = `
name: fixture
run_number: 1
run_uuid: 0b7e4c1a-3f52-4d8e-9c61-5a2f8e7d1c34
gdml_file: fixture.gdml
seed: 7
sub_event_time_delay: 1ms
storage:
  save_all_events: false
  remove_unwanted_tracks: false
  sensitive_volume: gas
  active_volumes:
    - name: gas
    - name: vetoTop
    - name: vetoBottom
generator:
  kind: point
  point:
    position: [0, 0, 500]
  particles:
    - name: neutron
      energy_kev: 2450
volumes:
  - name: world
  - name: gas
    material: G4_Ar
    position: [0, 0, 0]
  - name: vetoTop
    material: BC408
    position: [0, 0, 300]
  - name: vetoBottom
    material: BC408
    position: [0, 0, -300]
  - name: shield
    material: G4_Pb
processes:
  - {id: 0, name: Transportation}
  - {id: 1, name: eIoni}
  - {id: 2, name: hadElastic}
  - {id: 3, name: nCapture}
  - {id: 4, name: ionIoni}
  - {id: 5, name: compt}
  - {id: 6, name: msc}
`

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewSimulation returns the frozen fixture simulation.
func NewSimulation(t testing.TB) *metadata.Simulation {
	t.Helper()
	sim, err := metadata.Parse([]byte(MetadataYAML))
	AssertNoError(t, err)
	sim.Freeze()
	return sim
}

// Step builds a step, resolving volume and process names through sim.
// timeNs is the global time in nanoseconds.
func Step(sim *metadata.Simulation, trackID, parentID int, particle, volume, process string, energy float64, pos r3.Vec, timeNs float64) event.Step {
	return event.Step{
		TrackID:      trackID,
		ParentID:     parentID,
		ParticleName: particle,
		Position:     pos,
		Time:         timeNs * 1e-9,
		Energy:       energy,
		PreVolume:    volume,
		PostVolume:   volume,
		VolumeID:     sim.Geometry().VolumeID(volume),
		ProcessName:  process,
		ProcessID:    sim.Physics().ProcessID(process),
	}
}

// Deposit appends s to its track, creating the track on first sight, and
// accounts the energy in active and sensitive volumes.
func Deposit(t testing.TB, ev *event.Event, s event.Step) *event.Track {
	t.Helper()
	tr, err := ev.TrackByID(s.TrackID)
	AssertNoError(t, err)
	if tr == nil {
		tr = &event.Track{}
		tr.InsertStep(s)
		AssertNoError(t, ev.AddTrack(tr))
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

// Finalize sets the per-volume energies from the hits.
func Finalize(ev *event.Event) {
	geo := ev.Metadata().Geometry()
	for i, v := range ev.Volumes {
		ev.SetEnergyDepositedInVolume(i, ev.EnergyInVolume(geo.VolumeID(v.Name)))
	}
	ev.UpdateBoundingBox()
}

// NeutronCaptureEvent is a neutron that scatters in the top veto, captures
// in the gas and releases a gamma cascade:
//
//	track 1 neutron: hadElastic in vetoTop, nCapture in gas at 50 us
//	track 2 proton:  200 keV recoil in vetoTop
//	track 3 gamma:   compt in gas, no local deposit
//	track 4 e-:      1000 keV in gas
//	track 5 alpha:   500 keV in gas
//	track 6 gamma:   300 keV in vetoBottom at 51 us
func NeutronCaptureEvent(t testing.TB, sim *metadata.Simulation, eventID int) *event.Event {
	t.Helper()
	ev := sim.NewEvent(eventID, nil)
	ev.AddPrimary(event.Primary{ParticleName: "neutron", Origin: r3.Vec{Z: 500}, Direction: r3.Vec{Z: -1}, Energy: 2450})

	steps := []event.Step{
		Step(sim, 1, 0, "neutron", "vetoTop", "hadElastic", 0, r3.Vec{Z: 300}, 2),
		Step(sim, 2, 1, "proton", "vetoTop", "hadElastic", 200, r3.Vec{Z: 299}, 2.1),
		Step(sim, 1, 0, "neutron", "gas", "nCapture", 0, r3.Vec{X: 10, Z: 5}, 50000),
		Step(sim, 3, 1, "gamma", "gas", "compt", 0, r3.Vec{X: 10, Z: 5}, 50000),
		Step(sim, 4, 3, "e-", "gas", "eIoni", 600, r3.Vec{X: 12, Z: 6}, 50000.1),
		Step(sim, 4, 3, "e-", "gas", "msc", 400, r3.Vec{X: 14, Z: 7}, 50000.2),
		Step(sim, 5, 1, "alpha", "gas", "ionIoni", 500, r3.Vec{X: 10, Z: 5}, 50000),
		Step(sim, 6, 1, "gamma", "vetoBottom", "compt", 300, r3.Vec{Z: -300}, 51000),
	}
	for _, s := range steps {
		Deposit(t, ev, s)
	}
	Finalize(ev)
	return ev
}

// ApproxEqual reports whether a and b agree to a relative tolerance.
func ApproxEqual(a, b, rel float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= rel*math.Max(math.Abs(a), math.Abs(b))
}
