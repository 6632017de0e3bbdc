package metadata

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/fsutil"
	"github.com/banshee-data/detsim/internal/geometry"
	"github.com/banshee-data/detsim/internal/monitoring"
)

const validYAML = `
name: argon-neutron-calibration
run_number: 12
run_uuid: 6f1c2f0e-8a1d-4a57-9a51-2c1e3f7d9b10
gdml_file: geometry/setup.gdml
seed: 42
number_of_events: 1000
sub_event_time_delay: 100us
storage:
  save_all_events: false
  remove_unwanted_tracks: true
  sensitive_volume: gas
  active_volumes:
    - name: gas
    - name: vetoTop
      stored: false
    - name: shield
      chance: 0
generator:
  kind: volume
  volume:
    shape: cylinder
    position: [0, 0, -150]
    size: [50, 100]
  particles:
    - name: neutron
      energy_kev: 2450
      angular_distribution: isotropic
biasing:
  - name: inner
    shape: sphere
    size: [500]
    factor: 2
    energy_range_kev: [0, 10000]
    direction: inwards
cuts:
  gamma: 0.1
  e-: 0.05
volumes:
  - name: world
  - name: gas
    material: G4_Ar
    position: [0, 0, 0]
  - name: vetoTop
    material: BC408
  - name: shield
    material: G4_Pb
processes:
  - id: 0
    name: Transportation
  - id: 1
    name: eIoni
    type: electromagnetic
  - id: 2
    name: nCapture
    type: hadronic
particles:
  - id: 2112
    name: neutron
`

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	sim, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "argon-neutron-calibration", sim.Name)
	assert.Equal(t, "6f1c2f0e-8a1d-4a57-9a51-2c1e3f7d9b10", sim.RunUUID.String())
	assert.Equal(t, 100*time.Microsecond, sim.SubEventTimeDelay)
	assert.Equal(t, "gas", sim.SensitiveVolume())
	assert.Equal(t, []string{"gas", "vetoTop", "shield"}, sim.ActiveVolumeNames())
	assert.Equal(t, 0.1, sim.Cuts["gamma"])

	assert.Equal(t, 1, sim.Geometry().VolumeID("gas"))
	assert.Equal(t, "G4_Pb", sim.Geometry().Material(3))
	assert.True(t, event.IsUndefined(sim.Geometry().Position(0)))
	assert.Equal(t, 2, sim.Physics().ProcessID("nCapture"))
	assert.Equal(t, "hadronic", sim.Physics().ProcessType("nCapture"))
	assert.Equal(t, "neutron", sim.Physics().ParticleName(2112))

	assert.Contains(t, sim.Generator.Describe(), "volume generator inside cylinder [50 100] mm")
	assert.Contains(t, sim.Generator.Describe(), "neutron (2450 keV)")
	assert.True(t, sim.Biasing[0].AppliesTo("neutron", 2450))
	assert.False(t, sim.Biasing[0].AppliesTo("neutron", 20000))
}

func TestParse_AssignsRunUUID(t *testing.T) {
	lines, restore := monitoring.CaptureLogs()
	defer restore()

	doc := strings.Replace(validYAML, "run_uuid: 6f1c2f0e-8a1d-4a57-9a51-2c1e3f7d9b10\n", "", 1)
	a, err := Parse([]byte(doc))
	require.NoError(t, err)
	b, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.NotEqual(t, a.RunUUID, b.RunUUID)
	assert.Equal(t, a.RunUUID.String(), a.RunID)
	require.Len(t, *lines, 2)
	assert.Contains(t, (*lines)[0], "assigned "+a.RunID)
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		edit    func(string) string
		wantErr error
	}{
		{
			name:    "unknown key",
			edit:    func(s string) string { return s + "colour: blue\n" },
			wantErr: nil,
		},
		{
			name:    "missing sensitive volume",
			edit:    func(s string) string { return strings.Replace(s, "  sensitive_volume: gas\n", "", 1) },
			wantErr: ErrInvalidMetadata,
		},
		{
			name:    "bad run uuid",
			edit:    func(s string) string { return strings.Replace(s, "6f1c2f0e-8a1d", "zzzz", 1) },
			wantErr: ErrInvalidMetadata,
		},
		{
			name:    "chance out of range",
			edit:    func(s string) string { return strings.Replace(s, "chance: 0", "chance: 1.5", 1) },
			wantErr: ErrInvalidMetadata,
		},
		{
			name:    "undeclared active volume",
			edit:    func(s string) string { return strings.Replace(s, "    - name: gas\n", "    - name: lead\n", 1) },
			wantErr: ErrUnknownVolume,
		},
		{
			name: "duplicate active volume",
			edit: func(s string) string {
				return strings.Replace(s, "    - name: vetoTop\n      stored", "    - name: gas\n      stored", 1)
			},
			wantErr: ErrInvalidMetadata,
		},
		{
			name:    "cylinder with one size",
			edit:    func(s string) string { return strings.Replace(s, "size: [50, 100]", "size: [50]", 1) },
			wantErr: ErrShapeSize,
		},
		{
			name:    "biasing factor zero",
			edit:    func(s string) string { return strings.Replace(s, "factor: 2", "factor: 0", 1) },
			wantErr: ErrInvalidMetadata,
		},
		{
			name:    "negative cut",
			edit:    func(s string) string { return strings.Replace(s, "gamma: 0.1", "gamma: -1", 1) },
			wantErr: ErrInvalidMetadata,
		},
		{
			name: "duplicate volume",
			edit: func(s string) string {
				return strings.Replace(s, "  - name: shield\n    material", "  - name: gas\n    material", 1)
			},
			wantErr: geometry.ErrDuplicateVolume,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.edit(validYAML)))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestSimulation_NewEventAppliesStoragePolicy(t *testing.T) {
	t.Parallel()

	sim, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	sim.Freeze()

	ev := sim.NewEvent(7, sim.NewRand())
	assert.Equal(t, 12, ev.RunID)
	assert.Equal(t, 7, ev.EventID)
	assert.Equal(t, 3, ev.NumberOfActiveVolumes())
	assert.True(t, ev.IsVolumeStored("gas"))
	assert.False(t, ev.IsVolumeStored("vetoTop"))
	assert.False(t, ev.IsVolumeStored("shield"), "chance 0 never stores")
	assert.Equal(t, event.Metadata(sim), ev.Metadata())

	assert.False(t, sim.Keep(ev))
	ev.AddEnergyToSensitiveVolume(1)
	assert.True(t, sim.Keep(ev))
}

func TestSimulation_AddVolumeUntilFrozen(t *testing.T) {
	t.Parallel()

	sim, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	id, err := sim.AddVolume("gas")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	id, err = sim.AddVolume("cryostat")
	require.NoError(t, err)
	assert.Equal(t, 4, id)

	sim.Freeze()
	assert.True(t, sim.Frozen())
	_, err = sim.AddVolume("floor")
	assert.ErrorIs(t, err, ErrFrozen)
	_, err = sim.Physics().RegisterProcess("hadElastic")
	assert.Error(t, err)
}

func TestSimulation_RandIsDeterministic(t *testing.T) {
	t.Parallel()

	sim, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	a, b := sim.NewRand(), sim.NewRand()
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("run.yaml", []byte(validYAML))
	fsys.WriteFile("run.json", []byte(`{}`))
	fsys.WriteFile("huge.yml", make([]byte, maxMetadataSize+1))

	sim, err := Load(fsys, "run.yaml")
	require.NoError(t, err)
	assert.Equal(t, 12, sim.RunNumber)

	_, err = Load(fsys, "run.json")
	assert.ErrorContains(t, err, ".yaml or .yml")

	_, err = Load(fsys, "huge.yml")
	assert.ErrorContains(t, err, "too large")

	_, err = Load(fsys, "missing.yaml")
	assert.Error(t, err)
}
