package metadata

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/geometry"
	"github.com/banshee-data/detsim/internal/physics"
)

var (
	// ErrUnknownVolume is returned when the storage policy names a volume
	// missing from the declared geometry.
	ErrUnknownVolume = errors.New("volume not declared in geometry")
	// ErrFrozen is returned when mutating a frozen Simulation.
	ErrFrozen = errors.New("simulation metadata is frozen")
)

// Simulation is the description of one simulation run.
type Simulation struct {
	Name      string `yaml:"name" validate:"required"`
	RunNumber int    `yaml:"run_number" validate:"gte=0"`
	// RunID is the textual run UUID; Parse fills RunUUID from it, or
	// generates a fresh one when it is empty.
	RunID   string    `yaml:"run_uuid" validate:"omitempty,uuid"`
	RunUUID uuid.UUID `yaml:"-"`

	GDMLFile          string        `yaml:"gdml_file" validate:"required"`
	Seed              uint64        `yaml:"seed"`
	NumberOfEvents    int           `yaml:"number_of_events" validate:"gte=0"`
	SubEventTimeDelay time.Duration `yaml:"sub_event_time_delay" validate:"gte=0"`

	Storage   Storage            `yaml:"storage"`
	Generator Generator          `yaml:"generator"`
	Biasing   []BiasingVolume    `yaml:"biasing" validate:"dive"`
	Cuts      map[string]float64 `yaml:"cuts" validate:"dive,gt=0"`

	Volumes   []VolumeSpec   `yaml:"volumes" validate:"dive"`
	Processes []ProcessSpec  `yaml:"processes" validate:"dive"`
	Particles []ParticleSpec `yaml:"particles" validate:"dive"`

	phys   *physics.Registry
	geo    *geometry.Registry
	frozen bool
}

// Storage is the event storage policy.
type Storage struct {
	// SaveAllEvents keeps events that deposited nothing in the sensitive
	// volume.
	SaveAllEvents bool `yaml:"save_all_events"`
	// RemoveUnwantedTracks drops the hits of tracks that deposited nothing
	// in an active or the sensitive volume.
	RemoveUnwantedTracks bool           `yaml:"remove_unwanted_tracks"`
	SensitiveVolume      string         `yaml:"sensitive_volume" validate:"required"`
	ActiveVolumes        []ActiveVolume `yaml:"active_volumes" validate:"dive"`
}

// ActiveVolume enables energy storage for one volume. Stored defaults to
// true; Chance, when set, is the per-event probability that the volume is
// flagged stored.
type ActiveVolume struct {
	Name   string   `yaml:"name" validate:"required"`
	Stored *bool    `yaml:"stored"`
	Chance *float64 `yaml:"chance" validate:"omitempty,gte=0,lte=1"`
}

// VolumeSpec declares a geometry volume. Ids are assigned in file order.
type VolumeSpec struct {
	Name     string    `yaml:"name" validate:"required"`
	Material string    `yaml:"material"`
	Position []float64 `yaml:"position" validate:"omitempty,len=3"`
}

// ProcessSpec pre-binds a process id.
type ProcessSpec struct {
	ID   int    `yaml:"id" validate:"gte=0"`
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type"`
}

// ParticleSpec pre-binds a particle id (usually the PDG code).
type ParticleSpec struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name" validate:"required"`
}

// Physics implements event.Metadata.
func (s *Simulation) Physics() *physics.Registry { return s.phys }

// Geometry implements event.Metadata.
func (s *Simulation) Geometry() geometry.VolumeIndex { return s.geo }

// SensitiveVolume implements event.Metadata.
func (s *Simulation) SensitiveVolume() string { return s.Storage.SensitiveVolume }

// VolumeRegistry exposes the writable geometry registry for pre-scanning.
func (s *Simulation) VolumeRegistry() *geometry.Registry { return s.geo }

// Frozen reports whether Freeze has been called.
func (s *Simulation) Frozen() bool { return s.frozen }

// Freeze makes the registries read-only. Events must only be built from a
// frozen Simulation.
func (s *Simulation) Freeze() {
	s.phys.Freeze()
	s.geo.Freeze()
	s.frozen = true
}

// AddVolume declares a volume discovered outside the metadata file, such
// as in the step stream. Known names return their existing id.
func (s *Simulation) AddVolume(name string) (int, error) {
	if s.frozen {
		return geometry.NotFound, ErrFrozen
	}
	if id := s.geo.VolumeID(name); id != geometry.NotFound {
		return id, nil
	}
	return s.geo.AddVolume(geometry.Volume{Name: name, Position: event.UndefinedPosition()})
}

// buildRegistries populates fresh registries from the declared volumes,
// processes and particles.
func (s *Simulation) buildRegistries() error {
	s.phys = physics.NewRegistry()
	s.geo = geometry.NewRegistry()

	for _, v := range s.Volumes {
		pos := event.UndefinedPosition()
		if len(v.Position) == 3 {
			pos = r3.Vec{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]}
		}
		if _, err := s.geo.AddVolume(geometry.Volume{Name: v.Name, Position: pos, Material: v.Material}); err != nil {
			return err
		}
	}
	for _, p := range s.Processes {
		if err := s.phys.InsertProcess(p.ID, p.Name); err != nil {
			return err
		}
		if p.Type != "" {
			if err := s.phys.InsertProcessType(p.Name, p.Type); err != nil {
				return err
			}
		}
	}
	for _, p := range s.Particles {
		if err := s.phys.InsertParticle(p.ID, p.Name); err != nil {
			return err
		}
	}
	return nil
}

// checkVolumes verifies that the storage policy only names declared volumes.
// It is skipped when no volumes are declared, in which case the geometry is
// filled before Freeze and the ingest builder checks it.
func (s *Simulation) checkVolumes() error {
	if len(s.Volumes) == 0 {
		return nil
	}
	if !s.geo.IsValidVolume(s.Storage.SensitiveVolume) {
		return fmt.Errorf("sensitive volume %q: %w", s.Storage.SensitiveVolume, ErrUnknownVolume)
	}
	for _, v := range s.Storage.ActiveVolumes {
		if !s.geo.IsValidVolume(v.Name) {
			return fmt.Errorf("active volume %q: %w", v.Name, ErrUnknownVolume)
		}
	}
	if s.Generator.Volume != nil && s.Generator.Volume.FromVolume != "" && !s.geo.IsValidVolume(s.Generator.Volume.FromVolume) {
		return fmt.Errorf("generator volume %q: %w", s.Generator.Volume.FromVolume, ErrUnknownVolume)
	}
	return nil
}

// ActiveVolumeNames returns the active volume names in declaration order.
func (s *Simulation) ActiveVolumeNames() []string {
	out := make([]string, 0, len(s.Storage.ActiveVolumes))
	for _, v := range s.Storage.ActiveVolumes {
		out = append(out, v.Name)
	}
	return out
}

// NewRand returns the run's deterministic random source.
func (s *Simulation) NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(s.Seed, uint64(s.RunNumber)))
}

// NewEvent returns an empty event linked to s with every active volume
// registered. Stored flags follow the policy; volumes with a Chance draw
// from rng, which may be nil when no volume declares one.
func (s *Simulation) NewEvent(eventID int, rng *rand.Rand) *event.Event {
	ev := event.NewEvent(s.RunNumber, eventID, s)
	for _, v := range s.Storage.ActiveVolumes {
		ev.AddActiveVolume(v.Name)
		stored := v.Stored == nil || *v.Stored
		if stored && v.Chance != nil && rng != nil {
			stored = rng.Float64() < *v.Chance
		}
		ev.SetVolumeStored(v.Name, stored)
	}
	return ev
}

// Keep reports whether the storage policy keeps a finalized event.
func (s *Simulation) Keep(ev *event.Event) bool {
	return s.Storage.SaveAllEvents || ev.SensitiveVolumeEnergy > 0
}
