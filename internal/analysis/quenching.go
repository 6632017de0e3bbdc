package analysis

import (
	"fmt"
	"slices"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/geometry"
)

// DefaultUnquenched lists particles whose light yield is not quenched.
var DefaultUnquenched = []string{"e-", "e+", "gamma"}

// Quenching scales the energy deposited by heavy particles in the
// configured volumes, modelling reduced scintillation yield.
type Quenching struct {
	Factor     float64  // in (0, 1]
	Volumes    []string // empty means every active volume
	Unquenched []string // default DefaultUnquenched
}

// Name implements Process.
func (q *Quenching) Name() string { return "quenching" }

// Validate checks the factor.
func (q *Quenching) Validate() error {
	if q.Factor <= 0 || q.Factor > 1 {
		return fmt.Errorf("quenching factor must be in (0, 1], got %v", q.Factor)
	}
	return nil
}

// Process returns a quenched copy of ev and reports
// quenching.energy_ratio (quenched/original total, 1 for an empty event)
// and quenching.<volume>.energy for each quenched volume.
func (q *Quenching) Process(ev *event.Event, sink ObservableSink) (*event.Event, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if ev.Metadata() == nil {
		return nil, ErrNoMetadata
	}
	unquenched := q.Unquenched
	if unquenched == nil {
		unquenched = DefaultUnquenched
	}
	volumes := q.Volumes
	if len(volumes) == 0 {
		for _, v := range ev.Volumes {
			volumes = append(volumes, v.Name)
		}
	}

	out, err := ev.Clone()
	if err != nil {
		return nil, err
	}
	geo := out.Metadata().Geometry()
	for _, name := range volumes {
		id := geo.VolumeID(name)
		if id == geometry.NotFound {
			continue
		}
		for _, t := range out.Tracks {
			if slices.Contains(unquenched, t.ParticleName) || t.EnergyInVolume(id) <= 0 {
				continue
			}
			if err := t.RescaleEnergy(id, q.Factor); err != nil {
				return nil, err
			}
		}
		sink.Set("quenching."+name+".energy", out.EnergyInVolume(id))
	}

	ratio := 1.0
	if ev.TotalDepositedEnergy > 0 {
		ratio = out.TotalDepositedEnergy / ev.TotalDepositedEnergy
	}
	sink.Set("quenching.energy_ratio", ratio)
	return out, nil
}
