package analysis

import (
	"strings"

	"github.com/banshee-data/detsim/internal/event"
)

// VetoTagging reports the energy seen by veto volumes. Vetoes are the
// event's active volumes whose names contain Pattern.
type VetoTagging struct {
	Pattern      string
	ThresholdKeV float64
}

// Name implements Process.
func (v *VetoTagging) Name() string { return "veto" }

// Process reports veto.<volume>.energy per veto, veto.max_energy and
// veto.n_fired (vetoes at or above the threshold). The event is passed
// through unchanged.
func (v *VetoTagging) Process(ev *event.Event, sink ObservableSink) (*event.Event, error) {
	maxEnergy := 0.0
	fired := 0
	if v.Pattern != "" {
		for _, vol := range ev.Volumes {
			if !strings.Contains(vol.Name, v.Pattern) {
				continue
			}
			sink.Set("veto."+vol.Name+".energy", vol.Energy)
			maxEnergy = max(maxEnergy, vol.Energy)
			if vol.Energy > 0 && vol.Energy >= v.ThresholdKeV {
				fired++
			}
		}
	}
	sink.Set("veto.max_energy", maxEnergy)
	sink.Set("veto.n_fired", float64(fired))
	return ev, nil
}
