package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/geometry"
	"github.com/banshee-data/detsim/internal/physics"
)

// CaptureProcess is the process name of neutron capture.
const CaptureProcess = "nCapture"

// NeutronTagging finds neutron captures in the capture volumes and sums
// the energy their products deposit there shortly afterwards.
type NeutronTagging struct {
	CaptureVolumes []string
	TimeWindow     time.Duration
}

// Name implements Process.
func (n *NeutronTagging) Name() string { return "neutron" }

type capture struct {
	track    int
	position r3.Vec
	time     float64
}

// Process reports neutron.n_captures, neutron.capture_positions (distinct
// capture points), neutron.first_capture_time_us and
// neutron.capture_energy: the energy deposited in capture volumes by
// descendants of a captured neutron no later than TimeWindow after its
// capture. The event is passed through unchanged.
func (n *NeutronTagging) Process(ev *event.Event, sink ObservableSink) (*event.Event, error) {
	md := ev.Metadata()
	if md == nil {
		return nil, ErrNoMetadata
	}
	geo := md.Geometry()
	captureID := md.Physics().ProcessID(CaptureProcess)

	volumes := make(map[int]bool, len(n.CaptureVolumes))
	for _, name := range n.CaptureVolumes {
		if id := geo.VolumeID(name); id != geometry.NotFound {
			volumes[id] = true
		}
	}

	var captures []capture
	if captureID != physics.NotFound {
		for _, t := range ev.Tracks {
			if t.ParticleName != "neutron" {
				continue
			}
			for i, pid := range t.Hits.ProcessID {
				if pid == captureID && volumes[t.Hits.VolumeID[i]] {
					captures = append(captures, capture{track: t.TrackID, position: t.Hits.Position[i], time: t.Hits.Time[i]})
				}
			}
		}
	}

	distinct := make(map[r3.Vec]bool, len(captures))
	first := math.Inf(1)
	byTrack := make(map[int]float64, len(captures))
	for _, c := range captures {
		distinct[c.position] = true
		first = math.Min(first, c.time)
		if t, ok := byTrack[c.track]; !ok || c.time < t {
			byTrack[c.track] = c.time
		}
	}

	window := n.TimeWindow.Seconds()
	energy := 0.0
	for _, t := range ev.Tracks {
		if t.ParticleName == "neutron" {
			continue
		}
		captureTime, ok := capturingAncestor(t, byTrack)
		if !ok {
			continue
		}
		for i, vid := range t.Hits.VolumeID {
			dt := t.Hits.Time[i] - captureTime
			if volumes[vid] && dt >= 0 && dt <= window {
				energy += t.Hits.Energy[i]
			}
		}
	}

	sink.Set("neutron.n_captures", float64(len(captures)))
	sink.Set("neutron.capture_positions", float64(len(distinct)))
	if len(captures) > 0 {
		sink.Set("neutron.first_capture_time_us", first*1e6)
	}
	sink.Set("neutron.capture_energy", energy)
	return ev, nil
}

// capturingAncestor walks t's parents and returns the capture time of the
// nearest captured neutron.
func capturingAncestor(t *event.Track, captured map[int]float64) (float64, bool) {
	seen := make(map[int]bool)
	for p := t.ParentTrack(); p != nil && !seen[p.TrackID]; p = p.ParentTrack() {
		seen[p.TrackID] = true
		if at, ok := captured[p.TrackID]; ok {
			return at, true
		}
	}
	return 0, false
}
