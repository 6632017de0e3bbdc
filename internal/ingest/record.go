package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/detsim/internal/event"
)

// MaxLineSize bounds one record line.
const MaxLineSize = 4 << 20

// Record kinds.
const (
	KindBegin   = "begin"
	KindPrimary = "primary"
	KindTrack   = "track"
	KindStep    = "step"
	KindEnd     = "end"
)

// ErrBadRecord is returned for records that cannot be applied.
var ErrBadRecord = errors.New("bad step stream record")

// Vec3 is a JSON triple.
type Vec3 [3]float64

// R3 converts v to a gonum vector.
func (v Vec3) R3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// Record is one line of the step stream.
type Record struct {
	Kind    string         `json:"kind"`
	EventID int            `json:"event_id,omitempty"`
	Primary *PrimaryRecord `json:"primary,omitempty"`
	Track   *TrackRecord   `json:"track,omitempty"`
	Step    *StepRecord    `json:"step,omitempty"`
}

// PrimaryRecord describes one primary particle.
type PrimaryRecord struct {
	Particle  string  `json:"particle"`
	Origin    Vec3    `json:"origin"`
	Direction Vec3    `json:"direction"`
	EnergyKeV float64 `json:"energy_kev"`
}

// TrackRecord is the engine's description of a new track.
type TrackRecord struct {
	TrackID         int     `json:"track_id"`
	ParentID        int     `json:"parent_id"`
	Particle        string  `json:"particle"`
	ParticleType    string  `json:"particle_type,omitempty"`
	ParticleSubType string  `json:"particle_sub_type,omitempty"`
	CreatorProcess  string  `json:"creator_process,omitempty"`
	KineticKeV      float64 `json:"kinetic_kev"`
	Position        Vec3    `json:"position"`
	Weight          float64 `json:"weight,omitempty"`
	Secondaries     int     `json:"secondaries,omitempty"`
}

// StepRecord is one transport step. Time is the global time in ns.
type StepRecord struct {
	TrackID        int     `json:"track_id"`
	ParentID       int     `json:"parent_id"`
	Particle       string  `json:"particle"`
	CreatorProcess string  `json:"creator_process,omitempty"`
	Position       Vec3    `json:"position"`
	Direction      Vec3    `json:"direction"`
	TimeNs         float64 `json:"time_ns"`
	EnergyKeV      float64 `json:"edep_kev"`
	KineticPreKeV  float64 `json:"kinetic_pre_kev"`
	KineticPostKeV float64 `json:"kinetic_post_kev"`
	LengthMm       float64 `json:"length_mm"`
	PreVolume      string  `json:"pre_volume"`
	PostVolume     string  `json:"post_volume,omitempty"`
	Process        string  `json:"process"`
	Target         *Target `json:"target,omitempty"`
}

// Target is the nucleus of a hadronic interaction.
type Target struct {
	Name string `json:"name"`
	A    int    `json:"a"`
	Z    int    `json:"z"`
}

// TrackInfo converts r to the event model's track description.
func (r *TrackRecord) TrackInfo() event.TrackInfo {
	return event.TrackInfo{
		TrackID:              r.TrackID,
		ParentID:             r.ParentID,
		ParticleName:         r.Particle,
		ParticleType:         r.ParticleType,
		ParticleSubType:      r.ParticleSubType,
		CreatorProcess:       r.CreatorProcess,
		InitialKineticEnergy: r.KineticKeV,
		InitialPosition:      r.Position.R3(),
		Weight:               r.Weight,
		NumberOfSecondaries:  r.Secondaries,
	}
}

// EventStep converts r to an event step. Volume and process ids are left
// for the caller to resolve.
func (r *StepRecord) EventStep() event.Step {
	s := event.Step{
		TrackID:           r.TrackID,
		ParentID:          r.ParentID,
		ParticleName:      r.Particle,
		CreatorProcess:    r.CreatorProcess,
		Position:          r.Position.R3(),
		MomentumDirection: r.Direction.R3(),
		Time:              r.TimeNs * 1e-9,
		Energy:            r.EnergyKeV,
		KineticEnergyPre:  r.KineticPreKeV,
		KineticEnergyPost: r.KineticPostKeV,
		StepLength:        r.LengthMm,
		PreVolume:         r.PreVolume,
		PostVolume:        r.PostVolume,
		ProcessName:       r.Process,
	}
	if r.Target != nil {
		s.Target = event.TargetIsotope{Name: r.Target.Name, A: r.Target.A, Z: r.Target.Z}
	}
	return s
}

// Validate checks that the payload matching Kind is present.
func (r *Record) Validate() error {
	switch r.Kind {
	case KindBegin, KindEnd:
		return nil
	case KindPrimary:
		if r.Primary == nil {
			return fmt.Errorf("primary record without payload: %w", ErrBadRecord)
		}
	case KindTrack:
		if r.Track == nil {
			return fmt.Errorf("track record without payload: %w", ErrBadRecord)
		}
	case KindStep:
		if r.Step == nil {
			return fmt.Errorf("step record without payload: %w", ErrBadRecord)
		}
	default:
		return fmt.Errorf("unknown record kind %q: %w", r.Kind, ErrBadRecord)
	}
	return nil
}

// ReadSteps decodes JSON-lines records from r and calls fn for each.
// Blank lines and lines starting with '#' are skipped. It stops at the
// first decode error or error returned by fn.
func ReadSteps(r io.Reader, fn func(Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), MaxLineSize)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 || b[0] == '#' {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read step stream: %w", err)
	}
	return nil
}

// ReadAll decodes every record of r.
func ReadAll(r io.Reader) ([]Record, error) {
	var out []Record
	err := ReadSteps(r, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}
