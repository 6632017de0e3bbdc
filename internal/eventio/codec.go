// Package eventio encodes events as protobuf wire-format records and
// streams them as length-prefixed frames.
//
// The encoding is hand-written over protowire so the event model stays a
// plain Go type. Field numbers are stable; new fields get new numbers and
// decoders skip fields they do not know. FormatVersion changes only when an
// existing field changes meaning.
//
// Decoded events carry no back-references or metadata link. Callers must
// call InitializeReferences before using name lookups or TrackByID.
package eventio

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/banshee-data/detsim/internal/event"
)

// FormatVersion is written into every event record.
const FormatVersion = 1

var (
	// ErrUnsupportedVersion is returned for records newer than FormatVersion.
	ErrUnsupportedVersion = errors.New("unsupported event record version")
	// ErrMalformed is returned when a record cannot be parsed.
	ErrMalformed = errors.New("malformed event record")
)

// Event fields.
const (
	evVersion     protowire.Number = 1
	evRunID       protowire.Number = 2
	evEventID     protowire.Number = 3
	evSubEventID  protowire.Number = 4
	evTotalEnergy protowire.Number = 5
	evSensitive   protowire.Number = 6
	evVolume      protowire.Number = 7
	evTrack       protowire.Number = 8
	evPrimary     protowire.Number = 9
	evBreakdown   protowire.Number = 10
)

// Track fields.
const (
	trID          protowire.Number = 1
	trParentID    protowire.Number = 2
	trParticle    protowire.Number = 3
	trCreator     protowire.Number = 4
	trInitialKE   protowire.Number = 5
	trInitialPos  protowire.Number = 6
	trWeight      protowire.Number = 7
	trLength      protowire.Number = 8
	trSecondaries protowire.Number = 9
	trHits        protowire.Number = 10
)

// Hits fields. Numeric columns are packed.
const (
	hitPosition  protowire.Number = 1
	hitMomentum  protowire.Number = 2
	hitTime      protowire.Number = 3
	hitEnergy    protowire.Number = 4
	hitKinetic   protowire.Number = 5
	hitVolumeID  protowire.Number = 6
	hitProcessID protowire.Number = 7
	hitTarget    protowire.Number = 8
)

// Marshal encodes ev.
func Marshal(ev *event.Event) []byte {
	var b []byte
	b = appendVarint(b, evVersion, FormatVersion)
	b = appendSint(b, evRunID, ev.RunID)
	b = appendSint(b, evEventID, ev.EventID)
	b = appendSint(b, evSubEventID, ev.SubEventID)
	b = appendDouble(b, evTotalEnergy, ev.TotalDepositedEnergy)
	b = appendDouble(b, evSensitive, ev.SensitiveVolumeEnergy)

	for _, v := range ev.Volumes {
		var m []byte
		m = appendString(m, 1, v.Name)
		m = appendBool(m, 2, v.Stored)
		m = appendDouble(m, 3, v.Energy)
		b = appendMessage(b, evVolume, m)
	}
	for _, t := range ev.Tracks {
		b = appendMessage(b, evTrack, marshalTrack(t))
	}
	for _, p := range ev.Primaries {
		var m []byte
		m = appendString(m, 1, p.ParticleName)
		m = appendMessage(m, 2, marshalVec(p.Origin))
		m = appendMessage(m, 3, marshalVec(p.Direction))
		m = appendDouble(m, 4, p.Energy)
		b = appendMessage(b, evPrimary, m)
	}
	// Sorted so equal events encode to equal bytes.
	for _, volume := range slices.Sorted(maps.Keys(ev.EnergyBreakdown)) {
		particles := ev.EnergyBreakdown[volume]
		for _, particle := range slices.Sorted(maps.Keys(particles)) {
			processes := particles[particle]
			for _, process := range slices.Sorted(maps.Keys(processes)) {
				energy := processes[process]
				var m []byte
				m = appendString(m, 1, volume)
				m = appendString(m, 2, particle)
				m = appendString(m, 3, process)
				m = appendDouble(m, 4, energy)
				b = appendMessage(b, evBreakdown, m)
			}
		}
	}
	return b
}

func marshalTrack(t *event.Track) []byte {
	var b []byte
	b = appendSint(b, trID, t.TrackID)
	b = appendSint(b, trParentID, t.ParentID)
	b = appendString(b, trParticle, t.ParticleName)
	b = appendString(b, trCreator, t.CreatorProcess)
	b = appendDouble(b, trInitialKE, t.InitialKineticEnergy)
	b = appendMessage(b, trInitialPos, marshalVec(t.InitialPosition))
	b = appendDouble(b, trWeight, t.Weight)
	b = appendDouble(b, trLength, t.Length)
	b = appendSint(b, trSecondaries, t.NumberOfSecondaries)
	b = appendMessage(b, trHits, marshalHits(&t.Hits))
	return b
}

func marshalHits(h *event.Hits) []byte {
	var b []byte
	b = appendPackedVecs(b, hitPosition, h.Position)
	b = appendPackedVecs(b, hitMomentum, h.MomentumDirection)
	b = appendPackedDoubles(b, hitTime, h.Time)
	b = appendPackedDoubles(b, hitEnergy, h.Energy)
	b = appendPackedDoubles(b, hitKinetic, h.KineticEnergy)
	b = appendPackedSints(b, hitVolumeID, h.VolumeID)
	b = appendPackedSints(b, hitProcessID, h.ProcessID)
	for _, target := range h.Target {
		var m []byte
		if !target.IsZero() {
			m = appendString(m, 1, target.Name)
			m = appendSint(m, 2, target.A)
			m = appendSint(m, 3, target.Z)
		}
		b = appendMessage(b, hitTarget, m)
	}
	return b
}

func marshalVec(v r3.Vec) []byte {
	var b []byte
	b = appendDouble(b, 1, v.X)
	b = appendDouble(b, 2, v.Y)
	b = appendDouble(b, 3, v.Z)
	return b
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSint(b []byte, num protowire.Number, v int) []byte {
	return appendVarint(b, num, protowire.EncodeZigZag(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

func appendPackedDoubles(b []byte, num protowire.Number, vs []float64) []byte {
	if len(vs) == 0 {
		return b
	}
	m := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		m = protowire.AppendFixed64(m, math.Float64bits(v))
	}
	return appendMessage(b, num, m)
}

func appendPackedVecs(b []byte, num protowire.Number, vs []r3.Vec) []byte {
	if len(vs) == 0 {
		return b
	}
	m := make([]byte, 0, 24*len(vs))
	for _, v := range vs {
		m = protowire.AppendFixed64(m, math.Float64bits(v.X))
		m = protowire.AppendFixed64(m, math.Float64bits(v.Y))
		m = protowire.AppendFixed64(m, math.Float64bits(v.Z))
	}
	return appendMessage(b, num, m)
}

func appendPackedSints(b []byte, num protowire.Number, vs []int) []byte {
	if len(vs) == 0 {
		return b
	}
	var m []byte
	for _, v := range vs {
		m = protowire.AppendVarint(m, protowire.EncodeZigZag(int64(v)))
	}
	return appendMessage(b, num, m)
}

func malformed(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", what, ErrMalformed)
	}
	return fmt.Errorf("%s: %w: %w", what, ErrMalformed, err)
}
