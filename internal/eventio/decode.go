package eventio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/banshee-data/detsim/internal/event"
)

// Unmarshal decodes one event record. The result is plain data: call
// InitializeReferences on it, or use Decode.
func Unmarshal(data []byte) (*event.Event, error) {
	ev := &event.Event{EnergyBreakdown: make(map[string]map[string]map[string]float64)}
	var version uint64
	err := walk(data, "event", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case evVersion:
			v, n, err := readVarint(typ, b)
			version = v
			return n, err
		case evRunID:
			return readSint(typ, b, &ev.RunID)
		case evEventID:
			return readSint(typ, b, &ev.EventID)
		case evSubEventID:
			return readSint(typ, b, &ev.SubEventID)
		case evTotalEnergy:
			return readDouble(typ, b, &ev.TotalDepositedEnergy)
		case evSensitive:
			return readDouble(typ, b, &ev.SensitiveVolumeEnergy)
		case evVolume:
			m, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			v, err := unmarshalVolume(m)
			if err != nil {
				return 0, err
			}
			ev.Volumes = append(ev.Volumes, v)
			return n, nil
		case evTrack:
			m, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			t, err := unmarshalTrack(m)
			if err != nil {
				return 0, err
			}
			ev.Tracks = append(ev.Tracks, t)
			return n, nil
		case evPrimary:
			m, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			p, err := unmarshalPrimary(m)
			if err != nil {
				return 0, err
			}
			ev.Primaries = append(ev.Primaries, p)
			return n, nil
		case evBreakdown:
			m, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			return n, unmarshalBreakdownCell(m, ev.EnergyBreakdown)
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	switch {
	case version == 0:
		return nil, malformed("event: missing format version", nil)
	case version > FormatVersion:
		return nil, fmt.Errorf("version %d (max %d): %w", version, FormatVersion, ErrUnsupportedVersion)
	}
	return ev, nil
}

// Decode unmarshals data and links the event to md.
func Decode(data []byte, md event.Metadata) (*event.Event, error) {
	ev, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if err := ev.InitializeReferences(md); err != nil {
		return nil, err
	}
	return ev, nil
}

func unmarshalVolume(data []byte) (event.ActiveVolume, error) {
	var v event.ActiveVolume
	err := walk(data, "volume", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readString(typ, b, &v.Name)
		case 2:
			x, n, err := readVarint(typ, b)
			v.Stored = protowire.DecodeBool(x)
			return n, err
		case 3:
			return readDouble(typ, b, &v.Energy)
		}
		return 0, nil
	})
	return v, err
}

func unmarshalPrimary(data []byte) (event.Primary, error) {
	var p event.Primary
	err := walk(data, "primary", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readString(typ, b, &p.ParticleName)
		case 2:
			return readVec(typ, b, &p.Origin)
		case 3:
			return readVec(typ, b, &p.Direction)
		case 4:
			return readDouble(typ, b, &p.Energy)
		}
		return 0, nil
	})
	return p, err
}

func unmarshalBreakdownCell(data []byte, into map[string]map[string]map[string]float64) error {
	var volume, particle, process string
	var energy float64
	err := walk(data, "breakdown", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readString(typ, b, &volume)
		case 2:
			return readString(typ, b, &particle)
		case 3:
			return readString(typ, b, &process)
		case 4:
			return readDouble(typ, b, &energy)
		}
		return 0, nil
	})
	if err != nil {
		return err
	}
	if energy <= 0 {
		return nil
	}
	if into[volume] == nil {
		into[volume] = make(map[string]map[string]float64)
	}
	if into[volume][particle] == nil {
		into[volume][particle] = make(map[string]float64)
	}
	into[volume][particle][process] = energy
	return nil
}

func unmarshalTrack(data []byte) (*event.Track, error) {
	t := &event.Track{}
	err := walk(data, "track", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case trID:
			return readSint(typ, b, &t.TrackID)
		case trParentID:
			return readSint(typ, b, &t.ParentID)
		case trParticle:
			return readString(typ, b, &t.ParticleName)
		case trCreator:
			return readString(typ, b, &t.CreatorProcess)
		case trInitialKE:
			return readDouble(typ, b, &t.InitialKineticEnergy)
		case trInitialPos:
			return readVec(typ, b, &t.InitialPosition)
		case trWeight:
			return readDouble(typ, b, &t.Weight)
		case trLength:
			return readDouble(typ, b, &t.Length)
		case trSecondaries:
			return readSint(typ, b, &t.NumberOfSecondaries)
		case trHits:
			m, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			return n, unmarshalHits(m, &t.Hits)
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	if !t.Hits.Consistent() {
		return nil, malformed(fmt.Sprintf("track %d: hit columns differ in length", t.TrackID), nil)
	}
	return t, nil
}

func unmarshalHits(data []byte, h *event.Hits) error {
	return walk(data, "hits", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case hitPosition:
			return readPackedVecs(typ, b, &h.Position)
		case hitMomentum:
			return readPackedVecs(typ, b, &h.MomentumDirection)
		case hitTime:
			return readPackedDoubles(typ, b, &h.Time)
		case hitEnergy:
			return readPackedDoubles(typ, b, &h.Energy)
		case hitKinetic:
			return readPackedDoubles(typ, b, &h.KineticEnergy)
		case hitVolumeID:
			return readPackedSints(typ, b, &h.VolumeID)
		case hitProcessID:
			return readPackedSints(typ, b, &h.ProcessID)
		case hitTarget:
			m, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			var target event.TargetIsotope
			err = walk(m, "target", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch num {
				case 1:
					return readString(typ, b, &target.Name)
				case 2:
					return readSint(typ, b, &target.A)
				case 3:
					return readSint(typ, b, &target.Z)
				}
				return 0, nil
			})
			h.Target = append(h.Target, target)
			return n, err
		}
		return 0, nil
	})
}

// walk iterates the fields of one message. fn returns the number of value
// bytes it consumed, or 0 to have an unknown field skipped.
func walk(data []byte, what string, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return malformed(what, protowire.ParseError(n))
		}
		data = data[n:]
		m, err := fn(num, typ, data)
		if err != nil {
			return fmt.Errorf("%s field %d: %w", what, num, err)
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return malformed(what, protowire.ParseError(m))
			}
		}
		data = data[m:]
	}
	return nil
}

func wantType(got, want protowire.Type) error {
	if got != want {
		return malformed(fmt.Sprintf("wire type %d, want %d", got, want), nil)
	}
	return nil
}

func readVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if err := wantType(typ, protowire.VarintType); err != nil {
		return 0, 0, err
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, malformed("varint", protowire.ParseError(n))
	}
	return v, n, nil
}

func readSint(typ protowire.Type, b []byte, out *int) (int, error) {
	v, n, err := readVarint(typ, b)
	*out = int(protowire.DecodeZigZag(v))
	return n, err
}

func readDouble(typ protowire.Type, b []byte, out *float64) (int, error) {
	if err := wantType(typ, protowire.Fixed64Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, malformed("double", protowire.ParseError(n))
	}
	*out = math.Float64frombits(v)
	return n, nil
}

func readBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if err := wantType(typ, protowire.BytesType); err != nil {
		return nil, 0, err
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, malformed("bytes", protowire.ParseError(n))
	}
	return v, n, nil
}

func readString(typ protowire.Type, b []byte, out *string) (int, error) {
	v, n, err := readBytes(typ, b)
	*out = string(v)
	return n, err
}

func readVec(typ protowire.Type, b []byte, out *r3.Vec) (int, error) {
	m, n, err := readBytes(typ, b)
	if err != nil {
		return 0, err
	}
	err = walk(m, "vector", func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readDouble(typ, b, &out.X)
		case 2:
			return readDouble(typ, b, &out.Y)
		case 3:
			return readDouble(typ, b, &out.Z)
		}
		return 0, nil
	})
	return n, err
}

func readPackedDoubles(typ protowire.Type, b []byte, out *[]float64) (int, error) {
	m, n, err := readBytes(typ, b)
	if err != nil {
		return 0, err
	}
	if len(m)%8 != 0 {
		return 0, malformed("packed doubles", nil)
	}
	for i := 0; i < len(m); i += 8 {
		v, _ := protowire.ConsumeFixed64(m[i:])
		*out = append(*out, math.Float64frombits(v))
	}
	return n, nil
}

func readPackedVecs(typ protowire.Type, b []byte, out *[]r3.Vec) (int, error) {
	var flat []float64
	n, err := readPackedDoubles(typ, b, &flat)
	if err != nil {
		return 0, err
	}
	if len(flat)%3 != 0 {
		return 0, malformed("packed vectors", nil)
	}
	for i := 0; i < len(flat); i += 3 {
		*out = append(*out, r3.Vec{X: flat[i], Y: flat[i+1], Z: flat[i+2]})
	}
	return n, nil
}

func readPackedSints(typ protowire.Type, b []byte, out *[]int) (int, error) {
	m, n, err := readBytes(typ, b)
	if err != nil {
		return 0, err
	}
	for len(m) > 0 {
		v, k := protowire.ConsumeVarint(m)
		if k < 0 {
			return 0, malformed("packed varints", protowire.ParseError(k))
		}
		*out = append(*out, int(protowire.DecodeZigZag(v)))
		m = m[k:]
	}
	return n, nil
}
