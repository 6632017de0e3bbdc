package eventio

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/testutil"
)

var eventOpts = cmp.Options{
	cmpopts.IgnoreUnexported(event.Event{}, event.Track{}, event.Hits{}),
	cmpopts.EquateEmpty(),
}

func TestMarshal_RoundTripPreservesEvent(t *testing.T) {
	t.Parallel()

	sim := testutil.NewSimulation(t)
	ev := testutil.NeutronCaptureEvent(t, sim, 9)
	ev.SetSubEventID(2)
	tr, err := ev.TrackByID(1)
	require.NoError(t, err)
	tr.Hits.Target[1] = event.TargetIsotope{Name: "Ar40", A: 40, Z: 18}

	got, err := Decode(Marshal(ev), sim)
	require.NoError(t, err)

	if diff := cmp.Diff(ev, got, eventOpts); diff != "" {
		t.Fatalf("decoded event mismatch (-want +got):\n%s", diff)
	}

	// References are live after Decode.
	neutron, err := got.TrackByID(1)
	require.NoError(t, err)
	assert.Same(t, got, neutron.Event())
	assert.True(t, neutron.ContainsProcessNameInVolume("nCapture", sim.Geometry().VolumeID("gas")))
	assert.Equal(t, "Ar40", neutron.Hits.Target[1].Name)
	assert.InDelta(t, 1500.0, got.EnergyDepositedInVolume("gas"), 1e-12)
}

func TestMarshal_Deterministic(t *testing.T) {
	t.Parallel()

	sim := testutil.NewSimulation(t)
	a := Marshal(testutil.NeutronCaptureEvent(t, sim, 1))
	b := Marshal(testutil.NeutronCaptureEvent(t, sim, 1))
	assert.Equal(t, a, b)
}

func TestMarshal_SpecialValues(t *testing.T) {
	t.Parallel()

	ev := event.NewEvent(-1, 0, nil)
	tr := &event.Track{}
	s := event.Step{TrackID: 1, ParentID: -3, Position: event.UndefinedPosition(), VolumeID: -1, ProcessID: -1}
	tr.InsertStep(s)
	require.NoError(t, ev.AddTrack(tr))

	got, err := Unmarshal(Marshal(ev))
	require.NoError(t, err)
	assert.Equal(t, -1, got.RunID)
	require.Len(t, got.Tracks, 1)
	assert.Equal(t, -3, got.Tracks[0].ParentID)
	assert.True(t, math.IsNaN(got.Tracks[0].Hits.Position[0].X))
	assert.Equal(t, []int{-1}, got.Tracks[0].Hits.VolumeID)
}

func TestUnmarshal_RequiresInitializeReferences(t *testing.T) {
	t.Parallel()

	sim := testutil.NewSimulation(t)
	got, err := Unmarshal(Marshal(testutil.NeutronCaptureEvent(t, sim, 1)))
	require.NoError(t, err)

	_, err = got.TrackByID(1)
	assert.ErrorIs(t, err, event.ErrTrackIndexInconsistent)
	assert.Nil(t, got.Metadata())

	require.NoError(t, got.InitializeReferences(sim))
	tr, err := got.TrackByID(1)
	require.NoError(t, err)
	assert.Equal(t, "neutron", tr.ParticleName)
}

func TestUnmarshal_VersionAndCorruption(t *testing.T) {
	t.Parallel()

	t.Run("future version", func(t *testing.T) {
		var b []byte
		b = appendVarint(b, evVersion, FormatVersion+1)
		_, err := Unmarshal(b)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("missing version", func(t *testing.T) {
		var b []byte
		b = appendSint(b, evRunID, 4)
		_, err := Unmarshal(b)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("unknown fields are skipped", func(t *testing.T) {
		b := Marshal(event.NewEvent(5, 6, nil))
		b = appendString(b, 99, "added later")
		b = appendDouble(b, 100, 1.5)
		got, err := Unmarshal(b)
		require.NoError(t, err)
		assert.Equal(t, 6, got.EventID)
	})

	t.Run("truncated", func(t *testing.T) {
		sim := testutil.NewSimulation(t)
		b := Marshal(testutil.NeutronCaptureEvent(t, sim, 1))
		_, err := Unmarshal(b[:len(b)-3])
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("wrong wire type", func(t *testing.T) {
		var b []byte
		b = appendVarint(b, evVersion, FormatVersion)
		b = appendVarint(b, evTotalEnergy, 12)
		_, err := Unmarshal(b)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("ragged hit columns", func(t *testing.T) {
		var hits []byte
		hits = appendPackedDoubles(hits, hitEnergy, []float64{1, 2})
		hits = appendPackedDoubles(hits, hitTime, []float64{1})
		var track []byte
		track = appendSint(track, trID, 1)
		track = appendMessage(track, trHits, hits)
		var b []byte
		b = appendVarint(b, evVersion, FormatVersion)
		b = appendMessage(b, evTrack, track)
		_, err := Unmarshal(b)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("duplicate track ids", func(t *testing.T) {
		var b []byte
		b = appendVarint(b, evVersion, FormatVersion)
		for i := 0; i < 2; i++ {
			var track []byte
			track = appendSint(track, trID, 7)
			b = appendMessage(b, evTrack, track)
		}
		_, err := Decode(b, nil)
		assert.ErrorIs(t, err, event.ErrDuplicateTrackID)
	})
}

func TestStream_WriteRead(t *testing.T) {
	t.Parallel()

	sim := testutil.NewSimulation(t)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for id := 1; id <= 3; id++ {
		require.NoError(t, w.WriteEvent(testutil.NeutronCaptureEvent(t, sim, id)))
	}
	assert.Equal(t, uint64(3), w.Count())

	events, err := NewReader(bytes.NewReader(buf.Bytes()), sim).ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.EventID)
		assert.Same(t, sim, ev.Metadata())
	}

	r := NewReader(bytes.NewReader(buf.Bytes()[:buf.Len()-5]), sim)
	_, err = r.ReadEvent()
	require.NoError(t, err)
	_, err = r.ReadEvent()
	require.NoError(t, err)
	_, err = r.ReadEvent()
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)

	_, err = NewReader(bytes.NewReader(nil), sim).ReadEvent()
	assert.Equal(t, io.EOF, err)
}

func TestStream_RejectsOversizedLength(t *testing.T) {
	t.Parallel()

	b := []byte{0xff, 0xff, 0xff, 0xff}
	_, err := NewReader(bytes.NewReader(b), nil).ReadEvent()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPackedVectorsRequireTriples(t *testing.T) {
	t.Parallel()

	var hits []byte
	hits = appendPackedDoubles(hits, hitPosition, []float64{1, 2})
	var out event.Hits
	err := unmarshalHits(hits, &out)
	assert.ErrorIs(t, err, ErrMalformed)

	// A well-formed vector field decodes in order.
	var b []byte
	b = appendPackedVecs(b, hitPosition, []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: 4}})
	out = event.Hits{}
	require.NoError(t, unmarshalHits(b, &out))
	assert.Equal(t, []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: 4}}, out.Position)
}
