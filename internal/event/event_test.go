package event

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestEvent_EnergyInVolumeMapScenario(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(1, 10, md)
	ev.AddActiveVolume("gas")
	ev.AddActiveVolume("veto")

	deposit(t, ev, step(1, 0, "neutron", volVeto, procHadElastic, 5, r3.Vec{Y: 500}))
	deposit(t, ev, step(2, 1, "proton", volVeto, procHadElastic, 0, r3.Vec{Y: 499}))
	deposit(t, ev, step(2, 1, "proton", volGas, procHadElastic, 15, r3.Vec{}))
	finalizeVolumes(ev)

	want := map[string]float64{"veto": 5, "gas": 15}
	if diff := cmp.Diff(want, ev.EnergyInVolumeMap(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("EnergyInVolumeMap mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 20.0, ev.TotalDepositedEnergy, 1e-9)
	assert.InDelta(t, 15.0, ev.SensitiveVolumeEnergy, 1e-9)
	assert.InDelta(t, 5.0, ev.EnergyDepositedInVolume("veto"), 1e-9)
	assert.InDelta(t, 15.0, ev.EnergyDepositedInVolume("gas"), 1e-9)
	assert.Equal(t, 0.0, ev.EnergyDepositedInVolume("world"))
	assert.Equal(t, 2, ev.NumberOfTracks())
}

func TestEvent_DuplicateTrackID(t *testing.T) {
	t.Parallel()

	ev := NewEvent(3, 42, nil)
	require.NoError(t, ev.AddTrack(NewTrack(TrackInfo{TrackID: 7, ParticleName: "e-"})))

	err := ev.AddTrack(NewTrack(TrackInfo{TrackID: 7, ParticleName: "gamma"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTrackID))
	assert.Contains(t, err.Error(), "run 3 event 42: track id 7")

	// The original track is untouched.
	tr, err := ev.TrackByID(7)
	require.NoError(t, err)
	assert.Equal(t, "e-", tr.ParticleName)
	assert.Equal(t, 1, ev.NumberOfTracks())

	assert.ErrorIs(t, ev.AddTrack(nil), ErrNilTrack)
}

func TestEvent_TrackByID(t *testing.T) {
	t.Parallel()

	ev := NewEvent(1, 1, nil)
	ids := []int{12, 3, 400, 1, 77}
	for _, id := range ids {
		require.NoError(t, ev.AddTrack(NewTrack(TrackInfo{TrackID: id})))
	}
	for _, tr := range ev.Tracks {
		got, err := ev.TrackByID(tr.TrackID)
		require.NoError(t, err)
		assert.Same(t, tr, got)
	}

	t.Run("miss returns nil", func(t *testing.T) {
		got, err := ev.TrackByID(5)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("corrupted index is a hard error", func(t *testing.T) {
		bad := NewEvent(1, 2, nil)
		require.NoError(t, bad.AddTrack(NewTrack(TrackInfo{TrackID: 1})))
		require.NoError(t, bad.AddTrack(NewTrack(TrackInfo{TrackID: 2})))
		bad.Tracks[0], bad.Tracks[1] = bad.Tracks[1], bad.Tracks[0]

		got, err := bad.TrackByID(1)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrTrackIndexInconsistent)

		require.NoError(t, bad.InitializeReferences(nil))
		got, err = bad.TrackByID(1)
		require.NoError(t, err)
		assert.Equal(t, 1, got.TrackID)
	})

	t.Run("missing index on decoded event", func(t *testing.T) {
		decoded := &Event{Tracks: []*Track{{TrackID: 1}}}
		_, err := decoded.TrackByID(1)
		assert.ErrorIs(t, err, ErrTrackIndexInconsistent)
		assert.ErrorIs(t, decoded.AddTrack(&Track{TrackID: 2}), ErrTrackIndexInconsistent)

		empty := &Event{}
		got, err := empty.TrackByID(1)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestEvent_ActiveVolumes(t *testing.T) {
	t.Parallel()

	ev := NewEvent(1, 1, nil)
	assert.Equal(t, 0, ev.AddActiveVolume("gas"))
	assert.Equal(t, 1, ev.AddActiveVolume("veto"))
	assert.Equal(t, 0, ev.AddActiveVolume("gas"))
	assert.Equal(t, 2, ev.NumberOfActiveVolumes())
	assert.True(t, ev.IsVolumeStored("gas"))
	assert.Equal(t, 0.0, ev.Volumes[0].Energy)

	assert.True(t, ev.SetVolumeStored("veto", false))
	assert.False(t, ev.IsVolumeStored("veto"))
	assert.False(t, ev.SetVolumeStored("lead", true))
	assert.False(t, ev.IsVolumeStored("lead"))
	assert.Equal(t, -1, ev.ActiveVolumeIndex("lead"))

	assert.True(t, ev.SetEnergyDepositedInVolume(1, 12.5))
	assert.False(t, ev.SetEnergyDepositedInVolume(2, 1))
	assert.False(t, ev.SetEnergyDepositedInVolume(-1, 1))
	assert.Equal(t, 12.5, ev.EnergyDepositedInVolume("veto"))
}

func TestEvent_EnergyConservation(t *testing.T) {
	t.Parallel()

	ev := NewEvent(1, 1, nil)
	volumes := []string{"gas", "veto", "shield"}
	particles := []string{"e-", "gamma", "neutron", "alpha"}
	processes := []string{"eIoni", "compt", "hadElastic", "nCapture", "ionIoni"}

	var expected float64
	for i := 0; i < 5000; i++ {
		// Deterministic spread including zero and negative contributions.
		energy := math.Sin(float64(i)*0.37) * 100
		ev.AddEnergyInVolumeForParticleForProcess(energy,
			volumes[i%len(volumes)], particles[i%len(particles)], processes[i%len(processes)])
		if energy > 0 {
			expected += energy
		}
	}

	assert.InEpsilon(t, expected, ev.TotalDepositedEnergy, 1e-6)
	assert.InEpsilon(t, ev.TotalDepositedEnergy, ev.BreakdownTotal(), 1e-6)

	for _, perParticle := range ev.EnergyBreakdown {
		for _, perProcess := range perParticle {
			for _, e := range perProcess {
				assert.Greater(t, e, 0.0)
			}
		}
	}
}

func TestEvent_NonPositiveEnergyIgnored(t *testing.T) {
	t.Parallel()

	ev := NewEvent(1, 1, nil)
	ev.AddEnergyInVolumeForParticleForProcess(0, "gas", "e-", "eIoni")
	ev.AddEnergyInVolumeForParticleForProcess(-3, "gas", "e-", "eIoni")
	assert.Empty(t, ev.EnergyBreakdown)
	assert.Equal(t, 0.0, ev.TotalDepositedEnergy)
	assert.Empty(t, ev.EnergyInVolumeMap())
}

func TestEvent_MarginalMaps(t *testing.T) {
	t.Parallel()

	ev := NewEvent(1, 1, nil)
	ev.AddEnergyInVolumeForParticleForProcess(10, "gas", "e-", "eIoni")
	ev.AddEnergyInVolumeForParticleForProcess(5, "gas", "e-", "msc")
	ev.AddEnergyInVolumeForParticleForProcess(7, "gas", "alpha", "ionIoni")
	ev.AddEnergyInVolumeForParticleForProcess(3, "veto", "e-", "eIoni")
	ev.AddEnergyInVolumeForParticleForProcess(1, "veto", "mu-", "muIoni")

	perParticle := ev.EnergyPerParticleMap()
	assert.Equal(t, perParticle, ev.EnergyPerParticleMap(), "repeated call must be identical")

	summed := make(map[string]float64)
	for _, m := range ev.EnergyInVolumePerParticleMap() {
		for particle, e := range m {
			summed[particle] += e
		}
	}
	if diff := cmp.Diff(summed, perParticle); diff != "" {
		t.Errorf("per-particle marginal mismatch (-volumes +direct):\n%s", diff)
	}
	assert.Equal(t, map[string]float64{"e-": 18, "alpha": 7, "mu-": 1}, perParticle)

	assert.Equal(t, map[string]float64{"eIoni": 13, "msc": 5, "ionIoni": 7, "muIoni": 1}, ev.EnergyPerProcessMap())
	assert.Equal(t, map[string]map[string]float64{
		"gas":  {"eIoni": 10, "msc": 5, "ionIoni": 7},
		"veto": {"eIoni": 3, "muIoni": 1},
	}, ev.EnergyInVolumePerProcessMap())
	assert.Equal(t, map[string]map[string]float64{
		"gas":  {"e-": 15, "alpha": 7},
		"veto": {"e-": 3, "mu-": 1},
	}, ev.EnergyInVolumePerParticleMap())
	assert.Equal(t, 15.0, ev.EnergyInVolumeForParticle("gas", "e-"))
	assert.Equal(t, 0.0, ev.EnergyInVolumeForParticle("lead", "e-"))
}

func TestEvent_HitsFlattenInTrackOrder(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(1, 1, md)

	late := step(1, 0, "gamma", volGas, procEIoni, 1, r3.Vec{X: 1})
	late.Time = 10
	early := step(2, 1, "e-", volGas, procEIoni, 1, r3.Vec{X: 2})
	early.Time = 1
	later := step(1, 0, "gamma", volGas, procEIoni, 1, r3.Vec{X: 3})
	later.Time = 20
	deposit(t, ev, late)
	deposit(t, ev, early)
	deposit(t, ev, later)
	deposit(t, ev, step(2, 1, "e-", volVeto, procEIoni, 1, r3.Vec{X: 4}))

	h := ev.Hits(volGas)
	require.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{10, 20, 1}, h.Time)
	assert.Equal(t, []r3.Vec{{X: 1}, {X: 3}, {X: 2}}, h.Position)
	assert.True(t, h.Consistent())

	assert.Equal(t, 4, ev.Hits(AnyVolume).Len())
	assert.Equal(t, 4, ev.NumberOfHits(AnyVolume))
	assert.Equal(t, 1, ev.NumberOfHits(volVeto))
}

func TestEvent_PositionQueries(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(1, 1, md)

	// Track 1 only passes through gas without depositing.
	deposit(t, ev, step(1, 0, "gamma", volGas, procTransportation, 0, r3.Vec{X: -100}))
	a := step(2, 1, "e-", volGas, procEIoni, 10, r3.Vec{X: 1})
	a.Time = 5
	deposit(t, ev, a)
	deposit(t, ev, step(2, 1, "e-", volGas, procEIoni, 10, r3.Vec{X: 3}))
	b := step(3, 1, "e-", volGas, procEIoni, 20, r3.Vec{X: 10})
	b.Time = 1 // earlier in time but later in track order
	deposit(t, ev, b)

	assert.Equal(t, r3.Vec{X: 1}, ev.FirstPositionInVolume(volGas))
	assert.Equal(t, r3.Vec{X: 10}, ev.LastPositionInVolume(volGas))
	mean := ev.MeanPositionInVolume(volGas)
	assert.InDelta(t, (10*1+10*3+20*10)/40.0, mean.X, 1e-12)

	assert.True(t, IsUndefined(ev.MeanPositionInVolume(volVeto)))
	assert.True(t, IsUndefined(ev.FirstPositionInVolume(volVeto)))
	assert.True(t, IsUndefined(ev.LastPositionInVolume(volVeto)))

	assert.Equal(t, 4, ev.NumberOfHits(volGas))
	assert.Equal(t, 3, ev.NumberOfPhysicalHits(volGas))
	assert.InDelta(t, 40.0, ev.EnergyInVolume(volGas), 1e-12)
}

func TestEvent_ContainsQueries(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(1, 1, md)
	deposit(t, ev, step(1, 0, "neutron", volVeto, procHadElastic, 0, r3.Vec{}))
	deposit(t, ev, step(1, 0, "neutron", volGas, procNCapture, 0, r3.Vec{}))
	deposit(t, ev, step(2, 1, "gamma", volGas, procEIoni, 1, r3.Vec{}))

	assert.Equal(t, []string{"gamma", "neutron"}, ev.UniqueParticles())
	assert.True(t, ev.ContainsParticle("gamma"))
	assert.False(t, ev.ContainsParticle("alpha"))
	assert.True(t, ev.ContainsParticleInVolume("neutron", volVeto))
	assert.False(t, ev.ContainsParticleInVolume("gamma", volVeto))
	assert.True(t, ev.ContainsProcessInVolume(procNCapture, volGas))
	assert.False(t, ev.ContainsProcessInVolume(procNCapture, volVeto))

	found, err := ev.ContainsProcessNameInVolume("nCapture", AnyVolume)
	require.NoError(t, err)
	assert.True(t, found)
	found, err = ev.ContainsProcessNameInVolume("unknown", AnyVolume)
	require.NoError(t, err)
	assert.False(t, found)

	bare := NewEvent(1, 2, nil)
	_, err = bare.ContainsProcessNameInVolume("nCapture", AnyVolume)
	assert.ErrorIs(t, err, ErrNoMetadataContext)
}

func TestEvent_Primaries(t *testing.T) {
	t.Parallel()

	ev := NewEvent(1, 1, nil)
	assert.True(t, IsUndefined(ev.PrimaryEventOrigin()))

	ev.AddPrimary(Primary{ParticleName: "neutron", Origin: r3.Vec{Z: -200}, Direction: r3.Vec{Z: 1}, Energy: 2000})
	ev.AddPrimary(Primary{ParticleName: "gamma", Origin: r3.Vec{Z: 50}, Energy: 2614.5})
	assert.Equal(t, r3.Vec{Z: -200}, ev.PrimaryEventOrigin())
	assert.Len(t, ev.Primaries, 2)
}

func TestEvent_RescaleTrackEnergy(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(1, 1, md)
	ev.AddActiveVolume("gas")
	ev.AddActiveVolume("veto")
	deposit(t, ev, step(1, 0, "alpha", volGas, procEIoni, 100, r3.Vec{}))
	deposit(t, ev, step(1, 0, "alpha", volVeto, procEIoni, 50, r3.Vec{}))
	e := deposit(t, ev, step(2, 1, "e-", volGas, procEIoni, 40, r3.Vec{}))
	deposit(t, ev, step(1, 0, "alpha", volWorld, procEIoni, 10, r3.Vec{}))
	finalizeVolumes(ev)

	require.NoError(t, ev.RescaleTrackEnergy(1, volGas, 0.2))

	assert.InDelta(t, 20.0, ev.Tracks[0].EnergyInVolume(volGas), 1e-9)
	assert.InDelta(t, 50.0, ev.Tracks[0].EnergyInVolume(volVeto), 1e-9)
	assert.InDelta(t, 60.0, ev.EnergyDepositedInVolume("gas"), 1e-9)
	assert.InDelta(t, 110.0, ev.TotalDepositedEnergy, 1e-9)
	assert.InDelta(t, 60.0, ev.SensitiveVolumeEnergy, 1e-9)
	assert.InDelta(t, ev.TotalDepositedEnergy, ev.BreakdownTotal(), 1e-9)
	assert.InDelta(t, 20.0, ev.EnergyInVolumeForParticle("gas", "alpha"), 1e-9)

	// Through the attached track the event aggregates follow.
	require.NoError(t, e.RescaleEnergy(AnyVolume, 0))
	assert.InDelta(t, 20.0, ev.EnergyDepositedInVolume("gas"), 1e-9)
	_, stillThere := ev.EnergyBreakdown["gas"]["e-"]
	assert.False(t, stillThere, "zeroed cells are removed")
	assert.InDelta(t, ev.TotalDepositedEnergy, ev.BreakdownTotal(), 1e-9)

	assert.ErrorIs(t, ev.RescaleTrackEnergy(99, AnyVolume, 1), ErrTrackNotFound)
	assert.ErrorIs(t, ev.RescaleTrackEnergy(1, AnyVolume, math.NaN()), ErrInvalidFactor)

	bare := NewEvent(1, 2, nil)
	require.NoError(t, bare.AddTrack(NewTrack(TrackInfo{TrackID: 1})))
	assert.ErrorIs(t, bare.RescaleTrackEnergy(1, AnyVolume, 0.5), ErrNoMetadataContext)
}

func TestEvent_RecomputeEnergyTotals(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(1, 1, md)
	ev.AddActiveVolume("gas")
	deposit(t, ev, step(1, 0, "e-", volGas, procEIoni, 12, r3.Vec{}))
	deposit(t, ev, step(2, 1, "gamma", volGas, procEIoni, 8, r3.Vec{}))
	deposit(t, ev, step(2, 1, "gamma", volVeto, procEIoni, 8, r3.Vec{}))
	finalizeVolumes(ev)
	before := ev.EnergyBreakdown

	ev.Tracks[1].RemoveHits()
	require.NoError(t, ev.RecomputeEnergyTotals())
	assert.InDelta(t, 12.0, ev.TotalDepositedEnergy, 1e-9)
	assert.InDelta(t, 12.0, ev.EnergyDepositedInVolume("gas"), 1e-9)
	assert.InDelta(t, 12.0, ev.SensitiveVolumeEnergy, 1e-9)
	assert.NotEqual(t, before, ev.EnergyBreakdown)

	assert.ErrorIs(t, NewEvent(1, 1, nil).RecomputeEnergyTotals(), ErrNoMetadataContext)
}

func TestEvent_RemoveUnwantedTracks(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(1, 1, md)
	ev.AddActiveVolume("veto")
	deposit(t, ev, step(1, 0, "mu-", volWorld, procEIoni, 5, r3.Vec{}))
	deposit(t, ev, step(1, 0, "mu-", volVeto, procEIoni, 3, r3.Vec{}))
	deposit(t, ev, step(2, 1, "e-", volWorld, procEIoni, 9, r3.Vec{}))
	deposit(t, ev, step(3, 1, "gamma", volGas, procEIoni, 1, r3.Vec{})) // sensitive volume
	totalBefore := ev.TotalDepositedEnergy

	pruned, err := ev.RemoveUnwantedTracks()
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 0, ev.Tracks[1].Hits.Len())
	assert.Equal(t, 2, ev.Tracks[0].Hits.Len())
	assert.Equal(t, 1, ev.Tracks[2].Hits.Len())
	assert.Equal(t, 3, ev.NumberOfTracks())
	assert.Equal(t, totalBefore, ev.TotalDepositedEnergy)

	// Deposits in an active volume that is not stored do not keep a track.
	unstored := NewEvent(1, 2, md)
	unstored.AddActiveVolume("veto")
	unstored.SetVolumeStored("veto", false)
	deposit(t, unstored, step(1, 0, "mu-", volVeto, procEIoni, 3, r3.Vec{}))
	deposit(t, unstored, step(2, 1, "gamma", volGas, procEIoni, 1, r3.Vec{}))
	pruned, err = unstored.RemoveUnwantedTracks()
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	assert.Zero(t, unstored.Tracks[0].Hits.Len())
	assert.Equal(t, 1, unstored.Tracks[1].Hits.Len())

	_, err = NewEvent(1, 1, nil).RemoveUnwantedTracks()
	assert.ErrorIs(t, err, ErrNoMetadataContext)
}

func TestEvent_BoundingBox(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(1, 1, md)
	assert.True(t, ev.BoundingBox().Empty())

	deposit(t, ev, step(1, 0, "e-", volGas, procEIoni, 1, r3.Vec{X: -1, Y: 2, Z: 3}))
	deposit(t, ev, step(1, 0, "e-", volGas, procEIoni, 1, r3.Vec{X: 4, Y: -5, Z: 0}))
	deposit(t, ev, step(1, 0, "e-", volGas, procTransportation, 0, r3.Vec{X: 100}))
	ev.UpdateBoundingBox()

	box := ev.BoundingBox()
	assert.False(t, box.Empty())
	assert.Equal(t, r3.Vec{X: -1, Y: -5, Z: 0}, box.Min)
	assert.Equal(t, r3.Vec{X: 4, Y: 2, Z: 3}, box.Max)

	// Adding a track drops the cache.
	deposit(t, ev, step(2, 1, "e-", volGas, procEIoni, 1, r3.Vec{X: 50}))
	assert.Equal(t, 50.0, ev.BoundingBox().Max.X)
}

func TestEvent_InitializeReferencesAndClone(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(2, 5, md)
	ev.AddActiveVolume("gas")
	deposit(t, ev, step(1, 0, "neutron", volGas, procNCapture, 0, r3.Vec{}))
	deposit(t, ev, step(2, 1, "gamma", volGas, procEIoni, 30, r3.Vec{}))
	ev.SetSubEventID(1)

	// Simulate a decoded event: plain data only.
	decoded := &Event{
		RunID:           ev.RunID,
		EventID:         ev.EventID,
		SubEventID:      ev.SubEventID,
		Volumes:         ev.Volumes,
		EnergyBreakdown: ev.EnergyBreakdown,
	}
	for _, tr := range ev.Tracks {
		decoded.Tracks = append(decoded.Tracks, &Track{TrackID: tr.TrackID, ParentID: tr.ParentID, ParticleName: tr.ParticleName, Hits: tr.Hits})
	}
	require.NoError(t, decoded.InitializeReferences(md))
	tr, err := decoded.TrackByID(1)
	require.NoError(t, err)
	assert.Same(t, decoded, tr.Event())
	assert.Same(t, tr, tr.Hits.Track())
	assert.True(t, tr.ContainsProcessNameInVolume("nCapture", volGas))
	assert.True(t, decoded.IsActiveVolume("gas"))

	dup := &Event{Tracks: []*Track{{TrackID: 1}, {TrackID: 1}}}
	assert.ErrorIs(t, dup.InitializeReferences(nil), ErrDuplicateTrackID)
	assert.ErrorIs(t, (&Event{Tracks: []*Track{nil}}).InitializeReferences(nil), ErrNilTrack)

	clone, err := ev.Clone()
	require.NoError(t, err)
	require.NoError(t, clone.RescaleTrackEnergy(2, AnyVolume, 0.5))
	assert.InDelta(t, 15.0, clone.TotalDepositedEnergy, 1e-9)
	assert.InDelta(t, 30.0, ev.TotalDepositedEnergy, 1e-9)
	assert.InDelta(t, 30.0, ev.Tracks[1].TotalEnergy(), 1e-9)
	assert.Equal(t, 1, clone.SubEventID)
	cloned, err := clone.TrackByID(2)
	require.NoError(t, err)
	assert.Same(t, clone, cloned.Event())

	// A corrupted track slice is reported, not copied.
	broken := NewEvent(2, 6, md)
	broken.Tracks = append(broken.Tracks, &Track{TrackID: 4}, &Track{TrackID: 4})
	_, err = broken.Clone()
	assert.ErrorIs(t, err, ErrDuplicateTrackID)
	broken.Tracks = []*Track{nil}
	_, err = broken.Clone()
	assert.ErrorIs(t, err, ErrNilTrack)
}

func TestEvent_PrintEvent(t *testing.T) {
	t.Parallel()

	md := newTestMetadata(t)
	ev := NewEvent(4, 8, md)
	ev.AddActiveVolume("gas")
	ev.AddPrimary(Primary{ParticleName: "gamma", Energy: 511})
	deposit(t, ev, step(1, 0, "gamma", volGas, procEIoni, 5, r3.Vec{}))
	deposit(t, ev, step(2, 1, "e-", volGas, procEIoni, 5, r3.Vec{}))
	finalizeVolumes(ev)

	var buf bytes.Buffer
	ev.PrintEvent(&buf, 1, 0)
	out := buf.String()
	assert.Contains(t, out, "Run 4 | Event 8 | Sub-event 0")
	assert.Contains(t, out, "Volume gas: 10.000 keV (stored: true)")
	assert.Contains(t, out, "Primary gamma: 511.000 keV")
	assert.Contains(t, out, "Tracks: 2")
	assert.Contains(t, out, "* Track ID: 1")
	assert.NotContains(t, out, "* Track ID: 2")
}
