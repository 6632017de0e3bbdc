package ingest

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/geometry"
	"github.com/banshee-data/detsim/internal/metadata"
	"github.com/banshee-data/detsim/internal/monitoring"
	"github.com/banshee-data/detsim/internal/physics"
	"github.com/banshee-data/detsim/internal/timeutil"
)

var (
	// ErrNotFrozen is returned when the simulation registries are still writable.
	ErrNotFrozen = errors.New("simulation metadata must be frozen before building events")
	// ErrNoCallback is returned when no event callback is configured.
	ErrNoCallback = errors.New("event callback is required")
	// ErrUnregisteredVolume is returned for a step whose volume is not in
	// the geometry. ScanRegistry registers stream volumes before freezing.
	ErrUnregisteredVolume = errors.New("volume not registered in geometry")
	// ErrUnregisteredProcess is returned for a step whose process is not in
	// the physics registry.
	ErrUnregisteredProcess = errors.New("process not registered")
)

// BuilderConfig configures a Builder.
type BuilderConfig struct {
	Simulation    *metadata.Simulation     // frozen run description (required)
	EventCallback func(*event.Event) error // receives every kept event (required)
	Metrics       *monitoring.Metrics      // optional
	Clock         timeutil.Clock           // default: timeutil.RealClock

	// Overrides of the simulation's storage settings. Nil keeps the
	// value from the metadata file.
	SubEventTimeDelay    *time.Duration
	RemoveUnwantedTracks *bool

	// Rand draws the per-event stored flags. Default: Simulation.NewRand().
	Rand *rand.Rand
}

// Stats summarises one ingestion run.
type Stats struct {
	Steps        int
	Events       int // events and sub-events handed to the callback
	SubEvents    int // splits caused by the time delay
	Discarded    int // dropped by the storage policy
	TracksPruned int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns the wall time spent ingesting.
func (s Stats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Builder turns step records into events. It is not safe for concurrent
// use; run one Builder per stream.
type Builder struct {
	sim            *metadata.Simulation
	callback       func(*event.Event) error
	metrics        *monitoring.Metrics
	clock          timeutil.Clock
	rng            *rand.Rand
	delay          float64 // seconds; 0 disables splitting
	removeUnwanted bool

	current    *event.Event
	eventID    int
	subEventID int
	infos      map[int]event.TrackInfo // track records of the open event
	lastTime   float64
	haveHit    bool
	stats      Stats
	closed     bool
}

// NewBuilder validates cfg and returns a Builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Simulation == nil {
		return nil, errors.New("simulation metadata is required")
	}
	if !cfg.Simulation.Frozen() {
		return nil, ErrNotFrozen
	}
	if cfg.EventCallback == nil {
		return nil, ErrNoCallback
	}
	geo := cfg.Simulation.Geometry()
	for _, name := range append(cfg.Simulation.ActiveVolumeNames(), cfg.Simulation.SensitiveVolume()) {
		if geo.VolumeID(name) == geometry.NotFound {
			return nil, fmt.Errorf("storage volume %q: %w", name, metadata.ErrUnknownVolume)
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = cfg.Simulation.NewRand()
	}
	delay := cfg.Simulation.SubEventTimeDelay
	if cfg.SubEventTimeDelay != nil {
		delay = *cfg.SubEventTimeDelay
	}
	removeUnwanted := cfg.Simulation.Storage.RemoveUnwantedTracks
	if cfg.RemoveUnwantedTracks != nil {
		removeUnwanted = *cfg.RemoveUnwantedTracks
	}

	b := &Builder{
		sim:            cfg.Simulation,
		callback:       cfg.EventCallback,
		metrics:        cfg.Metrics,
		clock:          cfg.Clock,
		rng:            cfg.Rand,
		delay:          delay.Seconds(),
		removeUnwanted: removeUnwanted,
	}
	b.stats.StartedAt = b.clock.Now()
	return b, nil
}

// Apply dispatches one stream record.
func (b *Builder) Apply(rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	switch rec.Kind {
	case KindBegin:
		return b.BeginEvent(rec.EventID)
	case KindPrimary:
		p := rec.Primary
		return b.AddPrimary(event.Primary{
			ParticleName: p.Particle,
			Origin:       p.Origin.R3(),
			Direction:    p.Direction.R3(),
			Energy:       p.EnergyKeV,
		})
	case KindTrack:
		return b.AddTrack(rec.Track.TrackInfo())
	case KindStep:
		return b.AddStep(rec.Step.EventStep())
	default:
		return b.EndEvent()
	}
}

// BeginEvent opens event eventID, finishing any event still open.
func (b *Builder) BeginEvent(eventID int) error {
	if b.closed {
		return errors.New("builder is closed")
	}
	if b.current != nil {
		if err := b.finish(); err != nil {
			return err
		}
	}
	b.eventID = eventID
	b.subEventID = 0
	b.infos = make(map[int]event.TrackInfo)
	b.start()
	return nil
}

func (b *Builder) start() {
	b.current = b.sim.NewEvent(b.eventID, b.rng)
	b.current.SetSubEventID(b.subEventID)
	b.haveHit = false
}

func (b *Builder) open(what string) error {
	if b.current == nil {
		return fmt.Errorf("%s outside an event: %w", what, ErrBadRecord)
	}
	return nil
}

// AddPrimary records a primary particle of the open event.
func (b *Builder) AddPrimary(p event.Primary) error {
	if err := b.open("primary"); err != nil {
		return err
	}
	b.current.AddPrimary(p)
	return nil
}

// AddTrack records the engine's description of a track. The track is
// created immediately; steps for it may follow.
func (b *Builder) AddTrack(info event.TrackInfo) error {
	if err := b.open(fmt.Sprintf("track %d", info.TrackID)); err != nil {
		return err
	}
	b.infos[info.TrackID] = info
	tr, err := b.current.TrackByID(info.TrackID)
	if err != nil {
		return err
	}
	if tr != nil {
		tr.UpdateTrack(info)
		return nil
	}
	return b.current.AddTrack(event.NewTrack(info))
}

// AddStep appends s to its track, starting a new sub-event when the time
// since the previous hit exceeds the sub-event delay. Volume and process
// ids are resolved from the step's names; a name missing from the frozen
// registries is an error, so the breakdown and the hit ids always agree.
// An empty process name is recorded as physics.NotFound.
func (b *Builder) AddStep(s event.Step) error {
	if err := b.open(fmt.Sprintf("step of track %d", s.TrackID)); err != nil {
		return err
	}
	geo := b.sim.Geometry()
	phys := b.sim.Physics()
	s.VolumeID = geo.VolumeID(s.PreVolume)
	if s.VolumeID == geometry.NotFound {
		return fmt.Errorf("step of track %d: volume %q: %w", s.TrackID, s.PreVolume, ErrUnregisteredVolume)
	}
	s.ProcessID = phys.ProcessID(s.ProcessName)
	if s.ProcessID == physics.NotFound && s.ProcessName != "" {
		return fmt.Errorf("step of track %d: process %q: %w", s.TrackID, s.ProcessName, ErrUnregisteredProcess)
	}

	if b.delay > 0 && b.haveHit && s.Time-b.lastTime > b.delay {
		if err := b.finish(); err != nil {
			return err
		}
		b.subEventID++
		b.start()
		b.stats.SubEvents++
		b.metrics.IncSubEvents()
	}
	b.lastTime = s.Time
	b.haveHit = true

	ev := b.current
	tr, err := ev.TrackByID(s.TrackID)
	if err != nil {
		return err
	}
	if tr == nil {
		if info, ok := b.infos[s.TrackID]; ok {
			tr = event.NewTrack(info)
		} else {
			tr = &event.Track{}
		}
		tr.InsertStep(s)
		if err := ev.AddTrack(tr); err != nil {
			return err
		}
	} else {
		tr.InsertStep(s)
	}
	b.stats.Steps++
	b.metrics.IncSteps()

	volume := geo.VolumeName(s.VolumeID)
	process := phys.ProcessName(s.ProcessID)
	if ev.IsActiveVolume(volume) {
		ev.AddEnergyInVolumeForParticleForProcess(s.Energy, volume, tr.ParticleName, process)
	}
	if volume == b.sim.SensitiveVolume() && s.Energy > 0 {
		ev.AddEnergyToSensitiveVolume(s.Energy)
	}
	return nil
}

// EndEvent finishes the open event. It is a no-op when none is open.
func (b *Builder) EndEvent() error {
	if b.current == nil {
		return nil
	}
	return b.finish()
}

// Close finishes any open event and stamps the end of the run.
func (b *Builder) Close() (Stats, error) {
	if b.closed {
		return b.stats, nil
	}
	err := b.EndEvent()
	b.closed = true
	b.stats.FinishedAt = b.clock.Now()
	monitoring.Logf("ingest: run %d: %d steps, %d events (%d sub-event splits, %d discarded) in %v",
		b.sim.RunNumber, b.stats.Steps, b.stats.Events, b.stats.SubEvents, b.stats.Discarded, b.stats.Duration())
	return b.stats, err
}

// Stats returns the counters so far.
func (b *Builder) Stats() Stats { return b.stats }

// finish closes the current event, applies the storage policy and hands
// kept events to the callback.
func (b *Builder) finish() error {
	ev := b.current
	b.current = nil

	geo := b.sim.Geometry()
	for i, v := range ev.Volumes {
		if id := geo.VolumeID(v.Name); id != geometry.NotFound {
			ev.SetEnergyDepositedInVolume(i, ev.EnergyInVolume(id))
		}
	}
	if b.removeUnwanted {
		n, err := ev.RemoveUnwantedTracks()
		if err != nil {
			return err
		}
		b.stats.TracksPruned += n
	}
	ev.UpdateBoundingBox()

	if !b.sim.Keep(ev) {
		b.stats.Discarded++
		b.metrics.IncDiscarded()
		return nil
	}
	b.stats.Events++
	b.metrics.ObserveEvent(ev.NumberOfTracks(), ev.TotalDepositedEnergy)
	if err := b.callback(ev); err != nil {
		return fmt.Errorf("event %d.%d: %w", ev.EventID, ev.SubEventID, err)
	}
	return nil
}

// Ingest reads records from the stream into b and closes it.
func Ingest(r io.Reader, b *Builder) (Stats, error) {
	if err := ReadSteps(r, b.Apply); err != nil {
		b.closed = true
		return b.stats, err
	}
	return b.Close()
}
