package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/detsim/internal/analysis"
	"github.com/banshee-data/detsim/internal/config"
	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/eventdb"
	"github.com/banshee-data/detsim/internal/eventio"
	"github.com/banshee-data/detsim/internal/fsutil"
	"github.com/banshee-data/detsim/internal/ingest"
	"github.com/banshee-data/detsim/internal/metadata"
	"github.com/banshee-data/detsim/internal/monitoring"
	"github.com/banshee-data/detsim/internal/timeutil"
	"github.com/banshee-data/detsim/internal/units"
	"github.com/banshee-data/detsim/internal/version"
)

const defaultDBPath = "detsim.db"

type options struct {
	metadataPath string
	stepsPath    string
	dbPath       string
	configPath   string
	eventsPath   string
	metricsPath  string
	analyze      bool
	energyUnit   string
	showVersion  bool
}

func parseFlags(args []string, env config.Env) (options, error) {
	var o options
	fs := flag.NewFlagSet("detsim", flag.ContinueOnError)
	fs.StringVar(&o.metadataPath, "metadata", "", "simulation metadata file (.yaml)")
	fs.StringVar(&o.stepsPath, "steps", "-", "JSON-lines step stream, - for stdin")
	fs.StringVar(&o.dbPath, "db", "", "event database path (default $DETSIM_DB_PATH or "+defaultDBPath+")")
	fs.StringVar(&o.configPath, "config", "", "analysis config file (.json, default $DETSIM_CONFIG)")
	fs.StringVar(&o.eventsPath, "events", "", "also write kept events to this "+eventio.FileExtension+" stream")
	fs.StringVar(&o.metricsPath, "metrics", "", "write ingest and analysis metrics to this file in Prometheus text format")
	fs.BoolVar(&o.analyze, "analyze", false, "run the analysis passes over the stored events")
	fs.StringVar(&o.energyUnit, "units", "", "energy unit for the report: "+units.GetValidUnitsString())
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if o.dbPath == "" {
		o.dbPath = env.DBPath
	}
	if o.dbPath == "" {
		o.dbPath = defaultDBPath
	}
	if o.configPath == "" {
		o.configPath = env.ConfigPath
	}
	if o.showVersion {
		return o, nil
	}
	if o.metadataPath == "" {
		return o, errors.New("-metadata is required")
	}
	if o.energyUnit != "" && !units.IsValid(o.energyUnit) {
		return o, fmt.Errorf("invalid -units %q, valid: %s", o.energyUnit, units.GetValidUnitsString())
	}
	return o, nil
}

func loadConfig(path string, env config.Env) (*config.AnalysisConfig, error) {
	cfg := &config.AnalysisConfig{}
	if path != "" {
		var err error
		if cfg, err = config.LoadAnalysisConfig(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(env)
	return cfg, nil
}

// buildPasses maps the enabled pass names to configured passes.
func buildPasses(cfg *config.AnalysisConfig, sim *metadata.Simulation) []analysis.Process {
	var passes []analysis.Process
	for _, name := range cfg.GetPasses() {
		switch name {
		case config.PassQuenching:
			passes = append(passes, &analysis.Quenching{
				Factor:  cfg.GetQuenchingFactor(),
				Volumes: cfg.GetQuenchingVolumes(),
			})
		case config.PassVeto:
			passes = append(passes, &analysis.VetoTagging{
				Pattern:      cfg.GetVetoVolumePattern(),
				ThresholdKeV: cfg.GetVetoThresholdKeV(),
			})
		case config.PassNeutron:
			volumes := cfg.GetNeutronCaptureVolumes()
			if len(volumes) == 0 {
				volumes = []string{sim.SensitiveVolume()}
			}
			passes = append(passes, &analysis.NeutronTagging{
				CaptureVolumes: volumes,
				TimeWindow:     cfg.GetNeutronTimeWindow(),
			})
		}
	}
	return passes
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	opts, err := parseFlags(args, env)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "detsim %s (git %s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return nil
	}

	cfg, err := loadConfig(opts.configPath, env)
	if err != nil {
		return err
	}
	unit := cfg.GetEnergyUnit()
	if opts.energyUnit != "" {
		unit = opts.energyUnit
	}

	fsys := fsutil.OSFileSystem{}
	sim, err := metadata.Load(fsys, opts.metadataPath)
	if err != nil {
		return err
	}

	var steps io.Reader = stdin
	if opts.stepsPath != "-" {
		f, err := fsys.Open(opts.stepsPath)
		if err != nil {
			return fmt.Errorf("open step stream: %w", err)
		}
		defer f.Close()
		steps = f
	}
	records, err := ingest.ReadAll(steps)
	if err != nil {
		return err
	}
	if _, err := ingest.ScanRegistry(sim, records); err != nil {
		return err
	}
	sim.Freeze()

	store, err := eventdb.OpenAndMigrate(opts.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	clock := timeutil.RealClock{}
	if err := store.InsertRun(&eventdb.Run{
		UUID:            sim.RunID,
		Number:          sim.RunNumber,
		Name:            sim.Name,
		GDMLFile:        sim.GDMLFile,
		SensitiveVolume: sim.SensitiveVolume(),
		Generator:       sim.Generator.Describe(),
		StartedAt:       clock.Now(),
	}); err != nil {
		return err
	}

	var stream *eventio.Writer
	if opts.eventsPath != "" {
		f, err := os.Create(opts.eventsPath)
		if err != nil {
			return fmt.Errorf("create event stream: %w", err)
		}
		defer f.Close()
		stream = eventio.NewWriter(f)
	}

	reg := prometheus.NewRegistry()
	metrics, err := monitoring.NewMetrics(reg)
	if err != nil {
		return err
	}
	builderCfg := ingest.BuilderConfig{
		Simulation: sim,
		Metrics:    metrics,
		Clock:      clock,
		EventCallback: func(ev *event.Event) error {
			if err := store.InsertEvent(sim.RunID, ev); err != nil {
				return err
			}
			if stream != nil {
				if err := stream.WriteEvent(ev); err != nil {
					return err
				}
			}
			return nil
		},
		RemoveUnwantedTracks: cfg.GetRemoveUnwantedTracks(),
	}
	if d, ok := cfg.GetSubEventTimeDelay(); ok {
		builderCfg.SubEventTimeDelay = &d
	}
	builder, err := ingest.NewBuilder(builderCfg)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := builder.Apply(rec); err != nil {
			return err
		}
	}
	stats, err := builder.Close()
	if err != nil {
		return err
	}
	if err := store.FinishRun(sim.RunID, clock.Now()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "run %s (%d): %d steps, %d events stored, %d discarded, %d sub-event splits\n",
		sim.RunID, sim.RunNumber, stats.Steps, stats.Events, stats.Discarded, stats.SubEvents)

	if opts.analyze {
		// Passes consume the stored records, re-linked to the run metadata.
		stored, err := store.LoadEvents(sim.RunID, sim)
		if err != nil {
			return err
		}
		if len(stored) > 0 {
			if err := analyze(ctx, store, sim, stored, buildPasses(cfg, sim), cfg.GetWorkers(), metrics); err != nil {
				return err
			}
			if err := printObservables(stdout, store, sim.RunID); err != nil {
				return err
			}
		}
	}
	if opts.metricsPath != "" {
		if err := prometheus.WriteToTextfile(opts.metricsPath, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return printVolumeTotals(stdout, store, sim.RunID, unit)
}

func analyze(ctx context.Context, store *eventdb.Store, sim *metadata.Simulation, events []*event.Event,
	passes []analysis.Process, workers int, metrics *monitoring.Metrics) error {
	start := time.Now()
	results, err := analysis.RunBatch(ctx, events, passes, workers, metrics)
	if err != nil {
		return err
	}
	for i, r := range results {
		ev := events[i]
		if err := store.InsertObservables(sim.RunID, ev.EventID, ev.SubEventID, r.Observables.Map()); err != nil {
			return err
		}
	}
	monitoring.Logf("analysis: %d passes over %d events in %v", len(passes), len(events), time.Since(start))
	return nil
}

func printObservables(w io.Writer, store *eventdb.Store, runID string) error {
	stats, err := store.ObservableStats(runID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "observables:")
	for _, s := range stats {
		fmt.Fprintf(w, "  %-32s n=%-6d mean=%-12.4g min=%-12.4g max=%.4g\n", s.Name, s.Count, s.Mean(), s.Min, s.Max)
	}
	return nil
}

func printVolumeTotals(w io.Writer, store *eventdb.Store, runID, unit string) error {
	totals, err := store.VolumeEnergyTotals(runID)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(totals))
	for n := range totals {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "energy per volume (%s):\n", unit)
	for _, n := range names {
		fmt.Fprintf(w, "  %-16s %.6g\n", n, units.ConvertEnergy(totals[n], unit))
	}
	return nil
}
