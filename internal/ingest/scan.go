package ingest

import (
	"fmt"

	"github.com/banshee-data/detsim/internal/geometry"
	"github.com/banshee-data/detsim/internal/metadata"
	"github.com/banshee-data/detsim/internal/monitoring"
	"github.com/banshee-data/detsim/internal/physics"
)

// ScanResult lists names a pre-pass added to the registries.
type ScanResult struct {
	Volumes   []string
	Processes []string
}

// ScanRegistry registers the storage volumes and every volume and process
// named by the step records that the simulation does not know yet. It must
// run before the simulation is frozen.
func ScanRegistry(sim *metadata.Simulation, records []Record) (ScanResult, error) {
	var res ScanResult
	if sim.Frozen() {
		return res, metadata.ErrFrozen
	}
	phys := sim.Physics()
	geo := sim.Geometry()
	addVolume := func(name string) error {
		if name == "" || geo.VolumeID(name) != geometry.NotFound {
			return nil
		}
		if _, err := sim.AddVolume(name); err != nil {
			return fmt.Errorf("register volume %q: %w", name, err)
		}
		res.Volumes = append(res.Volumes, name)
		return nil
	}
	for _, name := range append(sim.ActiveVolumeNames(), sim.SensitiveVolume()) {
		if err := addVolume(name); err != nil {
			return res, err
		}
	}
	for _, rec := range records {
		if rec.Kind != KindStep || rec.Step == nil {
			continue
		}
		s := rec.Step
		for _, name := range []string{s.PreVolume, s.PostVolume} {
			if err := addVolume(name); err != nil {
				return res, err
			}
		}
		if s.Process != "" && phys.ProcessID(s.Process) == physics.NotFound {
			if _, err := phys.RegisterProcess(s.Process); err != nil {
				return res, fmt.Errorf("register process %q: %w", s.Process, err)
			}
			res.Processes = append(res.Processes, s.Process)
		}
	}
	if n := len(res.Volumes) + len(res.Processes); n > 0 {
		monitoring.Logf("ingest: registered %d volumes and %d processes from the step stream",
			len(res.Volumes), len(res.Processes))
	}
	return res, nil
}
