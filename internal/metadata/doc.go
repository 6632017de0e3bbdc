// Package metadata describes a simulation run: the geometry binding, the
// particle generator, the storage policy, biasing volumes and physics cuts,
// together with the process and volume registries shared by every event of
// the run.
//
// A Simulation is loaded from YAML, validated, optionally extended while
// the step stream is pre-scanned, and then frozen. A frozen Simulation
// implements event.Metadata and is read-only.
//
// Dependency rule: metadata may import event, physics and geometry. It must
// not import ingest, eventdb or analysis.
package metadata
