// Package eventdb persists simulated events in SQLite.
//
// Each stored event keeps its encoded record (see package eventio) next to
// the summary columns needed for run-level queries without decoding:
// total and sensitive energy, track and hit counts, and one energy row per
// stored active volume. Analysis observables are kept in their own table
// keyed by the same (run, event, sub-event) triple.
//
// Dependency rule: eventdb may import event, eventio and monitoring. It
// must not import ingest, analysis or cmd packages.
package eventdb
