// Package analysis runs per-event passes over finalized events.
//
// A pass reads an event through the event query API, may return a
// modified copy for the next pass, and reports scalar observables to a
// sink. Passes never mutate the event they are given.
//
// Dependency rule: analysis may import event, geometry, physics and
// monitoring. It must not import ingest, eventio or eventdb.
package analysis
