// Package ingest assembles events from the transport engine's step stream.
//
// The stream is JSON lines. Each line is a Record of one kind: "begin"
// opens an event, "primary" and "track" describe it, "step" appends a hit
// and "end" closes it. A Builder consumes records and hands each
// finalized event (or sub-event) to a callback once the storage policy
// has been applied.
//
// Dependency rule: ingest may import event, metadata, monitoring and
// timeutil. It must not import eventio, eventdb or analysis; callers
// connect the callback to persistence.
package ingest
