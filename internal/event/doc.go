// Package event owns the simulated event data model: the per-step hit
// sequence of a track, the track itself, and the event that collects the
// tracks of one causal episode together with its energy accounting.
//
// Key types: Hits, Track, Event.
//
// Construction is single-goroutine: the transport engine reports steps one
// at a time and the ingestion pipeline appends them. Once an event is
// finalized every query method is read-only and may be called from several
// goroutines at once.
//
// Back-references (Track -> Event, Hits -> Track) and the metadata link
// are not persisted. After decoding an event, InitializeReferences must be
// called before any method that resolves names or looks tracks up by id.
//
// Dependency rule: this package depends only on the physics and geometry
// registries. No SQL or file I/O is allowed here.
package event
