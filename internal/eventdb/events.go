package eventdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/eventio"
)

// EventSummary is the indexed part of a stored event.
type EventSummary struct {
	EventID               int
	SubEventID            int
	TotalDepositedEnergy  float64
	SensitiveVolumeEnergy float64
	Tracks                int
	Hits                  int
}

// InsertEvent stores ev under runUUID together with one energy row for
// each stored active volume.
func (s *Store) InsertEvent(runUUID string, ev *event.Event) error {
	record := eventio.Marshal(ev)
	hits := 0
	for _, t := range ev.Tracks {
		hits += t.Hits.Len()
	}

	err := retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			INSERT INTO events (run_uuid, event_id, sub_event_id, total_energy_kev, sensitive_energy_kev,
			                    n_tracks, n_hits, format_version, record)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runUUID, ev.EventID, ev.SubEventID, ev.TotalDepositedEnergy, ev.SensitiveVolumeEnergy,
			len(ev.Tracks), hits, eventio.FormatVersion, record); err != nil {
			return err
		}
		for _, v := range ev.Volumes {
			if !v.Stored {
				continue
			}
			if _, err := tx.Exec(`
				INSERT INTO event_volume_energy (run_uuid, event_id, sub_event_id, volume, energy_kev)
				VALUES (?, ?, ?, ?, ?)`,
				runUUID, ev.EventID, ev.SubEventID, v.Name, v.Energy); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if isConstraint(err) {
		return fmt.Errorf("run %s event %d.%d: %w", runUUID, ev.EventID, ev.SubEventID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert event %d.%d: %w", ev.EventID, ev.SubEventID, err)
	}
	return nil
}

// GetEvent decodes a stored event and links it to md.
func (s *Store) GetEvent(runUUID string, eventID, subEventID int, md event.Metadata) (*event.Event, error) {
	var record []byte
	err := s.db.QueryRow(`
		SELECT record FROM events
		WHERE run_uuid = ? AND event_id = ? AND sub_event_id = ?`,
		runUUID, eventID, subEventID).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s event %d.%d: %w", runUUID, eventID, subEventID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query event %d.%d: %w", eventID, subEventID, err)
	}
	ev, err := eventio.Decode(record, md)
	if err != nil {
		return nil, fmt.Errorf("decode event %d.%d: %w", eventID, subEventID, err)
	}
	return ev, nil
}

// ListEvents returns the summaries of every event in a run ordered by
// event and sub-event id.
func (s *Store) ListEvents(runUUID string) ([]EventSummary, error) {
	rows, err := s.db.Query(`
		SELECT event_id, sub_event_id, total_energy_kev, sensitive_energy_kev, n_tracks, n_hits
		FROM events WHERE run_uuid = ?
		ORDER BY event_id, sub_event_id`, runUUID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []EventSummary
	for rows.Next() {
		var e EventSummary
		if err := rows.Scan(&e.EventID, &e.SubEventID, &e.TotalDepositedEnergy, &e.SensitiveVolumeEnergy,
			&e.Tracks, &e.Hits); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LoadEvents decodes every event of a run in storage order.
func (s *Store) LoadEvents(runUUID string, md event.Metadata) ([]*event.Event, error) {
	rows, err := s.db.Query(`
		SELECT record FROM events WHERE run_uuid = ?
		ORDER BY event_id, sub_event_id`, runUUID)
	if err != nil {
		return nil, fmt.Errorf("query event records: %w", err)
	}
	defer rows.Close()

	var out []*event.Event
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan event record: %w", err)
		}
		ev, err := eventio.Decode(record, md)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// VolumeEnergyTotals sums stored volume energies over a run.
func (s *Store) VolumeEnergyTotals(runUUID string) (map[string]float64, error) {
	rows, err := s.db.Query(`
		SELECT volume, SUM(energy_kev) FROM event_volume_energy
		WHERE run_uuid = ? GROUP BY volume`, runUUID)
	if err != nil {
		return nil, fmt.Errorf("query volume energy: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var (
			name  string
			total float64
		)
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("scan volume energy: %w", err)
		}
		out[name] = total
	}
	return out, rows.Err()
}
