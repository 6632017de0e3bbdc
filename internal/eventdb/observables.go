package eventdb

import (
	"fmt"
	"sort"
)

// ObservableStat aggregates one observable over a run.
type ObservableStat struct {
	Name  string
	Count int
	Sum   float64
	Min   float64
	Max   float64
}

// Mean returns Sum/Count, or 0 for an empty stat.
func (o ObservableStat) Mean() float64 {
	if o.Count == 0 {
		return 0
	}
	return o.Sum / float64(o.Count)
}

// InsertObservables stores the named values computed for one event.
// Existing values with the same name are replaced.
func (s *Store) InsertObservables(runUUID string, eventID, subEventID int, values map[string]float64) error {
	if len(values) == 0 {
		return nil
	}
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)

	err := retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()
		for _, n := range names {
			if _, err := tx.Exec(`
				INSERT INTO event_observables (run_uuid, event_id, sub_event_id, name, value)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (run_uuid, event_id, sub_event_id, name) DO UPDATE SET value = excluded.value`,
				runUUID, eventID, subEventID, n, values[n]); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("insert observables for event %d.%d: %w", eventID, subEventID, err)
	}
	return nil
}

// Observables returns the stored values of one event.
func (s *Store) Observables(runUUID string, eventID, subEventID int) (map[string]float64, error) {
	rows, err := s.db.Query(`
		SELECT name, value FROM event_observables
		WHERE run_uuid = ? AND event_id = ? AND sub_event_id = ?`,
		runUUID, eventID, subEventID)
	if err != nil {
		return nil, fmt.Errorf("query observables: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var (
			name  string
			value float64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan observable: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// ObservableStats aggregates every observable of a run, ordered by name.
func (s *Store) ObservableStats(runUUID string) ([]ObservableStat, error) {
	rows, err := s.db.Query(`
		SELECT name, COUNT(*), SUM(value), MIN(value), MAX(value)
		FROM event_observables WHERE run_uuid = ?
		GROUP BY name ORDER BY name`, runUUID)
	if err != nil {
		return nil, fmt.Errorf("query observable stats: %w", err)
	}
	defer rows.Close()

	var out []ObservableStat
	for rows.Next() {
		var o ObservableStat
		if err := rows.Scan(&o.Name, &o.Count, &o.Sum, &o.Min, &o.Max); err != nil {
			return nil, fmt.Errorf("scan observable stat: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
