package eventdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run is the stored description of one simulation run.
type Run struct {
	UUID            string
	Number          int
	Name            string
	GDMLFile        string
	SensitiveVolume string
	Generator       string
	StartedAt       time.Time
	FinishedAt      time.Time // zero while the run is open
	EventsStored    int
}

// InsertRun records a new run. Inserting a UUID twice returns ErrDuplicate.
func (s *Store) InsertRun(r *Run) error {
	started := r.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO runs (run_uuid, run_number, name, gdml_file, sensitive_volume, generator, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.UUID, r.Number, r.Name, r.GDMLFile, r.SensitiveVolume, r.Generator, started.UnixNano())
		return err
	})
	if isConstraint(err) {
		return fmt.Errorf("run %s: %w", r.UUID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.UUID, err)
	}
	return nil
}

// FinishRun stamps the run's end time and refreshes its stored event count.
func (s *Store) FinishRun(uuid string, at time.Time) error {
	var res sql.Result
	err := retryOnBusy(func() error {
		var err error
		res, err = s.db.Exec(`
			UPDATE runs
			SET finished_at = ?,
			    events_stored = (SELECT COUNT(*) FROM events WHERE run_uuid = ?)
			WHERE run_uuid = ?`, at.UnixNano(), uuid, uuid)
		return err
	})
	if err != nil {
		return fmt.Errorf("finish run %s: %w", uuid, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", uuid, ErrNotFound)
	}
	return nil
}

// GetRun returns the run with the given UUID.
func (s *Store) GetRun(uuid string) (*Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
	)
	err := s.db.QueryRow(`
		SELECT run_uuid, run_number, name, gdml_file, sensitive_volume, generator,
		       started_at, finished_at, events_stored
		FROM runs WHERE run_uuid = ?`, uuid).
		Scan(&r.UUID, &r.Number, &r.Name, &r.GDMLFile, &r.SensitiveVolume, &r.Generator,
			&started, &finished, &r.EventsStored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", uuid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", uuid, err)
	}
	r.StartedAt = time.Unix(0, started)
	if finished.Valid {
		r.FinishedAt = time.Unix(0, finished.Int64)
	}
	return &r, nil
}

// ListRuns returns every run, most recently started first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT run_uuid, run_number, name, gdml_file, sensitive_volume, generator,
		       started_at, finished_at, events_stored
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&r.UUID, &r.Number, &r.Name, &r.GDMLFile, &r.SensitiveVolume, &r.Generator,
			&started, &finished, &r.EventsStored); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		if finished.Valid {
			r.FinishedAt = time.Unix(0, finished.Int64)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
