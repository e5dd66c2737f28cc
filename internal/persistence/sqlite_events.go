package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/logicflow/pkg/api"
)

// SQLiteEventStore stores flow run events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

// Ensure SQLiteEventStore implements the interfaces.
var _ EventStore = (*SQLiteEventStore)(nil)

// NewSQLiteEventStore creates the events table in db if needed and returns
// a store using it. db is typically opened with the "sqlite" driver from
// modernc.org/sqlite.
func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS flow_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			flow_name TEXT NOT NULL DEFAULT '',
			step_name TEXT NOT NULL DEFAULT '',
			step_index INTEGER NOT NULL DEFAULT -1,
			pass INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_flow_events_run_id ON flow_events(run_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.Event) error {
	if ev.RunID == "" {
		return ErrEmptyRunID
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flow_events (run_id, at, type, flow_name, step_name, step_index, pass, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID,
		at.UnixNano(),
		string(ev.Type),
		ev.Flow,
		ev.Step,
		ev.StepIndex,
		ev.Pass,
		ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, runID string) ([]api.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, at, type, flow_name, step_name, step_index, pass, detail
		FROM flow_events
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.Event
	for rows.Next() {
		var (
			id     string
			atN    int64
			typ    string
			flow   string
			step   string
			idx    int
			pass   int
			detail string
		)
		if err := rows.Scan(&id, &atN, &typ, &flow, &step, &idx, &pass, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.Event{
			RunID:     id,
			At:        time.Unix(0, atN),
			Type:      api.EventType(typ),
			Flow:      flow,
			Step:      step,
			StepIndex: idx,
			Pass:      pass,
			Detail:    detail,
		})
	}
	return out, rows.Err()
}

func (s *SQLiteEventStore) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT run_id FROM flow_events ORDER BY run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
