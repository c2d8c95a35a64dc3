// internal/adapters/eventsink/sqlite.go
package eventsink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
)

// MemoryPath abre una base SQLite en memoria, útil para tests.
const MemoryPath = ":memory:"

// timeLayout es de ancho fijo para que el orden lexicográfico coincida con
// el cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS stage_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT    NOT NULL,
	stage_name  TEXT    NOT NULL,
	event_type  TEXT    NOT NULL,
	timestamp   TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_stage_events_run ON stage_events(run_id, id);
`

// SQLiteSink es un registro append-only de eventos de stage sobre SQLite.
type SQLiteSink struct {
	db   *sql.DB
	path string
}

var (
	_ ports.EventSink   = (*SQLiteSink)(nil)
	_ ports.EventReader = (*SQLiteSink)(nil)
)

// OpenSQLite abre o crea la base en path y aplica el esquema. Crea el
// directorio padre si no existe.
func OpenSQLite(path string) (*SQLiteSink, error) {
	const op = "eventsink.open"

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.E(errors.KindInternal, op, "create events dir", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "open sqlite", err)
	}
	// Un único writer; también mantiene viva la base en memoria
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.E(errors.KindInternal, op, "ping sqlite", err)
	}

	s := &SQLiteSink{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	const op = "eventsink.migrate"

	if _, err := s.db.Exec(schema); err != nil {
		return errors.E(errors.KindInternal, op, "create schema", err)
	}

	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return errors.E(errors.KindInternal, op, "set schema version", err)
		}
		return nil
	case err != nil:
		return errors.E(errors.KindInternal, op, "read schema version", err)
	case v != schemaVersion:
		return errors.E(errors.KindInternal, op, fmt.Sprintf("unknown schema version %d", v), nil)
	}
	return nil
}

// Path retorna la ruta de la base.
func (s *SQLiteSink) Path() string { return s.path }

// Append implementa ports.EventSink.
func (s *SQLiteSink) Append(ctx context.Context, event domain.StageEvent) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stage_events(run_id, stage_name, event_type, timestamp, duration_ms, error)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		event.RunID, event.StageName, string(event.Type),
		ts.UTC().Format(timeLayout), event.Duration.Milliseconds(), event.Error,
	)
	if err != nil {
		return errors.E(errors.KindInternal, "eventsink.append", "insert event", err)
	}
	return nil
}

// Events implementa ports.EventReader.
func (s *SQLiteSink) Events(ctx context.Context, runID string) ([]domain.StageEvent, error) {
	const op = "eventsink.events"

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, stage_name, event_type, timestamp, duration_ms, error
		 FROM stage_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "query events", err)
	}
	defer rows.Close()

	var events []domain.StageEvent
	for rows.Next() {
		var (
			e          domain.StageEvent
			eventType  string
			ts         string
			durationMS int64
		)
		if err := rows.Scan(&e.RunID, &e.StageName, &eventType, &ts, &durationMS, &e.Error); err != nil {
			return nil, errors.E(errors.KindInternal, op, "scan event", err)
		}
		e.Type = domain.EventType(eventType)
		e.Timestamp = parseTime(ts)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.E(errors.KindInternal, op, "iterate events", err)
	}
	return events, nil
}

// Runs implementa ports.EventReader. Las ejecuciones más recientes primero.
func (s *SQLiteSink) Runs(ctx context.Context, filter ports.RunFilter) ([]ports.RunSummary, error) {
	const op = "eventsink.runs"

	var (
		where []string
		args  []any
	)
	if !filter.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	query := `SELECT run_id, MIN(timestamp), MAX(timestamp), COUNT(*),
		SUM(CASE WHEN event_type = 'FAILED' THEN 1 ELSE 0 END)
		FROM stage_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY run_id ORDER BY MIN(id) DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "query runs", err)
	}
	defer rows.Close()

	var runs []ports.RunSummary
	for rows.Next() {
		var (
			r           ports.RunSummary
			first, last string
		)
		if err := rows.Scan(&r.RunID, &first, &last, &r.Events, &r.Failures); err != nil {
			return nil, errors.E(errors.KindInternal, op, "scan run", err)
		}
		r.FirstSeen = parseTime(first)
		r.LastSeen = parseTime(last)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.E(errors.KindInternal, op, "iterate runs", err)
	}
	return runs, nil
}

// Close implementa ports.EventSink.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
