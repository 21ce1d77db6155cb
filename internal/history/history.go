// Package history keeps an append-only SQLite log of runs and routine
// changes. Recording is best-effort: callers log and continue when a
// write fails, so history never breaks a run.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// EventType categorizes history events.
type EventType string

const (
	EventTypeRunStarted     EventType = "run.started"
	EventTypeRunFinished    EventType = "run.finished"
	EventTypeStepCompleted  EventType = "step.completed"
	EventTypeRoutineSaved   EventType = "routine.saved"
	EventTypeRoutineDeleted EventType = "routine.deleted"
)

// EntityType identifies what an event relates to.
type EntityType string

const (
	EntityTypeRun     EntityType = "run"
	EntityTypeRoutine EntityType = "routine"
)

// Event is one append-only log entry.
type Event struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Type       EventType       `json:"type"`
	EntityType EntityType      `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	timestamp    TEXT NOT NULL,
	type         TEXT NOT NULL,
	entity_type  TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	payload_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_type, entity_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_events_time ON events(timestamp);
`

// DB wraps the history database.
type DB struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Append writes one event, filling in ID and timestamp when unset.
func (d *DB) Append(ctx context.Context, event *Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.EntityType == "" {
		return fmt.Errorf("event entity type is required")
	}
	if event.EntityID == "" {
		return fmt.Errorf("event entity id is required")
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	} else {
		event.Timestamp = event.Timestamp.UTC()
	}

	var payload *string
	if len(event.Payload) > 0 {
		s := string(event.Payload)
		payload = &s
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO events (id, timestamp, type, entity_type, entity_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.Timestamp.Format(time.RFC3339Nano),
		string(event.Type),
		string(event.EntityType),
		event.EntityID,
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Query defines filters for listing events.
type Query struct {
	Type       *EventType
	EntityType *EntityType
	EntityID   *string
	Since      *time.Time
	Limit      int
}

// List returns events matching the query, oldest first.
func (d *DB) List(ctx context.Context, q Query) ([]*Event, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, timestamp, type, entity_type, entity_id, payload_json FROM events WHERE 1=1`
	args := []any{}

	if q.Type != nil {
		query += ` AND type = ?`
		args = append(args, string(*q.Type))
	}
	if q.EntityType != nil {
		query += ` AND entity_type = ?`
		args = append(args, string(*q.EntityType))
	}
	if q.EntityID != nil {
		query += ` AND entity_id = ?`
		args = append(args, *q.EntityID)
	}
	if q.Since != nil {
		query += ` AND timestamp >= ?`
		args = append(args, q.Since.UTC().Format(time.RFC3339Nano))
	}

	query += ` ORDER BY timestamp, id LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ListByEntity returns events for one entity, oldest first.
func (d *DB) ListByEntity(ctx context.Context, entityType EntityType, entityID string, limit int) ([]*Event, error) {
	id := entityID
	et := entityType
	return d.List(ctx, Query{EntityType: &et, EntityID: &id, Limit: limit})
}

func scanEvent(rows *sql.Rows) (*Event, error) {
	var event Event
	var timestamp, eventType, entityType string
	var payload sql.NullString

	if err := rows.Scan(
		&event.ID,
		&timestamp,
		&eventType,
		&entityType,
		&event.EntityID,
		&payload,
	); err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}

	event.Type = EventType(eventType)
	event.EntityType = EntityType(entityType)
	if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		event.Timestamp = t
	}
	if payload.Valid {
		event.Payload = json.RawMessage(payload.String)
	}
	return &event, nil
}
