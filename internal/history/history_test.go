package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/openclaw/gpioskill/internal/sequence"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAppendFillsDefaults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	event := &Event{
		Type:       EventTypeRunStarted,
		EntityType: EntityTypeRun,
		EntityID:   "run-1",
	}
	if err := db.Append(ctx, event); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if event.ID == "" {
		t.Fatal("ID not generated")
	}
	if event.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestAppendValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cases := []*Event{
		{EntityType: EntityTypeRun, EntityID: "run-1"},
		{Type: EventTypeRunStarted, EntityID: "run-1"},
		{Type: EventTypeRunStarted, EntityType: EntityTypeRun},
	}
	for i, event := range cases {
		if err := db.Append(ctx, event); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestListFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	events := []*Event{
		{Type: EventTypeRunStarted, EntityType: EntityTypeRun, EntityID: "run-1", Timestamp: base},
		{Type: EventTypeRunFinished, EntityType: EntityTypeRun, EntityID: "run-1", Timestamp: base.Add(time.Second)},
		{Type: EventTypeRoutineSaved, EntityType: EntityTypeRoutine, EntityID: "morning", Timestamp: base.Add(2 * time.Second)},
	}
	for _, event := range events {
		if err := db.Append(ctx, event); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, err := db.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	// Oldest first.
	if all[0].Type != EventTypeRunStarted || all[2].Type != EventTypeRoutineSaved {
		t.Fatalf("unexpected order: %v %v", all[0].Type, all[2].Type)
	}

	saved := EventTypeRoutineSaved
	byType, err := db.List(ctx, Query{Type: &saved})
	if err != nil {
		t.Fatalf("List by type: %v", err)
	}
	if len(byType) != 1 || byType[0].EntityID != "morning" {
		t.Fatalf("unexpected filtered events: %+v", byType)
	}

	since := base.Add(1500 * time.Millisecond)
	recent, err := db.List(ctx, Query{Since: &since})
	if err != nil {
		t.Fatalf("List since: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent event, got %d", len(recent))
	}

	limited, err := db.List(ctx, Query{Limit: 2})
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 events, got %d", len(limited))
	}
}

func TestListByEntity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-1", "run-2"} {
		if err := db.Append(ctx, &Event{
			Type: EventTypeStepCompleted, EntityType: EntityTypeRun, EntityID: id,
		}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	events, err := db.ListByEntity(ctx, EntityTypeRun, "run-1", 0)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	payload, _ := json.Marshal(RunFinishedPayload{Success: true, StepsRun: 4})
	if err := db.Append(ctx, &Event{
		Type: EventTypeRunFinished, EntityType: EntityTypeRun, EntityID: "run-1",
		Payload: payload,
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := db.ListByEntity(ctx, EntityTypeRun, "run-1", 0)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}

	var decoded RunFinishedPayload
	if err := json.Unmarshal(events[0].Payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !decoded.Success || decoded.StepsRun != 4 {
		t.Fatalf("payload mismatch: %+v", decoded)
	}
}

func TestRecorderNilSafe(t *testing.T) {
	rec := NewRecorder(nil)
	ctx := context.Background()

	// None of these may panic or write anywhere.
	rec.RunStarted(ctx, "run-1", "", 2)
	rec.RunFinished(ctx, "run-1", &sequence.RunResult{Success: true})
	rec.RoutineSaved(ctx, "morning", 3)
	rec.RoutineDeleted(ctx, "morning")
}

func TestRecorderEmitsStepEvents(t *testing.T) {
	db := newTestDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()

	stopped := 1
	run := &sequence.RunResult{
		Success:       false,
		StoppedAtStep: &stopped,
		Error:         "Step 1 ('step_1') failed: pin read failed",
		Results: []sequence.LogEntry{
			{"_step": 0, "_name": "step_0", "success": true},
			{"_step": 0, "_type": "condition", "condition": "true", "condition_met": true, "branch_taken": "then"},
			{"_step": 1, "_name": "step_1", "success": false, "error": "pin read failed"},
		},
	}
	rec.RunFinished(ctx, "run-9", run)

	steps := EventTypeStepCompleted
	events, err := db.List(ctx, Query{Type: &steps})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// Condition entries are engine bookkeeping, not steps.
	if len(events) != 2 {
		t.Fatalf("expected 2 step events, got %d", len(events))
	}

	var payload StepCompletedPayload
	if err := json.Unmarshal(events[1].Payload, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Index != 1 || payload.Success || payload.Error != "pin read failed" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	finished := EventTypeRunFinished
	events, err = db.List(ctx, Query{Type: &finished})
	if err != nil {
		t.Fatalf("List finished: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 finished event, got %d", len(events))
	}
	var fin RunFinishedPayload
	if err := json.Unmarshal(events[0].Payload, &fin); err != nil {
		t.Fatalf("unmarshal finished: %v", err)
	}
	if fin.Success || fin.StoppedAtStep == nil || *fin.StoppedAtStep != 1 {
		t.Fatalf("unexpected finished payload: %+v", fin)
	}
}
