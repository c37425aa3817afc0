package stores

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRun(id string) *Run {
	return &Run{
		ID:        id,
		PlanID:    "plan-1",
		Mode:      "NL",
		Requested: "air_temperature",
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStore_CreateAndGetRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got.PlanID != "plan-1" || got.Mode != "NL" || got.Status != RunStatusRunning {
		t.Errorf("Expected stored run back, got %+v", got)
	}
	if got.CompletedAt != nil {
		t.Error("Expected no completion time on a running run")
	}
}

func TestSQLiteStore_CompleteRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	execErr := errors.New("recipe blew up")
	if err := store.CompleteRun(ctx, "run-1", RunStatusFailed, execErr); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got.Status != RunStatusFailed {
		t.Errorf("Expected failed status, got %s", got.Status)
	}
	if got.Error == nil || *got.Error != "recipe blew up" {
		t.Errorf("Expected error message recorded, got %v", got.Error)
	}
	if got.CompletedAt == nil {
		t.Error("Expected completion time recorded")
	}
}

func TestSQLiteStore_ListRuns_MostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := testRun(id)
		run.StartedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		if err := store.CreateRun(ctx, run); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Errorf("Expected most recent first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestSQLiteStore_Events(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, recipe := range []string{"TotalMassMoistAir_A", "SpecificHumidity_A"} {
		err := store.AppendEvent(ctx, &Event{
			RunID:    "run-1",
			Recipe:   recipe,
			Variable: "x",
			Message:  "executed",
			Level:    "info",
			At:       time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	events, err := store.ListEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Recipe != "TotalMassMoistAir_A" {
		t.Errorf("Expected insertion order preserved, got %s", events[0].Recipe)
	}
}

func TestSQLiteStore_GetRun_Unknown(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetRun(context.Background(), "nope"); err == nil {
		t.Fatal("Expected error for unknown run")
	}
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	store := newTestStore(t)

	// Init already migrated; a second migration must be a no-op.
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}
