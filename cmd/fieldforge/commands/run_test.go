package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldforge/fieldforge/pkg/config"
	"github.com/fieldforge/fieldforge/pkg/engine"
	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
	"github.com/fieldforge/fieldforge/pkg/stores"
	"github.com/fieldforge/fieldforge/pkg/telemetry"
)

type stepRecipe struct {
	recipe.NoSetup
	recipe.NLOnly
	name        string
	product     string
	ingredients []string
	fail        bool
}

func (r *stepRecipe) Name() string          { return r.name }
func (r *stepRecipe) Product() string       { return r.product }
func (r *stepRecipe) Ingredients() []string { return r.ingredients }

func (r *stepRecipe) ExecuteNL(_ *field.Set) error {
	if r.fail {
		return recipe.NewError(recipe.KindValidation, "bad ingredient values", nil)
	}
	return nil
}

// historyTestApp builds an app with a fresh store path and a three-recipe
// chain plan over fake recipes; the recipe named by failing fails in NL.
func historyTestApp(t *testing.T, failing string) (*app, *engine.Plan, *field.Set) {
	t.Helper()

	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "runs.db")

	registry := recipe.NewRegistry()
	steps := []*stepRecipe{
		{name: "Alpha_A", product: "alpha", ingredients: []string{"source"}},
		{name: "Beta_A", product: "beta", ingredients: []string{"alpha"}},
		{name: "Gamma_A", product: "gamma", ingredients: []string{"beta"}},
	}
	for _, s := range steps {
		s.fail = s.name == failing
		rec := s
		err := registry.Register(s.name, func(recipe.Params) (recipe.Recipe, error) {
			return rec, nil
		})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	resolver := engine.NewResolver(engine.ResolverConfig{
		Registry: registry,
		Cookbook: engine.NewCookbook(map[string][]string{
			"alpha": {"Alpha_A"},
			"beta":  {"Beta_A"},
			"gamma": {"Gamma_A"},
		}),
	})
	plan, err := resolver.Resolve(context.Background(), []string{"gamma"}, []string{"source"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	fs := field.NewSet(field.Space{Points: 2})
	fs.Alloc("source", 3)

	a := &app{
		cfg:      cfg,
		log:      telemetry.Nop(),
		executor: engine.NewExecutor(engine.ExecutorConfig{}),
	}
	return a, plan, fs
}

// reopenStore opens the store at path for inspection after the app has
// closed its own handle.
func reopenStore(t *testing.T, ctx context.Context, path string) stores.Store {
	t.Helper()
	store, err := stores.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestApp_OpenStore_MigratesFreshDatabase(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "runs.db")
	a := &app{cfg: cfg, log: telemetry.Nop()}

	store := a.openStore(ctx)
	if store == nil {
		t.Fatal("Expected an open store for a fresh database path")
	}
	defer store.Close()

	run := &stores.Run{
		ID:        "run-1",
		PlanID:    "plan-1",
		Mode:      "NL",
		Requested: "gamma",
		Status:    stores.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("Expected insert into a freshly migrated schema, got: %v", err)
	}
	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got.Status != stores.RunStatusRunning {
		t.Errorf("Expected status %s, got %s", stores.RunStatusRunning, got.Status)
	}
}

func TestApp_ExecuteWithHistory_RecordsRun(t *testing.T) {
	ctx := context.Background()
	a, plan, fs := historyTestApp(t, "")

	if err := a.executeWithHistory(ctx, plan, fs); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	store := reopenStore(t, ctx, a.cfg.Store.Path)
	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Status != stores.RunStatusCompleted {
		t.Errorf("Expected status %s, got %s", stores.RunStatusCompleted, runs[0].Status)
	}

	events, err := store.ListEvents(ctx, runs[0].ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(events) != plan.Len() {
		t.Fatalf("Expected %d events, got %d", plan.Len(), len(events))
	}
	for _, ev := range events {
		if ev.Message != "executed" || ev.Level != "info" {
			t.Errorf("Expected executed/info event for %s, got %s/%s",
				ev.Recipe, ev.Message, ev.Level)
		}
	}
}

func TestApp_ExecuteWithHistory_StopsEventsAtFailure(t *testing.T) {
	ctx := context.Background()
	a, plan, fs := historyTestApp(t, "Beta_A")

	execErr := a.executeWithHistory(ctx, plan, fs)
	if execErr == nil {
		t.Fatal("Expected execution error")
	}

	store := reopenStore(t, ctx, a.cfg.Store.Path)
	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Status != stores.RunStatusFailed {
		t.Errorf("Expected status %s, got %s", stores.RunStatusFailed, runs[0].Status)
	}

	// Alpha ran, Beta failed, Gamma never ran and must have no event.
	events, err := store.ListEvents(ctx, runs[0].ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Recipe != "Alpha_A" || events[0].Message != "executed" || events[0].Level != "info" {
		t.Errorf("Expected executed/info event for Alpha_A, got %+v", events[0])
	}
	if events[1].Recipe != "Beta_A" || events[1].Level != "error" {
		t.Errorf("Expected error event for Beta_A, got %+v", events[1])
	}
	if events[1].Message == "executed" {
		t.Error("Expected the failing recipe's event to carry the error")
	}
}
