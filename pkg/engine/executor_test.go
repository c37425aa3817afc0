package engine

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

func testSpace() field.Space { return field.Space{Points: 4, Halo: 1} }

// airTemperatureInputs builds a field set with constant theta and exner.
func airTemperatureInputs(levels int) *field.Set {
	fs := field.NewSet(testSpace())
	fs.Alloc("theta", levels).Fill(300.0)
	fs.Alloc("exner", levels).Fill(0.95)
	return fs
}

func TestExecutor_ExecuteNL_AirTemperature(t *testing.T) {
	r := builtinResolver(t)
	plan, err := r.Resolve(context.Background(),
		[]string{"air_temperature"}, []string{"theta", "exner"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if plan.Len() != 1 {
		t.Fatalf("Expected 1 recipe, got %d", plan.Len())
	}

	fs := airTemperatureInputs(3)
	ex := NewExecutor(ExecutorConfig{})
	if err := ex.ExecuteNL(context.Background(), plan, fs); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	temp, err := fs.Get("air_temperature")
	if err != nil {
		t.Fatalf("Expected product field allocated, got: %v", err)
	}
	if temp.Levels() != 3 {
		t.Errorf("Expected 3 levels, got %d", temp.Levels())
	}
	for jn := 0; jn < testSpace().Size(); jn++ {
		for jl := 0; jl < 3; jl++ {
			if got := temp.At(jn, jl); math.Abs(got-285.0) > 1e-9 {
				t.Fatalf("Expected 285.0 at (%d,%d), got %g", jn, jl, got)
			}
		}
	}
	if !plan.ForwardDone() {
		t.Error("Expected forward pass to be recorded")
	}
}

func TestExecutor_ExecuteNL_Replay(t *testing.T) {
	r := builtinResolver(t)
	plan, err := r.Resolve(context.Background(),
		[]string{"air_temperature"}, []string{"theta", "exner"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ex := NewExecutor(ExecutorConfig{})
	fs := airTemperatureInputs(2)
	if err := ex.ExecuteNL(context.Background(), plan, fs); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	first, _ := fs.Get("air_temperature")
	want := first.At(0, 0)

	if err := ex.ExecuteNL(context.Background(), plan, fs); err != nil {
		t.Fatalf("Expected replay to succeed, got: %v", err)
	}
	second, _ := fs.Get("air_temperature")
	if got := second.At(0, 0); got != want {
		t.Errorf("Expected identical replay result, got %g vs %g", got, want)
	}
}

func TestExecutor_ExecuteNL_AbortsOnFailure(t *testing.T) {
	failing := &fakeRecipe{
		name: "Mid_A", product: "mid", ingredients: []string{"src"},
		nlErr: recipe.NewError(recipe.KindValidation, "bad input", nil),
	}
	downstream := &fakeRecipe{
		name: "Out_A", product: "out", ingredients: []string{"mid"},
	}
	r := fakeResolver(t, []*fakeRecipe{failing, downstream}, map[string][]string{
		"mid": {"Mid_A"},
		"out": {"Out_A"},
	})
	plan, err := r.Resolve(context.Background(), []string{"out"}, []string{"src"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	fs := field.NewSet(testSpace())
	fs.Alloc("src", 1)
	ex := NewExecutor(ExecutorConfig{})

	err = ex.ExecuteNL(context.Background(), plan, fs)
	if err == nil {
		t.Fatal("Expected execution failure")
	}
	if !recipe.HasKind(err, recipe.KindExecutionFailure) {
		t.Errorf("Expected execution_failure kind, got: %v", err)
	}
	if !recipe.HasKind(err, recipe.KindValidation) {
		t.Errorf("Expected underlying cause to stay on the chain, got: %v", err)
	}
	if downstream.nlCalls != 0 {
		t.Errorf("Expected downstream recipe skipped, ran %d times", downstream.nlCalls)
	}
	if plan.ForwardDone() {
		t.Error("Expected no forward pass recorded after failure")
	}
}

func TestExecutor_SetupRunsOnce(t *testing.T) {
	rec := &fakeRecipe{
		name: "Shaped_A", product: "x", ingredients: []string{"y"}, setup: true,
	}
	r := fakeResolver(t, []*fakeRecipe{rec}, map[string][]string{
		"x": {"Shaped_A"},
	})
	plan, err := r.Resolve(context.Background(), []string{"x"}, []string{"y"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	fs := field.NewSet(testSpace())
	fs.Alloc("y", 2)
	ex := NewExecutor(ExecutorConfig{})

	for i := 0; i < 3; i++ {
		if err := ex.ExecuteNL(context.Background(), plan, fs); err != nil {
			t.Fatalf("Expected no error on pass %d, got: %v", i, err)
		}
	}
	if rec.setupCalls != 1 {
		t.Errorf("Expected setup to run once, ran %d times", rec.setupCalls)
	}
	if rec.nlCalls != 3 {
		t.Errorf("Expected 3 NL executions, got %d", rec.nlCalls)
	}
}

func TestExecutor_ExecuteAD_RequiresForwardPass(t *testing.T) {
	r := builtinResolver(t)
	plan, err := r.Resolve(context.Background(),
		[]string{"air_temperature"}, []string{"theta", "exner"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ex := NewExecutor(ExecutorConfig{})
	traj := airTemperatureInputs(2)
	sens := field.NewSet(testSpace())

	err = ex.ExecuteAD(context.Background(), plan, sens, traj)
	if err == nil {
		t.Fatal("Expected error before forward pass")
	}
	if !recipe.HasKind(err, recipe.KindMissingTrajectory) {
		t.Errorf("Expected missing_trajectory kind, got: %v", err)
	}

	// After a forward pass the same call succeeds.
	if err := ex.ExecuteNL(context.Background(), plan, traj); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := ex.ExecuteAD(context.Background(), plan, sens, traj); err != nil {
		t.Fatalf("Expected adjoint pass to succeed, got: %v", err)
	}
}

func TestExecutor_ExecuteAD_AirTemperature(t *testing.T) {
	r := builtinResolver(t)
	plan, err := r.Resolve(context.Background(),
		[]string{"air_temperature"}, []string{"theta", "exner"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ex := NewExecutor(ExecutorConfig{})
	traj := airTemperatureInputs(1)
	if err := ex.ExecuteNL(context.Background(), plan, traj); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	sens := field.NewSet(testSpace())
	sens.Alloc("air_temperature", 1).Fill(1.0)
	if err := ex.ExecuteAD(context.Background(), plan, sens, traj); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// For t = theta*exner: thetaHat += tHat*exner0, exnerHat += tHat*theta0,
	// and the product slot is zeroed.
	thetaHat, _ := sens.Get("theta")
	exnerHat, _ := sens.Get("exner")
	tHat, _ := sens.Get("air_temperature")
	if got := thetaHat.At(0, 0); math.Abs(got-0.95) > 1e-15 {
		t.Errorf("Expected theta sensitivity 0.95, got %g", got)
	}
	if got := exnerHat.At(0, 0); math.Abs(got-300.0) > 1e-12 {
		t.Errorf("Expected exner sensitivity 300, got %g", got)
	}
	if got := tHat.At(0, 0); got != 0.0 {
		t.Errorf("Expected product sensitivity zeroed, got %g", got)
	}
}

func TestExecutor_ExecuteTL_RejectsDiagnosticRecipe(t *testing.T) {
	r := builtinResolver(t)
	plan, err := r.Resolve(context.Background(),
		[]string{"relative_humidity"}, []string{"specific_humidity", "qsat"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ex := NewExecutor(ExecutorConfig{})
	inc := field.NewSet(testSpace())
	traj := field.NewSet(testSpace())

	err = ex.ExecuteTL(context.Background(), plan, inc, traj)
	if err == nil {
		t.Fatal("Expected diagnostic-only recipe to be rejected in TL mode")
	}
	if !recipe.HasKind(err, recipe.KindNoTLAD) {
		t.Errorf("Expected no_tlad kind, got: %v", err)
	}
}

func TestExecutor_ExecuteNL_Parallel(t *testing.T) {
	r := builtinResolver(t)
	available := []string{"theta", "exner", "m_v", "m_ci", "m_cl", "m_r"}
	request := []string{"virtual_temperature"}

	build := func() *field.Set {
		fs := field.NewSet(testSpace())
		fs.Alloc("theta", 2).Fill(290.0)
		fs.Alloc("exner", 2).Fill(0.93)
		fs.Alloc("m_v", 2).Fill(0.012)
		fs.Alloc("m_ci", 2).Fill(1e-5)
		fs.Alloc("m_cl", 2).Fill(2e-5)
		fs.Alloc("m_r", 2).Fill(3e-6)
		return fs
	}

	seqPlan, err := r.Resolve(context.Background(), request, available)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	seq := build()
	if err := NewExecutor(ExecutorConfig{}).ExecuteNL(context.Background(), seqPlan, seq); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	parPlan, err := r.Resolve(context.Background(), request, available)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	par := build()
	ex := NewExecutor(ExecutorConfig{MaxParallel: 4})
	if err := ex.ExecuteNL(context.Background(), parPlan, par); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want, _ := seq.Get("virtual_temperature")
	got, _ := par.Get("virtual_temperature")
	for i, v := range want.Values() {
		if got.Values()[i] != v {
			t.Fatalf("Expected parallel result to match sequential at %d: %g vs %g",
				i, got.Values()[i], v)
		}
	}
}

func TestPlan_Levels_GroupIndependentRecipes(t *testing.T) {
	r := builtinResolver(t)
	plan, err := r.Resolve(context.Background(),
		[]string{"virtual_temperature"},
		[]string{"theta", "exner", "m_v", "m_ci", "m_cl", "m_r"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	levels := plan.Levels()
	if len(levels) != 3 {
		t.Fatalf("Expected 3 levels, got %d", len(levels))
	}

	// air_temperature and m_t have no edge between them: level 0.
	products := func(level []int) map[string]bool {
		out := map[string]bool{}
		for _, i := range level {
			out[plan.Recipes()[i].Product()] = true
		}
		return out
	}
	l0 := products(levels[0])
	if !l0["air_temperature"] || !l0["m_t"] {
		t.Errorf("Expected air_temperature and m_t in level 0, got %v", l0)
	}
	if !products(levels[1])["specific_humidity"] {
		t.Errorf("Expected specific_humidity in level 1")
	}
	if !products(levels[2])["virtual_temperature"] {
		t.Errorf("Expected virtual_temperature in level 2")
	}
}

func TestPlan_ToDOT(t *testing.T) {
	r := builtinResolver(t)
	plan, err := r.Resolve(context.Background(),
		[]string{"air_temperature"}, []string{"theta", "exner"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	dot := plan.ToDOT()
	for _, want := range []string{
		"digraph Plan", "\"theta\" -> \"air_temperature\"",
		"\"exner\" -> \"air_temperature\"", "AirTemperature_A",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("Expected DOT output to contain %q", want)
		}
	}
}
