package recipes

import (
	"math"
	"testing"

	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

func newSet(levels int, values map[string]float64) *field.Set {
	fs := field.NewSet(field.Space{Points: 3, Halo: 1})
	for name, v := range values {
		fs.Alloc(name, levels).Fill(v)
	}
	return fs
}

func mustCreate(t *testing.T, factory recipe.Factory, params recipe.Params) recipe.Recipe {
	t.Helper()
	rec, err := factory(params)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return rec
}

func TestAirTemperature_ExecuteNL(t *testing.T) {
	rec := mustCreate(t, NewAirTemperature, nil)
	fs := newSet(2, map[string]float64{
		"theta":           300.0,
		"exner":           0.95,
		"air_temperature": 0.0,
	})

	if err := rec.ExecuteNL(fs); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	temp, _ := fs.Get("air_temperature")
	want := 300.0 * 0.95
	for jn := 0; jn < fs.Space().Size(); jn++ {
		for jl := 0; jl < 2; jl++ {
			if got := temp.At(jn, jl); got != want {
				t.Fatalf("Expected %g at (%d,%d), got %g", want, jn, jl, got)
			}
		}
	}
}

func TestAirTemperature_ExecuteNL_MissingIngredient(t *testing.T) {
	rec := mustCreate(t, NewAirTemperature, nil)
	fs := newSet(2, map[string]float64{"theta": 300.0, "air_temperature": 0.0})

	if err := rec.ExecuteNL(fs); err == nil {
		t.Fatal("Expected error for missing exner")
	}
}

func TestAirTemperature_ExecuteTL(t *testing.T) {
	rec := mustCreate(t, NewAirTemperature, nil)
	traj := newSet(1, map[string]float64{"theta": 280.0, "exner": 0.9})
	inc := newSet(1, map[string]float64{
		"theta":           1.5,
		"exner":           -0.01,
		"air_temperature": 0.0,
	})

	if err := rec.ExecuteTL(inc, traj); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	dT, _ := inc.Get("air_temperature")
	want := 1.5*0.9 + 280.0*(-0.01)
	if got := dT.At(0, 0); math.Abs(got-want) > 1e-14 {
		t.Errorf("Expected %g, got %g", want, got)
	}
}

func TestAirTemperature_ExcludeHalo(t *testing.T) {
	rec := mustCreate(t, NewAirTemperature, recipe.Params{"include_halo": false})
	fs := newSet(1, map[string]float64{
		"theta":           300.0,
		"exner":           0.95,
		"air_temperature": 0.0,
	})

	if err := rec.ExecuteNL(fs); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	temp, _ := fs.Get("air_temperature")
	if got := temp.At(0, 0); got == 0.0 {
		t.Error("Expected owned point computed")
	}
	halo := fs.Space().Points
	if got := temp.At(halo, 0); got != 0.0 {
		t.Errorf("Expected halo point untouched, got %g", got)
	}
}
