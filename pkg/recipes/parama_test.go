package recipes

import (
	"math"
	"testing"

	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

func paramAInputs(t *testing.T) *field.Set {
	t.Helper()
	fs := field.NewSet(field.Space{Points: 1})

	height := fs.Alloc("height", 3)
	hl := fs.Alloc("height_levels", 4)
	plmo := fs.Alloc("air_pressure_levels_minus_one", 3)
	fs.Alloc("specific_humidity", 3)
	fs.Alloc("param_a", 1)

	for jl, v := range []float64{500.0, 1500.0, 2500.0} {
		height.SetAt(0, jl, v)
	}
	for jl, v := range []float64{0.0, 1000.0, 2000.0, 3000.0} {
		hl.SetAt(0, jl, v)
	}
	for jl, v := range []float64{100000.0, 90000.0, 80000.0} {
		plmo.SetAt(0, jl, v)
	}
	return fs
}

func TestParamA_MissingMetadataFails(t *testing.T) {
	rec := mustCreate(t, NewParamA, nil)
	fs := paramAInputs(t)

	err := rec.ExecuteNL(fs)
	if err == nil {
		t.Fatal("Expected error without boundary_layer_index metadata")
	}
	if !recipe.HasKind(err, recipe.KindMissingMetadata) {
		t.Errorf("Expected missing_metadata kind, got: %v", err)
	}

	// A default index would silently change the physics; the product must
	// stay untouched.
	pa, _ := fs.Get("param_a")
	if got := pa.At(0, 0); got != 0.0 {
		t.Errorf("Expected untouched product, got %g", got)
	}
}

func TestParamA_ExecuteNL(t *testing.T) {
	rec := mustCreate(t, NewParamA, nil)
	fs := paramAInputs(t)
	height, _ := fs.Get("height")
	height.Metadata().Set("boundary_layer_index", 1)

	if err := rec.ExecuteNL(fs); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Hydrostatic temperature between levels 1 and 2, dry air, then lapsed
	// down to the model surface height.
	tBL := (-grav / rd) * (2000.0 - 1000.0) / math.Log(80000.0/90000.0)
	tMSH := tBL + lclr*(1500.0-0.0)
	want := 0.0 + tMSH/lclr

	pa, _ := fs.Get("param_a")
	if got := pa.At(0, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected %g, got %g", want, got)
	}
	if pa.Levels() != 1 {
		t.Errorf("Expected single-level product, got %d levels", pa.Levels())
	}
}

func TestParamA_IndexOutOfRangeFails(t *testing.T) {
	rec := mustCreate(t, NewParamA, nil)

	// blindex 2 overruns the 3-level pressure field, 3 also the 4-level
	// height_levels field.
	for _, blindex := range []int{-1, 2, 3} {
		fs := paramAInputs(t)
		height, _ := fs.Get("height")
		height.Metadata().Set("boundary_layer_index", blindex)

		err := rec.ExecuteNL(fs)
		if err == nil {
			t.Fatalf("Expected error for boundary_layer_index %d", blindex)
		}
		if !recipe.HasKind(err, recipe.KindValidation) {
			t.Errorf("Expected validation kind for index %d, got: %v", blindex, err)
		}

		pa, _ := fs.Get("param_a")
		if got := pa.At(0, 0); got != 0.0 {
			t.Errorf("Expected untouched product for index %d, got %g", blindex, got)
		}
	}
}
