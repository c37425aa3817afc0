package recipes

import (
	"fmt"
	"math"

	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// ParamAName is the registered name of the ParamA_A recipe.
const ParamAName = "ParamA_A"

// ParamA derives the surface-pressure extrapolation coefficient param_a,
// a scalar-per-column quantity built from a boundary-layer temperature
// estimate. The height ingredient must carry a boundary_layer_index
// metadata value; its absence is a missing_metadata error, not a default.
type ParamA struct {
	recipe.NoSetup
	recipe.NLOnly
}

// NewParamA constructs the recipe.
func NewParamA(_ recipe.Params) (recipe.Recipe, error) {
	return &ParamA{}, nil
}

func (r *ParamA) Name() string    { return ParamAName }
func (r *ParamA) Product() string { return "param_a" }
func (r *ParamA) Ingredients() []string {
	return []string{
		"height",
		"height_levels",
		"air_pressure_levels_minus_one",
		"specific_humidity",
	}
}

// ProductLevels implements recipe.ProductShaper: param_a is one value per
// column.
func (r *ParamA) ProductLevels(_ *field.Set) (int, error) { return 1, nil }

// ExecuteNL computes param_a from the boundary-layer temperature.
func (r *ParamA) ExecuteNL(fs *field.Set) error {
	if err := fs.Require(
		"height", "height_levels", "air_pressure_levels_minus_one",
		"specific_humidity", "param_a"); err != nil {
		return err
	}
	height, _ := fs.Get("height")
	hl, _ := fs.Get("height_levels")
	plmo, _ := fs.Get("air_pressure_levels_minus_one")
	q, _ := fs.Get("specific_humidity")
	paramA, _ := fs.Get("param_a")

	blindex, err := boundaryLayerIndex(r.Name(), height, hl, plmo)
	if err != nil {
		return err
	}

	n := paramA.Space().Size()
	for jn := 0; jn < n; jn++ {
		tMSH := surfaceTemperature(height, hl, plmo, q, blindex, jn)
		paramA.SetAt(jn, 0, hl.At(jn, 0)+tMSH/lclr)
	}
	return nil
}

// boundaryLayerIndex reads the boundary_layer_index metadata from the
// height field. Its absence is a missing_metadata error, not a default;
// an index whose level above falls outside the ingredient fields is a
// validation error.
func boundaryLayerIndex(recipeName string, height, hl, plmo *field.Field) (int, error) {
	blindex, ok := height.Metadata().GetInt("boundary_layer_index")
	if !ok {
		return 0, recipe.NewError(recipe.KindMissingMetadata,
			"height field has no boundary_layer_index metadata", nil).
			WithRecipe(recipeName).WithVariable("height")
	}
	if blindex < 0 || blindex+1 >= hl.Levels() || blindex+1 >= plmo.Levels() {
		return 0, recipe.NewError(recipe.KindValidation,
			fmt.Sprintf("boundary_layer_index %d out of range for %d height and %d pressure levels",
				blindex, hl.Levels(), plmo.Levels()), nil).
			WithRecipe(recipeName).WithVariable("height")
	}
	return blindex, nil
}

// surfaceTemperature returns the temperature at the model surface height
// for column jn: the hydrostatic temperature at the level above the
// boundary layer, corrected to dry air, then lapsed down to the surface.
func surfaceTemperature(height, hl, plmo, q *field.Field, blindex, jn int) float64 {
	tBL := (-grav / rd) *
		(hl.At(jn, blindex+1) - hl.At(jn, blindex)) /
		math.Log(plmo.At(jn, blindex+1)/plmo.At(jn, blindex))
	tBL /= 1.0 + cVirtual*q.At(jn, blindex)
	return tBL + lclr*(height.At(jn, blindex)-hl.At(jn, 0))
}
