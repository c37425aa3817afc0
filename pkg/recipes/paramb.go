package recipes

import (
	"math"

	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// ParamBName is the registered name of the ParamB_A recipe.
const ParamBName = "ParamB_A"

// ParamB derives the surface-pressure extrapolation coefficient param_b,
// the companion of param_a: the same surface-height temperature divided by
// the lowest-level pressure raised to the Lclr*rd/g exponent, times the
// lapse rate. It shares ParamA's ingredient set and the boundary_layer_index
// metadata requirement.
type ParamB struct {
	recipe.NoSetup
	recipe.NLOnly
}

// NewParamB constructs the recipe.
func NewParamB(_ recipe.Params) (recipe.Recipe, error) {
	return &ParamB{}, nil
}

func (r *ParamB) Name() string    { return ParamBName }
func (r *ParamB) Product() string { return "param_b" }
func (r *ParamB) Ingredients() []string {
	return []string{
		"height",
		"height_levels",
		"air_pressure_levels_minus_one",
		"specific_humidity",
	}
}

// ProductLevels implements recipe.ProductShaper: param_b is one value per
// column.
func (r *ParamB) ProductLevels(_ *field.Set) (int, error) { return 1, nil }

// ExecuteNL computes param_b from the boundary-layer temperature.
func (r *ParamB) ExecuteNL(fs *field.Set) error {
	if err := fs.Require(
		"height", "height_levels", "air_pressure_levels_minus_one",
		"specific_humidity", "param_b"); err != nil {
		return err
	}
	height, _ := fs.Get("height")
	hl, _ := fs.Get("height_levels")
	plmo, _ := fs.Get("air_pressure_levels_minus_one")
	q, _ := fs.Get("specific_humidity")
	paramB, _ := fs.Get("param_b")

	blindex, err := boundaryLayerIndex(r.Name(), height, hl, plmo)
	if err != nil {
		return err
	}

	expPMSH := lclr * rd / grav
	n := paramB.Space().Size()
	for jn := 0; jn < n; jn++ {
		tMSH := surfaceTemperature(height, hl, plmo, q, blindex, jn)
		paramB.SetAt(jn, 0, tMSH/(math.Pow(plmo.At(jn, 0), expPMSH)*lclr))
	}
	return nil
}
