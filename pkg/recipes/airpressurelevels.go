package recipes

import (
	"fmt"
	"math"

	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// AirPressureLevelsName is the registered name of the AirPressureLevels_A
// recipe.
const AirPressureLevelsName = "AirPressureLevels_A"

// AirPressureLevels extends pressure to the full set of level interfaces:
// the lower levels are copied from air_pressure_levels_minus_one and the
// topmost level is diagnosed hydrostatically from the Exner function,
// potential temperature and the height spacing, floored at a small
// positive pressure.
//
// The product has one level more than its pressure ingredient, so the
// recipe requires setup to size the output. The top-level diagnosis is a
// vertical recurrence and is evaluated column by column. Diagnostic only:
// no TL/AD.
type AirPressureLevels struct {
	recipe.NLOnly

	// productLevels is derived during Setup from the ingredient shape.
	productLevels int
}

// NewAirPressureLevels constructs the recipe.
func NewAirPressureLevels(_ recipe.Params) (recipe.Recipe, error) {
	return &AirPressureLevels{}, nil
}

func (r *AirPressureLevels) Name() string    { return AirPressureLevelsName }
func (r *AirPressureLevels) Product() string { return "air_pressure_levels" }
func (r *AirPressureLevels) Ingredients() []string {
	return []string{
		"air_pressure_levels_minus_one",
		"exner_levels_minus_one",
		"theta",
		"height_levels",
	}
}

// RequiresSetup reports true: the product shape depends on the ingredients.
func (r *AirPressureLevels) RequiresSetup() bool { return true }

// Setup records the product's vertical extent from the pressure ingredient.
func (r *AirPressureLevels) Setup(fs *field.Set) error {
	plmo, err := fs.Get("air_pressure_levels_minus_one")
	if err != nil {
		return err
	}
	r.productLevels = plmo.Levels() + 1
	return nil
}

// ProductLevels implements recipe.ProductShaper.
func (r *AirPressureLevels) ProductLevels(fs *field.Set) (int, error) {
	plmo, err := fs.Get("air_pressure_levels_minus_one")
	if err != nil {
		return 0, err
	}
	return plmo.Levels() + 1, nil
}

// ExecuteNL copies the lower levels and diagnoses the top level.
func (r *AirPressureLevels) ExecuteNL(fs *field.Set) error {
	if err := fs.Require(
		"air_pressure_levels_minus_one", "exner_levels_minus_one",
		"theta", "height_levels", "air_pressure_levels"); err != nil {
		return err
	}
	plmo, _ := fs.Get("air_pressure_levels_minus_one")
	elmo, _ := fs.Get("exner_levels_minus_one")
	theta, _ := fs.Get("theta")
	hl, _ := fs.Get("height_levels")
	pl, _ := fs.Get("air_pressure_levels")

	levels := pl.Levels()
	if levels != plmo.Levels()+1 {
		return recipe.NewError(recipe.KindValidation,
			fmt.Sprintf("air_pressure_levels has %d levels, want %d",
				levels, plmo.Levels()+1), nil).
			WithRecipe(r.Name()).WithVariable("air_pressure_levels")
	}
	if hl.Levels() < levels {
		return recipe.NewError(recipe.KindValidation,
			"height_levels has fewer levels than air_pressure_levels", nil).
			WithRecipe(r.Name()).WithVariable("height_levels")
	}

	n := pl.Space().Size()
	for jn := 0; jn < n; jn++ {
		for jl := 0; jl < levels-1; jl++ {
			pl.SetAt(jn, jl, plmo.At(jn, jl))
		}

		top := pZero * math.Pow(
			elmo.At(jn, levels-2)-
				grav*(hl.At(jn, levels-1)-hl.At(jn, levels-2))/
					(cp*theta.At(jn, levels-2)),
			1.0/rdOverCp)
		// A negative Pow base yields NaN, so floor anything not strictly
		// positive.
		if math.IsNaN(top) || top <= 0.0 {
			top = deps
		}
		pl.SetAt(jn, levels-1, top)
	}
	return nil
}
