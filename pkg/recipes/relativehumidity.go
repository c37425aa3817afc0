package recipes

import (
	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// RelativeHumidityName is the registered name of the RelativeHumidity_A
// recipe.
const RelativeHumidityName = "RelativeHumidity_A"

// RelativeHumidity derives relative humidity [%] from specific humidity
// and saturation specific humidity:
//
//	rh = max(q/qsat * 100, 0)
//
// When the product field carries a true cap_super_sat metadata flag the
// result is additionally capped at 100. Diagnostic only: no TL/AD.
type RelativeHumidity struct {
	recipe.NoSetup
	recipe.NLOnly

	includeHalo bool
}

// NewRelativeHumidity constructs the recipe.
func NewRelativeHumidity(params recipe.Params) (recipe.Recipe, error) {
	return &RelativeHumidity{
		includeHalo: params.Bool("include_halo", true),
	}, nil
}

func (r *RelativeHumidity) Name() string    { return RelativeHumidityName }
func (r *RelativeHumidity) Product() string { return "relative_humidity" }
func (r *RelativeHumidity) Ingredients() []string {
	return []string{"specific_humidity", "qsat"}
}

// ExecuteNL computes rh, flooring at 0 always and capping at 100 only when
// cap_super_sat is set on the product field.
func (r *RelativeHumidity) ExecuteNL(fs *field.Set) error {
	if err := fs.Require("specific_humidity", "qsat", "relative_humidity"); err != nil {
		return err
	}
	q, _ := fs.Get("specific_humidity")
	qsat, _ := fs.Get("qsat")
	rh, _ := fs.Get("relative_humidity")

	capSuperSat := rh.Metadata().GetBool("cap_super_sat")

	levels := rh.Levels()
	field.ForEachPoint(fs.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			v := q.At(jn, jl) / qsat.At(jn, jl) * 100.0
			if v < 0.0 {
				v = 0.0
			}
			if capSuperSat && v > 100.0 {
				v = 100.0
			}
			rh.SetAt(jn, jl, v)
		}
	})
	return nil
}
