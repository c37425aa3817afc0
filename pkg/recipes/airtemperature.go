package recipes

import (
	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// AirTemperatureName is the registered name of the AirTemperature_A recipe.
const AirTemperatureName = "AirTemperature_A"

// AirTemperature derives air temperature from potential temperature and
// the Exner function:
//
//	t = theta * exner
//
// The transform is bilinear, so the tangent-linear and adjoint follow
// directly from the product rule.
type AirTemperature struct {
	recipe.NoSetup

	includeHalo bool
}

// NewAirTemperature constructs the recipe. Parameters: include_halo (bool,
// default true) extends elementwise evaluation over the halo region.
func NewAirTemperature(params recipe.Params) (recipe.Recipe, error) {
	return &AirTemperature{
		includeHalo: params.Bool("include_halo", true),
	}, nil
}

func (r *AirTemperature) Name() string          { return AirTemperatureName }
func (r *AirTemperature) Product() string       { return "air_temperature" }
func (r *AirTemperature) Ingredients() []string { return []string{"theta", "exner"} }
func (r *AirTemperature) HasTLAD() bool         { return true }

// ExecuteNL computes t = theta * exner at every point and level.
func (r *AirTemperature) ExecuteNL(fs *field.Set) error {
	if err := fs.Require("theta", "exner", "air_temperature"); err != nil {
		return err
	}
	theta, _ := fs.Get("theta")
	exner, _ := fs.Get("exner")
	t, _ := fs.Get("air_temperature")

	levels := t.Levels()
	field.ForEachPoint(fs.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			t.SetAt(jn, jl, theta.At(jn, jl)*exner.At(jn, jl))
		}
	})
	return nil
}

// ExecuteTL computes t' = theta'*exner + theta*exner' about the trajectory.
func (r *AirTemperature) ExecuteTL(inc, traj *field.Set) error {
	if err := inc.Require("theta", "exner", "air_temperature"); err != nil {
		return err
	}
	if err := traj.Require("theta", "exner"); err != nil {
		return err
	}
	dTheta, _ := inc.Get("theta")
	dExner, _ := inc.Get("exner")
	dT, _ := inc.Get("air_temperature")
	theta0, _ := traj.Get("theta")
	exner0, _ := traj.Get("exner")

	levels := dT.Levels()
	field.ForEachPoint(inc.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			dT.SetAt(jn, jl,
				dTheta.At(jn, jl)*exner0.At(jn, jl)+
					theta0.At(jn, jl)*dExner.At(jn, jl))
		}
	})
	return nil
}

// ExecuteAD accumulates the product sensitivity into theta and exner, then
// zeroes the product slot.
func (r *AirTemperature) ExecuteAD(sens, traj *field.Set) error {
	if err := sens.Require("theta", "exner", "air_temperature"); err != nil {
		return err
	}
	if err := traj.Require("theta", "exner"); err != nil {
		return err
	}
	thetaHat, _ := sens.Get("theta")
	exnerHat, _ := sens.Get("exner")
	tHat, _ := sens.Get("air_temperature")
	theta0, _ := traj.Get("theta")
	exner0, _ := traj.Get("exner")

	levels := tHat.Levels()
	field.ForEachPoint(sens.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			h := tHat.At(jn, jl)
			thetaHat.SetAt(jn, jl, thetaHat.At(jn, jl)+h*exner0.At(jn, jl))
			exnerHat.SetAt(jn, jl, exnerHat.At(jn, jl)+h*theta0.At(jn, jl))
			tHat.SetAt(jn, jl, 0)
		}
	})
	return nil
}
