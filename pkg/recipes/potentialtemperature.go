package recipes

import (
	"math"

	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// PotentialTemperatureName is the registered name of the
// PotentialTemperature_A recipe.
const PotentialTemperatureName = "PotentialTemperature_A"

// PotentialTemperature derives potential temperature from air temperature
// and pressure:
//
//	theta = t * (p_zero / p)^kappa
//
// kappa and p_zero are configurable; the defaults are the dry-air values.
type PotentialTemperature struct {
	recipe.NoSetup

	kappa       float64
	pZero       float64
	includeHalo bool
}

// NewPotentialTemperature constructs the recipe. Parameters: kappa
// (default rd/cp), p_zero (default 100000 Pa), include_halo (default true).
func NewPotentialTemperature(params recipe.Params) (recipe.Recipe, error) {
	return &PotentialTemperature{
		kappa:       params.Float("kappa", rdOverCp),
		pZero:       params.Float("p_zero", pZero),
		includeHalo: params.Bool("include_halo", true),
	}, nil
}

func (r *PotentialTemperature) Name() string    { return PotentialTemperatureName }
func (r *PotentialTemperature) Product() string { return "potential_temperature" }
func (r *PotentialTemperature) Ingredients() []string {
	return []string{"air_temperature", "air_pressure"}
}
func (r *PotentialTemperature) HasTLAD() bool { return true }

// ExecuteNL computes theta = t * (p_zero/p)^kappa.
func (r *PotentialTemperature) ExecuteNL(fs *field.Set) error {
	if err := fs.Require("air_temperature", "air_pressure", "potential_temperature"); err != nil {
		return err
	}
	t, _ := fs.Get("air_temperature")
	p, _ := fs.Get("air_pressure")
	theta, _ := fs.Get("potential_temperature")

	levels := theta.Levels()
	field.ForEachPoint(fs.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			theta.SetAt(jn, jl,
				t.At(jn, jl)*math.Pow(r.pZero/p.At(jn, jl), r.kappa))
		}
	})
	return nil
}

// ExecuteTL linearizes about the trajectory:
//
//	theta' = t'*(p_zero/p)^kappa - kappa*theta/p * p'
func (r *PotentialTemperature) ExecuteTL(inc, traj *field.Set) error {
	if err := inc.Require("air_temperature", "air_pressure", "potential_temperature"); err != nil {
		return err
	}
	if err := traj.Require("air_temperature", "air_pressure"); err != nil {
		return err
	}
	dT, _ := inc.Get("air_temperature")
	dP, _ := inc.Get("air_pressure")
	dTheta, _ := inc.Get("potential_temperature")
	t0, _ := traj.Get("air_temperature")
	p0, _ := traj.Get("air_pressure")

	levels := dTheta.Levels()
	field.ForEachPoint(inc.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			scale := math.Pow(r.pZero/p0.At(jn, jl), r.kappa)
			theta0 := t0.At(jn, jl) * scale
			dTheta.SetAt(jn, jl,
				dT.At(jn, jl)*scale-
					r.kappa*theta0/p0.At(jn, jl)*dP.At(jn, jl))
		}
	})
	return nil
}

// ExecuteAD is the adjoint of ExecuteTL.
func (r *PotentialTemperature) ExecuteAD(sens, traj *field.Set) error {
	if err := sens.Require("air_temperature", "air_pressure", "potential_temperature"); err != nil {
		return err
	}
	if err := traj.Require("air_temperature", "air_pressure"); err != nil {
		return err
	}
	tHat, _ := sens.Get("air_temperature")
	pHat, _ := sens.Get("air_pressure")
	thetaHat, _ := sens.Get("potential_temperature")
	t0, _ := traj.Get("air_temperature")
	p0, _ := traj.Get("air_pressure")

	levels := thetaHat.Levels()
	field.ForEachPoint(sens.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			scale := math.Pow(r.pZero/p0.At(jn, jl), r.kappa)
			theta0 := t0.At(jn, jl) * scale
			h := thetaHat.At(jn, jl)
			tHat.SetAt(jn, jl, tHat.At(jn, jl)+h*scale)
			pHat.SetAt(jn, jl, pHat.At(jn, jl)-h*r.kappa*theta0/p0.At(jn, jl))
			thetaHat.SetAt(jn, jl, 0)
		}
	})
	return nil
}
