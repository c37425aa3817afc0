package recipes

import (
	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// VirtualTemperatureName is the registered name of the VirtualTemperature_A
// recipe.
const VirtualTemperatureName = "VirtualTemperature_A"

// VirtualTemperature derives virtual temperature from air temperature and
// specific humidity:
//
//	tv = t * (1 + c_virtual * q)
type VirtualTemperature struct {
	recipe.NoSetup

	cVirtual    float64
	includeHalo bool
}

// NewVirtualTemperature constructs the recipe. Parameters: c_virtual
// (default dry/moist gas constant ratio term), include_halo (default true).
func NewVirtualTemperature(params recipe.Params) (recipe.Recipe, error) {
	return &VirtualTemperature{
		cVirtual:    params.Float("c_virtual", cVirtual),
		includeHalo: params.Bool("include_halo", true),
	}, nil
}

func (r *VirtualTemperature) Name() string    { return VirtualTemperatureName }
func (r *VirtualTemperature) Product() string { return "virtual_temperature" }
func (r *VirtualTemperature) Ingredients() []string {
	return []string{"air_temperature", "specific_humidity"}
}
func (r *VirtualTemperature) HasTLAD() bool { return true }

// ExecuteNL computes tv = t * (1 + c_virtual*q).
func (r *VirtualTemperature) ExecuteNL(fs *field.Set) error {
	if err := fs.Require("air_temperature", "specific_humidity", "virtual_temperature"); err != nil {
		return err
	}
	t, _ := fs.Get("air_temperature")
	q, _ := fs.Get("specific_humidity")
	tv, _ := fs.Get("virtual_temperature")

	levels := tv.Levels()
	field.ForEachPoint(fs.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			tv.SetAt(jn, jl, t.At(jn, jl)*(1.0+r.cVirtual*q.At(jn, jl)))
		}
	})
	return nil
}

// ExecuteTL computes tv' = t'*(1 + c_virtual*q) + t*c_virtual*q'.
func (r *VirtualTemperature) ExecuteTL(inc, traj *field.Set) error {
	if err := inc.Require("air_temperature", "specific_humidity", "virtual_temperature"); err != nil {
		return err
	}
	if err := traj.Require("air_temperature", "specific_humidity"); err != nil {
		return err
	}
	dT, _ := inc.Get("air_temperature")
	dQ, _ := inc.Get("specific_humidity")
	dTv, _ := inc.Get("virtual_temperature")
	t0, _ := traj.Get("air_temperature")
	q0, _ := traj.Get("specific_humidity")

	levels := dTv.Levels()
	field.ForEachPoint(inc.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			dTv.SetAt(jn, jl,
				dT.At(jn, jl)*(1.0+r.cVirtual*q0.At(jn, jl))+
					t0.At(jn, jl)*r.cVirtual*dQ.At(jn, jl))
		}
	})
	return nil
}

// ExecuteAD is the adjoint of ExecuteTL.
func (r *VirtualTemperature) ExecuteAD(sens, traj *field.Set) error {
	if err := sens.Require("air_temperature", "specific_humidity", "virtual_temperature"); err != nil {
		return err
	}
	if err := traj.Require("air_temperature", "specific_humidity"); err != nil {
		return err
	}
	tHat, _ := sens.Get("air_temperature")
	qHat, _ := sens.Get("specific_humidity")
	tvHat, _ := sens.Get("virtual_temperature")
	t0, _ := traj.Get("air_temperature")
	q0, _ := traj.Get("specific_humidity")

	levels := tvHat.Levels()
	field.ForEachPoint(sens.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			h := tvHat.At(jn, jl)
			tHat.SetAt(jn, jl, tHat.At(jn, jl)+h*(1.0+r.cVirtual*q0.At(jn, jl)))
			qHat.SetAt(jn, jl, qHat.At(jn, jl)+h*t0.At(jn, jl)*r.cVirtual)
			tvHat.SetAt(jn, jl, 0)
		}
	})
	return nil
}
