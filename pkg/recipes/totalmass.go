package recipes

import (
	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// TotalMassMoistAirName is the registered name of the TotalMassMoistAir_A
// recipe.
const TotalMassMoistAirName = "TotalMassMoistAir_A"

// TotalMassMoistAir derives the total mass of moist air from the mixing
// ratios of vapour, cloud ice, cloud liquid and rain:
//
//	m_t = 1 + m_v + m_ci + m_cl + m_r
//
// The transform is affine; TL and AD are the plain sums.
type TotalMassMoistAir struct {
	recipe.NoSetup

	includeHalo bool
}

// NewTotalMassMoistAir constructs the recipe.
func NewTotalMassMoistAir(params recipe.Params) (recipe.Recipe, error) {
	return &TotalMassMoistAir{
		includeHalo: params.Bool("include_halo", true),
	}, nil
}

func (r *TotalMassMoistAir) Name() string    { return TotalMassMoistAirName }
func (r *TotalMassMoistAir) Product() string { return "m_t" }
func (r *TotalMassMoistAir) Ingredients() []string {
	return []string{"m_v", "m_ci", "m_cl", "m_r"}
}
func (r *TotalMassMoistAir) HasTLAD() bool { return true }

// ExecuteNL computes m_t = 1 + m_v + m_ci + m_cl + m_r.
func (r *TotalMassMoistAir) ExecuteNL(fs *field.Set) error {
	if err := fs.Require("m_v", "m_ci", "m_cl", "m_r", "m_t"); err != nil {
		return err
	}
	mv, _ := fs.Get("m_v")
	mci, _ := fs.Get("m_ci")
	mcl, _ := fs.Get("m_cl")
	mr, _ := fs.Get("m_r")
	mt, _ := fs.Get("m_t")

	levels := mt.Levels()
	field.ForEachPoint(fs.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			mt.SetAt(jn, jl,
				1.0+mv.At(jn, jl)+mci.At(jn, jl)+mcl.At(jn, jl)+mr.At(jn, jl))
		}
	})
	return nil
}

// ExecuteTL computes m_t' = m_v' + m_ci' + m_cl' + m_r'.
func (r *TotalMassMoistAir) ExecuteTL(inc, _ *field.Set) error {
	if err := inc.Require("m_v", "m_ci", "m_cl", "m_r", "m_t"); err != nil {
		return err
	}
	dMv, _ := inc.Get("m_v")
	dMci, _ := inc.Get("m_ci")
	dMcl, _ := inc.Get("m_cl")
	dMr, _ := inc.Get("m_r")
	dMt, _ := inc.Get("m_t")

	levels := dMt.Levels()
	field.ForEachPoint(inc.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			dMt.SetAt(jn, jl,
				dMv.At(jn, jl)+dMci.At(jn, jl)+dMcl.At(jn, jl)+dMr.At(jn, jl))
		}
	})
	return nil
}

// ExecuteAD accumulates the m_t sensitivity into each mass slot and zeroes
// the m_t slot.
func (r *TotalMassMoistAir) ExecuteAD(sens, _ *field.Set) error {
	if err := sens.Require("m_v", "m_ci", "m_cl", "m_r", "m_t"); err != nil {
		return err
	}
	mvHat, _ := sens.Get("m_v")
	mciHat, _ := sens.Get("m_ci")
	mclHat, _ := sens.Get("m_cl")
	mrHat, _ := sens.Get("m_r")
	mtHat, _ := sens.Get("m_t")

	levels := mtHat.Levels()
	field.ForEachPoint(sens.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			h := mtHat.At(jn, jl)
			mvHat.SetAt(jn, jl, mvHat.At(jn, jl)+h)
			mciHat.SetAt(jn, jl, mciHat.At(jn, jl)+h)
			mclHat.SetAt(jn, jl, mclHat.At(jn, jl)+h)
			mrHat.SetAt(jn, jl, mrHat.At(jn, jl)+h)
			mtHat.SetAt(jn, jl, 0)
		}
	})
	return nil
}
