package recipes

import (
	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// SpecificHumidityName is the registered name of the SpecificHumidity_A
// recipe.
const SpecificHumidityName = "SpecificHumidity_A"

// SpecificHumidity derives specific humidity as the ratio of vapour mass
// to total moist-air mass:
//
//	q = m_v / m_t
type SpecificHumidity struct {
	recipe.NoSetup

	includeHalo bool
}

// NewSpecificHumidity constructs the recipe.
func NewSpecificHumidity(params recipe.Params) (recipe.Recipe, error) {
	return &SpecificHumidity{
		includeHalo: params.Bool("include_halo", true),
	}, nil
}

func (r *SpecificHumidity) Name() string          { return SpecificHumidityName }
func (r *SpecificHumidity) Product() string       { return "specific_humidity" }
func (r *SpecificHumidity) Ingredients() []string { return []string{"m_v", "m_t"} }
func (r *SpecificHumidity) HasTLAD() bool         { return true }

// ExecuteNL computes q = m_v/m_t.
func (r *SpecificHumidity) ExecuteNL(fs *field.Set) error {
	if err := fs.Require("m_v", "m_t", "specific_humidity"); err != nil {
		return err
	}
	mv, _ := fs.Get("m_v")
	mt, _ := fs.Get("m_t")
	q, _ := fs.Get("specific_humidity")

	levels := q.Levels()
	field.ForEachPoint(fs.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			q.SetAt(jn, jl, mv.At(jn, jl)/mt.At(jn, jl))
		}
	})
	return nil
}

// ExecuteTL computes q' = m_v'/m_t - m_v*m_t'/m_t^2 about the trajectory.
func (r *SpecificHumidity) ExecuteTL(inc, traj *field.Set) error {
	if err := inc.Require("m_v", "m_t", "specific_humidity"); err != nil {
		return err
	}
	if err := traj.Require("m_v", "m_t"); err != nil {
		return err
	}
	dMv, _ := inc.Get("m_v")
	dMt, _ := inc.Get("m_t")
	dQ, _ := inc.Get("specific_humidity")
	mv0, _ := traj.Get("m_v")
	mt0, _ := traj.Get("m_t")

	levels := dQ.Levels()
	field.ForEachPoint(inc.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			m := mt0.At(jn, jl)
			dQ.SetAt(jn, jl,
				dMv.At(jn, jl)/m-
					mv0.At(jn, jl)*dMt.At(jn, jl)/(m*m))
		}
	})
	return nil
}

// ExecuteAD is the adjoint of ExecuteTL.
func (r *SpecificHumidity) ExecuteAD(sens, traj *field.Set) error {
	if err := sens.Require("m_v", "m_t", "specific_humidity"); err != nil {
		return err
	}
	if err := traj.Require("m_v", "m_t"); err != nil {
		return err
	}
	mvHat, _ := sens.Get("m_v")
	mtHat, _ := sens.Get("m_t")
	qHat, _ := sens.Get("specific_humidity")
	mv0, _ := traj.Get("m_v")
	mt0, _ := traj.Get("m_t")

	levels := qHat.Levels()
	field.ForEachPoint(sens.Space(), r.includeHalo, func(jn int) {
		for jl := 0; jl < levels; jl++ {
			m := mt0.At(jn, jl)
			h := qHat.At(jn, jl)
			mvHat.SetAt(jn, jl, mvHat.At(jn, jl)+h/m)
			mtHat.SetAt(jn, jl, mtHat.At(jn, jl)-h*mv0.At(jn, jl)/(m*m))
			qHat.SetAt(jn, jl, 0)
		}
	})
	return nil
}
