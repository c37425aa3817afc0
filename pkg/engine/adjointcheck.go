package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/fieldforge/fieldforge/pkg/field"
)

// AdjointCheckResult holds the two sides of the dot-product identity
// <TL(d), r> == <d, AD(r)> and their relative discrepancy.
type AdjointCheckResult struct {
	// Forward is <TL(d), r>, summed over the requested product slots.
	Forward float64

	// Adjoint is <d, AD(r)>, summed over the source variable slots.
	Adjoint float64

	// RelativeError is |Forward-Adjoint| / max(|Forward|, |Adjoint|).
	RelativeError float64
}

// AdjointCheck verifies the tangent-linear/adjoint consistency of a plan
// by the dot-product test: a random perturbation d on the plan's source
// variables is propagated with ExecuteTL, a random sensitivity r on the
// requested products is back-propagated with ExecuteAD, and the two inner
// products must agree to rounding error.
//
// inputs must contain the plan's source variables; a nonlinear pass over a
// clone establishes the trajectory, so inputs itself is not modified.
func AdjointCheck(ctx context.Context, ex *Executor, plan *Plan, inputs *field.Set, seed int64) (*AdjointCheckResult, error) {
	if err := plan.RequireTLAD(); err != nil {
		return nil, err
	}

	traj := inputs.Clone()
	if err := ex.ExecuteNL(ctx, plan, traj); err != nil {
		return nil, fmt.Errorf("trajectory pass failed: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	sources := sourceVariables(plan)

	// Random perturbation on the source variables.
	inc := field.NewSet(traj.Space())
	for _, name := range sources {
		ref, err := traj.Get(name)
		if err != nil {
			return nil, err
		}
		d := inc.Alloc(name, ref.Levels())
		randomize(d, rng)
	}

	// Random sensitivity on the requested products, kept aside so the
	// forward inner product can be taken after AD consumes the slots.
	sens := field.NewSet(traj.Space())
	seeds := make(map[string]*field.Field, len(plan.Requested))
	for _, name := range plan.Requested {
		ref, err := traj.Get(name)
		if err != nil {
			return nil, err
		}
		r := sens.Alloc(name, ref.Levels())
		randomize(r, rng)
		seeds[name] = r.Clone()
	}

	if err := ex.ExecuteTL(ctx, plan, inc, traj); err != nil {
		return nil, fmt.Errorf("tangent-linear pass failed: %w", err)
	}

	var forward float64
	for _, name := range plan.Requested {
		dy, err := inc.Get(name)
		if err != nil {
			return nil, err
		}
		forward += dot(dy, seeds[name])
	}

	if err := ex.ExecuteAD(ctx, plan, sens, traj); err != nil {
		return nil, fmt.Errorf("adjoint pass failed: %w", err)
	}

	var adjoint float64
	for _, name := range sources {
		d, _ := inc.Get(name)
		hat, err := sens.Get(name)
		if err != nil {
			return nil, err
		}
		adjoint += dot(d, hat)
	}

	denom := math.Max(math.Abs(forward), math.Abs(adjoint))
	relErr := 0.0
	if denom > 0 {
		relErr = math.Abs(forward-adjoint) / denom
	}

	return &AdjointCheckResult{
		Forward:       forward,
		Adjoint:       adjoint,
		RelativeError: relErr,
	}, nil
}

// sourceVariables returns the plan's ingredients that are not produced
// within the plan, in first-use order.
func sourceVariables(plan *Plan) []string {
	produced := make(map[string]bool, plan.Len())
	for _, r := range plan.Recipes() {
		produced[r.Product()] = true
	}

	seen := make(map[string]bool)
	var sources []string
	for _, r := range plan.Recipes() {
		for _, ing := range r.Ingredients() {
			if produced[ing] || seen[ing] {
				continue
			}
			seen[ing] = true
			sources = append(sources, ing)
		}
	}
	return sources
}

// randomize fills a field with values uniform in [-1, 1). The TL and AD
// operators are exactly linear in the perturbation and sensitivity, so
// the magnitude is immaterial to the identity.
func randomize(f *field.Field, rng *rand.Rand) {
	vals := f.Values()
	for i := range vals {
		vals[i] = 2*rng.Float64() - 1
	}
}

// dot is the inner product over two same-shaped fields.
func dot(a, b *field.Field) float64 {
	av, bv := a.Values(), b.Values()
	var sum float64
	for i := range av {
		sum += av[i] * bv[i]
	}
	return sum
}
