package recipe

import (
	"github.com/fieldforge/fieldforge/pkg/field"
)

// Recipe is one transformation unit: it derives exactly one product
// variable from an ordered list of ingredient variables.
//
// Identity (Name, Product, Ingredients, RequiresSetup) is immutable after
// construction. A recipe holds configuration but no field contents; TL/AD
// intermediates live in the field sets, so one instance can be replayed
// across modes and plans.
//
// Adjoint convention, uniform across all recipes: ExecuteAD reads the
// product's sensitivity slot, accumulates (adds) the corresponding
// contribution into every ingredient's slot, then zeroes the product's
// slot. The dot-product identity <TL(d), r> == <d, AD(r)> is the check.
type Recipe interface {
	// Name returns the recipe's registered name, e.g. "AirTemperature_A".
	Name() string

	// Product returns the variable this recipe produces.
	Product() string

	// Ingredients returns the required input variables. Order is
	// informational only.
	Ingredients() []string

	// RequiresSetup reports whether Setup must run once, after ingredients
	// are available and before the first Execute call.
	RequiresSetup() bool

	// Setup performs one-time preparation against the field set, e.g.
	// deriving the product's vertical extent from its ingredients.
	Setup(fs *field.Set) error

	// HasTLAD reports whether the recipe implements the tangent-linear and
	// adjoint modes. Diagnostic-only recipes return false and are rejected
	// from TL/AD plans.
	HasTLAD() bool

	// ExecuteNL reads ingredient fields from fs and writes the product
	// field in place. Deterministic in the ingredient values and the
	// recipe configuration.
	ExecuteNL(fs *field.Set) error

	// ExecuteTL computes the first-order perturbation of the product from
	// perturbation ingredients in inc, linearized about the nonlinear
	// reference state in traj, writing the product perturbation into inc.
	ExecuteTL(inc, traj *field.Set) error

	// ExecuteAD is the adjoint of ExecuteTL, following the accumulation
	// convention documented on the interface.
	ExecuteAD(sens, traj *field.Set) error
}

// ProductShaper is implemented by recipes whose product's vertical extent
// differs from its ingredients'. The executor consults it when allocating
// a missing product field.
type ProductShaper interface {
	// ProductLevels returns the number of vertical levels of the product
	// given the ingredient fields.
	ProductLevels(fs *field.Set) (int, error)
}

// NoSetup provides the default no-op setup lifecycle. Embed it in recipes
// that need no one-time preparation.
type NoSetup struct{}

// RequiresSetup always reports false.
func (NoSetup) RequiresSetup() bool { return false }

// Setup is a no-op.
func (NoSetup) Setup(*field.Set) error { return nil }

// NLOnly marks a diagnostic-only recipe: TL and AD are not provided.
// Embedding it satisfies the Recipe interface while making the executor
// reject the recipe from tangent-linear and adjoint plans.
type NLOnly struct{}

// HasTLAD always reports false.
func (NLOnly) HasTLAD() bool { return false }

// ExecuteTL fails with a no_tlad error.
func (NLOnly) ExecuteTL(_, _ *field.Set) error {
	return NewError(KindNoTLAD, "recipe does not provide a tangent-linear mode", nil)
}

// ExecuteAD fails with a no_tlad error.
func (NLOnly) ExecuteAD(_, _ *field.Set) error {
	return NewError(KindNoTLAD, "recipe does not provide an adjoint mode", nil)
}
