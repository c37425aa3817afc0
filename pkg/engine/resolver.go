package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldforge/fieldforge/pkg/recipe"
	"github.com/fieldforge/fieldforge/pkg/telemetry"
)

// Resolver turns a set of requested variables into a dependency-ordered
// plan by searching the cookbook against the available-variable set. It is
// safe for concurrent use; each Resolve call carries its own search state.
type Resolver struct {
	registry *recipe.Registry
	cookbook Cookbook
	params   map[string]recipe.Params
	log      *telemetry.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer
}

// ResolverConfig carries the resolver's collaborators. Registry and
// Cookbook are required; RecipeParams supplies per-recipe parameter
// overrides keyed by recipe name; nil telemetry fields default to no-ops.
type ResolverConfig struct {
	Registry     *recipe.Registry
	Cookbook     Cookbook
	RecipeParams map[string]recipe.Params
	Logger       *telemetry.Logger
	Metrics      *telemetry.Metrics
	Tracer       *telemetry.Tracer
}

// NewResolver creates a resolver over a populated registry and cookbook.
func NewResolver(cfg ResolverConfig) *Resolver {
	log := cfg.Logger
	if log == nil {
		log = telemetry.Nop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Resolver{
		registry: cfg.Registry,
		cookbook: cfg.Cookbook,
		params:   cfg.RecipeParams,
		log:      log.NewComponentLogger("resolver"),
		metrics:  metrics,
		tracer:   cfg.Tracer,
	}
}

// Resolve produces a plan deriving every variable in requested from the
// variables in available. The plan is topologically ordered, de-duplicated
// and deterministic for a given (available, requested, cookbook) triple.
// Resolution failures are recoverable: nothing is mutated on error.
func (r *Resolver) Resolve(ctx context.Context, requested, available []string) (*Plan, error) {
	var resolveErr error
	if r.tracer != nil {
		_, span := r.tracer.StartResolution(ctx, requested)
		defer func() { telemetry.EndSpan(span, resolveErr) }()
	}

	search := &resolution{
		resolver:  r,
		available: make(map[string]bool, len(available)),
		resolved:  make(map[string]bool),
		inStack:   make(map[string]bool),
		instances: make(map[string]recipe.Recipe),
	}
	for _, v := range available {
		search.available[v] = true
	}

	for _, v := range requested {
		if err := search.resolveVariable(v); err != nil {
			resolveErr = err
			r.metrics.RecordResolution("error")
			r.metrics.RecordError(string(recipe.KindOf(err)))
			r.log.WithVariable(v).WithError(err).Debug("resolution failed")
			return nil, err
		}
	}

	plan := newPlan(uuid.New().String(), requested, available, search.plan)
	r.metrics.RecordResolution("ok")
	r.log.WithPlanID(plan.ID).Debugf("resolved %d recipes for %s",
		plan.Len(), strings.Join(requested, ","))
	return plan, nil
}

// resolution is the per-call search state.
type resolution struct {
	resolver *Resolver

	// available holds the variables present before resolution.
	available map[string]bool

	// resolved marks variables already derived by a committed recipe in
	// this call.
	resolved map[string]bool

	// stack and inStack track the variables being resolved on the current
	// path, for cycle detection and reporting.
	stack   []string
	inStack map[string]bool

	// instances caches recipe instances by name across candidates.
	instances map[string]recipe.Recipe

	// plan is the working post-order recipe sequence.
	plan []recipe.Recipe
}

// resolveVariable resolves one variable, appending any recipes needed to
// derive it to the working plan.
func (s *resolution) resolveVariable(v string) error {
	if s.available[v] || s.resolved[v] {
		return nil
	}
	if s.inStack[v] {
		cycle := append(append([]string(nil), s.stack...), v)
		return recipe.NewError(recipe.KindCyclicDependency,
			"cookbook entries form a cycle", nil).
			WithVariable(v).
			WithPath(cycle)
	}

	candidates, ok := s.resolver.cookbook.Candidates(v)
	if !ok {
		return recipe.NewError(recipe.KindUnresolvableVariable,
			"variable is not available and has no cookbook entry", nil).
			WithVariable(v)
	}

	s.stack = append(s.stack, v)
	s.inStack[v] = true
	defer func() {
		s.stack = s.stack[:len(s.stack)-1]
		delete(s.inStack, v)
	}()

	var (
		attempts    []string
		attemptErrs []error
	)
	for _, name := range candidates {
		rec, err := s.instance(name)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", name, err))
			attemptErrs = append(attemptErrs, err)
			continue
		}
		if rec.Product() != v {
			attempts = append(attempts,
				fmt.Sprintf("%s: produces %q, not %q", name, rec.Product(), v))
			continue
		}

		// Snapshot, so a failed candidate's partial resolution of other
		// variables can be rolled back before the next candidate runs.
		planLen := len(s.plan)
		resolvedSnapshot := make(map[string]bool, len(s.resolved))
		for k := range s.resolved {
			resolvedSnapshot[k] = true
		}

		failed := false
		for _, ing := range rec.Ingredients() {
			if err := s.resolveVariable(ing); err != nil {
				attempts = append(attempts, fmt.Sprintf("%s: %v", name, err))
				attemptErrs = append(attemptErrs, err)
				failed = true
				break
			}
		}
		if failed {
			s.plan = s.plan[:planLen]
			s.resolved = resolvedSnapshot
			continue
		}

		// First success wins; no further candidates are tried for v.
		s.plan = append(s.plan, rec)
		s.resolved[v] = true
		return nil
	}

	// The joined attempt errors keep classification visible through the
	// wrap, e.g. a cycle found down one candidate's chain.
	return recipe.NewError(recipe.KindUnresolvableVariable,
		fmt.Sprintf("no candidate recipe succeeded: %s",
			strings.Join(attempts, "; ")), errors.Join(attemptErrs...)).
		WithVariable(v)
}

// instance returns the cached recipe instance for name, constructing it
// from the registry and configured parameters on first use.
func (s *resolution) instance(name string) (recipe.Recipe, error) {
	if rec, ok := s.instances[name]; ok {
		return rec, nil
	}
	rec, err := s.resolver.registry.Create(name, s.resolver.params[name])
	if err != nil {
		return nil, err
	}
	s.instances[name] = rec
	return rec, nil
}
