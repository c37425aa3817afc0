package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
	"github.com/fieldforge/fieldforge/pkg/telemetry"
)

// Mode selects the numerical execution mode of a plan.
type Mode string

const (
	// ModeNL is the nonlinear (forward) mode.
	ModeNL Mode = "NL"

	// ModeTL is the tangent-linear (first-order perturbation) mode.
	ModeTL Mode = "TL"

	// ModeAD is the adjoint (sensitivity back-propagation) mode.
	ModeAD Mode = "AD"
)

// Executor runs plans against field sets. NL and TL walk the plan forward,
// running independent recipes of one dependency level concurrently up to
// MaxParallel workers; AD walks the plan in reverse, strictly sequentially,
// because adjoint accumulation shares ingredient slots.
//
// One Executor can run many plans; per-plan state (setup, forward pass)
// lives on the Plan.
type Executor struct {
	log         *telemetry.Logger
	metrics     *telemetry.Metrics
	tracer      *telemetry.Tracer
	maxParallel int
}

// ExecutorConfig carries the executor's collaborators. Nil telemetry
// fields default to no-ops; MaxParallel <= 1 disables in-level
// concurrency.
type ExecutorConfig struct {
	Logger      *telemetry.Logger
	Metrics     *telemetry.Metrics
	Tracer      *telemetry.Tracer
	MaxParallel int
}

// NewExecutor creates an executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	log := cfg.Logger
	if log == nil {
		log = telemetry.Nop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Executor{
		log:         log.NewComponentLogger("executor"),
		metrics:     metrics,
		tracer:      cfg.Tracer,
		maxParallel: cfg.MaxParallel,
	}
}

// ExecuteNL runs the plan's nonlinear mode against fs, writing each
// product field in place. The plan is aborted on the first recipe failure;
// fields written by earlier recipes remain as computed.
func (e *Executor) ExecuteNL(ctx context.Context, plan *Plan, fs *field.Set) error {
	return e.executeForward(ctx, plan, ModeNL, func(i int, rec recipe.Recipe) error {
		if plan.needsSetup(i) {
			if err := rec.Setup(fs); err != nil {
				return execFailure(rec, ModeNL, err)
			}
			plan.markSetup(i)
		}
		if err := e.ensureProduct(fs, fs, rec); err != nil {
			return execFailure(rec, ModeNL, err)
		}
		return e.timed(rec, ModeNL, func() error { return rec.ExecuteNL(fs) })
	})
}

// ExecuteTL runs the plan's tangent-linear mode: perturbations are read
// from and written to inc, linearized about the trajectory in traj.
func (e *Executor) ExecuteTL(ctx context.Context, plan *Plan, inc, traj *field.Set) error {
	if err := plan.RequireTLAD(); err != nil {
		e.metrics.RecordError(string(recipe.KindOf(err)))
		return err
	}
	return e.executeForward(ctx, plan, ModeTL, func(i int, rec recipe.Recipe) error {
		if plan.needsSetup(i) {
			if err := rec.Setup(traj); err != nil {
				return execFailure(rec, ModeTL, err)
			}
			plan.markSetup(i)
		}
		if err := e.ensureProduct(inc, traj, rec); err != nil {
			return execFailure(rec, ModeTL, err)
		}
		return e.timed(rec, ModeTL, func() error { return rec.ExecuteTL(inc, traj) })
	})
}

// ExecuteAD runs the plan's adjoint mode in reverse topological order:
// each recipe accumulates the product sensitivity held in sens into its
// ingredients' slots and zeroes the product slot. A forward (NL or TL)
// pass must already have run over the same plan to establish the
// trajectory and recipe setup; otherwise this is a missing_trajectory
// error.
func (e *Executor) ExecuteAD(ctx context.Context, plan *Plan, sens, traj *field.Set) error {
	if err := plan.RequireTLAD(); err != nil {
		e.metrics.RecordError(string(recipe.KindOf(err)))
		return err
	}
	if !plan.ForwardDone() {
		err := recipe.NewError(recipe.KindMissingTrajectory,
			"adjoint execution requires a prior NL or TL pass over this plan", nil)
		e.metrics.RecordError(string(recipe.KindOf(err)))
		return err
	}

	var execErr error
	if e.tracer != nil {
		_, span := e.tracer.StartExecution(ctx, plan.ID, string(ModeAD), plan.Len())
		defer func() { telemetry.EndSpan(span, execErr) }()
	}
	e.metrics.ExecutionStarted()
	defer e.metrics.ExecutionFinished()
	start := time.Now()

	recipes := plan.Recipes()
	for i := len(recipes) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			execErr = err
			break
		}
		rec := recipes[i]
		if err := e.ensureSensitivitySlots(sens, traj, rec); err != nil {
			execErr = execFailure(rec, ModeAD, err)
			break
		}
		if err := e.timed(rec, ModeAD, func() error { return rec.ExecuteAD(sens, traj) }); err != nil {
			execErr = err
			break
		}
	}

	outcome := "ok"
	if execErr != nil {
		outcome = "error"
		e.metrics.RecordError(string(recipe.KindOf(execErr)))
	}
	e.metrics.RecordPlanExecution(string(ModeAD), outcome, time.Since(start))
	e.log.WithPlanID(plan.ID).WithMode(string(ModeAD)).
		Debugf("adjoint pass finished: %s", outcome)
	return execErr
}

// executeForward walks the plan's dependency levels in order, running the
// recipes within a level concurrently when allowed. The first failure
// aborts the remaining plan.
func (e *Executor) executeForward(
	ctx context.Context,
	plan *Plan,
	mode Mode,
	run func(i int, rec recipe.Recipe) error,
) error {
	var execErr error
	if e.tracer != nil {
		_, span := e.tracer.StartExecution(ctx, plan.ID, string(mode), plan.Len())
		defer func() { telemetry.EndSpan(span, execErr) }()
	}
	e.metrics.ExecutionStarted()
	defer e.metrics.ExecutionFinished()
	start := time.Now()

	recipes := plan.Recipes()
levels:
	for _, level := range plan.Levels() {
		if err := ctx.Err(); err != nil {
			execErr = err
			break levels
		}

		if e.maxParallel <= 1 || len(level) == 1 {
			for _, i := range level {
				if err := run(i, recipes[i]); err != nil {
					execErr = err
					break levels
				}
			}
			continue
		}

		// Recipes within a level share no dependency edge: each product
		// slot has exactly one writer and its readers are all in later
		// levels, so running them concurrently is safe.
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			firstErr error
		)
		sem := make(chan struct{}, e.maxParallel)
		for _, i := range level {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				if err := run(i, recipes[i]); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		if firstErr != nil {
			execErr = firstErr
			break levels
		}
	}

	outcome := "ok"
	if execErr != nil {
		outcome = "error"
		e.metrics.RecordError(string(recipe.KindOf(execErr)))
	} else {
		plan.markForward()
	}
	e.metrics.RecordPlanExecution(string(mode), outcome, time.Since(start))
	e.log.WithPlanID(plan.ID).WithMode(string(mode)).
		Debugf("forward pass finished: %s", outcome)
	return execErr
}

// ensureProduct allocates the recipe's product field in dst when absent.
// The vertical extent comes from the recipe's ProductShaper when it
// implements one, and from its first ingredient in shapeSrc otherwise.
func (e *Executor) ensureProduct(dst, shapeSrc *field.Set, rec recipe.Recipe) error {
	product := rec.Product()
	if dst.Has(product) {
		return nil
	}
	levels, err := productLevels(shapeSrc, rec)
	if err != nil {
		return err
	}
	dst.Alloc(product, levels)
	return nil
}

// ensureSensitivitySlots allocates zero fields in sens for the recipe's
// product and ingredients when absent, shaped after the trajectory.
func (e *Executor) ensureSensitivitySlots(sens, traj *field.Set, rec recipe.Recipe) error {
	names := append([]string{rec.Product()}, rec.Ingredients()...)
	for _, name := range names {
		if sens.Has(name) {
			continue
		}
		ref, err := traj.Get(name)
		if err != nil {
			return err
		}
		sens.Alloc(name, ref.Levels())
	}
	return nil
}

// productLevels determines the vertical extent of a recipe's product.
func productLevels(fs *field.Set, rec recipe.Recipe) (int, error) {
	if shaper, ok := rec.(recipe.ProductShaper); ok {
		return shaper.ProductLevels(fs)
	}
	ingredients := rec.Ingredients()
	if len(ingredients) == 0 {
		return 1, nil
	}
	ref, err := fs.Get(ingredients[0])
	if err != nil {
		return 0, err
	}
	return ref.Levels(), nil
}

// timed runs one recipe execution, recording its duration and outcome.
func (e *Executor) timed(rec recipe.Recipe, mode Mode, fn func() error) error {
	start := time.Now()
	err := fn()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.metrics.RecordRecipeExecution(rec.Name(), string(mode), outcome, time.Since(start))
	if err != nil {
		return execFailure(rec, mode, err)
	}
	return nil
}

// execFailure wraps a recipe failure with its plan context. The underlying
// cause stays on the error chain, so kind checks for the recipe's own
// classification (e.g. missing_metadata) still match.
func execFailure(rec recipe.Recipe, mode Mode, err error) error {
	return recipe.NewError(recipe.KindExecutionFailure,
		fmt.Sprintf("%s execution failed", mode), err).
		WithRecipe(rec.Name()).
		WithVariable(rec.Product())
}
