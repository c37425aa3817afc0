package commands

import (
	"fmt"

	"github.com/fieldforge/fieldforge/pkg/config"
	"github.com/fieldforge/fieldforge/pkg/engine"
	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
	"github.com/fieldforge/fieldforge/pkg/recipes"
	"github.com/fieldforge/fieldforge/pkg/telemetry"
)

// app bundles the engine components every subcommand needs: the loaded
// configuration, a populated registry and a resolver/executor pair built
// from it.
type app struct {
	cfg      *config.Config
	loader   *config.Loader
	log      *telemetry.Logger
	registry *recipe.Registry
	resolver *engine.Resolver
	executor *engine.Executor
}

// newApp loads the configuration (defaults when --config is not given),
// registers the built-in recipes and wires the resolver and executor.
func newApp() (*app, error) {
	loader := config.NewLoader()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = loader.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	metrics := telemetry.NopMetrics()
	if cfg.Metrics.Enabled {
		metrics, err = telemetry.NewMetrics(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
	}

	var tracer *telemetry.Tracer
	if cfg.Tracing.Enabled {
		tracer, err = telemetry.NewTracer(cfg.Tracing, "fieldforge", "dev")
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
	}

	registry := recipe.NewRegistry()
	if err := recipes.RegisterBuiltins(registry); err != nil {
		return nil, fmt.Errorf("failed to register built-in recipes: %w", err)
	}

	resolver := engine.NewResolver(engine.ResolverConfig{
		Registry:     registry,
		Cookbook:     cfg.EffectiveCookbook(),
		RecipeParams: cfg.RecipeParams(),
		Logger:       log,
		Metrics:      metrics,
		Tracer:       tracer,
	})
	executor := engine.NewExecutor(engine.ExecutorConfig{
		Logger:      log,
		Metrics:     metrics,
		Tracer:      tracer,
		MaxParallel: cfg.Execution.MaxParallel,
	})

	return &app{
		cfg:      cfg,
		loader:   loader,
		log:      log,
		registry: registry,
		resolver: resolver,
		executor: executor,
	}, nil
}

// loadFields reads a YAML field file into a field set.
func (a *app) loadFields(path string) (*field.Set, error) {
	fs, err := a.loader.LoadFields(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load fields: %w", err)
	}
	return fs, nil
}

// availableNames merges the field names from fs with extra names given on
// the command line.
func availableNames(fs *field.Set, extra []string) []string {
	if fs == nil {
		return extra
	}
	names := fs.Names()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, n := range extra {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}
