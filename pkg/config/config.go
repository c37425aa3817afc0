// Package config loads and validates FieldForge configuration: cookbook
// overrides, per-recipe parameters, execution limits and the ambient
// logging/metrics/tracing/store settings. Configuration is YAML; every
// section is optional and the engine runs with built-in defaults when no
// file is supplied.
package config

import (
	"github.com/fieldforge/fieldforge/pkg/engine"
	"github.com/fieldforge/fieldforge/pkg/recipe"
	"github.com/fieldforge/fieldforge/pkg/recipes"
	"github.com/fieldforge/fieldforge/pkg/telemetry"
)

// Config is the root configuration document.
type Config struct {
	// Cookbook overrides the built-in cookbook per entry: a variable
	// mapped to a non-empty list replaces its candidates, an empty list
	// removes the entry.
	Cookbook map[string][]string `yaml:"cookbook"`

	// Recipes supplies parameter overrides for individual recipes.
	// Recipes work with zero configuration; entries exist only to alter
	// a recipe's defaults.
	Recipes []RecipeConfig `yaml:"recipes"`

	// Execution controls plan execution.
	Execution ExecutionConfig `yaml:"execution"`

	// Logging configures structured logging.
	Logging telemetry.LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics telemetry.MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing telemetry.TracingConfig `yaml:"tracing"`

	// Store configures the run-history store.
	Store StoreConfig `yaml:"store"`
}

// RecipeConfig wraps one recipe's parameter overrides.
type RecipeConfig struct {
	// Name is the registered recipe name.
	Name string `yaml:"name" validate:"required"`

	// Params is the recipe-specific parameter bag.
	Params map[string]any `yaml:"params"`
}

// ExecutionConfig controls plan execution.
type ExecutionConfig struct {
	// MaxParallel bounds concurrent recipe execution within a dependency
	// level. Values <= 1 run strictly sequentially.
	MaxParallel int `yaml:"max_parallel" validate:"gte=0"`
}

// StoreConfig configures the run-history store.
type StoreConfig struct {
	// Path is the SQLite database path. Empty disables run history.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Logging: telemetry.DefaultLoggingConfig(),
	}
}

// EffectiveCookbook merges the built-in cookbook with this configuration's
// overrides.
func (c *Config) EffectiveCookbook() engine.Cookbook {
	cb := engine.NewCookbook(recipes.DefaultCookbook())
	if len(c.Cookbook) == 0 {
		return cb
	}
	return cb.Override(c.Cookbook)
}

// RecipeParams returns the per-recipe parameter bags keyed by recipe name.
func (c *Config) RecipeParams() map[string]recipe.Params {
	if len(c.Recipes) == 0 {
		return nil
	}
	params := make(map[string]recipe.Params, len(c.Recipes))
	for _, rc := range c.Recipes {
		params[rc.Name] = recipe.Params(rc.Params)
	}
	return params
}
