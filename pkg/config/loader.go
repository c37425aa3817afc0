package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Loader parses and validates configuration documents.
type Loader struct {
	validator *validator.Validate
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	return &Loader{
		validator: validator.New(),
	}
}

// Load reads, parses and validates the configuration file at path.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses and validates a YAML configuration document. Omitted
// sections keep their defaults.
func (l *Loader) Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := l.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints the YAML schema cannot express.
func (l *Loader) Validate(cfg *Config) error {
	if err := l.validator.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	for variable, candidates := range cfg.Cookbook {
		if variable == "" {
			return fmt.Errorf("cookbook entry with empty variable name")
		}
		for _, name := range candidates {
			if name == "" {
				return fmt.Errorf("cookbook entry %q lists an empty recipe name", variable)
			}
		}
	}

	seen := make(map[string]bool, len(cfg.Recipes))
	for _, rc := range cfg.Recipes {
		if seen[rc.Name] {
			return fmt.Errorf("duplicate recipe parameter entry for %q", rc.Name)
		}
		seen[rc.Name] = true
	}

	return nil
}
