package recipe

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a recipe from its parameter bag. params may be nil.
type Factory func(params Params) (Recipe, error)

// Registry is the catalog mapping recipe names to factories. It is an
// explicit value owned by the application, populated once at startup
// (see recipes.RegisterBuiltins) and read-only afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register stores a factory under a unique name. Re-registering an existing
// name is a duplicate_recipe error and should abort process initialization.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return NewError(KindValidation, "recipe name is empty", nil)
	}
	if factory == nil {
		return NewError(KindValidation, "recipe factory is nil", nil).WithRecipe(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return NewError(KindDuplicateRecipe,
			fmt.Sprintf("recipe %q is already registered", name), nil).
			WithRecipe(name)
	}
	r.factories[name] = factory
	return nil
}

// Create instantiates the recipe registered under name with the given
// parameters. Fails with unknown_recipe when the name is absent.
func (r *Registry) Create(name string, params Params) (Recipe, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, NewError(KindUnknownRecipe,
			fmt.Sprintf("no recipe registered under %q", name), nil).
			WithRecipe(name)
	}

	rec, err := factory(params)
	if err != nil {
		return nil, NewError(KindValidation,
			fmt.Sprintf("constructing recipe %q", name), err).
			WithRecipe(name)
	}
	return rec, nil
}

// Names returns the registered recipe names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a factory is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}
