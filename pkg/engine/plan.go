package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fieldforge/fieldforge/pkg/recipe"
)

// Plan is a dependency-ordered sequence of recipe instances: every
// recipe's ingredients are either in the plan's available set or the
// product of an earlier recipe, and no two recipes produce the same
// variable. The recipe order is immutable once built; the plan also
// carries the setup and forward-pass state needed to replay it across
// NL/TL/AD modes.
type Plan struct {
	// ID uniquely identifies the plan.
	ID string

	// Requested holds the variables the plan was resolved for.
	Requested []string

	// Available holds the variables that were present before resolution.
	Available []string

	recipes []recipe.Recipe

	mu          sync.Mutex
	setupDone   []bool
	forwardDone bool
}

// newPlan constructs a plan over an ordered recipe sequence.
func newPlan(id string, requested, available []string, recipes []recipe.Recipe) *Plan {
	return &Plan{
		ID:        id,
		Requested: append([]string(nil), requested...),
		Available: append([]string(nil), available...),
		recipes:   recipes,
		setupDone: make([]bool, len(recipes)),
	}
}

// Recipes returns the plan's recipes in execution (topological) order.
func (p *Plan) Recipes() []recipe.Recipe {
	return p.recipes
}

// Len returns the number of recipes in the plan.
func (p *Plan) Len() int { return len(p.recipes) }

// Products returns the variables the plan derives, in execution order.
func (p *Plan) Products() []string {
	out := make([]string, len(p.recipes))
	for i, r := range p.recipes {
		out[i] = r.Product()
	}
	return out
}

// RequireTLAD verifies every recipe in the plan provides tangent-linear
// and adjoint modes, returning a no_tlad error naming the first
// diagnostic-only recipe otherwise.
func (p *Plan) RequireTLAD() error {
	for _, r := range p.recipes {
		if !r.HasTLAD() {
			return recipe.NewError(recipe.KindNoTLAD,
				fmt.Sprintf("recipe %q is diagnostic-only and cannot join a TL/AD plan", r.Name()), nil).
				WithRecipe(r.Name()).WithVariable(r.Product())
		}
	}
	return nil
}

// needsSetup reports whether recipe i still needs its one-time setup, and
// markSetup records that it ran. Both are safe under concurrent level
// execution.
func (p *Plan) needsSetup(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recipes[i].RequiresSetup() && !p.setupDone[i]
}

func (p *Plan) markSetup(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setupDone[i] = true
}

// markForward records a completed forward (NL or TL) pass; ForwardDone
// reports whether one has run. Adjoint execution requires it.
func (p *Plan) markForward() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forwardDone = true
}

// ForwardDone reports whether a forward pass has completed for this plan.
func (p *Plan) ForwardDone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forwardDone
}

// Levels groups recipe indices into execution levels: a recipe's level is
// one past the deepest recipe producing one of its ingredients, so recipes
// within a level have no dependency edge between them and may run
// concurrently. Kahn's algorithm over the in-plan edges; level membership
// keeps plan order, so the result is deterministic.
func (p *Plan) Levels() [][]int {
	producer := make(map[string]int, len(p.recipes))
	for i, r := range p.recipes {
		producer[r.Product()] = i
	}

	// dependents[j] lists recipes consuming j's product; inDegree counts
	// in-plan ingredient edges per recipe.
	dependents := make([][]int, len(p.recipes))
	inDegree := make([]int, len(p.recipes))
	for i, r := range p.recipes {
		for _, ing := range r.Ingredients() {
			j, ok := producer[ing]
			if !ok {
				continue
			}
			dependents[j] = append(dependents[j], i)
			inDegree[i]++
		}
	}

	var levels [][]int
	current := make([]int, 0, len(p.recipes))
	for i := range p.recipes {
		if inDegree[i] == 0 {
			current = append(current, i)
		}
	}
	for len(current) > 0 {
		levels = append(levels, current)
		var next []int
		for _, i := range current {
			for _, dep := range dependents[i] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		current = next
	}
	return levels
}

// String renders the plan as a one-line summary for logs.
func (p *Plan) String() string {
	names := make([]string, len(p.recipes))
	for i, r := range p.recipes {
		names[i] = fmt.Sprintf("%s->%s", r.Name(), r.Product())
	}
	return fmt.Sprintf("plan %s: %s", p.ID, strings.Join(names, ", "))
}

// ToDOT generates a Graphviz DOT rendering of the plan's dependency graph,
// grouping recipes by execution level. Available ingredients appear as
// ellipses, derived products as boxes.
func (p *Plan) ToDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph Plan {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=rounded];\n\n")

	available := make(map[string]bool, len(p.Available))
	for _, v := range p.Available {
		available[v] = true
	}

	produced := make(map[string]bool, len(p.recipes))
	for _, r := range p.recipes {
		produced[r.Product()] = true
	}

	// Source variables consumed from the available set.
	for _, r := range p.recipes {
		for _, ing := range r.Ingredients() {
			if !produced[ing] && available[ing] {
				sb.WriteString(fmt.Sprintf("  \"%s\" [shape=ellipse, style=dashed];\n", ing))
			}
		}
	}
	sb.WriteString("\n")

	for level, indices := range p.Levels() {
		sb.WriteString(fmt.Sprintf("  subgraph cluster_level_%d {\n", level))
		sb.WriteString(fmt.Sprintf("    label=\"Level %d\";\n", level))
		sb.WriteString("    style=dashed;\n")
		for _, i := range indices {
			r := p.recipes[i]
			sb.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\\n%s\", style=\"filled,rounded\", fillcolor=lightblue];\n",
				r.Product(), r.Name(), r.Product()))
		}
		sb.WriteString("  }\n\n")
	}

	for _, r := range p.recipes {
		for _, ing := range r.Ingredients() {
			sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", ing, r.Product()))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}
