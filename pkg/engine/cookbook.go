package engine

import (
	"sort"
)

// Cookbook maps a variable name to the ordered list of candidate recipe
// names to try when that variable must be derived. Earlier entries are
// preferred; list order is the resolver's only tie-break.
type Cookbook map[string][]string

// NewCookbook copies entries into a fresh cookbook. Candidate slices are
// copied so later mutation of the input cannot change resolution results.
func NewCookbook(entries map[string][]string) Cookbook {
	cb := make(Cookbook, len(entries))
	for variable, candidates := range entries {
		cb[variable] = append([]string(nil), candidates...)
	}
	return cb
}

// Candidates returns the candidate recipe names for a variable, in
// priority order, and whether the variable has a cookbook entry at all.
func (c Cookbook) Candidates(variable string) ([]string, bool) {
	candidates, ok := c[variable]
	return candidates, ok
}

// Override returns a new cookbook with entries from overrides replacing
// the receiver's per variable. Variables absent from overrides keep their
// original candidate lists; an override with an empty list removes the
// entry.
func (c Cookbook) Override(overrides map[string][]string) Cookbook {
	merged := NewCookbook(c)
	for variable, candidates := range overrides {
		if len(candidates) == 0 {
			delete(merged, variable)
			continue
		}
		merged[variable] = append([]string(nil), candidates...)
	}
	return merged
}

// Variables returns the derivable variable names, sorted.
func (c Cookbook) Variables() []string {
	vars := make([]string, 0, len(c))
	for v := range c {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}
