// Package engine implements the recipe resolution and execution core of
// FieldForge: the cookbook-driven search that turns "derive variable X from
// available variables A" into a dependency-ordered plan, and the executor
// that runs a plan in nonlinear, tangent-linear or adjoint mode.
//
// The workflow is:
//
//	Registry (populated at startup) -> Resolver + Cookbook -> Plan -> Executor
//
// Resolution is a depth-first, memoized search with explicit cycle
// detection. Candidates for a variable are tried in cookbook order, first
// success wins, and a failed candidate's partial effect on other variables'
// resolution state is rolled back before the next candidate is tried. No
// backtracking happens across committed choices; cookbook order is the sole
// tie-break. The resulting plan is deterministic for a given
// (available, requested, cookbook) triple.
//
// A plan is immutable once built and can be replayed across modes: the
// typical cycle is one nonlinear pass to establish the trajectory followed
// by repeated tangent-linear and adjoint passes against it. Adjoint
// execution walks the plan in reverse and requires that a forward pass over
// the same plan has already run.
package engine
