// Package recipes provides the built-in transformation recipes and their
// registration entry point. Each recipe derives one atmospheric variable
// from others; the numeric kernels follow the Met Office variable-change
// formulations.
package recipes

// Physical constants shared by the built-in kernels.
const (
	// grav is gravitational acceleration [m s-2].
	grav = 9.80665

	// rd is the gas constant for dry air [J kg-1 K-1].
	rd = 287.05

	// cp is the specific heat of dry air at constant pressure [J kg-1 K-1].
	cp = 1005.0

	// pZero is the reference surface pressure [Pa].
	pZero = 100000.0

	// rdOverCp = rd/cp, the Exner exponent.
	rdOverCp = rd / cp

	// cVirtual relates specific humidity to virtual temperature.
	cVirtual = (1.0 - rd/461.51) * 461.51 / rd

	// deps is the smallest admissible pressure [Pa], used to floor
	// diagnosed pressures.
	deps = 2.0e-6

	// lclr is the clear-sky lapse rate [K m-1].
	lclr = 0.0065
)
