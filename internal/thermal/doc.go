// Package thermal evolves the temperature field of a material grid by
// explicit finite-difference heat diffusion.
//
// Each interior cell is advanced with its own conductivity k:
//
//	T'(i) = T(i) + dt * k(i) * (T(n) + T(s) + T(e) + T(w) - 4 T(i))
//
// reading only previous-step values, so the result does not depend on
// traversal order. Edge cells hold the boundary temperatures. The step is
// bounded by the highest conductivity of the run:
//
//	dt = StabilityFactor / (4 * maxTC)
//
// which keeps dt*k(i)*4 <= 1 for every cell.
package thermal
