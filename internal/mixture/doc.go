// Package mixture provides the material primitives of an asphalt slice
// simulation.
//
// A slice of a scanned sample is classified into three phases:
//
//   - [Aggregate]: stone particles, stiff and conductive
//   - [Mastic]: binder filling the space between particles
//   - [AirVoid]: pores left after compaction
//
// Each phase is described by a [Properties] triple. [Templates] holds one
// canonical [Material] per phase and [Build] turns a labelled slice into a
// [Grid] whose cells carry independent copies of those templates, so the
// thermal and mechanical solvers can mutate per-cell state freely.
//
// # Example
//
//	tpl, _ := mixture.NewTemplates(aggregate, mastic, airVoid)
//	grid, err := mixture.Build(labels, tpl)
//	if errors.Is(err, mixture.ErrInvalidLabel) {
//	    // slice contains a code outside {0,1,2}
//	}
//
// # Thread Safety
//
// A Grid is owned by a single simulation cycle and is NOT thread-safe.
// Parallel cycles must build their own grids.
package mixture
