// Package engine runs simulation cycles over one slice of a mixture volume.
//
// A cycle is strictly sequential: the thermal model is seeded and stepped to
// completion, then the mechanical model is configured with the applied load
// and solved on the same grid. The mechanical stage declares the fields it
// reads from the thermal stage through [mechanics.Model.Inputs].
//
// # Example
//
//	vol, _ := volume.Load("sample.avol")
//	eng, err := engine.New(params, vol, engine.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	grid, err := eng.RunCycle(ctx, 200, 1, 1)
//
// # Thread Safety
//
// An Engine owns its grid and is NOT thread-safe. [RunSlices] runs several
// slices in parallel, each on an independently built engine.
package engine
