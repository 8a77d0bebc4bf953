package engine

import (
	"context"
	"sync"

	"github.com/san-kum/asphaltsim/internal/mixture"
	"github.com/san-kum/asphaltsim/internal/volume"
)

// RunSlices runs one cycle per slice concurrently. Every slice gets its own
// engine and grid; results are returned in sliceIDs order. The first error
// in that order is returned and no grids are handed back.
func RunSlices(ctx context.Context, params Params, vol *volume.Volume, cfg Config, sliceIDs []int, it Iterations, observers ...Observer) ([]*mixture.Grid, error) {
	grids := make([]*mixture.Grid, len(sliceIDs))
	errs := make([]error, len(sliceIDs))

	var wg sync.WaitGroup
	for i, id := range sliceIDs {
		wg.Add(1)
		go func(idx, sliceID int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.SliceID = sliceID

			eng, err := New(params, vol, cfgCopy)
			if err != nil {
				errs[idx] = err
				return
			}
			for _, o := range observers {
				eng.AddObserver(o)
			}
			grids[idx], errs[idx] = eng.RunCycle(ctx, it.Thermal, it.Mechanical, it.Chemical)
		}(i, id)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return grids, nil
}
