package volume

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/asphaltsim/internal/mixture"
)

// GenerateOptions describes a synthetic mixture: spherical aggregate
// particles packed into mastic, with spherical pores carved out of the
// mastic.
type GenerateOptions struct {
	NX, NY, NZ        int
	Seed              int64
	AggregateFraction float64
	AirVoidFraction   float64
	MinRadius         float64
	MaxRadius         float64
	VoidRadius        float64
	MaxAttempts       int
}

func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		NX: 64, NY: 64, NZ: 100,
		Seed:              1,
		AggregateFraction: 0.55,
		AirVoidFraction:   0.05,
		MinRadius:         2,
		MaxRadius:         7,
		VoidRadius:        1.5,
		MaxAttempts:       20000,
	}
}

// Generate builds a deterministic synthetic volume for the given seed.
func Generate(opts GenerateOptions) (*Volume, error) {
	if opts.AggregateFraction < 0 || opts.AirVoidFraction < 0 || opts.AggregateFraction+opts.AirVoidFraction > 1 {
		return nil, fmt.Errorf("%w: fractions aggregate=%g air_void=%g", mixture.ErrInvalidParameter,
			opts.AggregateFraction, opts.AirVoidFraction)
	}
	if opts.MinRadius <= 0 || opts.MaxRadius < opts.MinRadius || opts.VoidRadius <= 0 {
		return nil, fmt.Errorf("%w: radii min=%g max=%g void=%g", mixture.ErrInvalidParameter,
			opts.MinRadius, opts.MaxRadius, opts.VoidRadius)
	}

	v, err := New(opts.NX, opts.NY, opts.NZ)
	if err != nil {
		return nil, err
	}
	for i := range v.data {
		v.data[i] = uint8(mixture.Mastic)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	total := float64(len(v.data))

	filled := 0
	for i := 0; i < opts.MaxAttempts && float64(filled)/total < opts.AggregateFraction; i++ {
		r := opts.MinRadius + rng.Float64()*(opts.MaxRadius-opts.MinRadius)
		filled += v.sphere(rng, r, mixture.Mastic, mixture.Aggregate)
	}

	voids := 0
	for i := 0; i < opts.MaxAttempts && float64(voids)/total < opts.AirVoidFraction; i++ {
		voids += v.sphere(rng, opts.VoidRadius, mixture.Mastic, mixture.AirVoid)
	}

	return v, nil
}

// sphere relabels voxels equal to from within a random ball to to and
// returns how many changed.
func (v *Volume) sphere(rng *rand.Rand, r float64, from, to mixture.Category) int {
	cx := rng.Float64() * float64(v.nx)
	cy := rng.Float64() * float64(v.ny)
	cz := rng.Float64() * float64(v.nz)
	ri := int(math.Ceil(r))
	r2 := r * r

	changed := 0
	for z := int(cz) - ri; z <= int(cz)+ri; z++ {
		if z < 0 || z >= v.nz {
			continue
		}
		for y := int(cy) - ri; y <= int(cy)+ri; y++ {
			if y < 0 || y >= v.ny {
				continue
			}
			for x := int(cx) - ri; x <= int(cx)+ri; x++ {
				if x < 0 || x >= v.nx {
					continue
				}
				dx, dy, dz := float64(x)+0.5-cx, float64(y)+0.5-cy, float64(z)+0.5-cz
				if dx*dx+dy*dy+dz*dz > r2 {
					continue
				}
				i := v.index(x, y, z)
				if v.data[i] == uint8(from) {
					v.data[i] = uint8(to)
					changed++
				}
			}
		}
	}
	return changed
}
