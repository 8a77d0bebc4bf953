// Package volume holds labelled 3D scan volumes of asphalt samples and cuts
// the 2D slices the simulation runs on.
package volume

import (
	"fmt"

	"github.com/san-kum/asphaltsim/internal/mixture"
)

// Volume is a labelled voxel array of shape (nx, ny, nz), stored with x
// varying fastest.
type Volume struct {
	nx, ny, nz int
	data       []uint8
}

// MaxVoxels bounds the label count of a single volume.
const MaxVoxels = 1 << 30

// voxels returns nx*ny*nz, rejecting non-positive sides and products above
// MaxVoxels without overflowing.
func voxels(nx, ny, nz int) (int, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return 0, fmt.Errorf("%w: volume shape %dx%dx%d", mixture.ErrInvalidParameter, nx, ny, nz)
	}
	if nx > MaxVoxels || ny > MaxVoxels/nx || nz > MaxVoxels/(nx*ny) {
		return 0, fmt.Errorf("%w: volume shape %dx%dx%d exceeds %d voxels", mixture.ErrInvalidParameter,
			nx, ny, nz, MaxVoxels)
	}
	return nx * ny * nz, nil
}

// New allocates a zero-filled (all air void) volume.
func New(nx, ny, nz int) (*Volume, error) {
	n, err := voxels(nx, ny, nz)
	if err != nil {
		return nil, err
	}
	return &Volume{nx: nx, ny: ny, nz: nz, data: make([]uint8, n)}, nil
}

// FromData wraps an existing label buffer. len(data) must equal nx*ny*nz.
func FromData(nx, ny, nz int, data []uint8) (*Volume, error) {
	v, err := New(nx, ny, nz)
	if err != nil {
		return nil, err
	}
	if len(data) != len(v.data) {
		return nil, fmt.Errorf("%w: %d labels for shape %dx%dx%d", mixture.ErrInvalidParameter, len(data), nx, ny, nz)
	}
	copy(v.data, data)
	return v, nil
}

func (v *Volume) Shape() (nx, ny, nz int) { return v.nx, v.ny, v.nz }

// Depth is the number of slices along the z axis.
func (v *Volume) Depth() int { return v.nz }

func (v *Volume) index(x, y, z int) int {
	return (z*v.ny+y)*v.nx + x
}

func (v *Volume) At(x, y, z int) uint8 {
	return v.data[v.index(x, y, z)]
}

func (v *Volume) Set(x, y, z int, label uint8) {
	v.data[v.index(x, y, z)] = label
}

// Slice cuts the plane at depth z and transposes it, so the result is
// indexed [y][x].
func (v *Volume) Slice(z int) ([][]int, error) {
	if z < 0 || z >= v.nz {
		return nil, &mixture.RangeError{What: "slice", Index: z, Len: v.nz}
	}
	out := make([][]int, v.ny)
	for y := range out {
		out[y] = make([]int, v.nx)
		for x := range out[y] {
			out[y][x] = int(v.At(x, y, z))
		}
	}
	return out, nil
}

// Fractions returns the share of voxels carrying each label.
func (v *Volume) Fractions() map[mixture.Category]float64 {
	counts := make(map[mixture.Category]int)
	for _, l := range v.data {
		counts[mixture.Category(l)]++
	}
	out := make(map[mixture.Category]float64, len(counts))
	for cat, n := range counts {
		out[cat] = float64(n) / float64(len(v.data))
	}
	return out
}
