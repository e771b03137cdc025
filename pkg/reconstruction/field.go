package reconstruction

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// voxelField presents a sampled occupancy grid as an sdf.SDF3 so the sdfx
// marching cubes renderer can polygonise it. Samples sit at integer voxel
// coordinates and everything outside the grid is empty, so surfaces touching
// the grid border still close.
//
// The uniform renderer grows the bounding box by one cell and re-centres it,
// which puts its first sample half a cell below the box minimum. The box is
// sized in whole cells and every query is shifted by that half cell, so the
// renderer evaluates the grid exactly at voxel centres -step, 0, step, ...
//
// Evaluate returns level minus the trilinearly interpolated occupancy:
// negative inside the material, positive outside. It is not a true distance,
// but marching cubes only relies on sign and linear interpolation.
type voxelField struct {
	data          []float64
	width, height int
	depth         int
	level         float64
	step          int
}

func newVoxelField(data []float64, width, height, depth int, level float64, step int) *voxelField {
	if step < 1 {
		step = 1
	}
	return &voxelField{data: data, width: width, height: height, depth: depth, level: level, step: step}
}

// cellsAlong is the number of marching cells spanning n voxels
func (f *voxelField) cellsAlong(n int) int {
	return (n + f.step - 1) / f.step
}

// cells is the mesh resolution to hand to render.NewMarchingCubesUniform
func (f *voxelField) cells() int {
	return max(f.cellsAlong(f.width), f.cellsAlong(f.height), f.cellsAlong(f.depth))
}

// BoundingBox implements sdf.SDF3
func (f *voxelField) BoundingBox() sdf.Box3 {
	s := float64(f.step)
	return sdf.Box3{
		Min: v3.Vec{},
		Max: v3.Vec{
			X: float64(f.cellsAlong(f.width)) * s,
			Y: float64(f.cellsAlong(f.height)) * s,
			Z: float64(f.cellsAlong(f.depth)) * s,
		},
	}
}

// toVoxel maps a renderer position to voxel coordinates
func (f *voxelField) toVoxel(p v3.Vec) v3.Vec {
	half := float64(f.step) / 2
	return v3.Vec{X: p.X - half, Y: p.Y - half, Z: p.Z - half}
}

// Evaluate implements sdf.SDF3
func (f *voxelField) Evaluate(p v3.Vec) float64 {
	q := f.toVoxel(p)
	return f.level - f.sample(q.X, q.Y, q.Z)
}

func (f *voxelField) at(x, y, z int) float64 {
	if x < 0 || y < 0 || z < 0 || x >= f.width || y >= f.height || z >= f.depth {
		return 0
	}
	return f.data[z*f.width*f.height+y*f.width+x]
}

// sample interpolates the occupancy at a continuous voxel position
func (f *voxelField) sample(x, y, z float64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	tx, ty, tz := x-x0, y-y0, z-z0
	ix, iy, iz := int(x0), int(y0), int(z0)

	c00 := lerp(f.at(ix, iy, iz), f.at(ix+1, iy, iz), tx)
	c10 := lerp(f.at(ix, iy+1, iz), f.at(ix+1, iy+1, iz), tx)
	c01 := lerp(f.at(ix, iy, iz+1), f.at(ix+1, iy, iz+1), tx)
	c11 := lerp(f.at(ix, iy+1, iz+1), f.at(ix+1, iy+1, iz+1), tx)

	c0 := lerp(c00, c10, ty)
	c1 := lerp(c01, c11, ty)
	return lerp(c0, c1, tz)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
