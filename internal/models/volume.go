package models

// Volume is a binary voxel grid. True marks solid scaffold material and
// false marks pore space. A Depth of 1 denotes a single 2D slice.
//
// The voxel edge length in micrometres is not stored here; analysis and
// meshing take it as a separate argument.
type Volume struct {
	// Data holds the voxels in row-major order: z*Width*Height + y*Width + x
	Data []bool

	// Width is the extent along X in voxels
	Width int

	// Height is the extent along Y in voxels
	Height int

	// Depth is the extent along Z in voxels
	Depth int
}

// NewVolume allocates an all-pore volume of the given shape
func NewVolume(width, height, depth int) *Volume {
	return &Volume{
		Data:   make([]bool, width*height*depth),
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// NewFilledVolume allocates a volume with every voxel set to solid
func NewFilledVolume(width, height, depth int, solid bool) *Volume {
	v := NewVolume(width, height, depth)
	if solid {
		for i := range v.Data {
			v.Data[i] = true
		}
	}
	return v
}

// Index converts voxel coordinates to an offset into Data
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// At reports whether the voxel at (x, y, z) is solid
func (v *Volume) At(x, y, z int) bool {
	return v.Data[v.Index(x, y, z)]
}

// Set assigns the voxel at (x, y, z)
func (v *Volume) Set(x, y, z int, solid bool) {
	v.Data[v.Index(x, y, z)] = solid
}

// Len returns the total voxel count
func (v *Volume) Len() int {
	return v.Width * v.Height * v.Depth
}

// Is2D reports whether the volume is a single slice
func (v *Volume) Is2D() bool {
	return v.Depth == 1
}

// SolidCount returns the number of solid voxels
func (v *Volume) SolidCount() int {
	n := 0
	for _, s := range v.Data {
		if s {
			n++
		}
	}
	return n
}

// SolidFraction returns solid voxels over total voxels, 0 for an empty grid
func (v *Volume) SolidFraction() float64 {
	if v.Len() == 0 {
		return 0
	}
	return float64(v.SolidCount()) / float64(v.Len())
}

// PoreMask returns the logical negation of the volume
func (v *Volume) PoreMask() []bool {
	mask := make([]bool, len(v.Data))
	for i, s := range v.Data {
		mask[i] = !s
	}
	return mask
}

// Clone returns a deep copy
func (v *Volume) Clone() *Volume {
	c := &Volume{
		Data:   make([]bool, len(v.Data)),
		Width:  v.Width,
		Height: v.Height,
		Depth:  v.Depth,
	}
	copy(c.Data, v.Data)
	return c
}

// Float64 casts the volume to 1.0 (solid) / 0.0 (pore) samples in the same order
func (v *Volume) Float64() []float64 {
	out := make([]float64, len(v.Data))
	for i, s := range v.Data {
		if s {
			out[i] = 1
		}
	}
	return out
}
