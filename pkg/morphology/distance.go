package morphology

import "math"

// far stands in for infinity inside the lower-envelope pass; Inf would turn
// the parabola intersections into NaN.
const far = 1e20

// DistanceTransform computes the exact Euclidean distance (in voxels) from
// every foreground voxel of mask to the nearest background voxel. Background
// voxels get 0. The second return value is false when mask contains no
// background at all, in which case the distances are meaningless.
//
// The transform is separable: a 1D squared-distance pass of the
// Felzenszwalb-Huttenlocher lower envelope is run along X, then Y, then Z.
func DistanceTransform(mask []bool, width, height, depth int) ([]float64, bool) {
	n := width * height * depth
	dist := make([]float64, n)
	hasBackground := false
	for i, fg := range mask {
		if fg {
			dist[i] = far
		} else {
			hasBackground = true
		}
	}
	if !hasBackground {
		return dist, false
	}

	maxLen := width
	if height > maxLen {
		maxLen = height
	}
	if depth > maxLen {
		maxLen = depth
	}
	line := make([]float64, maxLen)
	out := make([]float64, maxLen)
	v := make([]int, maxLen)
	z := make([]float64, maxLen+1)

	plane := width * height

	// X
	for zz := 0; zz < depth; zz++ {
		for y := 0; y < height; y++ {
			base := zz*plane + y*width
			copy(line[:width], dist[base:base+width])
			envelope(line[:width], out[:width], v, z)
			copy(dist[base:base+width], out[:width])
		}
	}

	// Y
	if height > 1 {
		for zz := 0; zz < depth; zz++ {
			for x := 0; x < width; x++ {
				base := zz*plane + x
				for y := 0; y < height; y++ {
					line[y] = dist[base+y*width]
				}
				envelope(line[:height], out[:height], v, z)
				for y := 0; y < height; y++ {
					dist[base+y*width] = out[y]
				}
			}
		}
	}

	// Z
	if depth > 1 {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				base := y*width + x
				for zz := 0; zz < depth; zz++ {
					line[zz] = dist[base+zz*plane]
				}
				envelope(line[:depth], out[:depth], v, z)
				for zz := 0; zz < depth; zz++ {
					dist[base+zz*plane] = out[zz]
				}
			}
		}
	}

	for i := range dist {
		dist[i] = math.Sqrt(dist[i])
	}
	return dist, true
}

// envelope is the 1D squared distance transform of sampled function f.
// v and z are scratch buffers of at least len(f) and len(f)+1 entries.
func envelope(f, d []float64, v []int, z []float64) {
	n := len(f)
	if n == 0 {
		return
	}
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		fq := f[q] + float64(q*q)
		s := (fq - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		for s <= z[k] {
			k--
			s = (fq - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}
