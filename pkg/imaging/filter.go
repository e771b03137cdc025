package imaging

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianKernel returns normalised 1D weights truncated at 4 sigma
func GaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	n := distuv.Normal{Mu: 0, Sigma: sigma}
	k := make([]float64, 2*radius+1)
	for i := range k {
		k[i] = n.Prob(float64(i - radius))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// reflectIndex mirrors i into [0, n) including the edge sample (d c b a | a b c d)
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// GaussianFilter blurs a width*height*depth grid with an isotropic
// Gaussian of the given sigma, applied separably along X, Y and Z with
// reflected borders. Non-positive sigma returns a copy.
func GaussianFilter(data []float64, width, height, depth int, sigma float64) []float64 {
	out := append([]float64(nil), data...)
	if sigma <= 0 {
		return out
	}
	kernel := GaussianKernel(sigma)
	radius := len(kernel) / 2

	maxLen := int(math.Max(float64(width), math.Max(float64(height), float64(depth))))
	line := make([]float64, maxLen)

	pass := func(n, count int, at func(l, i int) int) {
		for l := 0; l < count; l++ {
			for i := 0; i < n; i++ {
				line[i] = out[at(l, i)]
			}
			for i := 0; i < n; i++ {
				sum := 0.0
				for k, w := range kernel {
					sum += w * line[reflectIndex(i+k-radius, n)]
				}
				out[at(l, i)] = sum
			}
		}
	}

	plane := width * height
	pass(width, height*depth, func(l, i int) int { return l*width + i })
	if height > 1 {
		pass(height, width*depth, func(l, i int) int {
			z, x := l/width, l%width
			return z*plane + i*width + x
		})
	}
	if depth > 1 {
		pass(depth, plane, func(l, i int) int { return i*plane + l })
	}
	return out
}
