package imaging

// otsuBins is the histogram resolution used for threshold selection
const otsuBins = 256

// OtsuThreshold picks the grey level that maximises between-class variance
// over a 256-bin histogram spanning the data range. Samples strictly above
// the returned value form the foreground. Constant data returns its value.
func OtsuThreshold(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return lo
	}

	width := (hi - lo) / otsuBins
	var hist [otsuBins]int
	for _, v := range data {
		b := int((v - lo) / width)
		if b >= otsuBins {
			b = otsuBins - 1
		}
		hist[b]++
	}

	total := len(data)
	var sum float64
	for i := 0; i < otsuBins; i++ {
		sum += float64(i) * float64(hist[i])
	}

	var sumB, maxVar float64
	var wB int
	best := 0
	for t := 0; t < otsuBins; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)

		variance := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if variance > maxVar {
			maxVar = variance
			best = t
		}
	}

	// upper edge of the last background bin
	return lo + float64(best+1)*width
}
