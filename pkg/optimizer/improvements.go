package optimizer

import "scaffoldstudio/internal/models"

// Improvements computes signed percentage changes from orig to opt. For
// tortuosity lower is better, so the change is measured as a reduction.
// A zero original value yields 0 rather than dividing by zero.
func Improvements(orig, opt models.Metrics) models.Improvements {
	return models.Improvements{
		"porosity":          percentChange(orig.Porosity, opt.Porosity),
		"mean_pore_size_um": percentChange(orig.MeanPoreSizeUM, opt.MeanPoreSizeUM),
		"interconnectivity": percentChange(orig.Interconnectivity, opt.Interconnectivity),
		"tortuosity":        percentReduction(orig.Tortuosity, opt.Tortuosity),
	}
}

func percentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

func percentReduction(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (from - to) / from * 100
}
