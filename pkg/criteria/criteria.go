// Package criteria flags scaffold metrics that fall outside the ranges
// reported for bone tissue engineering.
package criteria

import (
	"fmt"
	"sort"

	"scaffoldstudio/internal/models"
)

// Problem categories, named after the metric they concern
const (
	CategoryPoreSize          = "pore_size"
	CategoryPorosity          = "porosity"
	CategoryInterconnectivity = "interconnectivity"
	CategoryTortuosity        = "tortuosity"
)

// Literature thresholds
const (
	MinPoreSizeUM        = 100.0
	MaxPoreSizeUM        = 200.0
	MinPorosity          = 0.90
	MaxPorosity          = 0.95
	MinInterconnectivity = 0.90
	MaxTortuosity        = 1.2
)

// Detect compares m against the thresholds and describes every violation.
// A metric exactly on a boundary passes.
func Detect(m models.Metrics) models.Problems {
	problems := models.Problems{}

	if m.MeanPoreSizeUM < MinPoreSizeUM {
		problems[CategoryPoreSize] = fmt.Sprintf("TOO SMALL (%.1f µm < %.0f µm) - cell migration limited", m.MeanPoreSizeUM, MinPoreSizeUM)
	} else if m.MeanPoreSizeUM > MaxPoreSizeUM {
		problems[CategoryPoreSize] = fmt.Sprintf("TOO LARGE (%.1f µm > %.0f µm) - mechanical weakness", m.MeanPoreSizeUM, MaxPoreSizeUM)
	}

	if m.Porosity < MinPorosity {
		problems[CategoryPorosity] = fmt.Sprintf("TOO LOW (%.1f%% < %.0f%%) - limited vascularization", m.Porosity*100, MinPorosity*100)
	} else if m.Porosity > MaxPorosity {
		problems[CategoryPorosity] = fmt.Sprintf("TOO HIGH (%.1f%% > %.0f%%) - weak mechanically", m.Porosity*100, MaxPorosity*100)
	}

	if m.Interconnectivity < MinInterconnectivity {
		problems[CategoryInterconnectivity] = fmt.Sprintf("LOW (%.1f%% < %.0f%%) - poor cell migration paths", m.Interconnectivity*100, MinInterconnectivity*100)
	}

	if m.Tortuosity > MaxTortuosity {
		problems[CategoryTortuosity] = fmt.Sprintf("HIGH (%.2f > %.1f) - tortuous paths slow migration", m.Tortuosity, MaxTortuosity)
	}

	return problems
}

// Categories returns the categories present in p in sorted order
func Categories(p models.Problems) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
