package models

// Metrics are the four morphological measures of a scaffold volume.
// They are recomputed for every volume and never updated in place.
type Metrics struct {
	// Porosity is the pore voxel fraction in [0, 1]
	Porosity float64 `json:"porosity"`

	// MeanPoreSizeUM is the distance-transform pore diameter in micrometres
	MeanPoreSizeUM float64 `json:"mean_pore_size_um"`

	// Interconnectivity is the largest connected pore region over all pore voxels
	Interconnectivity float64 `json:"interconnectivity"`

	// Tortuosity is the analytic path-length estimate, at least 1
	Tortuosity float64 `json:"tortuosity"`
}

// Improvements holds per-metric percentage changes keyed by metric JSON name
type Improvements map[string]float64

// Problems maps a metric category to a human-readable description
type Problems map[string]string
