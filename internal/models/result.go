package models

// OptimizationResult is the immutable outcome of one optimization run
type OptimizationResult struct {
	// OptimizedVolume is the generated scaffold
	OptimizedVolume *Volume `json:"-"`

	OriginalMetrics  Metrics `json:"original_metrics"`
	OptimizedMetrics Metrics `json:"optimized_metrics"`

	// ImprovementPercent holds signed percentage changes keyed by metric name
	ImprovementPercent Improvements `json:"improvement_percent"`

	FabricationMethod     Method            `json:"fabrication_method"`
	FabricationParameters map[string]string `json:"fabrication_parameters"`

	// Problems are the issues detected on the original volume
	Problems Problems `json:"problems"`
}
