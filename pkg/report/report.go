// Package report assembles and writes the JSON summary of an optimization run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"scaffoldstudio/internal/models"
	"scaffoldstudio/pkg/mechanics"
)

// Files lists the artifacts written alongside the report
type Files struct {
	OriginalSTL  string `json:"original_stl,omitempty"`
	OptimizedSTL string `json:"optimized_stl,omitempty"`
	Binvox       string `json:"binvox,omitempty"`
}

// Mechanics holds predicted properties for both scaffolds. A side is nil
// when its metrics fall outside the estimator's domain.
type Mechanics struct {
	Original  *mechanics.Properties `json:"original,omitempty"`
	Optimized *mechanics.Properties `json:"optimized,omitempty"`
}

// Report is the on-disk summary. Metric keys match models.Metrics.
type Report struct {
	Timestamp             time.Time           `json:"timestamp"`
	OriginalMetrics       models.Metrics      `json:"original_metrics"`
	OptimizedMetrics      models.Metrics      `json:"optimized_metrics"`
	ImprovementPercent    models.Improvements `json:"improvement_percent"`
	FabricationMethod     models.Method       `json:"fabrication_method"`
	FabricationParameters map[string]string   `json:"fabrication_parameters"`
	Problems              models.Problems     `json:"problems"`
	Mechanics             Mechanics           `json:"mechanics"`
	Files                 Files               `json:"files"`
}

// Build creates a report from an optimization result. Mechanics are
// estimated with material for each side where the estimator accepts the
// metrics.
func Build(result *models.OptimizationResult, material mechanics.Material, files Files, now time.Time) *Report {
	r := &Report{
		Timestamp:             now.UTC(),
		OriginalMetrics:       result.OriginalMetrics,
		OptimizedMetrics:      result.OptimizedMetrics,
		ImprovementPercent:    result.ImprovementPercent,
		FabricationMethod:     result.FabricationMethod,
		FabricationParameters: result.FabricationParameters,
		Problems:              result.Problems,
		Files:                 files,
	}
	if r.Problems == nil {
		r.Problems = models.Problems{}
	}
	if r.ImprovementPercent == nil {
		r.ImprovementPercent = models.Improvements{}
	}
	if p, err := mechanics.FromMetrics(result.OriginalMetrics, material); err == nil {
		r.Mechanics.Original = &p
	}
	if p, err := mechanics.FromMetrics(result.OptimizedMetrics, material); err == nil {
		r.Mechanics.Optimized = &p
	}
	return r
}

// Write encodes r as JSON indented by two spaces
func Write(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Save writes r to filename, creating parent directories
func Save(filename string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating report directory: %w", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	if err := Write(f, r); err != nil {
		f.Close()
		return fmt.Errorf("error writing report: %w", err)
	}
	return f.Close()
}

// Load reads a report written by Save
func Load(filename string) (*Report, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("error parsing report: %w", err)
	}
	return &r, nil
}
