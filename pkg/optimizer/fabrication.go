package optimizer

import (
	"fmt"

	"scaffoldstudio/internal/models"
)

// FabricationParameters returns the process settings for method, derived
// from the design targets. The keys are stable and appear in reports.
func FabricationParameters(method models.Method, p models.ScaffoldParams) (map[string]string, error) {
	switch method {
	case models.FreezeCasting:
		return map[string]string{
			"freezing_rate": "1-10 °C/min",
			"ice_template":  "Directional (bottom-up)",
			"porogen":       "Ice crystals (aligned)",
			"post_process":  "Lyophilization",
		}, nil
	case models.Bioprinting:
		return map[string]string{
			"nozzle_size":  fmt.Sprintf("%.0f µm", p.PoreSizeTargetUM*0.3),
			"layer_height": fmt.Sprintf("%.0f µm", p.PoreSizeTargetUM),
			"pattern":      "Orthogonal 0°/90° alternating",
			"material":     "PCL or Alginate bioink",
		}, nil
	case models.SaltLeaching:
		return map[string]string{
			"salt_particle_size": fmt.Sprintf("%.0f µm", p.PoreSizeTargetUM),
			"salt_fraction":      fmt.Sprintf("%.0f%% weight", p.PorosityTarget*100),
			"leaching_time":      "24-48 hours",
			"solvent":            "Distilled water",
		}, nil
	}
	return nil, invalidMethod(method)
}
