// Package mechanics estimates mechanical and transport properties of a
// porous scaffold from its relative density using the Gibson-Ashby
// open-cell relations.
package mechanics

import (
	"fmt"
	"math"

	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
)

// PermeabilityScale converts the dimensionless flow proxy to Darcy units.
// The result is an order-of-magnitude figure, not a Kozeny-Carman solution.
const PermeabilityScale = 1e-10

// Material is the bulk solid the scaffold is made from
type Material struct {
	Name        string  `json:"name" yaml:"name" mapstructure:"name"`
	ModulusMPa  float64 `json:"modulus_MPa" yaml:"modulusMPa" mapstructure:"modulusMPa"`
	StrengthMPa float64 `json:"strength_MPa" yaml:"strengthMPa" mapstructure:"strengthMPa"`
}

// PCL is polycaprolactone, the reference scaffold polymer
var PCL = Material{Name: "PCL", ModulusMPa: 400, StrengthMPa: 16}

// DefaultMaterial returns the material used when none is configured
func DefaultMaterial() Material { return PCL }

// Properties are the predicted bulk properties of a scaffold
type Properties struct {
	ElasticModulusMPa float64 `json:"elastic_modulus_MPa"`
	YieldStrengthMPa  float64 `json:"yield_strength_MPa"`
	PermeabilityDarcy float64 `json:"permeability_darcy"`
	RelativeDensity   float64 `json:"relative_density"`
}

// Estimate evaluates the closed-form relations. Porosity must lie in (0, 1),
// tortuosity must be positive and relative density must lie in [0, 1].
func Estimate(relativeDensity, porosity, tortuosity float64, material Material) (Properties, error) {
	switch {
	case math.IsNaN(relativeDensity) || relativeDensity < 0 || relativeDensity > 1:
		return Properties{}, apperrors.InvalidParam("relative density must lie in [0, 1]").
			WithDetail(formatValue("relative_density", relativeDensity))
	case math.IsNaN(porosity) || porosity <= 0 || porosity >= 1:
		return Properties{}, apperrors.InvalidParam("porosity must lie in (0, 1)").
			WithDetail(formatValue("porosity", porosity))
	case math.IsNaN(tortuosity) || tortuosity <= 0:
		return Properties{}, apperrors.InvalidParam("tortuosity must be positive").
			WithDetail(formatValue("tortuosity", tortuosity))
	case material.ModulusMPa <= 0 || material.StrengthMPa <= 0:
		return Properties{}, apperrors.InvalidParam("material modulus and strength must be positive").
			WithDetail(material.Name)
	}

	relModulus := relativeDensity * relativeDensity
	relStrength := 0.3 * math.Pow(relativeDensity, 1.5)
	solid := 1 - porosity

	return Properties{
		ElasticModulusMPa: relModulus * material.ModulusMPa,
		YieldStrengthMPa:  relStrength * material.StrengthMPa,
		PermeabilityDarcy: porosity * porosity * porosity / (tortuosity * solid * solid) * PermeabilityScale,
		RelativeDensity:   relativeDensity,
	}, nil
}

// FromMetrics estimates properties from analyzer output, using the solid
// fraction 1 - porosity as relative density
func FromMetrics(m models.Metrics, material Material) (Properties, error) {
	return Estimate(1-m.Porosity, m.Porosity, m.Tortuosity, material)
}

func formatValue(name string, v float64) string {
	return fmt.Sprintf("%s=%g", name, v)
}
