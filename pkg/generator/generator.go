// Package generator synthesizes scaffold volumes for each fabrication method.
// Every generator returns a fresh volume of exactly ScaffoldParams.GridSize().
package generator

import (
	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
)

// DefaultSeed seeds the salt-leaching generator when the caller has no preference
const DefaultSeed uint64 = 42

// Generate builds a volume for method from params. An unknown method is an
// error and never yields a partial volume.
func Generate(method models.Method, params models.ScaffoldParams, seed uint64) (*models.Volume, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	switch method {
	case models.FreezeCasting:
		return FreezeCast(params), nil
	case models.Bioprinting:
		return Bioprint(params), nil
	case models.SaltLeaching:
		return SaltLeach(params, seed), nil
	default:
		return nil, apperrors.Newf(apperrors.CodeInvalidMethod, "unknown fabrication method %s", method)
	}
}
