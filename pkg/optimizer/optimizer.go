// Package optimizer orchestrates a scaffold optimization run: analyze the
// scanned volume, diagnose it, generate a replacement with the chosen
// fabrication method, analyze that, and compare.
package optimizer

import (
	"time"

	"scaffoldstudio/internal/models"
	"scaffoldstudio/pkg/criteria"
	apperrors "scaffoldstudio/pkg/errors"
	"scaffoldstudio/pkg/generator"
	"scaffoldstudio/pkg/logging"
	"scaffoldstudio/pkg/morphology"
)

// Stage names reported in errors, logs and metrics
const (
	StageValidate          = "validate"
	StageAnalyzeOriginal   = "analyze-original"
	StageDetect            = "detect"
	StageGenerate          = "generate"
	StageAnalyzeOptimized  = "analyze-optimized"
	StageFabricationLookup = "fabrication"
)

// StageObserver receives the wall time of each completed stage
type StageObserver func(stage string, elapsed time.Duration)

// Optimizer runs the analyze / detect / generate / compare sequence.
// It holds no per-run state and may be reused.
type Optimizer struct {
	analyzer  *morphology.Analyzer
	seed      uint64
	maxVoxels int64
	logger    logging.Logger
	observe   StageObserver
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithSeed fixes the salt-leaching PRNG seed
func WithSeed(seed uint64) Option {
	return func(o *Optimizer) { o.seed = seed }
}

// WithMaxVoxels bounds the grid a target may request; non-positive disables it
func WithMaxVoxels(n int64) Option {
	return func(o *Optimizer) { o.maxVoxels = n }
}

// WithLogger sets the logger used for stage progress
func WithLogger(l logging.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStageObserver registers a callback for stage durations
func WithStageObserver(fn StageObserver) Option {
	return func(o *Optimizer) { o.observe = fn }
}

// New creates an optimizer that analyzes input volumes at voxelSizeUM
func New(voxelSizeUM float64, opts ...Option) (*Optimizer, error) {
	analyzer, err := morphology.NewAnalyzer(voxelSizeUM)
	if err != nil {
		return nil, err
	}
	o := &Optimizer{
		analyzer:  analyzer,
		seed:      generator.DefaultSeed,
		maxVoxels: models.DefaultMaxVoxels,
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("optimizer")
	return o, nil
}

// Analyze measures v at the optimizer's voxel size
func (o *Optimizer) Analyze(v *models.Volume) (models.Metrics, error) {
	return o.analyzer.Analyze(v)
}

// DetectProblems diagnoses m against the literature thresholds
func (o *Optimizer) DetectProblems(m models.Metrics) models.Problems {
	return criteria.Detect(m)
}

// Generate builds a scaffold for method using the optimizer's seed
func (o *Optimizer) Generate(params models.ScaffoldParams, method models.Method) (*models.Volume, error) {
	return generator.Generate(method, params, o.seed)
}

// Optimize runs the full sequence. Any stage failure aborts the run and is
// returned tagged with the stage name; no partial result is produced.
func (o *Optimizer) Optimize(original *models.Volume, params models.ScaffoldParams, method models.Method) (*models.OptimizationResult, error) {
	log := o.logger.With(logging.String("method", method.String()))

	if err := o.stage(log, StageValidate, func() error {
		if !method.Valid() {
			return invalidMethod(method)
		}
		if err := params.Validate(); err != nil {
			return err
		}
		return params.CheckVoxelLimit(o.maxVoxels)
	}); err != nil {
		return nil, err
	}

	var origMetrics models.Metrics
	if err := o.stage(log, StageAnalyzeOriginal, func() (err error) {
		origMetrics, err = o.analyzer.Analyze(original)
		return err
	}); err != nil {
		return nil, err
	}

	var problems models.Problems
	_ = o.stage(log, StageDetect, func() error {
		problems = criteria.Detect(origMetrics)
		for _, category := range criteria.Categories(problems) {
			log.Info("problem detected", logging.String("category", category), logging.String("detail", problems[category]))
		}
		return nil
	})

	var generated *models.Volume
	if err := o.stage(log, StageGenerate, func() (err error) {
		generated, err = generator.Generate(method, params, o.seed)
		return err
	}); err != nil {
		return nil, err
	}

	var optMetrics models.Metrics
	if err := o.stage(log, StageAnalyzeOptimized, func() error {
		// generated volumes are sampled at the design resolution
		a, err := morphology.NewAnalyzer(params.ResolutionUM)
		if err != nil {
			return err
		}
		optMetrics, err = a.Analyze(generated)
		return err
	}); err != nil {
		return nil, err
	}

	var fabrication map[string]string
	if err := o.stage(log, StageFabricationLookup, func() (err error) {
		fabrication, err = FabricationParameters(method, params)
		return err
	}); err != nil {
		return nil, err
	}

	return &models.OptimizationResult{
		OptimizedVolume:       generated,
		OriginalMetrics:       origMetrics,
		OptimizedMetrics:      optMetrics,
		ImprovementPercent:    Improvements(origMetrics, optMetrics),
		FabricationMethod:     method,
		FabricationParameters: fabrication,
		Problems:              problems,
	}, nil
}

// stage times fn, logs the outcome and tags failures with name
func (o *Optimizer) stage(log logging.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if o.observe != nil {
		o.observe(name, elapsed)
	}
	if err != nil {
		log.Error("stage failed", logging.String("stage", name), logging.Duration("elapsed", elapsed), logging.Err(err))
		return apperrors.StageFailed(name, err)
	}
	log.Debug("stage finished", logging.String("stage", name), logging.Duration("elapsed", elapsed))
	return nil
}

func invalidMethod(method models.Method) error {
	return apperrors.Newf(apperrors.CodeInvalidMethod, "unknown fabrication method %s", method)
}
