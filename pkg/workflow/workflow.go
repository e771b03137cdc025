// Package workflow runs the complete scaffold pipeline on a micrograph
// stack: segmentation, optimization, meshing, export and reporting.
package workflow

import (
	"fmt"
	"path/filepath"
	"time"

	"scaffoldstudio/internal/models"
	"scaffoldstudio/pkg/binvox"
	apperrors "scaffoldstudio/pkg/errors"
	"scaffoldstudio/pkg/imaging"
	"scaffoldstudio/pkg/logging"
	"scaffoldstudio/pkg/mechanics"
	"scaffoldstudio/pkg/mesh"
	"scaffoldstudio/pkg/optimizer"
	"scaffoldstudio/pkg/reconstruction"
	"scaffoldstudio/pkg/report"
	"scaffoldstudio/pkg/stl"
	"scaffoldstudio/pkg/visualization"
)

// Stage names used in errors and timings
const (
	StageLoad          = "load"
	StageSegment       = "segment"
	StageMeshOriginal  = "mesh-original"
	StageMeshOptimized = "mesh-optimized"
	StageExport        = "export"
	StageReport        = "report"
)

// Output file names inside Params.OutputDir
const (
	OriginalSTLName  = "original_scaffold.stl"
	OptimizedSTLName = "optimized_scaffold.stl"
	BinvoxName       = "optimized_scaffold.binvox"
	ReportName       = "optimization_report.json"
	SlicesDirName    = "slices"
)

// Params holds all parameters for one pipeline run
type Params struct {
	// InputPath is a slice directory or a single image
	InputPath string

	// OutputDir receives meshes, previews and the report
	OutputDir string

	// VoxelSizeUM is the edge length of one input voxel in micrometres
	VoxelSizeUM float64

	Quality reconstruction.Quality
	Method  models.Method
	Target  models.ScaffoldParams
	Segment imaging.SegmentOptions

	// Material is used for mechanical estimates
	Material mechanics.Material

	// Seed drives salt-leaching pore placement
	Seed uint64

	// MaxVoxels caps the generated grid, 0 for the default limit
	MaxVoxels int64

	// SkipOriginalMesh leaves the scanned scaffold out of the STL export
	SkipOriginalMesh bool

	// WriteBinvox exports the optimized volume as binvox
	WriteBinvox bool

	// SaveSlices writes PNG slice previews of the optimized volume
	SaveSlices bool
}

// MeshSummary describes an exported mesh
type MeshSummary struct {
	Path           string  `json:"path"`
	Vertices       int     `json:"vertices"`
	Faces          int     `json:"faces"`
	VolumeUM3      float64 `json:"volume_um3"`
	SurfaceAreaUM2 float64 `json:"surface_area_um2"`
}

// Result is everything a run produced
type Result struct {
	Report     *report.Report
	ReportPath string

	// Threshold is the Otsu level used to segment the input
	Threshold float64

	Original  *MeshSummary
	Optimized *MeshSummary

	// SliceCount is the number of preview images written
	SliceCount int

	Elapsed time.Duration
}

// Workflow executes Params once. It is not safe for concurrent use.
type Workflow struct {
	params  *Params
	logger  logging.Logger
	observe optimizer.StageObserver
}

// Option configures a Workflow
type Option func(*Workflow)

// WithLogger sets the progress logger
func WithLogger(l logging.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithStageObserver receives the duration of every pipeline and optimizer stage
func WithStageObserver(fn optimizer.StageObserver) Option {
	return func(w *Workflow) { w.observe = fn }
}

// New creates a workflow for params
func New(params *Params, opts ...Option) *Workflow {
	w := &Workflow{params: params, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("workflow")
	return w
}

// Process runs the pipeline.
//
// The process consists of several steps:
// 1. Loading the slice stack
// 2. Segmenting it into a binary volume
// 3. Optimizing: analyze, detect, generate, re-analyze
// 4. Meshing the original and optimized volumes and writing STL files
// 5. Optional binvox and slice preview export
// 6. Writing the JSON report with mechanical estimates
func (w *Workflow) Process() (*Result, error) {
	p := w.params
	start := time.Now()
	res := &Result{}

	// Step 1-2: input
	original, threshold, err := w.loadVolume()
	if err != nil {
		return nil, err
	}
	res.Threshold = threshold

	// Step 3: optimization
	maxVoxels := p.MaxVoxels
	if maxVoxels == 0 {
		maxVoxels = models.DefaultMaxVoxels
	}
	opt, err := optimizer.New(p.VoxelSizeUM,
		optimizer.WithSeed(p.Seed),
		optimizer.WithMaxVoxels(maxVoxels),
		optimizer.WithLogger(w.logger),
		optimizer.WithStageObserver(w.observe))
	if err != nil {
		return nil, err
	}
	result, err := opt.Optimize(original, p.Target, p.Method)
	if err != nil {
		// already tagged with the optimizer stage
		return nil, err
	}

	// Step 4: meshes
	files := report.Files{}
	if !p.SkipOriginalMesh {
		if err := w.stage(StageMeshOriginal, func() (err error) {
			res.Original, err = ExportMesh(original, p.VoxelSizeUM, p.Quality,
				filepath.Join(p.OutputDir, OriginalSTLName), w.logger)
			return err
		}); err != nil {
			return nil, err
		}
		files.OriginalSTL = res.Original.Path
	}
	if err := w.stage(StageMeshOptimized, func() (err error) {
		res.Optimized, err = ExportMesh(result.OptimizedVolume, p.Target.ResolutionUM, p.Quality,
			filepath.Join(p.OutputDir, OptimizedSTLName), w.logger)
		return err
	}); err != nil {
		return nil, err
	}
	files.OptimizedSTL = res.Optimized.Path

	// Step 5: optional artifacts
	if err := w.stage(StageExport, func() error {
		if p.WriteBinvox {
			path := filepath.Join(p.OutputDir, BinvoxName)
			if err := binvox.Write(path, result.OptimizedVolume, p.Target.ResolutionUM); err != nil {
				return err
			}
			files.Binvox = path
		}
		if p.SaveSlices {
			viewer := visualization.NewViewer(result.OptimizedVolume, p.Target.ResolutionUM)
			n, err := viewer.SaveAllAxes(filepath.Join(p.OutputDir, SlicesDirName))
			res.SliceCount = n
			return err
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Step 6: report
	if err := w.stage(StageReport, func() error {
		res.Report = report.Build(result, p.Material, files, time.Now())
		res.ReportPath = filepath.Join(p.OutputDir, ReportName)
		return report.Save(res.ReportPath, res.Report)
	}); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	w.logger.Info("workflow complete",
		logging.String("report", res.ReportPath),
		logging.Duration("elapsed", res.Elapsed))
	return res, nil
}

// loadVolume runs the load and segment stages
func (w *Workflow) loadVolume() (*models.Volume, float64, error) {
	var stack *imaging.GrayStack
	if err := w.stage(StageLoad, func() (err error) {
		stack, err = imaging.LoadStack(w.params.InputPath)
		return err
	}); err != nil {
		return nil, 0, err
	}
	w.logger.Info("stack loaded",
		logging.Int("width", stack.Width),
		logging.Int("height", stack.Height),
		logging.Int("slices", stack.Depth))

	var v *models.Volume
	var threshold float64
	if err := w.stage(StageSegment, func() (err error) {
		v, threshold, err = imaging.Segment(stack, w.params.Segment)
		return err
	}); err != nil {
		return nil, 0, err
	}
	w.logger.Info("stack segmented",
		logging.Float64("threshold", threshold),
		logging.Float64("solid_fraction", v.SolidFraction()))
	return v, threshold, nil
}

// stage times fn and tags its failure with name
func (w *Workflow) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if w.observe != nil {
		w.observe(name, elapsed)
	}
	if err != nil {
		w.logger.Error("stage failed", logging.String("stage", name), logging.Err(err))
		return apperrors.StageFailed(name, err)
	}
	w.logger.Debug("stage finished", logging.String("stage", name), logging.Duration("elapsed", elapsed))
	return nil
}

// LoadVolume reads and segments the stack at path
func LoadVolume(path string, opts imaging.SegmentOptions, logger logging.Logger) (*models.Volume, float64, error) {
	w := New(&Params{InputPath: path, Segment: opts}, WithLogger(logger))
	return w.loadVolume()
}

// ExportMesh reconstructs v and writes it as binary STL to filename
func ExportMesh(v *models.Volume, voxelSizeUM float64, quality reconstruction.Quality, filename string, logger logging.Logger) (*MeshSummary, error) {
	r, err := reconstruction.NewReconstructor(voxelSizeUM, quality, logger)
	if err != nil {
		return nil, err
	}
	m, err := r.Process(v)
	if err != nil {
		return nil, err
	}
	if err := stl.SaveMesh(filename, m); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIO, "failed to write STL").WithDetail(filename)
	}
	return Summarize(filename, m), nil
}

// Summarize measures m
func Summarize(path string, m *mesh.Mesh) *MeshSummary {
	return &MeshSummary{
		Path:           path,
		Vertices:       m.NumVertices(),
		Faces:          m.NumFaces(),
		VolumeUM3:      m.Volume(),
		SurfaceAreaUM2: m.SurfaceArea(),
	}
}

func (s *MeshSummary) String() string {
	return fmt.Sprintf("%s: %d vertices, %d faces, volume %.4g µm³, area %.4g µm²",
		s.Path, s.Vertices, s.Faces, s.VolumeUM3, s.SurfaceAreaUM2)
}
