package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scaffoldstudio/internal/models"
	"scaffoldstudio/pkg/criteria"
	apperrors "scaffoldstudio/pkg/errors"
	"scaffoldstudio/pkg/imaging"
	"scaffoldstudio/pkg/logging"
	"scaffoldstudio/pkg/mechanics"
	"scaffoldstudio/pkg/morphology"
	"scaffoldstudio/pkg/reconstruction"
	"scaffoldstudio/pkg/report"
	"scaffoldstudio/pkg/workflow"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// writeError maps err onto its HTTP status. Server-side failures are
// logged and masked.
func (s *Server) writeError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := apperrors.HTTPStatusForCode(code)
	resp := ErrorResponse{Code: code.String(), Message: err.Error(), Stage: apperrors.GetStage(err)}
	if status >= 500 {
		s.logger.Error("request error", logging.Err(err))
		resp.Message = "internal server error"
	}
	c.AbortWithStatusJSON(status, resp)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.version,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
	})
}

// UploadResponse identifies a stored slice stack
type UploadResponse struct {
	UploadID string   `json:"upload_id"`
	Files    []string `json:"files"`
}

// upload stores the multipart "files" field under a fresh upload id
func (s *Server) upload(c *gin.Context) {
	if limit := s.cfg.Server.MaxUploadMB; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit<<20)
	}
	form, err := c.MultipartForm()
	if err != nil {
		s.writeError(c, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid multipart form"))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		s.writeError(c, apperrors.InvalidParam("no files uploaded").WithDetail(`use the "files" form field`))
		return
	}

	id := uuid.New().String()
	dir := filepath.Join(s.cfg.Server.UploadDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.writeError(c, apperrors.Wrap(err, apperrors.CodeIO, "failed to create upload directory"))
		return
	}

	names := make([]string, 0, len(headers))
	for _, fh := range headers {
		name := filepath.Base(fh.Filename)
		if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, "..") {
			s.writeError(c, apperrors.InvalidParam("invalid file name").WithDetail(fh.Filename))
			return
		}
		if err := c.SaveUploadedFile(fh, filepath.Join(dir, name)); err != nil {
			s.writeError(c, apperrors.Wrap(err, apperrors.CodeIO, "failed to store upload").WithDetail(name))
			return
		}
		names = append(names, name)
	}

	s.logger.Info("upload stored", logging.String("upload_id", id), logging.Int("files", len(names)))
	c.JSON(http.StatusCreated, UploadResponse{UploadID: id, Files: names})
}

// uploadDir resolves an upload id to its directory. Only well-formed ids
// are accepted so the id can never escape the upload root.
func (s *Server) uploadDir(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.InvalidParam("malformed upload id").WithDetail(id)
	}
	dir := filepath.Join(s.cfg.Server.UploadDir, id)
	if _, err := os.Stat(dir); err != nil {
		return "", apperrors.New(apperrors.CodeNotFound, "upload not found").WithDetail(id)
	}
	return dir, nil
}

// AnalyzeRequest selects an upload and the segmentation settings
type AnalyzeRequest struct {
	UploadID    string                  `json:"upload_id" binding:"required"`
	VoxelSizeUM float64                 `json:"voxel_size_um"`
	Segment     *imaging.SegmentOptions `json:"segment"`
}

// AnalyzeResponse reports metrics, diagnosed problems and property estimates
type AnalyzeResponse struct {
	Dimensions [3]int                `json:"dimensions"`
	Threshold  float64               `json:"threshold"`
	Metrics    models.Metrics        `json:"metrics"`
	Problems   models.Problems       `json:"problems"`
	Mechanics  *mechanics.Properties `json:"mechanics,omitempty"`
}

func (s *Server) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid request body"))
		return
	}

	resp, err := s.runAnalyze(req)
	s.metrics.ObserveRun("analyze", err)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) runAnalyze(req AnalyzeRequest) (*AnalyzeResponse, error) {
	dir, err := s.uploadDir(req.UploadID)
	if err != nil {
		return nil, err
	}
	voxel := s.voxelSize(req.VoxelSizeUM)
	v, threshold, err := workflow.LoadVolume(dir, s.segmentOptions(req.Segment), s.logger)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	analyzer, err := morphology.NewAnalyzer(voxel)
	if err != nil {
		return nil, err
	}
	m, err := analyzer.Analyze(v)
	if err != nil {
		return nil, apperrors.StageFailed("analyze", err)
	}
	s.metrics.ObserveStage("analyze", time.Since(start))

	resp := &AnalyzeResponse{
		Dimensions: [3]int{v.Width, v.Height, v.Depth},
		Threshold:  threshold,
		Metrics:    m,
		Problems:   criteria.Detect(m),
	}
	if p, err := mechanics.FromMetrics(m, s.cfg.Material); err == nil {
		resp.Mechanics = &p
	}
	return resp, nil
}

// OptimizeRequest runs the full pipeline on an upload. Zero values fall
// back to the server configuration.
type OptimizeRequest struct {
	UploadID    string                  `json:"upload_id" binding:"required"`
	VoxelSizeUM float64                 `json:"voxel_size_um"`
	Method      string                  `json:"method"`
	Quality     string                  `json:"quality"`
	Target      *models.ScaffoldParams  `json:"target"`
	Segment     *imaging.SegmentOptions `json:"segment"`
	Seed        *uint64                 `json:"seed"`
	WriteBinvox bool                    `json:"write_binvox"`
}

// OptimizeResponse carries the run id and the written report
type OptimizeResponse struct {
	RunID     string                `json:"run_id"`
	Report    *report.Report        `json:"report"`
	Original  *workflow.MeshSummary `json:"original_mesh,omitempty"`
	Optimized *workflow.MeshSummary `json:"optimized_mesh"`
}

func (s *Server) optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid request body"))
		return
	}

	resp, err := s.runOptimize(req)
	s.metrics.ObserveRun("optimize", err)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) runOptimize(req OptimizeRequest) (*OptimizeResponse, error) {
	dir, err := s.uploadDir(req.UploadID)
	if err != nil {
		return nil, err
	}

	method, err := models.ParseMethod(firstNonEmpty(req.Method, s.cfg.Processing.Method))
	if err != nil {
		return nil, err
	}
	quality, err := reconstruction.ParseQuality(firstNonEmpty(req.Quality, s.cfg.Processing.Quality))
	if err != nil {
		return nil, err
	}
	target := s.cfg.Target
	if req.Target != nil {
		target = *req.Target
	}
	seed := s.cfg.Processing.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	runID := uuid.New().String()
	params := &workflow.Params{
		InputPath:   dir,
		OutputDir:   filepath.Join(s.cfg.Server.OutputDir, req.UploadID, runID),
		VoxelSizeUM: s.voxelSize(req.VoxelSizeUM),
		Quality:     quality,
		Method:      method,
		Target:      target,
		Segment:     s.segmentOptions(req.Segment),
		Material:    s.cfg.Material,
		Seed:        seed,
		MaxVoxels:   s.cfg.Processing.MaxVoxels,
		WriteBinvox: req.WriteBinvox,
	}
	res, err := workflow.New(params,
		workflow.WithLogger(s.logger.With(logging.String("run_id", runID))),
		workflow.WithStageObserver(s.metrics.ObserveStage),
	).Process()
	if err != nil {
		return nil, err
	}
	return &OptimizeResponse{RunID: runID, Report: res.Report, Original: res.Original, Optimized: res.Optimized}, nil
}

// MeshRequest reconstructs the uploaded scaffold at a quality tier
type MeshRequest struct {
	UploadID    string                  `json:"upload_id" binding:"required"`
	VoxelSizeUM float64                 `json:"voxel_size_um"`
	Quality     string                  `json:"quality"`
	Segment     *imaging.SegmentOptions `json:"segment"`
}

// mesh responds with the binary STL of the uploaded scaffold
func (s *Server) mesh(c *gin.Context) {
	var req MeshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid request body"))
		return
	}

	summary, err := s.runMesh(req)
	s.metrics.ObserveRun("mesh", err)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("X-Mesh-Vertices", fmt.Sprint(summary.Vertices))
	c.Header("X-Mesh-Faces", fmt.Sprint(summary.Faces))
	c.FileAttachment(summary.Path, filepath.Base(summary.Path))
}

func (s *Server) runMesh(req MeshRequest) (*workflow.MeshSummary, error) {
	dir, err := s.uploadDir(req.UploadID)
	if err != nil {
		return nil, err
	}
	quality, err := reconstruction.ParseQuality(firstNonEmpty(req.Quality, s.cfg.Processing.Quality))
	if err != nil {
		return nil, err
	}
	v, _, err := workflow.LoadVolume(dir, s.segmentOptions(req.Segment), s.logger)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := filepath.Join(s.cfg.Server.OutputDir, req.UploadID, fmt.Sprintf("scaffold_%s.stl", quality))
	summary, err := workflow.ExportMesh(v, s.voxelSize(req.VoxelSizeUM), quality, out, s.logger)
	if err != nil {
		return nil, apperrors.StageFailed("mesh", err)
	}
	s.metrics.ObserveStage("mesh", time.Since(start))
	return summary, nil
}

// voxelSize returns the requested size, or the configured one when unset.
// Negative sizes pass through and are rejected downstream.
func (s *Server) voxelSize(requested float64) float64 {
	if requested != 0 {
		return requested
	}
	return s.cfg.Processing.VoxelSizeUM
}

func (s *Server) segmentOptions(requested *imaging.SegmentOptions) imaging.SegmentOptions {
	if requested != nil {
		return *requested
	}
	return s.cfg.Segment
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
