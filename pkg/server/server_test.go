package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scaffoldstudio/internal/models"
	"scaffoldstudio/pkg/config"
	"scaffoldstudio/pkg/imaging"
	"scaffoldstudio/pkg/stl"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.UploadDir = filepath.Join(t.TempDir(), "uploads")
	cfg.Server.OutputDir = filepath.Join(t.TempDir(), "results")
	cfg.Processing.Quality = "draft"
	cfg.Segment = imaging.SegmentOptions{}
	cfg.Target.VolumeMM = [3]float64{0.3, 0.3, 0.3}
	return New(cfg, nil, "test"), cfg
}

// sliceBody builds a multipart form of depth PNG slices with a dark square
// channel through a bright block
func sliceBody(t *testing.T, depth int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for z := 0; z < depth; z++ {
		img := image.NewGray(image.Rect(0, 0, 16, 16))
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				g := uint8(220)
				if x >= 5 && x < 11 && y >= 5 && y < 11 {
					g = 10
				}
				img.SetGray(x, y, color.Gray{Y: g})
			}
		}
		fw, err := mw.CreateFormFile("files", fmt.Sprintf("slice_%02d.png", z))
		require.NoError(t, err)
		require.NoError(t, png.Encode(fw, img))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadStack(t *testing.T, s *Server) string {
	t.Helper()
	body, contentType := sliceBody(t, 4)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 4)
	return resp.UploadID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestUpload(t *testing.T) {
	s, cfg := newTestServer(t)
	id := uploadStack(t, s)

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(cfg.Server.UploadDir, id))
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestUploadWithoutFiles(t *testing.T) {
	s, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "empty"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAM", decodeError(t, rec).Code)
}

func TestAnalyze(t *testing.T) {
	s, _ := newTestServer(t)
	id := uploadStack(t, s)

	rec := doJSON(t, s.Handler(), "/api/analyze", AnalyzeRequest{UploadID: id, VoxelSizeUM: 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, [3]int{16, 16, 4}, resp.Dimensions)
	assert.InDelta(t, 36.0/256, resp.Metrics.Porosity, 1e-12)
	assert.Equal(t, 1.0, resp.Metrics.Interconnectivity)
	assert.Contains(t, resp.Problems, "porosity")
	require.NotNil(t, resp.Mechanics)
	assert.InDelta(t, 1-36.0/256, resp.Mechanics.RelativeDensity, 1e-12)
}

func TestAnalyzeErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"missing id", map[string]string{}, http.StatusBadRequest, "INVALID_PARAM"},
		{"malformed id", AnalyzeRequest{UploadID: "../../etc"}, http.StatusBadRequest, "INVALID_PARAM"},
		{"unknown id", AnalyzeRequest{UploadID: uuid.New().String()}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s.Handler(), "/api/analyze", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestOptimize(t *testing.T) {
	s, cfg := newTestServer(t)
	id := uploadStack(t, s)

	rec := doJSON(t, s.Handler(), "/api/optimize", OptimizeRequest{
		UploadID:    id,
		Method:      "3d-bioprinting",
		WriteBinvox: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Report)
	assert.Equal(t, models.Bioprinting, resp.Report.FabricationMethod)
	assert.Contains(t, resp.Report.FabricationParameters, "nozzle_size")
	require.NotNil(t, resp.Optimized)
	assert.Greater(t, resp.Optimized.Faces, 0)

	runDir := filepath.Join(cfg.Server.OutputDir, id, resp.RunID)
	assert.FileExists(t, filepath.Join(runDir, "optimization_report.json"))
	assert.FileExists(t, filepath.Join(runDir, "optimized_scaffold.binvox"))

	// stage timings reach /metrics
	mrec := httptest.NewRecorder()
	s.Handler().ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, mrec.Code)
	out := mrec.Body.String()
	assert.Contains(t, out, `scaffoldstudio_pipeline_stage_duration_seconds_count{stage="generate"} 1`)
	assert.Contains(t, out, `scaffoldstudio_pipeline_runs_total{operation="optimize",outcome="success"} 1`)
	assert.Contains(t, out, "scaffoldstudio_http_requests_total")
}

func TestOptimizeInvalidMethod(t *testing.T) {
	s, _ := newTestServer(t)
	id := uploadStack(t, s)

	rec := doJSON(t, s.Handler(), "/api/optimize", OptimizeRequest{UploadID: id, Method: "electrospinning"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_METHOD", resp.Code)
	assert.Contains(t, resp.Message, "electrospinning")
}

func TestOptimizeInvalidTarget(t *testing.T) {
	s, cfg := newTestServer(t)
	id := uploadStack(t, s)

	target := cfg.Target
	target.TortuosityTarget = 0.5
	rec := doJSON(t, s.Handler(), "/api/optimize", OptimizeRequest{UploadID: id, Target: &target})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_PARAM", resp.Code)
	assert.Equal(t, "validate", resp.Stage)
}

func TestOptimizeGridTooLarge(t *testing.T) {
	s, cfg := newTestServer(t)
	id := uploadStack(t, s)

	// 20000^3 voxels would take terabytes
	target := cfg.Target
	target.VolumeMM = [3]float64{20, 20, 20}
	target.ResolutionUM = 1
	rec := doJSON(t, s.Handler(), "/api/optimize", OptimizeRequest{UploadID: id, Target: &target})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_PARAM", resp.Code)
	assert.Equal(t, "validate", resp.Stage)
}

func TestOptimizeRespectsConfiguredVoxelLimit(t *testing.T) {
	s, cfg := newTestServer(t)
	// the default target is 30^3 voxels
	cfg.Processing.MaxVoxels = 1000
	id := uploadStack(t, s)

	rec := doJSON(t, s.Handler(), "/api/optimize", OptimizeRequest{UploadID: id})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_PARAM", resp.Code)
	assert.Contains(t, resp.Message, "voxel limit")
}

func TestMesh(t *testing.T) {
	s, _ := newTestServer(t)
	id := uploadStack(t, s)

	rec := doJSON(t, s.Handler(), "/api/mesh", MeshRequest{UploadID: id, Quality: "standard"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), "scaffold_standard.stl"))

	tris, _, err := stl.ReadSTL(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, rec.Header().Get("X-Mesh-Faces"), fmt.Sprint(len(tris)))
}

func TestMeshInvalidQuality(t *testing.T) {
	s, _ := newTestServer(t)
	id := uploadStack(t, s)

	rec := doJSON(t, s.Handler(), "/api/mesh", MeshRequest{UploadID: id, Quality: "cinematic"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAM", decodeError(t, rec).Code)
}
