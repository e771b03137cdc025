package stl

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"scaffoldstudio/pkg/mesh"
)

// tetrahedron returns a closed outward-wound tetrahedron
func tetrahedron() *mesh.Mesh {
	return mesh.New(
		[]r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}},
		[][3]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}},
	)
}

// TestFromMesh verifies facet conversion and outward normals
func TestFromMesh(t *testing.T) {
	triangles := FromMesh(tetrahedron())
	if len(triangles) != 4 {
		t.Fatalf("Expected 4 triangles, got %d", len(triangles))
	}

	// First face lies in z=0 and faces down
	if triangles[0].Normal != [3]float32{0, 0, -1} {
		t.Errorf("Unexpected normal for bottom face: %v", triangles[0].Normal)
	}

	// The slanted face points away from the origin
	n := triangles[2].Normal
	if n[0] <= 0 || n[1] <= 0 || n[2] <= 0 {
		t.Errorf("Slanted face normal should point outward, got %v", n)
	}
	mag := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
	if math.Abs(mag-1) > 1e-6 {
		t.Errorf("Normal should be unit length, got %f", mag)
	}
}

// TestWriteSTLLayout verifies the binary layout: header, count, 50 bytes per facet
func TestWriteSTLLayout(t *testing.T) {
	triangles := FromMesh(tetrahedron())

	var buf bytes.Buffer
	if err := WriteSTL(&buf, "test header", triangles); err != nil {
		t.Fatalf("Failed to write STL: %v", err)
	}

	expected := 80 + 4 + 50*len(triangles)
	if buf.Len() != expected {
		t.Errorf("Expected %d bytes, got %d", expected, buf.Len())
	}

	data := buf.Bytes()
	if string(data[:11]) != "test header" {
		t.Errorf("Header not written: %q", data[:11])
	}
	if data[80] != 4 || data[81] != 0 || data[82] != 0 || data[83] != 0 {
		t.Errorf("Triangle count should be little-endian 4, got %v", data[80:84])
	}
}

// TestRoundTrip verifies that written facets read back unchanged
func TestRoundTrip(t *testing.T) {
	triangles := []Triangle{
		{
			Normal:  [3]float32{0, 0, 1},
			Vertex1: [3]float32{0, 0, 0},
			Vertex2: [3]float32{1.5, 0, 0},
			Vertex3: [3]float32{0, 2.25, 0},
		},
	}

	var buf bytes.Buffer
	if err := WriteSTL(&buf, DefaultHeader, triangles); err != nil {
		t.Fatalf("Failed to write STL: %v", err)
	}
	got, header, err := ReadSTL(&buf)
	if err != nil {
		t.Fatalf("Failed to read STL: %v", err)
	}
	if header != DefaultHeader {
		t.Errorf("Expected header %q, got %q", DefaultHeader, header)
	}
	if len(got) != 1 || got[0] != triangles[0] {
		t.Errorf("Round trip mismatch: %+v", got)
	}
}

// TestReadSTLTruncated verifies that short files are rejected
func TestReadSTLTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSTL(&buf, "", FromMesh(tetrahedron())); err != nil {
		t.Fatalf("Failed to write STL: %v", err)
	}
	short := buf.Bytes()[:buf.Len()-10]
	if _, _, err := ReadSTL(bytes.NewReader(short)); err == nil {
		t.Error("Expected an error for a truncated file")
	}
	if _, _, err := ReadSTL(bytes.NewReader(nil)); err == nil {
		t.Error("Expected an error for an empty file")
	}
}

// TestReadSTLHugeCount verifies that a header claiming billions of facets
// fails on the missing records instead of reserving memory for all of them
func TestReadSTLHugeCount(t *testing.T) {
	// one 50-byte record follows a count of 2^32-1
	data := make([]byte, headerSize+4+50)
	binary.LittleEndian.PutUint32(data[headerSize:], 0xFFFFFFFF)

	triangles, _, err := ReadSTL(bytes.NewReader(data))
	if err == nil {
		t.Fatal("Expected an error for a short file with a huge facet count")
	}
	if triangles != nil {
		t.Errorf("Expected no triangles, got %d", len(triangles))
	}
}

// TestSaveMesh verifies that the STL file can be written and loaded
func TestSaveMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scaffold.stl")

	if err := SaveMesh(path, tetrahedron()); err != nil {
		t.Fatalf("Failed to save STL: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat output file: %v", err)
	}
	if info.Size() != int64(80+4+4*50) {
		t.Errorf("Unexpected file size %d", info.Size())
	}

	triangles, err := LoadSTL(path)
	if err != nil {
		t.Fatalf("Failed to load STL: %v", err)
	}
	if len(triangles) != 4 {
		t.Errorf("Expected 4 triangles, got %d", len(triangles))
	}

	if _, err := LoadSTL(filepath.Join(t.TempDir(), "missing.stl")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

// BenchmarkWriteSTL benchmarks serialisation of a moderately sized mesh
func BenchmarkWriteSTL(b *testing.B) {
	triangles := make([]Triangle, 10000)
	for i := range triangles {
		f := float32(i)
		triangles[i] = Triangle{Normal: [3]float32{0, 0, 1}, Vertex1: [3]float32{f, 0, 0}, Vertex2: [3]float32{f, 1, 0}, Vertex3: [3]float32{f, 0, 1}}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := WriteSTL(&buf, DefaultHeader, triangles); err != nil {
			b.Fatal(err)
		}
	}
}
