// Package stl reads and writes binary STL files.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"scaffoldstudio/pkg/mesh"
)

const (
	headerSize = 80

	// DefaultHeader is written into the 80-byte header of exported files
	DefaultHeader = "scaffoldstudio binary STL (units: micrometres)"
)

// Triangle is a single STL facet
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// record is the 50-byte on-disk layout of a facet
type record struct {
	N, V1, V2, V3 [3]float32
	_             uint16 // unused attribute byte count
}

// FromMesh converts an indexed mesh to facets with unit face normals
func FromMesh(m *mesh.Mesh) []Triangle {
	out := make([]Triangle, m.NumFaces())
	for i := range m.Faces {
		a, b, c := m.Corners(i)
		n := m.FaceNormal(i)
		out[i] = Triangle{
			Normal:  [3]float32{float32(n.X), float32(n.Y), float32(n.Z)},
			Vertex1: [3]float32{float32(a.X), float32(a.Y), float32(a.Z)},
			Vertex2: [3]float32{float32(b.X), float32(b.Y), float32(b.Z)},
			Vertex3: [3]float32{float32(c.X), float32(c.Y), float32(c.Z)},
		}
	}
	return out
}

// WriteSTL writes a binary STL stream. The header is truncated to 80 bytes.
func WriteSTL(w io.Writer, header string, triangles []Triangle) error {
	bw := bufio.NewWriter(w)

	var h [headerSize]byte
	copy(h[:], header)
	if _, err := bw.Write(h[:]); err != nil {
		return fmt.Errorf("error writing header: %v", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return fmt.Errorf("error writing triangle count: %v", err)
	}
	for i, t := range triangles {
		rec := record{N: t.Normal, V1: t.Vertex1, V2: t.Vertex2, V3: t.Vertex3}
		if err := binary.Write(bw, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("error writing triangle %d: %v", i, err)
		}
	}
	return bw.Flush()
}

// SaveToSTL writes triangles to filename, creating parent directories
func SaveToSTL(filename string, triangles []Triangle) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %v", err)
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteSTL(f, DefaultHeader, triangles); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SaveMesh exports m to filename
func SaveMesh(filename string, m *mesh.Mesh) error {
	return SaveToSTL(filename, FromMesh(m))
}

// maxPreallocTriangles caps the capacity reserved from a header's facet count
const maxPreallocTriangles = 1 << 16

// ReadSTL parses a binary STL stream and returns its facets and header
func ReadSTL(r io.Reader) ([]Triangle, string, error) {
	br := bufio.NewReader(r)

	var h [headerSize]byte
	if _, err := io.ReadFull(br, h[:]); err != nil {
		return nil, "", fmt.Errorf("error reading header: %v", err)
	}
	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, "", fmt.Errorf("error reading triangle count: %v", err)
	}

	// the count is untrusted until the records are actually read
	triangles := make([]Triangle, 0, min(count, maxPreallocTriangles))
	for i := uint32(0); i < count; i++ {
		var rec record
		if err := binary.Read(br, binary.LittleEndian, &rec); err != nil {
			return nil, "", fmt.Errorf("error reading triangle %d of %d: %v", i, count, err)
		}
		triangles = append(triangles, Triangle{Normal: rec.N, Vertex1: rec.V1, Vertex2: rec.V2, Vertex3: rec.V3})
	}

	header := string(h[:])
	for i, c := range h {
		if c == 0 {
			header = string(h[:i])
			break
		}
	}
	return triangles, header, nil
}

// LoadSTL reads a binary STL file
func LoadSTL(filename string) ([]Triangle, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	triangles, _, err := ReadSTL(f)
	return triangles, err
}
