package imaging

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
)

// maxTIFFPages bounds the IFD walk of a single file
const maxTIFFPages = 1 << 16

// tiffPageOffsets walks the IFD chain of a classic TIFF and returns the
// byte order and the offset of every page directory
func tiffPageOffsets(data []byte) (binary.ByteOrder, []uint32, error) {
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("file is too short for a TIFF header")
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("missing TIFF byte order mark")
	}
	if magic := order.Uint16(data[2:4]); magic != 42 {
		return nil, nil, fmt.Errorf("unsupported TIFF version %d", magic)
	}

	var offsets []uint32
	seen := map[uint32]bool{}
	for off := order.Uint32(data[4:8]); off != 0; {
		if seen[off] {
			return nil, nil, fmt.Errorf("IFD chain loops back to offset %d", off)
		}
		if len(offsets) == maxTIFFPages {
			return nil, nil, fmt.Errorf("more than %d pages", maxTIFFPages)
		}
		if uint64(off)+2 > uint64(len(data)) {
			return nil, nil, fmt.Errorf("IFD offset %d is past the end of the file", off)
		}
		seen[off] = true
		offsets = append(offsets, off)

		entries := uint64(order.Uint16(data[off:]))
		next := uint64(off) + 2 + 12*entries
		if next+4 > uint64(len(data)) {
			return nil, nil, fmt.Errorf("IFD at offset %d is truncated", off)
		}
		off = order.Uint32(data[next:])
	}
	if len(offsets) == 0 {
		return nil, nil, fmt.Errorf("TIFF has no pages")
	}
	return order, offsets, nil
}

// pageReader serves a TIFF whose header points at one chosen IFD, so the
// single-page decoder reads that page
type pageReader struct {
	data   []byte
	header [4]byte
	pos    int64
}

func newPageReader(data []byte, order binary.ByteOrder, ifd uint32) *pageReader {
	r := &pageReader{data: data}
	order.PutUint32(r.header[:], ifd)
	return r
}

func (r *pageReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	for i := 0; i < len(r.header); i++ {
		if at := 4 + int64(i) - off; at >= 0 && at < int64(n) {
			p[at] = r.header[i]
		}
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *pageReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}

// loadTIFFPages decodes every page of a TIFF file as one slice
func loadTIFFPages(path string) ([]models.Slice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIO, "cannot open image").WithDetail(path)
	}
	order, offsets, err := tiffPageOffsets(data)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIO, "cannot read TIFF pages").WithDetail(path)
	}

	base := filepath.Base(path)
	slices := make([]models.Slice, 0, len(offsets))
	for i, off := range offsets {
		img, err := tiff.Decode(newPageReader(data, order, off))
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeIO, "cannot decode TIFF page").
				WithDetail(fmt.Sprintf("%s page %d", path, i))
		}
		name := base
		if len(offsets) > 1 {
			name = fmt.Sprintf("%s[%d]", base, i)
		}
		slices = append(slices, models.Slice{Image: img, Index: i, Filename: name})
	}
	return slices, nil
}
