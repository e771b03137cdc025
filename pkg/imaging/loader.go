// Package imaging turns micrograph slice stacks into binary scaffold
// volumes: decoding, grey-level normalisation, Gaussian smoothing, Otsu
// thresholding and removal of small debris.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
)

// supportedExt lists the slice formats with a registered decoder
var supportedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// GrayStack is a stack of grey-level slices with samples in [0, 1], laid
// out like models.Volume
type GrayStack struct {
	Data   []float64
	Width  int
	Height int
	Depth  int
}

// LoadStack reads a directory of slice images, a multi-page TIFF or a
// single image
func LoadStack(path string) (*GrayStack, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIO, "cannot open input").WithDetail(path)
	}
	var slices []models.Slice
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case info.IsDir():
		slices, err = LoadSlices(path)
	case ext == ".tif" || ext == ".tiff":
		slices, err = loadTIFFPages(path)
	default:
		var img image.Image
		img, err = loadImage(path)
		slices = []models.Slice{{Image: img, Index: 0, Filename: filepath.Base(path)}}
	}
	if err != nil {
		return nil, err
	}
	return StackFromSlices(slices)
}

// LoadSlices decodes every supported image in dir, ordered by the number
// embedded in each file name
func LoadSlices(dir string) ([]models.Slice, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIO, "cannot read slice directory").WithDetail(dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supportedExt[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "no slice images found").WithDetail(dir)
	}

	sort.SliceStable(names, func(i, j int) bool {
		ni, nj := extractNumber(names[i]), extractNumber(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})

	slices := make([]models.Slice, 0, len(names))
	for i, name := range names {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		slices = append(slices, models.Slice{Image: img, Index: i, Filename: name})
	}
	return slices, nil
}

// extractNumber extracts the digits of a file name as an integer, -1 if none
func extractNumber(filename string) int {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return -1
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return -1
	}
	return n
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIO, "cannot open image").WithDetail(path)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIO, "cannot decode image").WithDetail(path)
	}
	return img, nil
}

// StackFromSlices converts decoded slices to grey levels. All slices must
// share the first slice's dimensions.
func StackFromSlices(slices []models.Slice) (*GrayStack, error) {
	if len(slices) == 0 {
		return nil, apperrors.InvalidParam("no slices to stack")
	}
	b := slices[0].Image.Bounds()
	w, h := b.Dx(), b.Dy()
	stack := &GrayStack{
		Data:   make([]float64, w*h*len(slices)),
		Width:  w,
		Height: h,
		Depth:  len(slices),
	}
	for z, s := range slices {
		sb := s.Image.Bounds()
		if sb.Dx() != w || sb.Dy() != h {
			return nil, apperrors.InvalidParam("slice dimensions differ").
				WithDetail(fmt.Sprintf("%s is %dx%d, expected %dx%d", s.Filename, sb.Dx(), sb.Dy(), w, h))
		}
		base := z * w * h
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.Gray16Model.Convert(s.Image.At(sb.Min.X+x, sb.Min.Y+y)).(color.Gray16)
				stack.Data[base+y*w+x] = float64(g.Y) / 65535.0
			}
		}
	}
	return stack, nil
}
