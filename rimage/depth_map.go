// Package rimage holds the depth images produced by simulated RGB-D cameras.
package rimage

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// DepthMap is a width x height grid of depths in meters, measured along the camera's optical (forward) axis.
// Pixel (x, y) is column x of row y; storage is row-major.
type DepthMap struct {
	width  int
	height int

	data []float64
}

// NewEmptyDepthMap returns a zeroed depth map.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]float64, width*height),
	}
}

// NewDepthMapFromSlice wraps row-major depth data. The slice is used directly, not copied.
func NewDepthMapFromSlice(width, height int, data []float64) (*DepthMap, error) {
	if width < 0 || height < 0 {
		return nil, errors.Errorf("invalid depth map size (%d, %d)", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("depth data has %d values but a %dx%d map needs %d", len(data), width, height, width*height)
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// Width returns the number of columns.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the number of rows.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the image rectangle of the map.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// Get returns the depth at column x, row y.
func (dm *DepthMap) Get(x, y int) float64 {
	return dm.data[y*dm.width+x]
}

// Set stores the depth at column x, row y.
func (dm *DepthMap) Set(x, y int, d float64) {
	dm.data[y*dm.width+x] = d
}

// Data returns the backing row-major slice.
func (dm *DepthMap) Data() []float64 {
	return dm.data
}

// MinMax returns the smallest and largest depth in the map.
func (dm *DepthMap) MinMax() (float64, float64) {
	if len(dm.data) == 0 {
		return 0, 0
	}
	lo, hi := dm.data[0], dm.data[0]
	for _, d := range dm.data[1:] {
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	return lo, hi
}

// ConvertImageToDepthMap reads depth out of a 16 bit grayscale image, dividing every sample by unitsPerMeter
// (1000 for the usual millimeter encoding).
func ConvertImageToDepthMap(img image.Image, unitsPerMeter float64) (*DepthMap, error) {
	if unitsPerMeter <= 0 {
		return nil, errors.Errorf("units per meter must be positive, got %v", unitsPerMeter)
	}
	b := img.Bounds()
	dm := NewEmptyDepthMap(b.Dx(), b.Dy())
	switch ii := img.(type) {
	case *image.Gray16:
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.Set(x, y, float64(ii.Gray16At(b.Min.X+x, b.Min.Y+y).Y)/unitsPerMeter)
			}
		}
	default:
		return nil, errors.Errorf("cannot convert image type %T to a depth map", img)
	}
	return dm, nil
}

// ReadDepthMap decodes a 16 bit grayscale PNG from r.
func ReadDepthMap(r io.Reader, unitsPerMeter float64) (*DepthMap, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, err
	}
	return ConvertImageToDepthMap(img, unitsPerMeter)
}

// ReadDepthMapFile opens a 16 bit grayscale PNG and decodes it into a depth map.
func ReadDepthMapFile(fn string, unitsPerMeter float64) (*DepthMap, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return ReadDepthMap(f, unitsPerMeter)
}

// WriteDepthMap encodes the map as a 16 bit grayscale PNG. Depths are scaled by unitsPerMeter and saturate at
// the ends of the 16 bit range.
func WriteDepthMap(w io.Writer, dm *DepthMap, unitsPerMeter float64) error {
	img := image.NewGray16(dm.Bounds())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			v := dm.Get(x, y) * unitsPerMeter
			switch {
			case v <= 0:
				v = 0
			case v >= 0xffff:
				v = 0xffff
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v + 0.5)})
		}
	}
	return png.Encode(w, img)
}
