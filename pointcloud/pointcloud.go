// Package pointcloud defines an ordered, colored point cloud.
//
// Unlike a keyed set, a Cloud keeps every point it is given in insertion order, including duplicates, so a
// cloud projected from a w x h depth image always holds exactly w*h points in raster order.
package pointcloud

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	HasColor bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns metadata for an empty cloud.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MinZ: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
		MaxZ: math.Inf(-1),
	}
}

// Merge updates the bounds to include v.
func (meta *MetaData) Merge(v r3.Vector, hasColor bool) {
	if hasColor {
		meta.HasColor = true
	}
	meta.MinX = math.Min(meta.MinX, v.X)
	meta.MaxX = math.Max(meta.MaxX, v.X)
	meta.MinY = math.Min(meta.MinY, v.Y)
	meta.MaxY = math.Max(meta.MaxY, v.Y)
	meta.MinZ = math.Min(meta.MinZ, v.Z)
	meta.MaxZ = math.Max(meta.MaxZ, v.Z)
}

// Cloud is an ordered sequence of positions in meters with optional per-point colors. Either every point
// has a color or none does.
type Cloud struct {
	positions []r3.Vector
	colors    []color.NRGBA
	meta      MetaData
}

// New returns an empty cloud.
func New() *Cloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty cloud with room for size points.
func NewWithPrealloc(size int) *Cloud {
	return &Cloud{
		positions: make([]r3.Vector, 0, size),
		meta:      NewMetaData(),
	}
}

// NewFromPositions builds a cloud from positions and optional matching colors. A nil colors slice makes an
// uncolored cloud.
func NewFromPositions(positions []r3.Vector, colors []color.NRGBA) (*Cloud, error) {
	if colors != nil && len(colors) != len(positions) {
		return nil, newColorCountError(len(positions), len(colors))
	}
	pc := NewWithPrealloc(len(positions))
	for i, p := range positions {
		if colors == nil {
			pc.Append(p)
			continue
		}
		pc.AppendColored(p, colors[i])
	}
	return pc, nil
}

// Size returns the number of points in the cloud.
func (pc *Cloud) Size() int {
	return len(pc.positions)
}

// MetaData returns the bounds and color flag of the cloud.
func (pc *Cloud) MetaData() MetaData {
	return pc.meta
}

// Append adds an uncolored point.
func (pc *Cloud) Append(p r3.Vector) {
	pc.positions = append(pc.positions, p)
	if pc.colors != nil {
		pc.colors = append(pc.colors, color.NRGBA{})
	}
	pc.meta.Merge(p, false)
}

// AppendColored adds a point with a color.
func (pc *Cloud) AppendColored(p r3.Vector, c color.NRGBA) {
	if pc.colors == nil {
		pc.colors = make([]color.NRGBA, len(pc.positions), cap(pc.positions))
	}
	pc.positions = append(pc.positions, p)
	pc.colors = append(pc.colors, c)
	pc.meta.Merge(p, true)
}

// At returns the i-th point and its color. The color is the zero value for uncolored clouds.
func (pc *Cloud) At(i int) (r3.Vector, color.NRGBA) {
	if pc.colors == nil {
		return pc.positions[i], color.NRGBA{}
	}
	return pc.positions[i], pc.colors[i]
}

// Iterate calls fn for every point in order until fn returns false.
func (pc *Cloud) Iterate(fn func(i int, p r3.Vector, c color.NRGBA) bool) {
	for i := range pc.positions {
		p, c := pc.At(i)
		if !fn(i, p, c) {
			return
		}
	}
}

// Positions returns the backing position slice.
func (pc *Cloud) Positions() []r3.Vector {
	return pc.positions
}

// Colors returns the backing color slice, nil for an uncolored cloud.
func (pc *Cloud) Colors() []color.NRGBA {
	return pc.colors
}
