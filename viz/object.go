package viz

import (
	"context"
	"image/color"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"

	"go.viam.com/simviz/pointcloud"
)

// Defaults for a camera visualizer.
const (
	DefaultPrefix     = "RBCameraViz"
	DefaultDrawPeriod = 1. / 30
	DefaultAddress    = "127.0.0.1:6000"
	DefaultPointSize  = 0.005
)

// PointCloudObjectType is the "type" of a point cloud scene object.
const PointCloudObjectType = "PointCloud"

// PointCloudSink is anything that can show point clouds at scene paths.
type PointCloudSink interface {
	// SetPointCloud creates or replaces the cloud at path. colors is either empty or parallel to positions.
	SetPointCloud(ctx context.Context, path string, positions []r3.Vector, colors []color.NRGBA, size float64) error
	// Delete removes path and everything below it.
	Delete(ctx context.Context, path string) error
}

// JoinPath joins scene path segments with "/".
func JoinPath(parts ...string) string {
	return strings.Join(lo.Compact(lo.Map(parts, func(p string, _ int) string {
		return strings.Trim(p, "/")
	})), "/")
}

// SplitPath returns the non-empty segments of a scene path.
func SplitPath(path string) []string {
	return lo.Compact(strings.Split(path, "/"))
}

// NewPointCloudObject encodes a cloud as a scene object. Positions are flattened to [x0, y0, z0, x1, ...]
// and colors to [r0, g0, b0, r1, ...] in [0, 1].
func NewPointCloudObject(positions []r3.Vector, colors []color.NRGBA, size float64) (*structpb.Struct, error) {
	if len(colors) != 0 && len(colors) != len(positions) {
		return nil, errors.Errorf("got %d colors for %d points", len(colors), len(positions))
	}
	flatPositions := lo.FlatMap(positions, func(p r3.Vector, _ int) []interface{} {
		return []interface{}{p.X, p.Y, p.Z}
	})
	flatColors := lo.FlatMap(colors, func(c color.NRGBA, _ int) []interface{} {
		return []interface{}{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
	})
	return structpb.NewStruct(map[string]interface{}{
		"type":     PointCloudObjectType,
		"position": flatPositions,
		"color":    flatColors,
		"size":     size,
	})
}

func newSetObjectRequest(path string, object *structpb.Struct) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"path":   structpb.NewStringValue(path),
		"object": structpb.NewStructValue(object),
	}}
}

func newDeleteRequest(path string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"path": structpb.NewStringValue(path),
	}}
}

// DecodePointCloud turns a point cloud scene object back into a cloud. Colors are rounded to the nearest
// 8 bit value and are fully opaque.
func DecodePointCloud(object *structpb.Struct) (*pointcloud.Cloud, float64, error) {
	if object == nil {
		return nil, 0, errors.New("no object")
	}
	fields := object.GetFields()
	if typ := fields["type"].GetStringValue(); typ != PointCloudObjectType {
		return nil, 0, errors.Errorf("object type %q is not %q", typ, PointCloudObjectType)
	}
	position := fields["position"].GetListValue().GetValues()
	if len(position)%3 != 0 {
		return nil, 0, errors.Errorf("position has %d values, not a multiple of 3", len(position))
	}
	colorValues := fields["color"].GetListValue().GetValues()
	if len(colorValues) != 0 && len(colorValues) != len(position) {
		return nil, 0, errors.Errorf("color has %d values for %d position values", len(colorValues), len(position))
	}

	n := len(position) / 3
	positions := make([]r3.Vector, n)
	for i := range positions {
		positions[i] = r3.Vector{
			X: position[3*i].GetNumberValue(),
			Y: position[3*i+1].GetNumberValue(),
			Z: position[3*i+2].GetNumberValue(),
		}
	}
	var colors []color.NRGBA
	if len(colorValues) != 0 {
		channel := func(v *structpb.Value) uint8 {
			return uint8(lo.Clamp(v.GetNumberValue()*255+0.5, 0, 255))
		}
		colors = make([]color.NRGBA, n)
		for i := range colors {
			colors[i] = color.NRGBA{
				R: channel(colorValues[3*i]),
				G: channel(colorValues[3*i+1]),
				B: channel(colorValues[3*i+2]),
				A: 255,
			}
		}
	}
	cloud, err := pointcloud.NewFromPositions(positions, colors)
	if err != nil {
		return nil, 0, err
	}
	return cloud, fields["size"].GetNumberValue(), nil
}
