// Package depthcloud projects depth images from a simulated camera into colored world-frame point clouds.
//
// Every pixel produces a point, in raster order (rows outer, columns inner). Zero and negative depths are
// kept and land on or behind the camera origin. Colors come from the world-frame height normalized by
// [MinHeight, MaxHeight]; heights outside that range are passed to the color map unclamped.
package depthcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/simviz/colormap"
	"go.viam.com/simviz/pointcloud"
	"go.viam.com/simviz/referenceframe"
	"go.viam.com/simviz/rimage"
	"go.viam.com/simviz/rimage/transform"
	spatial "go.viam.com/simviz/spatialmath"
)

// Default height range used for coloring, in meters.
const (
	DefaultMinHeight = 0.
	DefaultMaxHeight = 2.
)

// BodyToWorld moves points from the camera body frame into the world frame for the current robot state.
type BodyToWorld interface {
	TransformPoints(pts []r3.Vector) ([]r3.Vector, error)
}

// BodyToWorldFunc adapts a function to BodyToWorld.
type BodyToWorldFunc func(pts []r3.Vector) ([]r3.Vector, error)

// TransformPoints calls f.
func (f BodyToWorldFunc) TransformPoints(pts []r3.Vector) ([]r3.Vector, error) {
	return f(pts)
}

// PoseBodyToWorld is a BodyToWorld for a camera body at a fixed world pose.
func PoseBodyToWorld(pose spatial.Pose) BodyToWorld {
	return BodyToWorldFunc(func(pts []r3.Vector) ([]r3.Vector, error) {
		return spatial.TransformPoints(pose, pts), nil
	})
}

// TreeBodyToWorld uses forward kinematics of a tree to move points from frame to the world.
type TreeBodyToWorld struct {
	Tree  *referenceframe.Tree
	Cache *referenceframe.KinematicsCache
	Frame int
}

// TransformPoints implements BodyToWorld.
func (tb *TreeBodyToWorld) TransformPoints(pts []r3.Vector) ([]r3.Vector, error) {
	return tb.Tree.TransformPoints(tb.Cache, pts, tb.Frame, 0)
}

// Projector turns depth images from one camera into colored world-frame clouds.
type Projector struct {
	kInv          *mat.Dense
	opticalToBody spatial.Pose
	colors        colormap.Map
	minHeight     float64
	maxHeight     float64
}

// NewProjector inverts the camera matrix once up front. A nil opticalToBody means the optical frame is the
// camera body frame, and a nil color map means jet.
func NewProjector(
	intrinsics *transform.Intrinsics,
	opticalToBody spatial.Pose,
	cmap colormap.Map,
	minHeight, maxHeight float64,
) (*Projector, error) {
	if intrinsics == nil {
		return nil, transform.NewNoIntrinsicsError("projector needs a camera matrix")
	}
	kInv, err := intrinsics.Inverse()
	if err != nil {
		return nil, err
	}
	if opticalToBody == nil {
		opticalToBody = spatial.NewZeroPose()
	}
	if cmap == nil {
		cmap = colormap.NewJet()
	}
	return &Projector{
		kInv:          kInv,
		opticalToBody: opticalToBody,
		colors:        cmap,
		minHeight:     minHeight,
		maxHeight:     maxHeight,
	}, nil
}

// CameraFramePoints casts the ray [u, v, 1] of every pixel through kInv and scales it by that pixel's depth,
// giving points in the optical frame in raster order.
func CameraFramePoints(dm *rimage.DepthMap, kInv mat.Matrix) []r3.Vector {
	w, h := dm.Width(), dm.Height()
	n := w * h
	if n == 0 {
		return []r3.Vector{}
	}
	rays := mat.NewDense(3, n, nil)
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			i := v*w + u
			rays.Set(0, i, float64(u))
			rays.Set(1, i, float64(v))
			rays.Set(2, i, 1)
		}
	}
	var dirs mat.Dense
	dirs.Mul(kInv, rays)

	depth := dm.Data()
	pts := make([]r3.Vector, n)
	for i := range pts {
		d := depth[i]
		pts[i] = r3.Vector{X: dirs.At(0, i) * d, Y: dirs.At(1, i) * d, Z: dirs.At(2, i) * d}
	}
	return pts
}

// CameraFramePoints returns the optical frame points of dm.
func (p *Projector) CameraFramePoints(dm *rimage.DepthMap) []r3.Vector {
	return CameraFramePoints(dm, p.kInv)
}

// HeightColor returns the color of a point at world height z.
func (p *Projector) HeightColor(z float64) color.NRGBA {
	return p.colors.At(colormap.Normalize(z, p.minHeight, p.maxHeight))
}

// Project converts a depth image into a world-frame cloud with one colored point per pixel.
func (p *Projector) Project(dm *rimage.DepthMap, toWorld BodyToWorld) (*pointcloud.Cloud, error) {
	if dm == nil {
		return nil, errors.New("depth image is nil")
	}
	body := spatial.TransformPoints(p.opticalToBody, p.CameraFramePoints(dm))
	world, err := toWorld.TransformPoints(body)
	if err != nil {
		return nil, err
	}
	colors := make([]color.NRGBA, len(world))
	for i, pt := range world {
		colors[i] = p.HeightColor(pt.Z)
	}
	return pointcloud.NewFromPositions(world, colors)
}
