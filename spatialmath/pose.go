// Package spatialmath defines spatial mathematical operations: rigid transforms built from a
// translation and a unit quaternion, and the orientation representations used by model files.
package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

const defaultPrecision = 1e-6

// Pose represents a 6dof pose: the transform that takes points in a child frame into its parent frame.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type distalPose struct {
	point       r3.Vector
	orientation *Quaternion
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return &distalPose{orientation: NewZeroOrientation()}
}

// NewPoseFromPoint returns a pure translation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &distalPose{point: point, orientation: NewZeroOrientation()}
}

// NewPose returns a pose with the given translation and rotation. A nil orientation is the identity.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(point)
	}
	q := Quaternion(Normalize(o.Quaternion()))
	return &distalPose{point: point, orientation: &q}
}

func (p *distalPose) Point() r3.Vector {
	return p.point
}

func (p *distalPose) Orientation() Orientation {
	return p.orientation
}

func (p *distalPose) String() string {
	ea := p.orientation.EulerAngles()
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f Roll:%.4f Pitch:%.4f Yaw:%.4f}",
		p.point.X, p.point.Y, p.point.Z, ea.Roll, ea.Pitch, ea.Yaw)
}

// Compose returns a∘b. If a is the pose of frame B in frame A and b is the pose of frame C in
// frame B, the result is the pose of C in A.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	q := Quaternion(Normalize(quat.Mul(qa, b.Orientation().Quaternion())))
	return &distalPose{
		point:       a.Point().Add(rotate(qa, b.Point())),
		orientation: &q,
	}
}

// PoseInverse returns the pose that undoes p.
func PoseInverse(p Pose) Pose {
	qInv := quat.Conj(p.Orientation().Quaternion())
	q := Quaternion(qInv)
	return &distalPose{
		point:       rotate(qInv, p.Point()).Mul(-1),
		orientation: &q,
	}
}

// PoseBetween returns the pose of b expressed in frame a, i.e. inverse(a)∘b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// TransformPoint moves a point from the pose's child frame into its parent frame: rotate, then translate.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return rotate(p.Orientation().Quaternion(), pt).Add(p.Point())
}

// TransformPoints applies TransformPoint to each point, returning a new slice.
func TransformPoints(p Pose, pts []r3.Vector) []r3.Vector {
	q := p.Orientation().Quaternion()
	t := p.Point()
	out := make([]r3.Vector, len(pts))
	for i, pt := range pts {
		out[i] = rotate(q, pt).Add(t)
	}
	return out
}

// PoseAlmostEqual returns whether two poses are within a small tolerance of each other.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, defaultPrecision)
}

// PoseAlmostEqualEps is PoseAlmostEqual with a caller supplied tolerance.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		OrientationAlmostEqualEps(a.Orientation(), b.Orientation(), epsilon)
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if their distance is at most epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return a.Sub(b).Norm() <= epsilon
}

// rotate applies the rotation q to v as q*v*conj(q).
func rotate(q quat.Number, v r3.Vector) r3.Vector {
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
