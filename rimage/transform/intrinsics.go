package transform

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Intrinsics is a general 3x3 camera matrix K taking camera-frame directions to homogeneous pixels.
// Unlike PinholeCameraIntrinsics it allows skew and any other invertible matrix a simulator reports.
type Intrinsics struct {
	k *mat.Dense
}

// NewIntrinsicsFromMatrix copies k, which must be 3x3.
func NewIntrinsicsFromMatrix(k mat.Matrix) (*Intrinsics, error) {
	if k == nil {
		return nil, NewNoIntrinsicsError("camera matrix is nil")
	}
	r, c := k.Dims()
	if r != 3 || c != 3 {
		return nil, errors.Errorf("camera matrix must be 3x3, got %dx%d", r, c)
	}
	return &Intrinsics{k: mat.DenseCopyOf(k)}, nil
}

// NewIntrinsicsFromSlice builds a camera matrix from nine row-major values.
func NewIntrinsicsFromSlice(k []float64) (*Intrinsics, error) {
	if len(k) != 9 {
		return nil, errors.Errorf("camera matrix needs 9 values, got %d", len(k))
	}
	return &Intrinsics{k: mat.NewDense(3, 3, append([]float64(nil), k...))}, nil
}

// Matrix returns a copy of K.
func (in *Intrinsics) Matrix() *mat.Dense {
	return mat.DenseCopyOf(in.k)
}

// Inverse returns K⁻¹. A singular or badly conditioned matrix is an error.
func (in *Intrinsics) Inverse() (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(in.k); err != nil {
		return nil, errors.Wrap(err, "camera matrix is not invertible")
	}
	return &inv, nil
}

// PixelRay returns K⁻¹·[u, v, 1], the optical-frame direction of pixel (u, v) at unit depth.
func (in *Intrinsics) PixelRay(u, v float64) (r3.Vector, error) {
	inv, err := in.Inverse()
	if err != nil {
		return r3.Vector{}, err
	}
	var ray mat.VecDense
	ray.MulVec(inv, mat.NewVecDense(3, []float64{u, v, 1}))
	return r3.Vector{X: ray.AtVec(0), Y: ray.AtVec(1), Z: ray.AtVec(2)}, nil
}
