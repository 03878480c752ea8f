package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestPinholeCameraIntrinsics(t *testing.T) {
	var nilParams *PinholeCameraIntrinsics
	test.That(t, errors.Is(nilParams.CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)

	params := &PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 500, Fy: 400, Ppx: 320, Ppy: 240}
	test.That(t, params.CheckValid(), test.ShouldBeNil)

	pt := params.PixelToPoint(420, 280, 2)
	test.That(t, pt, test.ShouldResemble, r3.Vector{X: 0.4, Y: 0.2, Z: 2})
	u, v := params.PointToPixel(pt)
	test.That(t, u, test.ShouldAlmostEqual, 420)
	test.That(t, v, test.ShouldAlmostEqual, 280)

	in, err := params.Intrinsics()
	test.That(t, err, test.ShouldBeNil)
	ray, err := in.PixelRay(420, 280)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ray.X, test.ShouldAlmostEqual, 0.2)
	test.That(t, ray.Y, test.ShouldAlmostEqual, 0.1)
	test.That(t, ray.Z, test.ShouldAlmostEqual, 1)

	for _, bad := range []PinholeCameraIntrinsics{
		{Width: 0, Height: 480, Fx: 1, Fy: 1},
		{Width: 640, Height: 480, Fx: 0, Fy: 1},
		{Width: 640, Height: 480, Fx: 1, Fy: -1},
		{Width: 640, Height: 480, Fx: 1, Fy: 1, Ppx: -1},
		{Width: 640, Height: 480, Fx: 1, Fy: 1, Ppy: -1},
	} {
		test.That(t, bad.CheckValid(), test.ShouldNotBeNil)
		_, err := bad.Intrinsics()
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestIntrinsicsFromJSONFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "intrinsics.json")
	test.That(t, os.WriteFile(fn, []byte(`{"width_px": 4, "height_px": 3, "fx": 2, "fy": 2, "ppx": 2, "ppy": 1.5}`), 0o600),
		test.ShouldBeNil)
	params, err := NewPinholeCameraIntrinsicsFromJSONFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *params, test.ShouldResemble, PinholeCameraIntrinsics{Width: 4, Height: 3, Fx: 2, Fy: 2, Ppx: 2, Ppy: 1.5})

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(t.TempDir(), "nope.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIntrinsicsMatrix(t *testing.T) {
	_, err := NewIntrinsicsFromMatrix(mat.NewDense(2, 3, nil))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewIntrinsicsFromSlice([]float64{1, 2})
	test.That(t, err, test.ShouldNotBeNil)

	identity, err := NewIntrinsicsFromMatrix(mat.NewDiagDense(3, []float64{1, 1, 1}))
	test.That(t, err, test.ShouldBeNil)
	inv, err := identity.Inverse()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(inv, identity.Matrix(), 1e-12), test.ShouldBeTrue)
	ray, err := identity.PixelRay(3, 4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ray, test.ShouldResemble, r3.Vector{X: 3, Y: 4, Z: 1})

	// Matrix hands out a copy
	identity.Matrix().Set(0, 0, 5)
	test.That(t, identity.Matrix().At(0, 0), test.ShouldEqual, 1.)

	singular, err := NewIntrinsicsFromSlice([]float64{1, 0, 0, 0, 0, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	_, err = singular.Inverse()
	test.That(t, err, test.ShouldNotBeNil)
	_, err = singular.PixelRay(0, 0)
	test.That(t, err, test.ShouldNotBeNil)
}
