package utils

import (
	"errors"
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90.0)
	test.That(t, Float64AlmostEqual(1.0, 1.0+1e-9, 1e-6), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1.0, 1.1, 1e-6), test.ShouldBeFalse)
}

func TestSpaceDelimitedStringToFloatSlice(t *testing.T) {
	vals, err := SpaceDelimitedStringToFloatSlice(" 0.1  -2 3e-1 ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vals, test.ShouldResemble, []float64{0.1, -2, 0.3})

	vals, err = SpaceDelimitedStringToFloatSlice("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vals, test.ShouldHaveLength, 0)

	_, err = SpaceDelimitedStringToFloatSlice("1 two 3")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParseVector3(t *testing.T) {
	v, err := ParseVector3("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldResemble, [3]float64{})

	v, err = ParseVector3("1 2 3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldResemble, [3]float64{1, 2, 3})

	_, err = ParseVector3("1 2")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfigValidationErrors(t *testing.T) {
	err := NewConfigValidationFieldRequiredError("models.0", "path")
	test.That(t, err.Error(), test.ShouldEqual, `error validating "models.0": "path" is required`)

	err = NewConfigValidationError("camera", errors.New("bad"))
	test.That(t, err.Error(), test.ShouldContainSubstring, "bad")

	test.That(t, JoinPath("", "models", 2), test.ShouldEqual, "models.2")
	test.That(t, JoinPath("scene", "camera"), test.ShouldEqual, "scene.camera")
}
