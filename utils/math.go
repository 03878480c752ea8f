// Package utils contains small helpers shared across simviz packages.
package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// SpaceDelimitedStringToFloatSlice splits up space-delimited fields in URDF and SDF documents, such as
// xyz or rpy attributes. An empty string yields an empty slice.
func SpaceDelimitedStringToFloatSlice(s string) ([]float64, error) {
	fields := strings.Fields(s)
	converted := make([]float64, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot parse %q as a number list", s)
		}
		converted = append(converted, value)
	}
	return converted, nil
}

// ParseVector3 parses exactly three space-delimited floats, returning zeros for an empty string.
func ParseVector3(s string) ([3]float64, error) {
	var out [3]float64
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	vals, err := SpaceDelimitedStringToFloatSlice(s)
	if err != nil {
		return out, err
	}
	if len(vals) != 3 {
		return out, errors.Errorf("expected 3 values but got %d in %q", len(vals), s)
	}
	copy(out[:], vals)
	return out, nil
}
