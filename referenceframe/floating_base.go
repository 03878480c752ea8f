package referenceframe

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/simviz/spatialmath"
)

// FloatingBaseType selects how the root body of a model is attached to its parent frame.
type FloatingBaseType int

const (
	// Fixed welds the root body to its parent frame.
	Fixed FloatingBaseType = iota
	// Translating lets the root body translate freely without rotating.
	Translating
	// RollPitchYaw lets the root body move freely in all six degrees of freedom.
	RollPitchYaw
)

// FloatingBaseTypeFromString parses "fixed", "translating" or "roll_pitch_yaw". The empty string is Fixed.
func FloatingBaseTypeFromString(s string) (FloatingBaseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return Fixed, nil
	case "translating":
		return Translating, nil
	case "roll_pitch_yaw", "rpy", "rollpitchyaw":
		return RollPitchYaw, nil
	default:
		return Fixed, errors.Errorf("unknown floating base type %q", s)
	}
}

func (fb FloatingBaseType) String() string {
	switch fb {
	case Fixed:
		return "fixed"
	case Translating:
		return "translating"
	case RollPitchYaw:
		return "roll_pitch_yaw"
	default:
		return "unknown"
	}
}

// floatingBaseSuffixes name the generalized coordinates of a floating base, in position vector order.
var floatingBaseSuffixes = []string{"x", "y", "z", "roll", "pitch", "yaw"}

// NumPositions returns how many generalized coordinates the base type adds.
func (fb FloatingBaseType) NumPositions() int {
	switch fb {
	case Translating:
		return 3
	case RollPitchYaw:
		return 6
	case Fixed:
		return 0
	default:
		return 0
	}
}

type floatingFrame struct {
	name     string
	baseType FloatingBaseType
}

// NewFloatingFrame returns the frame of a floating base joint. A Fixed base gets a zero static frame.
func NewFloatingFrame(name string, baseType FloatingBaseType) Frame {
	if baseType == Fixed {
		return NewZeroStaticFrame(name)
	}
	return &floatingFrame{name: name, baseType: baseType}
}

func (ff *floatingFrame) Name() string {
	return ff.name
}

func (ff *floatingFrame) DoF() []Limit {
	limits := make([]Limit, ff.baseType.NumPositions())
	for i := range limits {
		limits[i] = unboundedLimit()
	}
	return limits
}

// Transform maps (x, y, z[, roll, pitch, yaw]) to a pose.
func (ff *floatingFrame) Transform(input []Input) (spatial.Pose, error) {
	if len(input) != ff.baseType.NumPositions() {
		return nil, NewIncorrectDoFError(len(input), ff.baseType.NumPositions())
	}
	pt := r3.Vector{X: input[0].Value, Y: input[1].Value, Z: input[2].Value}
	if ff.baseType == Translating {
		return spatial.NewPoseFromPoint(pt), nil
	}
	return spatial.NewPose(pt, &spatial.EulerAngles{
		Roll:  input[3].Value,
		Pitch: input[4].Value,
		Yaw:   input[5].Value,
	}), nil
}
