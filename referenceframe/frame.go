// Package referenceframe holds the kinematic tree of a simulated scene: bodies connected by joints,
// the generalized position vector those joints own, and the forward kinematics that maps a position
// vector to world poses. Models are loaded into a tree from URDF and SDF documents.
package referenceframe

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/simviz/spatialmath"
)

// Input wraps the input to a mutable frame, e.g. a joint angle or a prismatic offset.
// Revolute inputs are in radians, prismatic inputs in meters.
type Input struct {
	Value float64
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	for i, f := range inputs {
		floats[i] = f.Value
	}
	return floats
}

// Limit represents the limits of motion for a single degree of freedom.
type Limit struct {
	Min float64
	Max float64
}

func unboundedLimit() Limit {
	return Limit{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Frame is the motion part of a joint: the pose it contributes for a given set of inputs.
type Frame interface {
	// Name returns the name of the frame.
	Name() string

	// Transform is the pose (rotation and translation) that goes FROM the moving side TO the fixed side.
	Transform([]Input) (spatial.Pose, error)

	// DoF returns one limit per degree of freedom. Frames that don't move return an empty slice.
	DoF() []Limit
}

// a static Frame is a simple coordinate system that encodes a fixed translation and rotation.
type staticFrame struct {
	name      string
	transform spatial.Pose
}

// NewStaticFrame creates a frame given a pose relative to its parent. The pose is fixed for all time.
// Pose is not allowed to be nil.
func NewStaticFrame(name string, pose spatial.Pose) (Frame, error) {
	if pose == nil {
		return nil, errors.New("pose is not allowed to be nil")
	}
	return &staticFrame{name: name, transform: pose}, nil
}

// NewZeroStaticFrame creates a frame with no translation or orientation changes.
func NewZeroStaticFrame(name string) Frame {
	return &staticFrame{name: name, transform: spatial.NewZeroPose()}
}

func (sf *staticFrame) Name() string {
	return sf.name
}

func (sf *staticFrame) Transform(input []Input) (spatial.Pose, error) {
	if len(input) != 0 {
		return nil, NewIncorrectDoFError(len(input), 0)
	}
	return sf.transform, nil
}

func (sf *staticFrame) DoF() []Limit {
	return []Limit{}
}

// a translational Frame is a prismatic joint that moves along a single axis.
type translationalFrame struct {
	name      string
	transAxis r3.Vector
	limit     []Limit
}

// NewTranslationalFrame creates a frame given a name and the axis in which to translate.
func NewTranslationalFrame(name string, axis r3.Vector, limit Limit) (Frame, error) {
	if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
		return nil, errors.New("cannot use zero vector as translation axis")
	}
	return &translationalFrame{name: name, transAxis: axis.Normalize(), limit: []Limit{limit}}, nil
}

func (pf *translationalFrame) Name() string {
	return pf.name
}

// Transform returns a pose translated by the amount specified in the inputs. Limits are not enforced;
// the simulation is free to report positions outside of them.
func (pf *translationalFrame) Transform(input []Input) (spatial.Pose, error) {
	if len(input) != 1 {
		return nil, NewIncorrectDoFError(len(input), 1)
	}
	return spatial.NewPoseFromPoint(pf.transAxis.Mul(input[0].Value)), nil
}

func (pf *translationalFrame) DoF() []Limit {
	return pf.limit
}

type rotationalFrame struct {
	name    string
	rotAxis r3.Vector
	limit   []Limit
}

// NewRotationalFrame creates a revolute joint frame rotating about axis.
func NewRotationalFrame(name string, axis r3.Vector, limit Limit) (Frame, error) {
	if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
		return nil, errors.New("cannot use zero vector as rotation axis")
	}
	return &rotationalFrame{name: name, rotAxis: axis.Normalize(), limit: []Limit{limit}}, nil
}

func (rf *rotationalFrame) Name() string {
	return rf.name
}

// Transform returns the rotation of the joint for its single input angle.
func (rf *rotationalFrame) Transform(input []Input) (spatial.Pose, error) {
	if len(input) != 1 {
		return nil, NewIncorrectDoFError(len(input), 1)
	}
	return spatial.NewPose(r3.Vector{}, &spatial.R4AA{
		Theta: input[0].Value,
		RX:    rf.rotAxis.X,
		RY:    rf.rotAxis.Y,
		RZ:    rf.rotAxis.Z,
	}), nil
}

func (rf *rotationalFrame) DoF() []Limit {
	return rf.limit
}
