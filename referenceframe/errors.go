package referenceframe

import (
	"github.com/pkg/errors"
)

// ErrJointsNotFound is returned when a requested joint name has no matching joint in the tree.
var ErrJointsNotFound = errors.New("didn't find all requested controlled joint names")

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// NewIncorrectDoFError returns an error indicating that the length of an input slice does not match the DoF of a frame.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of dof (%d) does not match number of inputs (%d)", expected, actual)
}

// NewIncorrectPositionsError is returned when a position vector does not match the tree.
func NewIncorrectPositionsError(actual, expected int) error {
	return errors.Errorf("position vector has %d entries but the tree has %d positions", actual, expected)
}

// NewFrameMissingError returns an error indicating that the given frame is missing from the tree.
func NewFrameMissingError(frameName string) error {
	return errors.Errorf("frame with name %q not in tree", frameName)
}

// NewFrameIndexError returns an error for a frame index outside of the tree.
func NewFrameIndexError(index int) error {
	return errors.Errorf("frame index %d not in tree", index)
}

// NewMissingJointsError wraps ErrJointsNotFound with the names that did not resolve.
func NewMissingJointsError(missing []string) error {
	return errors.Wrapf(ErrJointsNotFound, "missing %v", missing)
}
