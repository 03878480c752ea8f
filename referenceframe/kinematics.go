package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/simviz/spatialmath"
)

// KinematicsCache holds the world pose of every body of a tree for one position vector.
type KinematicsCache struct {
	q     []float64
	poses []spatial.Pose
}

// Positions returns a copy of the position vector the cache was computed for.
func (kc *KinematicsCache) Positions() []float64 {
	return append([]float64(nil), kc.q...)
}

// DoKinematics computes the world pose of every body for the position vector q.
func (t *Tree) DoKinematics(q []float64) (*KinematicsCache, error) {
	if len(q) != t.numPositions {
		return nil, NewIncorrectPositionsError(len(q), t.numPositions)
	}
	poses := make([]spatial.Pose, len(t.bodies))
	poses[0] = spatial.NewZeroPose()
	for _, b := range t.bodies[1:] {
		j := b.Joint
		motion, err := j.Frame.Transform(FloatsToInputs(q[j.PositionStart : j.PositionStart+j.NumPositions()]))
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", j.Name)
		}
		poses[b.Index] = spatial.Compose(spatial.Compose(spatial.Compose(poses[b.Parent], j.Origin), motion), j.ChildOffset)
	}
	return &KinematicsCache{q: append([]float64(nil), q...), poses: poses}, nil
}

// WorldPose returns the world pose of a body or named frame.
func (t *Tree) WorldPose(cache *KinematicsCache, frameIndex int) (spatial.Pose, error) {
	if cache == nil {
		return nil, errors.New("kinematics cache is nil")
	}
	if len(cache.poses) != len(t.bodies) {
		return nil, errors.Errorf("kinematics cache has %d bodies but the tree has %d, recompute it", len(cache.poses), len(t.bodies))
	}
	body, inBody, err := t.frameAt(frameIndex)
	if err != nil {
		return nil, err
	}
	return spatial.Compose(cache.poses[body], inBody), nil
}

// RelativeTransform returns the pose of frame `to` expressed in frame `from`.
func (t *Tree) RelativeTransform(cache *KinematicsCache, from, to int) (spatial.Pose, error) {
	fromPose, err := t.WorldPose(cache, from)
	if err != nil {
		return nil, err
	}
	toPose, err := t.WorldPose(cache, to)
	if err != nil {
		return nil, err
	}
	return spatial.PoseBetween(fromPose, toPose), nil
}

// TransformPoints maps points expressed in frame `from` into frame `to`.
func (t *Tree) TransformPoints(cache *KinematicsCache, pts []r3.Vector, from, to int) ([]r3.Vector, error) {
	rel, err := t.RelativeTransform(cache, to, from)
	if err != nil {
		return nil, err
	}
	return spatial.TransformPoints(rel, pts), nil
}
