package referenceframe

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/simviz/spatialmath"
)

// World is the name of the root body of every tree.
const World = "world"

// ElementID identifies a collision element across the whole tree.
type ElementID int

// Geometry describes the shape of a collision element. Only the fields relevant to Type are set.
type Geometry struct {
	Type     string    `json:"type"`
	Size     r3.Vector `json:"size,omitempty"`
	Radius   float64   `json:"radius,omitempty"`
	Length   float64   `json:"length,omitempty"`
	Filename string    `json:"filename,omitempty"`
}

// CollisionElement is a piece of collision geometry rigidly attached to a body.
type CollisionElement struct {
	ID       ElementID
	Body     int
	Name     string
	Pose     spatial.Pose
	Geometry Geometry
}

// Joint connects a body to its parent. The child body's pose in its parent is
// Origin ∘ Frame.Transform(q) ∘ ChildOffset.
type Joint struct {
	Name   string
	Frame  Frame
	Origin spatial.Pose
	// ChildOffset is the pose of the child body in the joint frame. It is the identity for URDF joints,
	// whose child link frame coincides with the joint frame.
	ChildOffset spatial.Pose
	// PositionStart is the offset of this joint's first coordinate in the tree's position vector.
	PositionStart int
	Floating      bool
	Actuated      bool
}

// NumPositions returns how many generalized coordinates this joint owns.
func (j *Joint) NumPositions() int {
	return len(j.Frame.DoF())
}

// PositionIndices returns the contiguous position vector range owned by the joint.
func (j *Joint) PositionIndices() []int {
	indices := make([]int, j.NumPositions())
	for i := range indices {
		indices[i] = j.PositionStart + i
	}
	return indices
}

func (j *Joint) positionName(offset int) string {
	switch {
	case j.Floating && len(floatingBaseSuffixes) > offset:
		return fmt.Sprintf("%s_%s", j.Name, floatingBaseSuffixes[offset])
	case j.NumPositions() == 1:
		return j.Name
	default:
		return fmt.Sprintf("%s_%d", j.Name, offset)
	}
}

// Body is a rigid body of the tree. Every body except the world has a joint to its parent.
type Body struct {
	Name          string
	Index         int
	ModelInstance int
	Parent        int
	Joint         *Joint
	CollisionIDs  []ElementID
}

// HasJoint reports whether the body is attached to a parent through a joint.
func (b *Body) HasJoint() bool {
	return b.Joint != nil
}

// NamedFrame is a frame rigidly attached to a body at a fixed pose, used as an attachment point for models
// and as the frame of sensors.
type NamedFrame struct {
	Name          string
	Body          int
	Pose          spatial.Pose
	ModelInstance int
}

// Tree is a kinematic tree of bodies. Body 0 is the world. Bodies are only ever appended, so a body's
// parent always precedes it.
type Tree struct {
	bodies            []*Body
	frames            []*NamedFrame
	elements          []*CollisionElement
	numPositions      int
	numModelInstances int
}

// NewTree returns a tree containing only the world body.
func NewTree() *Tree {
	return &Tree{
		bodies: []*Body{{Name: World, Index: 0, Parent: -1, ModelInstance: -1}},
	}
}

// NumBodies returns the number of bodies including the world.
func (t *Tree) NumBodies() int {
	return len(t.bodies)
}

// NumPositions returns the length of the generalized position vector.
func (t *Tree) NumPositions() int {
	return t.numPositions
}

// NumVelocities returns the length of the generalized velocity vector. Floating bases are parameterized
// with roll/pitch/yaw, so there is one velocity per position.
func (t *Tree) NumVelocities() int {
	return t.numPositions
}

// NumModelInstances returns the number of models added to the tree.
func (t *Tree) NumModelInstances() int {
	return t.numModelInstances
}

// NumActuators returns the number of actuated joints.
func (t *Tree) NumActuators() int {
	n := 0
	for _, j := range t.Joints() {
		if j.Actuated {
			n++
		}
	}
	return n
}

// Body returns the body at index i, or nil.
func (t *Tree) Body(i int) *Body {
	if i < 0 || i >= len(t.bodies) {
		return nil
	}
	return t.bodies[i]
}

// Bodies returns every body in index order.
func (t *Tree) Bodies() []*Body {
	return t.bodies
}

// Joints returns the joints of every body in body order.
func (t *Tree) Joints() []*Joint {
	joints := make([]*Joint, 0, len(t.bodies)-1)
	for _, b := range t.bodies {
		if b.HasJoint() {
			joints = append(joints, b.Joint)
		}
	}
	return joints
}

// Frames returns the named frames in insertion order.
func (t *Tree) Frames() []*NamedFrame {
	return t.frames
}

// CollisionElements returns all collision elements in id order.
func (t *Tree) CollisionElements() []*CollisionElement {
	return t.elements
}

// AddModelInstance reserves a new model instance id.
func (t *Tree) AddModelInstance() int {
	id := t.numModelInstances
	t.numModelInstances++
	return id
}

// AddBody appends a body attached to parent through joint and assigns the joint its position range.
func (t *Tree) AddBody(name string, parent int, joint *Joint, modelInstance int) (int, error) {
	if t.Body(parent) == nil {
		return -1, NewFrameIndexError(parent)
	}
	if joint == nil || joint.Frame == nil {
		return -1, errors.Errorf("body %q needs a joint with a frame", name)
	}
	if joint.Origin == nil {
		joint.Origin = spatial.NewZeroPose()
	}
	if joint.ChildOffset == nil {
		joint.ChildOffset = spatial.NewZeroPose()
	}
	joint.PositionStart = t.numPositions
	t.numPositions += joint.NumPositions()

	body := &Body{
		Name:          name,
		Index:         len(t.bodies),
		ModelInstance: modelInstance,
		Parent:        parent,
		Joint:         joint,
	}
	t.bodies = append(t.bodies, body)
	return body.Index, nil
}

// AddCollisionElement attaches geometry to a body and returns its tree wide id.
func (t *Tree) AddCollisionElement(body int, name string, pose spatial.Pose, geometry Geometry) (ElementID, error) {
	b := t.Body(body)
	if b == nil {
		return -1, NewFrameIndexError(body)
	}
	if pose == nil {
		pose = spatial.NewZeroPose()
	}
	id := ElementID(len(t.elements))
	t.elements = append(t.elements, &CollisionElement{ID: id, Body: body, Name: name, Pose: pose, Geometry: geometry})
	b.CollisionIDs = append(b.CollisionIDs, id)
	return id, nil
}

// AddFrame adds a named frame and returns its frame index. Named frame indices are negative
// (-2, -3, ...) so they never collide with body indices.
func (t *Tree) AddFrame(frame *NamedFrame) (int, error) {
	if frame == nil {
		return 0, errors.New("frame is nil")
	}
	if t.Body(frame.Body) == nil {
		return 0, NewFrameIndexError(frame.Body)
	}
	if frame.Pose == nil {
		frame.Pose = spatial.NewZeroPose()
	}
	t.frames = append(t.frames, frame)
	return -(len(t.frames) + 1), nil
}

// NewNamedFrameInBody builds a frame at xyz/rpy in the given body. A nil rpy means no rotation.
func NewNamedFrameInBody(name string, body int, xyz r3.Vector, rpy *spatial.EulerAngles) *NamedFrame {
	// a nil *EulerAngles must not become a non-nil Orientation
	var o spatial.Orientation
	if rpy != nil {
		o = rpy
	}
	return &NamedFrame{Name: name, Body: body, Pose: spatial.NewPose(xyz, o), ModelInstance: -1}
}

// FindBody returns the index of the first body named name. A negative modelInstance matches any model.
func (t *Tree) FindBody(name string, modelInstance int) (int, error) {
	for _, b := range t.bodies {
		if b.Name == name && (modelInstance < 0 || b.ModelInstance == modelInstance || b.Index == 0) {
			return b.Index, nil
		}
	}
	return -1, errors.Errorf("body with name %q not in tree", name)
}

// FindFrame returns the named frame called name and its frame index. Bodies are frames too: if no named frame
// matches, a body of that name is returned as a frame at its origin.
func (t *Tree) FindFrame(name string) (*NamedFrame, int, error) {
	for i, f := range t.frames {
		if f.Name == name {
			return f, -(i + 2), nil
		}
	}
	if idx, err := t.FindBody(name, -1); err == nil {
		b := t.bodies[idx]
		return &NamedFrame{Name: b.Name, Body: idx, Pose: spatial.NewZeroPose(), ModelInstance: b.ModelInstance}, idx, nil
	}
	return nil, 0, NewFrameMissingError(name)
}

// frameAt resolves a frame index to the body it is attached to and its pose within that body.
func (t *Tree) frameAt(index int) (int, spatial.Pose, error) {
	if index >= 0 {
		if index >= len(t.bodies) {
			return 0, nil, NewFrameIndexError(index)
		}
		return index, spatial.NewZeroPose(), nil
	}
	i := -index - 2
	if i < 0 || i >= len(t.frames) {
		return 0, nil, NewFrameIndexError(index)
	}
	return t.frames[i].Body, t.frames[i].Pose, nil
}

// BodyOrFrameName returns the name for a frame index.
func (t *Tree) BodyOrFrameName(index int) string {
	if index >= 0 && index < len(t.bodies) {
		return t.bodies[index].Name
	}
	if i := -index - 2; i >= 0 && i < len(t.frames) {
		return t.frames[i].Name
	}
	return ""
}

// PositionName returns the name of the i-th generalized coordinate.
func (t *Tree) PositionName(i int) string {
	for _, j := range t.Joints() {
		if i >= j.PositionStart && i < j.PositionStart+j.NumPositions() {
			return j.positionName(i - j.PositionStart)
		}
	}
	return ""
}

// AddFlatTerrain adds a large box whose top face is the z=0 plane, welded to the world.
func AddFlatTerrain(t *Tree) (int, error) {
	const (
		boxWidth = 100.
		boxDepth = 10.
	)
	model := t.AddModelInstance()
	idx, err := t.AddBody("terrain", 0, &Joint{Name: "terrain_weld", Frame: NewZeroStaticFrame("terrain_weld")}, model)
	if err != nil {
		return -1, err
	}
	_, err = t.AddCollisionElement(idx, "terrain", spatial.NewPoseFromPoint(r3.Vector{Z: -boxDepth / 2}),
		Geometry{Type: "box", Size: r3.Vector{X: boxWidth, Y: boxWidth, Z: boxDepth}})
	return idx, err
}
