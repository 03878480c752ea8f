package referenceframe

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	spatial "go.viam.com/simviz/spatialmath"
)

func TestParseSDFPose(t *testing.T) {
	p, err := ParseSDFPose("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostEqual(p, spatial.NewZeroPose()), test.ShouldBeTrue)

	p, err = ParseSDFPose(" 1 2 3  0 0 0 ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})

	_, err = ParseSDFPose("1 2 3")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ParseSDFPose("1 2 3 a b c")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSDFTable(t *testing.T) {
	tree := NewTree()
	attach := NewNamedFrameInBody("table_2", 0, r3.Vector{X: 0.8}, nil)
	ids, err := AddModelsFromSDFFile(tree, "testdata/table.sdf", Fixed, attach)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ids, test.ShouldResemble, []int{0})
	test.That(t, tree.NumPositions(), test.ShouldEqual, 0)

	top, err := tree.FindBody("table_top", ids[0])
	test.That(t, err, test.ShouldBeNil)
	cache, err := tree.DoKinematics(nil)
	test.That(t, err, test.ShouldBeNil)
	pose, err := tree.WorldPose(cache, top)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 0.8, Z: 0.736}, 1e-9), test.ShouldBeTrue)

	elems := tree.CollisionElements()
	test.That(t, elems, test.ShouldHaveLength, 1)
	test.That(t, elems[0].Name, test.ShouldEqual, "surface")
	test.That(t, elems[0].Geometry.Size, test.ShouldResemble, r3.Vector{X: 0.8, Y: 1.2, Z: 0.057})
}

func TestSDFGripper(t *testing.T) {
	tree := NewTree()
	ids, err := AddModelsFromSDFFile(tree, "testdata/gripper.sdf", Fixed, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ids, test.ShouldHaveLength, 1)
	test.That(t, tree.NumPositions(), test.ShouldEqual, 2)
	// only the left finger declares an effort limit
	test.That(t, tree.NumActuators(), test.ShouldEqual, 1)
	test.That(t, tree.PositionName(0), test.ShouldEqual, "left_finger_sliding_joint")

	left, err := tree.FindBody("left_finger", -1)
	test.That(t, err, test.ShouldBeNil)
	right, err := tree.FindBody("right_finger", -1)
	test.That(t, err, test.ShouldBeNil)

	cache, err := tree.DoKinematics([]float64{0, 0})
	test.That(t, err, test.ShouldBeNil)
	pose, err := tree.WorldPose(cache, left)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: -0.01, Z: 0.08}, 1e-9), test.ShouldBeTrue)

	// each finger slides along its own x axis, and the right finger is turned around
	cache, err = tree.DoKinematics([]float64{-0.05, -0.05})
	test.That(t, err, test.ShouldBeNil)
	pose, err = tree.WorldPose(cache, left)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: -0.06, Z: 0.08}, 1e-9), test.ShouldBeTrue)
	pose, err = tree.WorldPose(cache, right)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 0.06, Z: 0.08}, 1e-9), test.ShouldBeTrue)
}

func TestSDFGripperOnArm(t *testing.T) {
	tree := NewTree()
	_, err := AddModelFromURDFFile(tree, "testdata/two_link_arm.urdf", Fixed, nil)
	test.That(t, err, test.ShouldBeNil)
	ee, _, err := tree.FindFrame("arm_frame_ee")
	test.That(t, err, test.ShouldBeNil)
	_, err = AddModelsFromSDFFile(tree, "testdata/gripper.sdf", Fixed, ee)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.NumPositions(), test.ShouldEqual, 4)
	test.That(t, tree.NumActuators(), test.ShouldEqual, 3)

	body, err := tree.FindBody("gripper_body", -1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.Body(body).Parent, test.ShouldEqual, 3)

	cache, err := tree.DoKinematics([]float64{0, 0, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	pose, err := tree.WorldPose(cache, body)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(pose.Point(), r3.Vector{Z: 0.7}, 1e-9), test.ShouldBeTrue)
}

func TestSDFMultipleModels(t *testing.T) {
	doc := []byte(`<sdf version="1.6">
  <world name="w">
    <model name="one"><pose>1 0 0 0 0 0</pose><link name="l"/></model>
    <model name="two"><pose>0 1 0 0 0 0</pose><link name="l"/></model>
  </world>
</sdf>`)
	tree := NewTree()
	ids, err := AddModelsFromSDFString(tree, doc, Translating, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ids, test.ShouldResemble, []int{0, 1})
	test.That(t, tree.NumPositions(), test.ShouldEqual, 6)

	two, err := tree.FindBody("l", 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.Body(two).ModelInstance, test.ShouldEqual, 1)
	cache, err := tree.DoKinematics([]float64{0, 0, 0, 0, 0, 0.5})
	test.That(t, err, test.ShouldBeNil)
	pose, err := tree.WorldPose(cache, two)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(pose.Point(), r3.Vector{Y: 1, Z: 0.5}, 1e-9), test.ShouldBeTrue)

	_, err = AddModelsFromSDFString(tree, []byte(`<sdf version="1.6"></sdf>`), Fixed, nil)
	test.That(t, err, test.ShouldEqual, ErrNoModelInformation)
	_, err = AddModelsFromSDFString(tree, []byte(`<sdf><model name="m"><link name="a"/>
<joint name="j" type="ball"><parent>a</parent><child>a</child></joint></model></sdf>`), Fixed, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
