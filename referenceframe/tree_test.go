package referenceframe

import (
	"bytes"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	spatial "go.viam.com/simviz/spatialmath"
)

func TestTreeBasics(t *testing.T) {
	tree := NewTree()
	test.That(t, tree.NumBodies(), test.ShouldEqual, 1)
	test.That(t, tree.Body(0).Name, test.ShouldEqual, World)
	test.That(t, tree.Body(0).HasJoint(), test.ShouldBeFalse)
	test.That(t, tree.Body(1), test.ShouldBeNil)

	_, err := tree.AddBody("orphan", 5, &Joint{Name: "j", Frame: NewZeroStaticFrame("j")}, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = tree.AddBody("nojoint", 0, nil, 0)
	test.That(t, err, test.ShouldNotBeNil)

	terrain, err := AddFlatTerrain(tree)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.NumPositions(), test.ShouldEqual, 0)
	elems := tree.CollisionElements()
	test.That(t, elems, test.ShouldHaveLength, 1)
	test.That(t, elems[0].Geometry.Size, test.ShouldResemble, r3.Vector{X: 100, Y: 100, Z: 10})
	// top face of the box is the ground plane
	test.That(t, elems[0].Pose.Point().Z+elems[0].Geometry.Size.Z/2, test.ShouldAlmostEqual, 0)
	test.That(t, tree.CollisionElementToBodyIndex(), test.ShouldResemble, map[ElementID]int{0: terrain})
}

func TestNewNamedFrameInBody(t *testing.T) {
	f := NewNamedFrameInBody("mount", 0, r3.Vector{Z: 1}, nil)
	test.That(t, f.Body, test.ShouldEqual, 0)
	test.That(t, spatial.PoseAlmostEqual(f.Pose, spatial.NewPoseFromPoint(r3.Vector{Z: 1})), test.ShouldBeTrue)

	rpy := &spatial.EulerAngles{Yaw: math.Pi / 2}
	f = NewNamedFrameInBody("turned", 0, r3.Vector{}, rpy)
	test.That(t, spatial.OrientationAlmostEqual(f.Pose.Orientation(), rpy), test.ShouldBeTrue)
}

func TestFramesAndKinematics(t *testing.T) {
	tree := abTree(t)
	linkB, err := tree.FindBody("link_b", -1)
	test.That(t, err, test.ShouldBeNil)

	idx, err := tree.AddFrame(NewNamedFrameInBody("tip", linkB, r3.Vector{X: 1}, nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, -2)
	_, err = tree.AddFrame(NewNamedFrameInBody("bad", 42, r3.Vector{}, nil))
	test.That(t, err, test.ShouldNotBeNil)

	f, fIdx, err := tree.FindFrame("tip")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fIdx, test.ShouldEqual, idx)
	test.That(t, f.Body, test.ShouldEqual, linkB)
	_, bIdx, err := tree.FindFrame("link_a")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bIdx, test.ShouldEqual, 1)
	_, _, err = tree.FindFrame("nope")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, tree.BodyOrFrameName(idx), test.ShouldEqual, "tip")

	_, err = tree.DoKinematics([]float64{1, 2})
	test.That(t, err, test.ShouldNotBeNil)

	cache, err := tree.DoKinematics([]float64{1, 2, math.Pi / 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cache.Positions(), test.ShouldResemble, []float64{1, 2, math.Pi / 2})

	pose, err := tree.WorldPose(cache, idx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 1, Y: 3}, 1e-9), test.ShouldBeTrue)

	pts, err := tree.TransformPoints(cache, []r3.Vector{{}, {X: 1}}, linkB, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(pts[0], r3.Vector{X: 1, Y: 2}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(pts[1], r3.Vector{X: 1, Y: 3}, 1e-9), test.ShouldBeTrue)

	// and back again
	back, err := tree.TransformPoints(cache, pts, 0, linkB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(back[1], r3.Vector{X: 1}, 1e-9), test.ShouldBeTrue)

	_, err = tree.WorldPose(cache, -7)
	test.That(t, err, test.ShouldNotBeNil)

	// a cache from before the tree grew is rejected
	_, err = AddFlatTerrain(tree)
	test.That(t, err, test.ShouldBeNil)
	_, err = tree.WorldPose(cache, linkB)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWriteInfo(t *testing.T) {
	tree := NewTree()
	_, err := AddModelFromURDFFile(tree, "testdata/two_link_arm.urdf", Fixed, nil)
	test.That(t, err, test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, tree.WriteInfo(&buf), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual, `0 arm_joint_1
1 arm_joint_2
-----------------
0 world
1 arm_link_0
2 arm_link_1
3 arm_link_2
Number of actuators: 2
`)
}

func TestPositionNames(t *testing.T) {
	tree := abTree(t)
	test.That(t, tree.PositionName(0), test.ShouldEqual, "a_0")
	test.That(t, tree.PositionName(1), test.ShouldEqual, "a_1")
	test.That(t, tree.PositionName(2), test.ShouldEqual, "b")
	test.That(t, tree.PositionName(3), test.ShouldEqual, "")

	_, err := AddModelFromURDFFile(tree, "testdata/block.urdf", RollPitchYaw, nil)
	test.That(t, err, test.ShouldBeNil)
	names := make([]string, 0, 6)
	for i := 3; i < tree.NumPositions(); i++ {
		names = append(names, tree.PositionName(i))
	}
	test.That(t, names, test.ShouldResemble, []string{"base_x", "base_y", "base_z", "base_roll", "base_pitch", "base_yaw"})
}
