package scene

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/simviz/logging"
	"go.viam.com/simviz/referenceframe"
	"go.viam.com/simviz/rimage"
	spatial "go.viam.com/simviz/spatialmath"
	"go.viam.com/simviz/viz"
)

func readTestScene(t *testing.T) (*Config, string) {
	t.Helper()
	pcdDir := t.TempDir()
	t.Setenv("SIMVIZ_TEST_PREFIX", "test_cam")
	t.Setenv("SIMVIZ_TEST_PCD_DIR", pcdDir)
	t.Setenv("SIMVIZ_TEST_CONTACT_LOG", "contacts.jsonl")
	logger, logs := logging.NewObservedTestLogger(t)
	cfg, err := Read(filepath.Join("testdata", "pick_and_place.json5"), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("unused scene config keys").Len(), test.ShouldEqual, 1)
	return cfg, pcdDir
}

func TestRead(t *testing.T) {
	cfg, pcdDir := readTestScene(t)
	test.That(t, cfg.FlatTerrain, test.ShouldBeTrue)
	test.That(t, cfg.Models, test.ShouldHaveLength, 5)
	test.That(t, cfg.Models[3].FloatingBase, test.ShouldEqual, "roll_pitch_yaw")
	test.That(t, cfg.Models[4].Attach.Existing, test.ShouldEqual, "arm_frame_ee")
	test.That(t, cfg.Camera.Prefix, test.ShouldEqual, "test_cam")
	test.That(t, cfg.Camera.Intrinsics.Width, test.ShouldEqual, 4)
	test.That(t, cfg.Camera.Period(), test.ShouldEqual, viz.DefaultDrawPeriod)
	test.That(t, cfg.Camera.DepthScale(), test.ShouldEqual, DefaultDepthUnitsPerMeter)
	minHeight, maxHeight := cfg.Camera.Heights()
	test.That(t, minHeight, test.ShouldEqual, 0)
	test.That(t, maxHeight, test.ShouldEqual, 1.5)
	test.That(t, cfg.Visualizer.PCDDir, test.ShouldEqual, pcdDir)
	test.That(t, cfg.ResolvePath(cfg.ContactLog), test.ShouldEqual, filepath.Join("testdata", "contacts.jsonl"))
	test.That(t, cfg.ResolvePath("/abs/file.sdf"), test.ShouldEqual, "/abs/file.sdf")

	_, err := Read(filepath.Join("testdata", "missing.json5"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadResolvesRelativePaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenes")
	test.That(t, os.MkdirAll(dir, 0o750), test.ShouldBeNil)
	fn := filepath.Join(dir, "scene.json5")
	data := `{visualizer: {pcd_dir: "clouds"}, contact_log: "contacts.jsonl", log_file: "simviz.log"}`
	test.That(t, os.WriteFile(fn, []byte(data), 0o600), test.ShouldBeNil)

	logger := logging.NewTestLogger(t)
	cfg, err := Read(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Visualizer.PCDDir, test.ShouldEqual, filepath.Join(dir, "clouds"))
	test.That(t, cfg.ResolvePath(cfg.ContactLog), test.ShouldEqual, filepath.Join(dir, "contacts.jsonl"))
	test.That(t, cfg.ResolvePath(cfg.LogFile), test.ShouldEqual, filepath.Join(dir, "simviz.log"))

	sink, closeSink, err := cfg.Visualizer.NewSink(logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, closeSink(), test.ShouldBeNil)
	pcdSink, ok := sink.(*viz.PCDSink)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pcdSink.Filename("a"), test.ShouldEqual, filepath.Join(dir, "clouds", "a.pcd"))
}

func TestValidate(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name string
		data string
		want string
	}{
		{"model path", `{models: [{format: "urdf"}]}`, `"path" is required`},
		{"model format", `{models: [{path: "robot.xacro"}]}`, "unknown model format"},
		{"floating base", `{models: [{path: "a.urdf", floating_base: "hover"}]}`, "unknown floating base"},
		{"attach xyz", `{models: [{path: "a.urdf", attach: {name: "f", xyz: [1, 2]}}]}`, "xyz needs 3 values"},
		{"frame name", `{frames: [{xyz: [1, 2, 3]}]}`, `"name" is required`},
		{"camera frame", `{camera: {intrinsics: {width_px: 1, height_px: 1, fx: 1, fy: 1}}}`, `"frame" is required`},
		{"camera intrinsics", `{camera: {frame: "c"}}`, `"intrinsics" is required`},
		{"bad intrinsics", `{camera: {frame: "c", intrinsics: {width_px: 1, height_px: 1, fx: 0, fy: 1}}}`, "Fx"},
		{
			"color map",
			`{camera: {frame: "c", color_map: "viridis", intrinsics: {width_px: 1, height_px: 1, fx: 1, fy: 1}}}`,
			"unknown color map",
		},
		{"two sinks", `{visualizer: {address: ":6000", pcd_dir: "/tmp"}}`, "only one of"},
		{"not json5", `{models: [`, "parsing scene config"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader(strings.NewReader(tc.data), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.want)
		})
	}

	cfg, err := FromReader(strings.NewReader(`{models: [{path: "x.SDF"}]}`), logger)
	test.That(t, err, test.ShouldBeNil)
	format, err := cfg.Models[0].ModelFormat()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, format, test.ShouldEqual, FormatSDF)
}

func TestAssemble(t *testing.T) {
	cfg, _ := readTestScene(t)
	tree := referenceframe.NewTree()
	test.That(t, Assemble(tree, cfg, logging.NewTestLogger(t)), test.ShouldBeNil)

	test.That(t, tree.NumBodies(), test.ShouldEqual, 11)
	test.That(t, tree.NumPositions(), test.ShouldEqual, 10)
	test.That(t, tree.NumActuators(), test.ShouldEqual, 3)
	test.That(t, tree.Frames(), test.ShouldHaveLength, 6)

	cache, err := tree.DoKinematics(make([]float64, tree.NumPositions()))
	test.That(t, err, test.ShouldBeNil)
	pose := func(name string) r3.Vector {
		_, idx, err := tree.FindFrame(name)
		test.That(t, err, test.ShouldBeNil)
		p, err := tree.WorldPose(cache, idx)
		test.That(t, err, test.ShouldBeNil)
		return p.Point()
	}

	fwdTable, err := tree.FindBody("table_top", -1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fwdTable, test.ShouldBeGreaterThan, 0)
	test.That(t, spatial.R3VectorAlmostEqual(pose("table_frame_fwd"), r3.Vector{X: 0.8}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(pose("block"), r3.Vector{X: 0.8, Y: 0.15, Z: 0.8645}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(pose("arm_frame_ee"), r3.Vector{Z: 1.4645}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(pose("gripper_body"), pose("arm_frame_ee"), 1e-9), test.ShouldBeTrue)

	camera, err := cfg.Camera.FrameIndex(tree)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, camera, test.ShouldEqual, -7)
	test.That(t, spatial.R3VectorAlmostEqual(pose("camera_mount"), r3.Vector{X: 0.4, Z: 1.5}, 1e-9), test.ShouldBeTrue)
}

func TestAssembleErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	cfg := &Config{Models: []ModelConfig{{Path: filepath.Join("testdata", "nope.urdf")}}}
	err := Assemble(referenceframe.NewTree(), cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, os.ErrNotExist), test.ShouldBeTrue)

	cfg = &Config{Models: []ModelConfig{{
		Path:   filepath.Join("..", "referenceframe", "testdata", "block.urdf"),
		Attach: &FrameConfig{Existing: "not_a_frame"},
	}}}
	test.That(t, Assemble(referenceframe.NewTree(), cfg, logger), test.ShouldNotBeNil)

	cfg = &Config{Frames: []FrameConfig{{Name: "f", Parent: "not_a_body"}}}
	test.That(t, Assemble(referenceframe.NewTree(), cfg, logger), test.ShouldNotBeNil)
}

func TestKukaConfig(t *testing.T) {
	cfg := KukaConfig("/opt/drake")
	test.That(t, cfg.Validate("kuka"), test.ShouldBeNil)
	test.That(t, cfg.FlatTerrain, test.ShouldBeTrue)
	test.That(t, cfg.Models, test.ShouldHaveLength, 5)
	test.That(t, cfg.Models[0].Path, test.ShouldEqual, cfg.Models[1].Path)
	test.That(t, cfg.Models[1].Attach.XYZ, test.ShouldResemble, []float64{0.8, 0, 0})
	test.That(t, cfg.Models[2].Attach.XYZ[2], test.ShouldAlmostEqual, 0.7645)
	test.That(t, cfg.Models[3].Attach.XYZ, test.ShouldResemble, []float64{0.8, 0.15, 0.7645 + 0.1})
	test.That(t, cfg.Models[3].FloatingBase, test.ShouldEqual, "roll_pitch_yaw")
	test.That(t, cfg.Models[4].Attach.Existing, test.ShouldEqual, "iiwa_frame_ee")
	test.That(t, cfg.Models[4].Path, test.ShouldStartWith, "/opt/drake/manipulation")
}

func TestCameraVisualizerFromConfig(t *testing.T) {
	cfg, pcdDir := readTestScene(t)
	logger := logging.NewTestLogger(t)
	tree := referenceframe.NewTree()
	test.That(t, Assemble(tree, cfg, logger), test.ShouldBeNil)

	sink, closeSink, err := cfg.Visualizer.NewSink(logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, closeSink(), test.ShouldBeNil)
	}()
	cv, err := NewCameraVisualizer(context.Background(), cfg.Camera, tree, sink, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cv.PointsPath(), test.ShouldEqual, "test_cam/points")

	// the camera looks straight down from 1.5m; a 1m deep image lands at 0.5m
	dm := rimage.NewEmptyDepthMap(4, 3)
	for i := range dm.Data() {
		dm.Data()[i] = 1
	}
	x := make([]float64, tree.NumPositions()+tree.NumVelocities())
	test.That(t, cv.Publish(context.Background(), 0, dm, x), test.ShouldBeNil)
	_, err = os.Stat(filepath.Join(pcdDir, "test_cam", "points.pcd"))
	test.That(t, err, test.ShouldBeNil)
}
