package scene

import (
	"path/filepath"

	"github.com/pkg/errors"

	"go.viam.com/simviz/logging"
	"go.viam.com/simviz/referenceframe"
)

// attachFrame resolves where a model or frame goes: an existing frame, a new frame added to the tree, or
// nil for the world origin.
func attachFrame(tree *referenceframe.Tree, cfg *FrameConfig) (*referenceframe.NamedFrame, error) {
	if cfg == nil {
		return nil, nil
	}
	if cfg.Existing != "" {
		frame, _, err := tree.FindFrame(cfg.Existing)
		return frame, err
	}
	parent := 0
	if cfg.Parent != "" && cfg.Parent != referenceframe.World {
		var err error
		if parent, err = tree.FindBody(cfg.Parent, -1); err != nil {
			return nil, err
		}
	}
	frame := &referenceframe.NamedFrame{Name: cfg.Name, Body: parent, Pose: cfg.Pose(), ModelInstance: -1}
	if _, err := tree.AddFrame(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// AddModel adds one model to tree and returns the model instances it created.
func AddModel(tree *referenceframe.Tree, cfg *ModelConfig, path string) ([]int, error) {
	format, err := cfg.ModelFormat()
	if err != nil {
		return nil, err
	}
	base, err := referenceframe.FloatingBaseTypeFromString(cfg.FloatingBase)
	if err != nil {
		return nil, err
	}
	attach, err := attachFrame(tree, cfg.Attach)
	if err != nil {
		return nil, errors.Wrapf(err, "attaching %q", cfg.Path)
	}
	if format == FormatSDF {
		return referenceframe.AddModelsFromSDFFile(tree, path, base, attach)
	}
	model, err := referenceframe.AddModelFromURDFFile(tree, path, base, attach)
	if err != nil {
		return nil, err
	}
	return []int{model}, nil
}

// Assemble adds the scene to tree: the flat terrain, then every model with its attachment frame, then the
// free-standing frames. The first error stops assembly.
func Assemble(tree *referenceframe.Tree, cfg *Config, logger logging.Logger) error {
	if cfg.FlatTerrain {
		if _, err := referenceframe.AddFlatTerrain(tree); err != nil {
			return errors.Wrap(err, "adding flat terrain")
		}
	}
	for i := range cfg.Models {
		m := &cfg.Models[i]
		path := cfg.ResolvePath(m.Path)
		models, err := AddModel(tree, m, path)
		if err != nil {
			return errors.Wrapf(err, "adding model %d (%s)", i, filepath.Base(path))
		}
		logger.Debugw("added model", "path", path, "model_instances", models, "bodies", tree.NumBodies())
	}
	for i := range cfg.Frames {
		if _, err := attachFrame(tree, &cfg.Frames[i]); err != nil {
			return errors.Wrapf(err, "adding frame %q", cfg.Frames[i].Name)
		}
	}
	logger.Infow("scene assembled",
		"bodies", tree.NumBodies(),
		"positions", tree.NumPositions(),
		"actuators", tree.NumActuators(),
		"frames", len(tree.Frames()),
	)
	return nil
}

// KukaConfig is the pick and place scene: two tables, an iiwa arm on the first one, a free block on the
// second and a WSG-50 gripper on the arm's end effector. Model paths are inside a drake checkout at
// drakeRoot.
func KukaConfig(drakeRoot string) *Config {
	const tableTopZ = 0.736 + 0.057/2
	model := func(parts ...string) string {
		return filepath.Join(append([]string{drakeRoot}, parts...)...)
	}
	table := model("examples", "kuka_iiwa_arm", "models", "table", "extra_heavy_duty_table_surface_only_collision.sdf")
	return &Config{
		FlatTerrain: true,
		Models: []ModelConfig{
			{Path: table, Attach: &FrameConfig{Name: "table_frame_robot"}},
			{Path: table, Attach: &FrameConfig{Name: "table_frame_fwd", XYZ: []float64{0.8, 0, 0}}},
			{
				Path:   model("manipulation", "models", "iiwa_description", "urdf", "iiwa14_polytope_collision.urdf"),
				Attach: &FrameConfig{Name: "robot_base_frame", XYZ: []float64{0, 0, tableTopZ}},
			},
			{
				Path:         model("examples", "kuka_iiwa_arm", "models", "objects", "block_for_pick_and_place.urdf"),
				FloatingBase: referenceframe.RollPitchYaw.String(),
				Attach:       &FrameConfig{Name: "object_init_frame", XYZ: []float64{0.8, 0.15, tableTopZ + 0.1}},
			},
			{
				Path:   model("manipulation", "models", "wsg_50_description", "sdf", "schunk_wsg_50.sdf"),
				Attach: &FrameConfig{Existing: "iiwa_frame_ee"},
			},
		},
	}
}
