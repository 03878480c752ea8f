// Package scene describes a simulated scene in a JSON5 config file: the models in it, where they are
// attached, and the camera whose depth images are visualized.
package scene

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/simviz/logging"
	"go.viam.com/simviz/referenceframe"
	spatial "go.viam.com/simviz/spatialmath"
	"go.viam.com/simviz/utils"
)

// Model file formats.
const (
	FormatURDF = "urdf"
	FormatSDF  = "sdf"
)

// FrameConfig is a frame fixed in a parent body, or a reference to an existing frame by name.
type FrameConfig struct {
	Name string `json:"name"`
	// Parent is the body the frame is fixed in. Empty means the world.
	Parent string    `json:"parent,omitempty"`
	XYZ    []float64 `json:"xyz,omitempty"`
	RPY    []float64 `json:"rpy,omitempty"`
	// Existing names a frame already in the tree, such as one defined by an earlier model. When set, the
	// other fields are ignored.
	Existing string `json:"existing,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *FrameConfig) Validate(path string) error {
	if cfg.Existing != "" {
		return nil
	}
	if cfg.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	return cfg.pose().Validate(path)
}

// Pose returns the pose of the frame in its parent.
func (cfg *FrameConfig) Pose() spatial.Pose {
	return cfg.pose().Pose()
}

func (cfg *FrameConfig) pose() *PoseConfig {
	return &PoseConfig{XYZ: cfg.XYZ, RPY: cfg.RPY}
}

// PoseConfig is a translation in meters and roll, pitch, yaw in radians. Missing parts are zero.
type PoseConfig struct {
	XYZ []float64 `json:"xyz,omitempty"`
	RPY []float64 `json:"rpy,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *PoseConfig) Validate(path string) error {
	if len(cfg.XYZ) != 0 && len(cfg.XYZ) != 3 {
		return utils.NewConfigValidationError(path, errors.Errorf("xyz needs 3 values, got %d", len(cfg.XYZ)))
	}
	if len(cfg.RPY) != 0 && len(cfg.RPY) != 3 {
		return utils.NewConfigValidationError(path, errors.Errorf("rpy needs 3 values, got %d", len(cfg.RPY)))
	}
	return nil
}

// Pose returns the configured pose.
func (cfg *PoseConfig) Pose() spatial.Pose {
	var pt r3.Vector
	if len(cfg.XYZ) == 3 {
		pt = r3.Vector{X: cfg.XYZ[0], Y: cfg.XYZ[1], Z: cfg.XYZ[2]}
	}
	rpy := spatial.NewEulerAngles()
	if len(cfg.RPY) == 3 {
		rpy = &spatial.EulerAngles{Roll: cfg.RPY[0], Pitch: cfg.RPY[1], Yaw: cfg.RPY[2]}
	}
	return spatial.NewPose(pt, rpy)
}

// ModelConfig is one URDF or SDF file added to the tree.
type ModelConfig struct {
	// Path is relative to the config file unless absolute.
	Path string `json:"path"`
	// Format is urdf or sdf. Empty means the file extension decides.
	Format       string       `json:"format,omitempty"`
	FloatingBase string       `json:"floating_base,omitempty"`
	Attach       *FrameConfig `json:"attach,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *ModelConfig) Validate(path string) error {
	if cfg.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "path")
	}
	if _, err := cfg.ModelFormat(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if _, err := referenceframe.FloatingBaseTypeFromString(cfg.FloatingBase); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if cfg.Attach != nil {
		return cfg.Attach.Validate(utils.JoinPath(path, "attach"))
	}
	return nil
}

// ModelFormat returns the format of the model file.
func (cfg *ModelConfig) ModelFormat() (string, error) {
	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(cfg.Path)), ".")
	}
	switch format {
	case FormatURDF, FormatSDF:
		return format, nil
	default:
		return "", errors.Errorf("unknown model format %q for %q", format, cfg.Path)
	}
}

// VisualizerConfig selects where point clouds go: a scene service at Address, or PCD files in PCDDir. Read
// resolves a relative PCDDir against the config file's directory.
type VisualizerConfig struct {
	Address string `json:"address,omitempty"`
	PCDDir  string `json:"pcd_dir,omitempty"`
}

// Config is a whole scene.
type Config struct {
	FlatTerrain bool          `json:"flat_terrain"`
	Models      []ModelConfig `json:"models"`
	// Frames are added after every model, so they can be fixed in model bodies.
	Frames     []FrameConfig    `json:"frames,omitempty"`
	Camera     *CameraConfig    `json:"camera,omitempty"`
	Visualizer VisualizerConfig `json:"visualizer"`
	LogFile    string           `json:"log_file,omitempty"`
	ContactLog string           `json:"contact_log,omitempty"`

	dir string
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	for i := range cfg.Models {
		if err := cfg.Models[i].Validate(utils.JoinPath(path, "models", i)); err != nil {
			return err
		}
	}
	for i := range cfg.Frames {
		if err := cfg.Frames[i].Validate(utils.JoinPath(path, "frames", i)); err != nil {
			return err
		}
	}
	if cfg.Camera != nil {
		if err := cfg.Camera.Validate(utils.JoinPath(path, "camera")); err != nil {
			return err
		}
	}
	if cfg.Visualizer.Address != "" && cfg.Visualizer.PCDDir != "" {
		return utils.NewConfigValidationError(utils.JoinPath(path, "visualizer"),
			errors.New("only one of address and pcd_dir may be set"))
	}
	return nil
}

// ResolvePath returns p relative to the directory of the config file it was read from.
func (cfg *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || cfg.dir == "" {
		return p
	}
	return filepath.Join(cfg.dir, p)
}

// Read reads a config from the given file, substituting ${ENV} references first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scene config %q", filePath)
	}
	cfg, err := fromBytes(buf, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "in %q", filePath)
	}
	cfg.dir = filepath.Dir(filePath)
	cfg.Visualizer.PCDDir = cfg.ResolvePath(cfg.Visualizer.PCDDir)
	return cfg, nil
}

// FromReader reads a JSON5 config. Keys that don't map to any field are logged and ignored.
func FromReader(r io.Reader, logger logging.Logger) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, err
	}
	return fromBytes(data, logger)
}

func fromBytes(data []byte, logger logging.Logger) (*Config, error) {
	var attributes map[string]interface{}
	if err := json5.Unmarshal(data, &attributes); err != nil {
		return nil, errors.Wrap(err, "parsing scene config")
	}

	var cfg Config
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   &cfg,
		Metadata: &md,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "decoding scene config")
	}
	if len(md.Unused) != 0 {
		logger.Warnw("unused scene config keys", "keys", md.Unused)
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return &cfg, nil
}
