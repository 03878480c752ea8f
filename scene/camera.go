package scene

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/simviz/colormap"
	"go.viam.com/simviz/depthcloud"
	"go.viam.com/simviz/logging"
	"go.viam.com/simviz/referenceframe"
	"go.viam.com/simviz/rimage/transform"
	"go.viam.com/simviz/utils"
	"go.viam.com/simviz/viz"
)

// DefaultDepthUnitsPerMeter is the scale of 16 bit depth images: millimeters.
const DefaultDepthUnitsPerMeter = 1000.

// CameraConfig is the depth camera whose images are projected and drawn.
type CameraConfig struct {
	// Frame is the body or named frame the camera is fixed to.
	Frame      string                             `json:"frame"`
	Intrinsics *transform.PinholeCameraIntrinsics `json:"intrinsics"`
	// Optical is the pose of the optical frame (+z forward) in the camera frame.
	Optical            *PoseConfig `json:"optical,omitempty"`
	MinHeight          *float64    `json:"min_height,omitempty"`
	MaxHeight          *float64    `json:"max_height,omitempty"`
	ColorMap           string      `json:"color_map,omitempty"`
	Prefix             string      `json:"prefix,omitempty"`
	DrawPeriod         float64     `json:"draw_period,omitempty"`
	DepthUnitsPerMeter float64     `json:"depth_units_per_meter,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *CameraConfig) Validate(path string) error {
	if cfg.Frame == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "frame")
	}
	if cfg.Intrinsics == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "intrinsics")
	}
	if err := cfg.Intrinsics.CheckValid(); err != nil {
		return utils.NewConfigValidationError(utils.JoinPath(path, "intrinsics"), err)
	}
	if _, ok := colormap.FromName(cfg.ColorMap); !ok {
		return utils.NewConfigValidationError(path, errors.Errorf("unknown color map %q", cfg.ColorMap))
	}
	if cfg.DrawPeriod < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("draw_period can't be negative, got %v", cfg.DrawPeriod))
	}
	if cfg.Optical != nil {
		return cfg.Optical.Validate(utils.JoinPath(path, "optical"))
	}
	return nil
}

// Heights returns the height range mapped onto the color map.
func (cfg *CameraConfig) Heights() (float64, float64) {
	minHeight, maxHeight := depthcloud.DefaultMinHeight, depthcloud.DefaultMaxHeight
	if cfg.MinHeight != nil {
		minHeight = *cfg.MinHeight
	}
	if cfg.MaxHeight != nil {
		maxHeight = *cfg.MaxHeight
	}
	return minHeight, maxHeight
}

// Period returns the draw period in seconds.
func (cfg *CameraConfig) Period() float64 {
	if cfg.DrawPeriod == 0 {
		return viz.DefaultDrawPeriod
	}
	return cfg.DrawPeriod
}

// DepthScale returns the raw depth image units per meter.
func (cfg *CameraConfig) DepthScale() float64 {
	if cfg.DepthUnitsPerMeter == 0 {
		return DefaultDepthUnitsPerMeter
	}
	return cfg.DepthUnitsPerMeter
}

// Projector builds the depth projector of the camera.
func (cfg *CameraConfig) Projector() (*depthcloud.Projector, error) {
	k, err := cfg.Intrinsics.Intrinsics()
	if err != nil {
		return nil, err
	}
	cmap, ok := colormap.FromName(cfg.ColorMap)
	if !ok {
		return nil, errors.Errorf("unknown color map %q", cfg.ColorMap)
	}
	optical := cfg.Optical
	if optical == nil {
		optical = &PoseConfig{}
	}
	minHeight, maxHeight := cfg.Heights()
	return depthcloud.NewProjector(k, optical.Pose(), cmap, minHeight, maxHeight)
}

// FrameIndex finds the camera frame in tree.
func (cfg *CameraConfig) FrameIndex(tree *referenceframe.Tree) (int, error) {
	_, idx, err := tree.FindFrame(cfg.Frame)
	if err != nil {
		return 0, errors.Wrap(err, "finding camera frame")
	}
	return idx, nil
}

// NewSink returns the point cloud sink the config selects, DefaultAddress if nothing is set, and a function
// releasing it.
func (cfg *VisualizerConfig) NewSink(logger logging.Logger) (viz.PointCloudSink, func() error, error) {
	if cfg.PCDDir != "" {
		sink, err := viz.NewPCDSink(cfg.PCDDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() error { return nil }, nil
	}
	address := cfg.Address
	if address == "" {
		address = viz.DefaultAddress
	}
	client, err := viz.NewClient(address, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// NewCameraVisualizer wires the camera of cfg to sink.
func NewCameraVisualizer(
	ctx context.Context,
	cfg *CameraConfig,
	tree *referenceframe.Tree,
	sink viz.PointCloudSink,
	logger logging.Logger,
) (*viz.CameraVisualizer, error) {
	projector, err := cfg.Projector()
	if err != nil {
		return nil, err
	}
	frame, err := cfg.FrameIndex(tree)
	if err != nil {
		return nil, err
	}
	return viz.NewCameraVisualizer(ctx, sink, projector, tree, frame, cfg.Prefix, logger)
}
