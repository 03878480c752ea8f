package viz

import (
	"context"

	"go.viam.com/simviz/depthcloud"
	"go.viam.com/simviz/logging"
	"go.viam.com/simviz/referenceframe"
	"go.viam.com/simviz/rimage"
)

// CameraVisualizer projects the depth images of one camera into the world and shows them at
// "<prefix>/points".
type CameraVisualizer struct {
	sink      PointCloudSink
	projector *depthcloud.Projector
	tree      *referenceframe.Tree
	frame     int
	prefix    string
	pointSize float64
	logger    logging.Logger
}

// NewCameraVisualizer clears whatever is shown under prefix. frame is the index of the camera body or
// named frame in tree. An empty prefix means DefaultPrefix.
func NewCameraVisualizer(
	ctx context.Context,
	sink PointCloudSink,
	projector *depthcloud.Projector,
	tree *referenceframe.Tree,
	frame int,
	prefix string,
	logger logging.Logger,
) (*CameraVisualizer, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if err := sink.Delete(ctx, prefix); err != nil {
		return nil, err
	}
	return &CameraVisualizer{
		sink:      sink,
		projector: projector,
		tree:      tree,
		frame:     frame,
		prefix:    prefix,
		pointSize: DefaultPointSize,
		logger:    logger,
	}, nil
}

// Prefix returns the scene path everything is drawn under.
func (cv *CameraVisualizer) Prefix() string {
	return cv.prefix
}

// PointsPath returns the scene path of the projected cloud.
func (cv *CameraVisualizer) PointsPath() string {
	return JoinPath(cv.prefix, "points")
}

// Publish draws the depth image taken at time t. x is the tree state: positions followed by velocities.
// Failures are logged and returned, and nothing is retried.
func (cv *CameraVisualizer) Publish(ctx context.Context, t float64, depth *rimage.DepthMap, x []float64) error {
	q := x[:min(cv.tree.NumPositions(), len(x))]
	cache, err := cv.tree.DoKinematics(q)
	if err != nil {
		cv.logger.Warnw("cannot compute camera pose", "t", t, "error", err)
		return err
	}
	cloud, err := cv.projector.Project(depth, &depthcloud.TreeBodyToWorld{Tree: cv.tree, Cache: cache, Frame: cv.frame})
	if err != nil {
		cv.logger.Warnw("cannot project depth image", "t", t, "error", err)
		return err
	}
	if err := cv.sink.SetPointCloud(ctx, cv.PointsPath(), cloud.Positions(), cloud.Colors(), cv.pointSize); err != nil {
		cv.logger.Warnw("cannot send point cloud", "t", t, "path", cv.PointsPath(), "error", err)
		return err
	}
	cv.logger.Debugw("published camera point cloud", "t", t, "points", cloud.Size())
	return nil
}
