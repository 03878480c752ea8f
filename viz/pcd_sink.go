package viz

import (
	"context"
	"image/color"
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/simviz/logging"
	"go.viam.com/simviz/pointcloud"
)

// PCDSink writes every cloud it is given to a binary PCD file under a directory, mirroring the scene
// hierarchy: the cloud at "a/b/c" goes to a/b/c.pcd. The point size is not stored.
type PCDSink struct {
	dir    string
	logger logging.Logger
}

// NewPCDSink creates dir if needed.
func NewPCDSink(dir string, logger logging.Logger) (*PCDSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "creating point cloud directory %q", dir)
	}
	return &PCDSink{dir: dir, logger: logger}, nil
}

// Filename returns the file a cloud at path is written to.
func (s *PCDSink) Filename(path string) string {
	return s.subtree(path) + ".pcd"
}

// subtree is the directory holding the files of every path below path.
func (s *PCDSink) subtree(path string) string {
	return filepath.Join(append([]string{s.dir}, SplitPath(path)...)...)
}

// SetPointCloud implements PointCloudSink.
func (s *PCDSink) SetPointCloud(ctx context.Context, path string, positions []r3.Vector, colors []color.NRGBA, size float64) error {
	if len(colors) == 0 {
		colors = nil
	}
	cloud, err := pointcloud.NewFromPositions(positions, colors)
	if err != nil {
		return err
	}
	fn := s.Filename(path)
	if err := os.MkdirAll(filepath.Dir(fn), 0o750); err != nil {
		return errors.Wrapf(err, "creating directory for %q", path)
	}
	if err := pointcloud.WriteToPCDFile(cloud, fn, pointcloud.PCDBinary); err != nil {
		return err
	}
	s.logger.Debugw("wrote point cloud", "path", path, "file", fn, "points", cloud.Size())
	return nil
}

// Delete implements PointCloudSink by removing the file for path and the files of every path below it.
func (s *PCDSink) Delete(ctx context.Context, path string) error {
	if len(SplitPath(path)) == 0 {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			return errors.Wrap(err, "listing point cloud files")
		}
		var errs error
		for _, e := range entries {
			errs = multierr.Append(errs, os.RemoveAll(filepath.Join(s.dir, e.Name())))
		}
		return errs
	}
	err := os.Remove(s.Filename(path))
	if os.IsNotExist(err) {
		err = nil
	}
	return multierr.Combine(err, os.RemoveAll(s.subtree(path)))
}
