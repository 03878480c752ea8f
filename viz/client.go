package viz

import (
	"context"
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"go.viam.com/simviz/logging"
)

// Client talks to a scene service over one connection made at construction.
// Calls are sent once and never retried.
type Client struct {
	conn   *grpc.ClientConn
	logger logging.Logger
}

// NewClient connects to the scene service at address, such as DefaultAddress. Extra dial options are
// appended after the insecure transport credentials.
func NewClient(address string, logger logging.Logger, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to scene service at %s", address)
	}
	logger.Debugw("scene client created", "address", address)
	return &Client{conn: conn, logger: logger}, nil
}

// SetObject creates or replaces the object at path.
func (c *Client) SetObject(ctx context.Context, path string, object *structpb.Struct) error {
	if err := c.conn.Invoke(ctx, setObjectMethod, newSetObjectRequest(path, object), new(emptypb.Empty)); err != nil {
		return errors.Wrapf(err, "setting scene object %q", path)
	}
	return nil
}

// SetPointCloud implements PointCloudSink.
func (c *Client) SetPointCloud(ctx context.Context, path string, positions []r3.Vector, colors []color.NRGBA, size float64) error {
	object, err := NewPointCloudObject(positions, colors, size)
	if err != nil {
		return err
	}
	return c.SetObject(ctx, path, object)
}

// Delete implements PointCloudSink.
func (c *Client) Delete(ctx context.Context, path string) error {
	if err := c.conn.Invoke(ctx, deleteMethod, newDeleteRequest(path), new(emptypb.Empty)); err != nil {
		return errors.Wrapf(err, "deleting scene path %q", path)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
