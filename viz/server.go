package viz

import (
	"context"
	"net"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"go.viam.com/simviz/logging"
)

type sceneNode struct {
	object   *structpb.Struct
	children map[string]*sceneNode
}

func newSceneNode() *sceneNode {
	return &sceneNode{children: map[string]*sceneNode{}}
}

// Server is an in-memory scene graph serving the scene service. Objects live at slash separated paths and
// deleting a path removes its whole subtree.
type Server struct {
	mu     sync.Mutex
	root   *sceneNode
	mirror PointCloudSink
	logger logging.Logger
}

var _ SceneServiceServer = (*Server)(nil)

// NewServer returns an empty scene.
func NewServer(logger logging.Logger) *Server {
	return &Server{root: newSceneNode(), logger: logger}
}

func requestPath(req *structpb.Struct) (string, error) {
	v, ok := req.GetFields()["path"]
	if !ok {
		return "", status.Error(codes.InvalidArgument, "request has no path")
	}
	return v.GetStringValue(), nil
}

// Mirror forwards every point cloud set on, and every path deleted from, the scene to sink as well.
// Mirror failures are logged and don't fail the request.
func (s *Server) Mirror(sink PointCloudSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = sink
}

// SetObject implements SceneServiceServer.
func (s *Server) SetObject(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	path, err := requestPath(req)
	if err != nil {
		return nil, err
	}
	object := req.GetFields()["object"].GetStructValue()
	if object == nil {
		return nil, status.Errorf(codes.InvalidArgument, "request for %q has no object", path)
	}
	parts := SplitPath(path)
	if len(parts) == 0 {
		return nil, status.Error(codes.InvalidArgument, "cannot set an object at the scene root")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.root
	for _, p := range parts {
		child, ok := node.children[p]
		if !ok {
			child = newSceneNode()
			node.children[p] = child
		}
		node = child
	}
	node.object = object
	s.logger.Debugw("scene object set", "path", path, "type", object.GetFields()["type"].GetStringValue())
	if s.mirror != nil && object.GetFields()["type"].GetStringValue() == PointCloudObjectType {
		cloud, size, err := DecodePointCloud(object)
		if err == nil {
			err = s.mirror.SetPointCloud(ctx, path, cloud.Positions(), cloud.Colors(), size)
		}
		if err != nil {
			s.logger.Warnw("cannot mirror point cloud", "path", path, "error", err)
		}
	}
	return &emptypb.Empty{}, nil
}

// Delete implements SceneServiceServer. Deleting a missing path is not an error.
func (s *Server) Delete(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	path, err := requestPath(req)
	if err != nil {
		return nil, err
	}
	parts := SplitPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(parts) == 0 {
		s.root = newSceneNode()
		s.logger.Debug("scene cleared")
		s.mirrorDelete(ctx, path)
		return &emptypb.Empty{}, nil
	}
	node := s.root
	for _, p := range parts[:len(parts)-1] {
		child, ok := node.children[p]
		if !ok {
			return &emptypb.Empty{}, nil
		}
		node = child
	}
	delete(node.children, parts[len(parts)-1])
	s.logger.Debugw("scene path deleted", "path", path)
	s.mirrorDelete(ctx, path)
	return &emptypb.Empty{}, nil
}

func (s *Server) mirrorDelete(ctx context.Context, path string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Delete(ctx, path); err != nil {
		s.logger.Warnw("cannot mirror delete", "path", path, "error", err)
	}
}

// Object returns a copy of the object at path.
func (s *Server) Object(path string) (*structpb.Struct, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.root
	for _, p := range SplitPath(path) {
		child, ok := node.children[p]
		if !ok {
			return nil, false
		}
		node = child
	}
	if node.object == nil {
		return nil, false
	}
	return proto.Clone(node.object).(*structpb.Struct), true
}

// Paths lists the paths holding objects, sorted.
func (s *Server) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var paths []string
	var walk func(prefix string, node *sceneNode)
	walk = func(prefix string, node *sceneNode) {
		if node.object != nil {
			paths = append(paths, prefix)
		}
		for name, child := range node.children {
			walk(JoinPath(prefix, name), child)
		}
	}
	walk("", s.root)
	sort.Strings(paths)
	return paths
}

// Serve serves the scene on lis until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	const maxMsgSize = 64 * 1024 * 1024
	srv := grpc.NewServer(grpc.MaxRecvMsgSize(maxMsgSize))
	RegisterSceneServiceServer(srv, s)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()
	s.logger.Infow("scene service listening", "address", lis.Addr().String())

	select {
	case <-ctx.Done():
		srv.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		return errors.Wrap(err, "scene service stopped")
	}
}
