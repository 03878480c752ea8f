// Package viz sends colored point clouds to a scene viewer.
//
// The viewer speaks a small gRPC service, simviz.v1.SceneService, whose messages are generic
// google.protobuf.Struct values addressed by slash separated scene paths such as "RBCameraViz/points".
package viz

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// SceneServiceName is the fully qualified gRPC service name.
const SceneServiceName = "simviz.v1.SceneService"

const (
	setObjectMethod = "/" + SceneServiceName + "/SetObject"
	deleteMethod    = "/" + SceneServiceName + "/Delete"
)

// SceneServiceServer is the server side of the scene service.
type SceneServiceServer interface {
	// SetObject creates or replaces the object at req["path"] with req["object"].
	SetObject(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	// Delete removes req["path"] and everything below it.
	Delete(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterSceneServiceServer registers srv with a gRPC server.
func RegisterSceneServiceServer(s grpc.ServiceRegistrar, srv SceneServiceServer) {
	s.RegisterService(&sceneServiceDesc, srv)
}

func unaryHandler(
	method string,
	call func(SceneServiceServer, context.Context, *structpb.Struct) (*emptypb.Empty, error),
) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SceneServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SceneServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var sceneServiceDesc = grpc.ServiceDesc{
	ServiceName: SceneServiceName,
	HandlerType: (*SceneServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SetObject",
			Handler:    unaryHandler(setObjectMethod, SceneServiceServer.SetObject),
		},
		{
			MethodName: "Delete",
			Handler:    unaryHandler(deleteMethod, SceneServiceServer.Delete),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "simviz/v1/scene.proto",
}
