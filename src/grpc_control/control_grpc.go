package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service wiring written by hand. Requests and replies are well-known types
// so no generated messages are needed.

const serviceName = "telemetry.viewer.v1.ViewerControl"

// ViewerControlServer is the server API for the ViewerControl service.
type ViewerControlServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Start(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stop(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Pause(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Resume(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Clear(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Disconnect(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetView(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFrame(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterViewerControlServer(s grpc.ServiceRegistrar, srv ViewerControlServer) {
	s.RegisterService(&ViewerControl_ServiceDesc, srv)
}

// -----------------------------------------------------------------------------

func unary[T proto.Message](name string, newReq func() T, call func(ViewerControlServer, context.Context, T) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ViewerControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ViewerControlServer), ctx, req.(T))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newEmpty() *emptypb.Empty   { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }

// ViewerControl_ServiceDesc is the grpc.ServiceDesc for the ViewerControl service.
var ViewerControl_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ViewerControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetStatus", newEmpty, ViewerControlServer.GetStatus),
		unary("Start", newStruct, ViewerControlServer.Start),
		unary("Stop", newEmpty, ViewerControlServer.Stop),
		unary("Pause", newEmpty, ViewerControlServer.Pause),
		unary("Resume", newEmpty, ViewerControlServer.Resume),
		unary("Clear", newEmpty, ViewerControlServer.Clear),
		unary("Disconnect", newEmpty, ViewerControlServer.Disconnect),
		unary("SetView", newStruct, ViewerControlServer.SetView),
		unary("GetFrame", newEmpty, ViewerControlServer.GetFrame),
		unary("GetMessages", newStruct, ViewerControlServer.GetMessages),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "telemetry/viewer/v1/control.proto",
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type ViewerControlClient struct {
	cc grpc.ClientConnInterface
}

func NewViewerControlClient(cc grpc.ClientConnInterface) *ViewerControlClient {
	return &ViewerControlClient{cc: cc}
}

func (c *ViewerControlClient) invoke(ctx context.Context, method string, in proto.Message, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ViewerControlClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetStatus", &emptypb.Empty{}, opts...)
}

func (c *ViewerControlClient) Start(ctx context.Context, topic string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if topic != "" {
		req.Fields["topic"] = structpb.NewStringValue(topic)
	}
	return c.invoke(ctx, "Start", req, opts...)
}

func (c *ViewerControlClient) Stop(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Stop", &emptypb.Empty{}, opts...)
}

func (c *ViewerControlClient) Pause(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Pause", &emptypb.Empty{}, opts...)
}

func (c *ViewerControlClient) Resume(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Resume", &emptypb.Empty{}, opts...)
}

func (c *ViewerControlClient) Clear(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Clear", &emptypb.Empty{}, opts...)
}

func (c *ViewerControlClient) Disconnect(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Disconnect", &emptypb.Empty{}, opts...)
}

// SetView sends only the fields that are set: an empty mode or a nil gain
// is left out.
func (c *ViewerControlClient) SetView(ctx context.Context, mode string, gain *int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if mode != "" {
		req.Fields["mode"] = structpb.NewStringValue(mode)
	}
	if gain != nil {
		req.Fields["gain"] = structpb.NewNumberValue(float64(*gain))
	}
	return c.invoke(ctx, "SetView", req, opts...)
}

func (c *ViewerControlClient) GetFrame(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetFrame", &emptypb.Empty{}, opts...)
}

// GetMessages asks for up to limit logged messages; 0 means the whole log.
func (c *ViewerControlClient) GetMessages(ctx context.Context, limit int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if limit > 0 {
		req.Fields["limit"] = structpb.NewNumberValue(float64(limit))
	}
	return c.invoke(ctx, "GetMessages", req, opts...)
}
