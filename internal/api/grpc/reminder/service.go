package reminder

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "lostitem.v1.ReminderService"

// Full method names.
const (
	GetStatusMethod = "/" + ServiceName + "/GetStatus"
	SaveHomeMethod  = "/" + ServiceName + "/SaveHome"
	ClearHomeMethod = "/" + ServiceName + "/ClearHome"
	ReportFixMethod = "/" + ServiceName + "/ReportFix"
	RecheckMethod   = "/" + ServiceName + "/Recheck"
)

// ReminderServiceServer is the server API of ReminderService.
type ReminderServiceServer interface {
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SaveHome(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ClearHome(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	ReportFix(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	Recheck(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes ReminderService for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReminderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetStatus", GetStatusMethod, ReminderServiceServer.GetStatus),
		unary("SaveHome", SaveHomeMethod, ReminderServiceServer.SaveHome),
		unary("ClearHome", ClearHomeMethod, ReminderServiceServer.ClearHome),
		unary("ReportFix", ReportFixMethod, ReminderServiceServer.ReportFix),
		unary("Recheck", RecheckMethod, ReminderServiceServer.Recheck),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lostitem/v1/reminder.proto",
}

// RegisterReminderServiceServer registers srv on s.
func RegisterReminderServiceServer(s grpc.ServiceRegistrar, srv ReminderServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds a method descriptor that decodes Req and calls call.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](
	name, fullMethod string,
	call func(ReminderServiceServer, context.Context, PReq) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}

			if interceptor == nil {
				return call(srv.(ReminderServiceServer), ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}

			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ReminderServiceServer), ctx, req.(PReq)) //nolint:forcetypeassert // Decoded above.
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

// ReminderServiceClient is the client API of ReminderService.
type ReminderServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewReminderServiceClient creates a client stub over cc.
func NewReminderServiceClient(cc grpc.ClientConnInterface) *ReminderServiceClient {
	return &ReminderServiceClient{
		cc: cc,
	}
}

// GetStatus returns the engine status document.
func (c *ReminderServiceClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// SaveHome stores an explicit coordinate or the current fix as home.
func (c *ReminderServiceClient) SaveHome(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SaveHomeMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ClearHome removes the home location.
func (c *ReminderServiceClient) ClearHome(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, ClearHomeMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ReportFix pushes a device sample into the engine.
func (c *ReminderServiceClient) ReportFix(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, ReportFixMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Recheck measures the latest fix again and returns the resulting status.
func (c *ReminderServiceClient) Recheck(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RecheckMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
