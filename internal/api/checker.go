package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "urlguard.v1.Checker"

const (
	CheckMethod        = "/" + ServiceName + "/Check"
	CanonicalizeMethod = "/" + ServiceName + "/Canonicalize"
	ExpressionsMethod  = "/" + ServiceName + "/Expressions"
)

type CheckerServer interface {
	Check(context.Context, *CheckRequest) (*CheckResponse, error)
	Canonicalize(context.Context, *CanonicalizeRequest) (*CanonicalizeResponse, error)
	Expressions(context.Context, *ExpressionsRequest) (*ExpressionsResponse, error)
}

// UnimplementedCheckerServer can be embedded for forward compatibility.
type UnimplementedCheckerServer struct{}

func (UnimplementedCheckerServer) Check(context.Context, *CheckRequest) (*CheckResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Check not implemented")
}

func (UnimplementedCheckerServer) Canonicalize(context.Context, *CanonicalizeRequest) (*CanonicalizeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Canonicalize not implemented")
}

func (UnimplementedCheckerServer) Expressions(context.Context, *ExpressionsRequest) (*ExpressionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Expressions not implemented")
}

func RegisterCheckerServer(s grpc.ServiceRegistrar, srv CheckerServer) {
	s.RegisterService(&CheckerServiceDesc, srv)
}

var CheckerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CheckerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Check", Handler: checkHandler},
		{MethodName: "Canonicalize", Handler: canonicalizeHandler},
		{MethodName: "Expressions", Handler: expressionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "urlguard/v1/checker",
}

func checkHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CheckerServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CheckerServer).Check(ctx, req.(*CheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func canonicalizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CanonicalizeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CheckerServer).Canonicalize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CanonicalizeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CheckerServer).Canonicalize(ctx, req.(*CanonicalizeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func expressionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExpressionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CheckerServer).Expressions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExpressionsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CheckerServer).Expressions(ctx, req.(*ExpressionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type CheckerClient interface {
	Check(ctx context.Context, in *CheckRequest, opts ...grpc.CallOption) (*CheckResponse, error)
	Canonicalize(ctx context.Context, in *CanonicalizeRequest, opts ...grpc.CallOption) (*CanonicalizeResponse, error)
	Expressions(ctx context.Context, in *ExpressionsRequest, opts ...grpc.CallOption) (*ExpressionsResponse, error)
}

type checkerClient struct {
	cc grpc.ClientConnInterface
}

func NewCheckerClient(cc grpc.ClientConnInterface) CheckerClient {
	return &checkerClient{cc: cc}
}

func (c *checkerClient) Check(ctx context.Context, in *CheckRequest, opts ...grpc.CallOption) (*CheckResponse, error) {
	out := new(CheckResponse)
	if err := c.invoke(ctx, CheckMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *checkerClient) Canonicalize(ctx context.Context, in *CanonicalizeRequest, opts ...grpc.CallOption) (*CanonicalizeResponse, error) {
	out := new(CanonicalizeResponse)
	if err := c.invoke(ctx, CanonicalizeMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *checkerClient) Expressions(ctx context.Context, in *ExpressionsRequest, opts ...grpc.CallOption) (*ExpressionsResponse, error) {
	out := new(ExpressionsResponse)
	if err := c.invoke(ctx, ExpressionsMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *checkerClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
