package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the title lookup service.
const ServiceName = "catalog.v1.TitleLookup"

const (
	getTitleMethod         = "/" + ServiceName + "/GetTitle"
	checkTitleExistsMethod = "/" + ServiceName + "/CheckTitleExists"
)

// TitleLookupServer is the server API of catalog.v1.TitleLookup. Requests and
// responses are protobuf well-known types, so no generated code is needed.
type TitleLookupServer interface {
	// GetTitle returns the title with its credits as a JSON-shaped struct.
	GetTitle(ctx context.Context, id *wrapperspb.StringValue) (*structpb.Struct, error)
	CheckTitleExists(ctx context.Context, id *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// TitleLookupServiceDesc describes catalog.v1.TitleLookup for grpc.Server.RegisterService.
var TitleLookupServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TitleLookupServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetTitle", Handler: getTitleHandler},
		{MethodName: "CheckTitleExists", Handler: checkTitleExistsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/title_lookup.proto",
}

// RegisterTitleLookupServer registers srv on s.
func RegisterTitleLookupServer(s grpc.ServiceRegistrar, srv TitleLookupServer) {
	s.RegisterService(&TitleLookupServiceDesc, srv)
}

func getTitleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TitleLookupServer).GetTitle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getTitleMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TitleLookupServer).GetTitle(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func checkTitleExistsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TitleLookupServer).CheckTitleExists(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkTitleExistsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TitleLookupServer).CheckTitleExists(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// TitleLookupClient calls catalog.v1.TitleLookup.
type TitleLookupClient struct {
	cc grpc.ClientConnInterface
}

func NewTitleLookupClient(cc grpc.ClientConnInterface) *TitleLookupClient {
	return &TitleLookupClient{cc: cc}
}

func (c *TitleLookupClient) GetTitle(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getTitleMethod, wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TitleLookupClient) CheckTitleExists(ctx context.Context, id string, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, checkTitleExistsMethod, wrapperspb.String(id), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
