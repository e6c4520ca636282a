package grpc

import (
	"context"

	"github.com/dmitrijs2005/credvault/internal/api"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// VaultServiceServer is the server side of api.ServiceName. Every method
// takes and returns a Struct holding the JSON message described in package api.
type VaultServiceServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchRecords(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRecords(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IssueRecovery(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyRecovery(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(VaultServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts m to the shape grpc expects from generated code.
func unaryHandler(name string, m unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return m(srv.(VaultServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: api.FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return m(srv.(VaultServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes api.ServiceName for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: api.ServiceName,
	HandlerType: (*VaultServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(api.MethodPing, VaultServiceServer.Ping),
		unaryHandler(api.MethodRegister, VaultServiceServer.Register),
		unaryHandler(api.MethodLogin, VaultServiceServer.Login),
		unaryHandler(api.MethodAddRecord, VaultServiceServer.AddRecord),
		unaryHandler(api.MethodSearchRecords, VaultServiceServer.SearchRecords),
		unaryHandler(api.MethodListRecords, VaultServiceServer.ListRecords),
		unaryHandler(api.MethodUpdateRecord, VaultServiceServer.UpdateRecord),
		unaryHandler(api.MethodRemoveRecord, VaultServiceServer.RemoveRecord),
		unaryHandler(api.MethodIssueRecovery, VaultServiceServer.IssueRecovery),
		unaryHandler(api.MethodVerifyRecovery, VaultServiceServer.VerifyRecovery),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "credvault/v1/vault.proto",
}

// RegisterVaultServiceServer registers srv on s.
func RegisterVaultServiceServer(s grpc.ServiceRegistrar, srv VaultServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
