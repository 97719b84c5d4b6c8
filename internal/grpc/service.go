package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ComplianceQueryServiceName = "pdp.compliance.v1.ComplianceQueryService"

const (
	ClassifyDayMethod   = "/" + ComplianceQueryServiceName + "/ClassifyDay"
	TeacherStatusMethod = "/" + ComplianceQueryServiceName + "/TeacherStatus"
)

// ComplianceQueryServer answers compliance questions for other services.
// Messages are google.protobuf.Struct values so no generated code is needed.
type ComplianceQueryServer interface {
	ClassifyDay(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TeacherStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterComplianceQueryServer(s grpc.ServiceRegistrar, srv ComplianceQueryServer) {
	s.RegisterService(&complianceQueryServiceDesc, srv)
}

func unaryHandler(method string, call func(ComplianceQueryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ComplianceQueryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ComplianceQueryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var complianceQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ComplianceQueryServiceName,
	HandlerType: (*ComplianceQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ClassifyDay",
			Handler:    unaryHandler(ClassifyDayMethod, ComplianceQueryServer.ClassifyDay),
		},
		{
			MethodName: "TeacherStatus",
			Handler:    unaryHandler(TeacherStatusMethod, ComplianceQueryServer.TeacherStatus),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pdp/compliance/v1/compliance.proto",
}
