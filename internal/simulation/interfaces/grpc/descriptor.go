package grpc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// FileName 服务描述所在的 proto 文件，供反射服务按文件名查询
const FileName = "riskengine/v1/simulation.proto"

// methodNames 与 serviceDesc.Methods 一一对应
var methodNames = []string{"PriceOption", "EstimateVaR", "RunConvergence", "ListSimulations"}

// fileDescriptor 运行时构造的服务描述，请求与响应均为 google.protobuf.Struct
var fileDescriptor protoreflect.FileDescriptor

func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	wireType := "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())
	methods := make([]*descriptorpb.MethodDescriptorProto, 0, len(methodNames))
	for _, name := range methodNames {
		methods = append(methods, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(wireType),
			OutputType: proto.String(wireType),
		})
	}
	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(FileName),
		Package:    proto.String("riskengine.v1"),
		Dependency: []string{structpb.File_google_protobuf_struct_proto.Path()},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("SimulationService"),
			Method: methods,
		}},
	}
}

func init() {
	fd, err := protodesc.NewFile(fileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(err)
	}
	fileDescriptor = fd
}
