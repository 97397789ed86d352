package roomapi

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified name of the room query service
const ServiceName = "poker.v1.RoomService"

// Procedure paths of the room query service
const (
	GetRoomProcedure   = "/poker.v1.RoomService/GetRoom"
	ListRoomsProcedure = "/poker.v1.RoomService/ListRooms"
)

var (
	serviceDescriptor         protoreflect.ServiceDescriptor
	getRoomMethodDescriptor   protoreflect.MethodDescriptor
	listRoomsMethodDescriptor protoreflect.MethodDescriptor
)

// The service is declared at runtime over google.protobuf.Struct messages and registered
// in the global registry, which is what the reflection handlers resolve against.
func init() {
	structType := "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())

	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String("poker/v1/room_service.proto"),
		Package:    proto.String("poker.v1"),
		Dependency: []string{"google/protobuf/struct.proto"},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("RoomService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				{
					Name:       proto.String("GetRoom"),
					InputType:  proto.String(structType),
					OutputType: proto.String(structType),
				},
				{
					Name:       proto.String("ListRooms"),
					InputType:  proto.String(structType),
					OutputType: proto.String(structType),
				},
			},
		}},
	}

	file, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("roomapi: build descriptor: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(file); err != nil {
		panic(fmt.Sprintf("roomapi: register descriptor: %v", err))
	}

	serviceDescriptor = file.Services().ByName("RoomService")
	getRoomMethodDescriptor = serviceDescriptor.Methods().ByName("GetRoom")
	listRoomsMethodDescriptor = serviceDescriptor.Methods().ByName("ListRooms")
}
