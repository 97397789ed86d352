package roomapi

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"connectrpc.com/grpcreflect"
	"google.golang.org/protobuf/types/known/structpb"
)

// RoomServiceHandler is implemented by Service
type RoomServiceHandler interface {
	GetRoom(context.Context, *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error)
	ListRooms(context.Context, *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error)
}

// Verify that Service implements the RoomServiceHandler interface
var _ RoomServiceHandler = (*Service)(nil)

// NewRoomServiceHandler builds an HTTP handler serving the service over the Connect, gRPC and
// gRPC-Web protocols. It returns the path to mount it on.
func NewRoomServiceHandler(svc RoomServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	getRoomHandler := connect.NewUnaryHandler(
		GetRoomProcedure,
		svc.GetRoom,
		connect.WithSchema(getRoomMethodDescriptor),
		connect.WithHandlerOptions(opts...),
	)
	listRoomsHandler := connect.NewUnaryHandler(
		ListRoomsProcedure,
		svc.ListRooms,
		connect.WithSchema(listRoomsMethodDescriptor),
		connect.WithIdempotency(connect.IdempotencyNoSideEffects),
		connect.WithHandlerOptions(opts...),
	)

	return "/" + ServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GetRoomProcedure:
			getRoomHandler.ServeHTTP(w, r)
		case ListRoomsProcedure:
			listRoomsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// RegisterRoutes mounts the service and its reflection endpoints for grpcui/grpcurl
func RegisterRoutes(mux *http.ServeMux, svc RoomServiceHandler, opts ...connect.HandlerOption) {
	path, handler := NewRoomServiceHandler(svc, opts...)
	mux.Handle(path, handler)

	reflector := grpcreflect.NewStaticReflector(ServiceName)
	mux.Handle(grpcreflect.NewHandlerV1(reflector))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector))
}

// Client is a client for the room query service
type Client struct {
	getRoom   *connect.Client[structpb.Struct, structpb.Struct]
	listRooms *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a client for the service served at baseURL
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		getRoom: connect.NewClient[structpb.Struct, structpb.Struct](
			httpClient,
			baseURL+GetRoomProcedure,
			connect.WithSchema(getRoomMethodDescriptor),
			connect.WithClientOptions(opts...),
		),
		listRooms: connect.NewClient[structpb.Struct, structpb.Struct](
			httpClient,
			baseURL+ListRoomsProcedure,
			connect.WithSchema(listRoomsMethodDescriptor),
			connect.WithIdempotency(connect.IdempotencyNoSideEffects),
			connect.WithClientOptions(opts...),
		),
	}
}

// GetRoom calls poker.v1.RoomService.GetRoom
func (c *Client) GetRoom(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return c.getRoom.CallUnary(ctx, req)
}

// ListRooms calls poker.v1.RoomService.ListRooms
func (c *Client) ListRooms(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return c.listRooms.CallUnary(ctx, req)
}
