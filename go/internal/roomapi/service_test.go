package roomapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/known/structpb"
)

type nopMembership struct{}

func (nopMembership) Bind(string, string) {}
func (nopMembership) Unbind(string) {}
func (nopMembership) RoomOf(string) string { return "" }

type nopPublisher struct{}

func (nopPublisher) Publish(string, room.Event) {}

func newTestServer(t *testing.T, opts ...ServiceOption) (*room.Manager, *Client) {
	t.Helper()

	manager := room.NewManager(room.NewStore(nil), nopMembership{}, nopPublisher{})
	mux := http.NewServeMux()
	RegisterRoutes(mux, NewService(manager, opts...))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return manager, NewClient(server.Client(), server.URL)
}

func request(t *testing.T, fields map[string]any) *connect.Request[structpb.Struct] {
	t.Helper()
	msg, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return connect.NewRequest(msg)
}

func TestGetRoom(t *testing.T) {
	manager, client := newTestServer(t)
	ctx := context.Background()

	snap, err := manager.CreateRoom(ctx, "conn-a", room.CreateRoomRequest{Name: "Alice"})
	require.NoError(t, err)
	require.NoError(t, manager.Vote(ctx, "conn-a", snap.ID, 5))

	resp, err := client.GetRoom(ctx, request(t, map[string]any{"room_id": snap.ID}))
	require.NoError(t, err)

	roomValue := resp.Msg.GetFields()["room"].GetStructValue()
	require.NotNil(t, roomValue)
	assert.Equal(t, snap.ID, roomValue.GetFields()["id"].GetStringValue())
	assert.Equal(t, "conn-a", roomValue.GetFields()["host_id"].GetStringValue())

	player := roomValue.GetFields()["players"].GetStructValue().GetFields()["conn-a"].GetStructValue()
	require.NotNil(t, player)
	assert.True(t, player.GetFields()["has_voted"].GetBoolValue())
	_, isNull := player.GetFields()["vote"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull, "hidden votes stay redacted")
}

func TestGetRoomErrors(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		fields map[string]any
		code   connect.Code
	}{
		{"missing id", map[string]any{}, connect.CodeInvalidArgument},
		{"malformed id", map[string]any{"room_id": "not-a-uuid"}, connect.CodeInvalidArgument},
		{"unknown room", map[string]any{"room_id": uuid.NewString()}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.GetRoom(ctx, request(t, tt.fields))
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}

func TestListRoomsDisabledByDefault(t *testing.T) {
	manager, client := newTestServer(t)
	ctx := context.Background()

	_, err := manager.CreateRoom(ctx, "conn-a", room.CreateRoomRequest{Name: "Alice"})
	require.NoError(t, err)

	resp, err := client.ListRooms(ctx, request(t, map[string]any{}))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
}

func TestListRooms(t *testing.T) {
	manager, client := newTestServer(t, WithListing(true))
	ctx := context.Background()

	for _, conn := range []string{"conn-a", "conn-b", "conn-c"} {
		_, err := manager.CreateRoom(ctx, conn, room.CreateRoomRequest{Name: "Player " + conn})
		require.NoError(t, err)
	}

	resp, err := client.ListRooms(ctx, request(t, map[string]any{}))
	require.NoError(t, err)
	assert.Len(t, resp.Msg.GetFields()["rooms"].GetListValue().GetValues(), 3)
	assert.Equal(t, float64(3), resp.Msg.GetFields()["total"].GetNumberValue())

	resp, err = client.ListRooms(ctx, request(t, map[string]any{"limit": 2}))
	require.NoError(t, err)
	assert.Len(t, resp.Msg.GetFields()["rooms"].GetListValue().GetValues(), 2)
	assert.Equal(t, float64(3), resp.Msg.GetFields()["total"].GetNumberValue())

	_, err = client.ListRooms(ctx, request(t, map[string]any{"limit": 0}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestServiceDescriptorRegistered(t *testing.T) {
	desc, err := protoregistry.GlobalFiles.FindDescriptorByName(ServiceName)
	require.NoError(t, err)
	assert.Equal(t, ServiceName, string(desc.FullName()))
	assert.Equal(t, "GetRoom", string(getRoomMethodDescriptor.Name()))
	assert.Equal(t, "ListRooms", string(listRoomsMethodDescriptor.Name()))
}
