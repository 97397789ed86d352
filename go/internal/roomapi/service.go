package roomapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/mcdev12/planningpoker/go/internal/room"
	"google.golang.org/protobuf/types/known/structpb"
)

// RoomReader defines what the service needs from the room manager
type RoomReader interface {
	Snapshot(roomID string) (*models.RoomSnapshot, error)
	ListRooms() []models.RoomSummary
}

// ErrListingDisabled is returned by ListRooms unless listing was enabled. A room id is
// all it takes to join a room, so ids are only enumerable on request.
var ErrListingDisabled = errors.New("room listing is disabled")

// Service implements the RoomService query API
type Service struct {
	rooms   RoomReader
	listing bool
}

// ServiceOption configures the query service
type ServiceOption func(*Service)

// WithListing enables ListRooms
func WithListing(enabled bool) ServiceOption {
	return func(s *Service) {
		s.listing = enabled
	}
}

// NewService creates a new room query service. ListRooms is disabled by default.
func NewService(rooms RoomReader, opts ...ServiceOption) *Service {
	s := &Service{
		rooms: rooms,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRoom returns the snapshot of one room. The request carries "room_id".
func (s *Service) GetRoom(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	roomID := req.Msg.GetFields()["room_id"].GetStringValue()
	if roomID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("room_id is required"))
	}
	if _, err := uuid.Parse(roomID); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid room_id: %w", err))
	}

	snap, err := s.rooms.Snapshot(roomID)
	if errors.Is(err, room.ErrRoomNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	msg, err := toStruct(map[string]any{"room": snap})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// ListRooms returns summaries of the active rooms. An optional numeric "limit" caps the
// number of rooms returned, oldest first.
func (s *Service) ListRooms(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	if !s.listing {
		return nil, connect.NewError(connect.CodePermissionDenied, ErrListingDisabled)
	}

	rooms := s.rooms.ListRooms()
	total := len(rooms)

	if v, ok := req.Msg.GetFields()["limit"]; ok {
		limit := int(v.GetNumberValue())
		if limit <= 0 {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("limit must be positive"))
		}
		if limit < len(rooms) {
			rooms = rooms[:limit]
		}
	}

	msg, err := toStruct(map[string]any{"rooms": rooms, "total": total})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// toStruct converts v to a Struct through its JSON form, so field names match the
// WebSocket and HTTP APIs
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return structpb.NewStruct(fields)
}
