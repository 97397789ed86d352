package gateway

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/mcdev12/planningpoker/go/internal/room"
)

// OutboundEvent is the envelope of every message sent to a client
type OutboundEvent struct {
	ID        string          `json:"id"`                // Event UUID
	RoomID    string          `json:"room_id,omitempty"` // Room UUID, empty for connection level events
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType is the type of an outbound event
type EventType string

// Connection level event types. Room event types are the room package's EventType values.
const (
	EventTypeConnected      EventType = "connected"
	EventTypeRoomNotFound   EventType = "roomNotFound"
	EventTypeActionRejected EventType = "actionRejected"
)

// InboundMessage is the envelope of every message received from a client
type InboundMessage struct {
	Type      ActionType      `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// ActionType is the type of a client action
type ActionType string

const (
	ActionCreateRoom  ActionType = "createRoom"
	ActionJoinRoom    ActionType = "joinRoom"
	ActionVote        ActionType = "vote"
	ActionRevealCards ActionType = "revealCards"
	ActionResetVotes  ActionType = "resetVotes"
	ActionExitRoom    ActionType = "exitRoom"
)

// CreateRoomData is the payload of createRoom
type CreateRoomData struct {
	Name        string `json:"name"`
	IsSpectator bool   `json:"is_spectator"`
	CardSet     string `json:"card_set,omitempty"`
}

// JoinRoomData is the payload of joinRoom
type JoinRoomData struct {
	RoomID      string `json:"room_id"`
	Name        string `json:"name"`
	IsSpectator bool   `json:"is_spectator"`
}

// VoteData is the payload of vote
type VoteData struct {
	RoomID string `json:"room_id"`
	Vote   *int   `json:"vote"`
}

// RoomRefData is the payload of revealCards, resetVotes and exitRoom
type RoomRefData struct {
	RoomID string `json:"room_id"`
}

// Outbound payloads

// ConnectedPayload is sent once after the upgrade
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// RoomStatePayload is sent to a player entering a room
type RoomStatePayload struct {
	Room     *models.RoomSnapshot `json:"room"`
	PlayerID string               `json:"player_id"`
	IsHost   bool                 `json:"is_host"`
}

// RoomPayload carries the room state after a broadcast transition
type RoomPayload struct {
	Room *models.RoomSnapshot `json:"room"`
}

// NewHostPayload names the newly elected host
type NewHostPayload struct {
	HostID string `json:"host_id"`
}

// RoomRefPayload names the room a requester-only event refers to
type RoomRefPayload struct {
	RoomID string `json:"room_id"`
}

// RoomClosedPayload explains why a room was closed
type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

// ActionRejectedPayload reports a failed action to its requester
type ActionRejectedPayload struct {
	Action    ActionType `json:"action,omitempty"`
	Code      string     `json:"code"`
	Message   string     `json:"message"`
	RequestID string     `json:"request_id,omitempty"`
}

// EventData returns the wire payload of a room event
func EventData(ev room.Event) any {
	switch ev.Type {
	case room.EventRoomCreated, room.EventRoomState:
		return RoomStatePayload{Room: ev.Room, PlayerID: ev.PlayerID, IsHost: ev.IsHost}
	case room.EventNewHostElected:
		return NewHostPayload{HostID: ev.HostID}
	case room.EventRoomLeft:
		return RoomRefPayload{RoomID: ev.RoomID}
	case room.EventRoomClosed:
		return RoomClosedPayload{Reason: ev.Reason}
	default:
		return RoomPayload{Room: ev.Room}
	}
}
