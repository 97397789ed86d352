package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/planningpoker/go/internal/room"
)

// CodeMalformedMessage is the rejection code for input that cannot be decoded
const CodeMalformedMessage = "MalformedMessage"

// ErrMalformedMessage is returned for inbound messages that are not valid JSON envelopes,
// carry an unknown action or a payload of the wrong shape
var ErrMalformedMessage = errors.New("malformed message")

// DecodeMessage parses an inbound envelope and checks that the action is known
func DecodeMessage(raw []byte) (*InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.Type {
	case ActionCreateRoom, ActionJoinRoom, ActionVote, ActionRevealCards, ActionResetVotes, ActionExitRoom:
	case "":
		return &msg, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	default:
		return &msg, fmt.Errorf("%w: unknown action %q", ErrMalformedMessage, msg.Type)
	}
	return &msg, nil
}

// DecodeData unmarshals the action payload into dst. A missing payload leaves dst zeroed.
func (m *InboundMessage) DecodeData(dst any) error {
	data := bytes.TrimSpace(m.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrMalformedMessage, m.Type, err)
	}
	return nil
}

// EncodeEvent renders a room event as an outbound envelope
func EncodeEvent(ev room.Event) ([]byte, error) {
	return encode(EventType(ev.Type), ev.RoomID, ev.At, EventData(ev))
}

// EncodeConnected renders the greeting sent after the upgrade
func EncodeConnected(connID string, at time.Time) ([]byte, error) {
	return encode(EventTypeConnected, "", at, ConnectedPayload{ConnectionID: connID})
}

// EncodeRoomNotFound renders the reply to an action on a room that does not exist
func EncodeRoomNotFound(roomID string, at time.Time) ([]byte, error) {
	return encode(EventTypeRoomNotFound, roomID, at, RoomRefPayload{RoomID: roomID})
}

// EncodeRejection renders the reply to a failed action
func EncodeRejection(roomID string, at time.Time, payload ActionRejectedPayload) ([]byte, error) {
	return encode(EventTypeActionRejected, roomID, at, payload)
}

func encode(eventType EventType, roomID string, at time.Time, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	if at.IsZero() {
		at = time.Now()
	}
	out, err := json.Marshal(OutboundEvent{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      eventType,
		Timestamp: at.UTC(),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return out, nil
}
