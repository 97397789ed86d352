package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"vote","request_id":"r1","data":{"room_id":"abc","vote":5}}`))
	require.NoError(t, err)
	assert.Equal(t, ActionVote, msg.Type)
	assert.Equal(t, "r1", msg.RequestID)

	var data VoteData
	require.NoError(t, msg.DecodeData(&data))
	assert.Equal(t, "abc", data.RoomID)
	require.NotNil(t, data.Vote)
	assert.Equal(t, 5, *data.Vote)
}

func TestDecodeMessageErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantMsg bool
	}{
		{name: "not json", raw: `hello`},
		{name: "missing type", raw: `{"data":{}}`, wantMsg: true},
		{name: "unknown action", raw: `{"type":"kickPlayer"}`, wantMsg: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.raw))
			require.ErrorIs(t, err, ErrMalformedMessage)
			assert.Equal(t, tt.wantMsg, msg != nil)
		})
	}
}

func TestDecodeData(t *testing.T) {
	msg := &InboundMessage{Type: ActionRevealCards}
	var ref RoomRefData
	require.NoError(t, msg.DecodeData(&ref), "missing payload")

	msg.Data = json.RawMessage(`null`)
	require.NoError(t, msg.DecodeData(&ref))

	msg.Data = json.RawMessage(`{"room_id": 7}`)
	require.ErrorIs(t, msg.DecodeData(&ref), ErrMalformedMessage)
}

func TestEncodeEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	snap := &models.RoomSnapshot{ID: "room-1", HostID: "c1"}

	data, err := EncodeEvent(room.Event{
		Type:     room.EventRoomState,
		RoomID:   "room-1",
		To:       "c2",
		Room:     snap,
		PlayerID: "c2",
		At:       at,
	})
	require.NoError(t, err)

	var ev OutboundEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	_, err = uuid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, EventType(room.EventRoomState), ev.Type)
	assert.Equal(t, "room-1", ev.RoomID)
	assert.True(t, ev.Timestamp.Equal(at))
	assert.Equal(t, time.UTC, ev.Timestamp.Location())

	var payload RoomStatePayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, "c2", payload.PlayerID)
	assert.False(t, payload.IsHost)
	assert.Equal(t, "c1", payload.Room.HostID)
}

func TestEventData(t *testing.T) {
	assert.Equal(t, NewHostPayload{HostID: "c2"}, EventData(room.Event{Type: room.EventNewHostElected, HostID: "c2"}))
	assert.Equal(t, RoomRefPayload{RoomID: "r"}, EventData(room.Event{Type: room.EventRoomLeft, RoomID: "r"}))
	assert.Equal(t, RoomClosedPayload{Reason: "idle"}, EventData(room.Event{Type: room.EventRoomClosed, Reason: "idle"}))
	assert.IsType(t, RoomPayload{}, EventData(room.Event{Type: room.EventCardsRevealed}))
}

func TestEncodeRejection(t *testing.T) {
	data, err := EncodeRejection("room-1", time.Now(), ActionRejectedPayload{
		Action:    ActionVote,
		Code:      room.CodeInvalidVote,
		Message:   room.ErrInvalidVote.Error(),
		RequestID: "r9",
	})
	require.NoError(t, err)

	var ev OutboundEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, EventTypeActionRejected, ev.Type)
	assert.JSONEq(t, `{"action":"vote","code":"InvalidVote","message":"vote is not part of the room's card set","request_id":"r9"}`, string(ev.Data))
}
