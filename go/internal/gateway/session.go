package gateway

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/rs/zerolog/log"
)

// SessionHandler turns inbound messages into room manager actions and answers the
// requester directly when an action fails
type SessionHandler struct {
	manager    *room.Manager
	registry   *Registry
	dispatcher *Dispatcher
	clock      clockwork.Clock
}

// NewSessionHandler creates the handler for client sessions
func NewSessionHandler(manager *room.Manager, registry *Registry, dispatcher *Dispatcher, clock clockwork.Clock) *SessionHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionHandler{
		manager:    manager,
		registry:   registry,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// OnConnect greets the new connection with its id
func (h *SessionHandler) OnConnect(conn *Connection) {
	data, err := EncodeConnected(conn.ID, h.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to encode greeting")
		return
	}
	h.dispatcher.Send(conn, data)
}

// OnDisconnect removes the connection from its room
func (h *SessionHandler) OnDisconnect(ctx context.Context, conn *Connection) {
	_ = h.registry.Disconnect(ctx, conn.ID, h.manager)
}

// HandleMessage decodes and applies one client action
func (h *SessionHandler) HandleMessage(ctx context.Context, conn *Connection, message []byte) {
	msg, err := DecodeMessage(message)
	if err != nil {
		h.reject(conn, msg, "", err)
		return
	}

	roomID, err := h.dispatch(ctx, conn.ID, msg)
	if err == nil {
		return
	}

	if errors.Is(err, room.ErrRoomNotFound) {
		h.roomNotFound(conn, roomID)
		return
	}
	h.reject(conn, msg, roomID, err)
}

// dispatch applies the action and returns the room it targeted
func (h *SessionHandler) dispatch(ctx context.Context, connID string, msg *InboundMessage) (string, error) {
	switch msg.Type {
	case ActionCreateRoom:
		var data CreateRoomData
		if err := msg.DecodeData(&data); err != nil {
			return "", err
		}
		_, err := h.manager.CreateRoom(ctx, connID, room.CreateRoomRequest{
			Name:        data.Name,
			IsSpectator: data.IsSpectator,
			CardSet:     data.CardSet,
		})
		return "", err

	case ActionJoinRoom:
		var data JoinRoomData
		if err := msg.DecodeData(&data); err != nil {
			return "", err
		}
		_, err := h.manager.JoinRoom(ctx, connID, room.JoinRoomRequest{
			RoomID:      data.RoomID,
			Name:        data.Name,
			IsSpectator: data.IsSpectator,
		})
		return data.RoomID, err

	case ActionVote:
		var data VoteData
		if err := msg.DecodeData(&data); err != nil {
			return "", err
		}
		roomID := h.targetRoom(connID, data.RoomID)
		if data.Vote == nil {
			return roomID, room.ErrInvalidVote
		}
		return roomID, h.manager.Vote(ctx, connID, roomID, *data.Vote)

	case ActionRevealCards, ActionResetVotes, ActionExitRoom:
		var data RoomRefData
		if err := msg.DecodeData(&data); err != nil {
			return "", err
		}
		roomID := h.targetRoom(connID, data.RoomID)
		switch msg.Type {
		case ActionRevealCards:
			return roomID, h.manager.RevealCards(ctx, connID, roomID)
		case ActionResetVotes:
			return roomID, h.manager.ResetVotes(ctx, connID, roomID)
		default:
			return roomID, h.manager.ExitRoom(ctx, connID, roomID)
		}
	}
	return "", ErrMalformedMessage
}

// targetRoom defaults an omitted room id to the room the connection is bound to
func (h *SessionHandler) targetRoom(connID, roomID string) string {
	if roomID != "" {
		return roomID
	}
	return h.registry.RoomOf(connID)
}

func (h *SessionHandler) roomNotFound(conn *Connection, roomID string) {
	data, err := EncodeRoomNotFound(roomID, h.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to encode roomNotFound")
		return
	}
	h.dispatcher.Send(conn, data)
}

func (h *SessionHandler) reject(conn *Connection, msg *InboundMessage, roomID string, err error) {
	payload := ActionRejectedPayload{
		Code:    CodeMalformedMessage,
		Message: err.Error(),
	}
	if !errors.Is(err, ErrMalformedMessage) {
		payload.Code = room.Code(err)
	}
	if msg != nil {
		payload.Action = msg.Type
		payload.RequestID = msg.RequestID
	}

	logEvent := log.Debug()
	if payload.Code == room.CodeInternal {
		logEvent = log.Error()
	}
	logEvent.
		Err(err).
		Str("connection_id", conn.ID).
		Str("room_id", roomID).
		Str("action", string(payload.Action)).
		Str("code", payload.Code).
		Msg("action rejected")

	data, encErr := EncodeRejection(roomID, h.clock.Now(), payload)
	if encErr != nil {
		log.Error().Err(encErr).Str("connection_id", conn.ID).Msg("failed to encode rejection")
		return
	}
	h.dispatcher.Send(conn, data)
}
