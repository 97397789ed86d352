package gateway

import (
	"context"

	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/rs/zerolog/log"
)

// ConnectionSet finds open connections and evicts the ones that fall behind
type ConnectionSet interface {
	Lookup(connID string) (*Connection, bool)
	Evict(conn *Connection)
}

// Dispatcher delivers room events to the connections bound to the room.
// Publish is called with the room locked and never blocks.
type Dispatcher struct {
	registry     *Registry
	conns        ConnectionSet
	disconnector Disconnector
}

// NewDispatcher creates a dispatcher over the registry's bindings
func NewDispatcher(registry *Registry, conns ConnectionSet) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		conns:    conns,
	}
}

// SetDisconnector sets what removes members whose connection is gone. It must be called
// before the first event is published.
func (d *Dispatcher) SetDisconnector(disconnector Disconnector) {
	d.disconnector = disconnector
}

// Publish encodes the event once and enqueues it for every recipient
func (d *Dispatcher) Publish(roomID string, ev room.Event) {
	data, err := EncodeEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Str("event_type", string(ev.Type)).Msg("failed to encode event")
		return
	}

	var recipients []string
	if ev.To != "" {
		recipients = []string{ev.To}
	} else {
		for _, connID := range d.registry.Members(roomID) {
			if connID != ev.Except {
				recipients = append(recipients, connID)
			}
		}
	}

	delivered := 0
	for _, connID := range recipients {
		conn, ok := d.conns.Lookup(connID)
		if !ok {
			d.dropMember(connID)
			continue
		}
		if d.Send(conn, data) {
			delivered++
		}
	}

	log.Debug().
		Str("event_type", string(ev.Type)).
		Str("room_id", roomID).
		Int("connections", delivered).
		Msg("event dispatched")
}

// Send enqueues a message for one connection, evicting it when its queue is full
func (d *Dispatcher) Send(conn *Connection, data []byte) bool {
	if conn.enqueue(data) {
		return true
	}
	d.conns.Evict(conn)
	return false
}

// dropMember removes a member that is still bound to a room although its connection is no
// longer open. It runs on its own goroutine since Publish holds the room lock.
func (d *Dispatcher) dropMember(connID string) {
	if d.disconnector == nil || d.registry.RoomOf(connID) == "" {
		return
	}

	log.Warn().
		Str("connection_id", connID).
		Msg("room member has no open connection, disconnecting")

	go d.registry.Disconnect(context.Background(), connID, d.disconnector)
}
