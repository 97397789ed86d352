package room

import (
	"time"

	"github.com/mcdev12/planningpoker/go/internal/models"
)

// EventType names an outcome of a room transition
type EventType string

const (
	EventRoomCreated        EventType = "roomCreated"
	EventRoomState          EventType = "roomState"
	EventPlayerJoined       EventType = "playerJoined"
	EventPlayerVoted        EventType = "playerVoted"
	EventCardsRevealed      EventType = "cardsRevealed"
	EventVotesReset         EventType = "votesReset"
	EventNewHostElected     EventType = "newHostElected"
	EventPlayerDisconnected EventType = "playerDisconnected"
	EventRoomLeft           EventType = "roomLeft"
	EventRoomClosed         EventType = "roomClosed"
)

// Event is produced by a transition and handed to the Publisher while the room is still
// locked, so events of one room are published in the order the transitions were applied.
//
// With To set the event is addressed to that connection only; with Except set it goes to
// every member but that connection; otherwise it goes to every member.
type Event struct {
	Type     EventType
	RoomID   string
	To       string
	Except   string
	Room     *models.RoomSnapshot
	PlayerID string // roomCreated / roomState: the recipient's player id
	IsHost   bool   // roomCreated / roomState: whether the recipient is host
	HostID   string // newHostElected
	Reason   string // roomClosed
	At       time.Time
}

// Publisher receives the events of every transition. Publish must not block on network I/O.
type Publisher interface {
	Publish(roomID string, event Event)
}

// Publishers fans an event out to several publishers in order
type Publishers []Publisher

func (p Publishers) Publish(roomID string, event Event) {
	for _, pub := range p {
		pub.Publish(roomID, event)
	}
}

// Membership tracks which room a connection is bound to.
// Bind and Unbind are only called from inside a room transition.
type Membership interface {
	Bind(connID, roomID string)
	Unbind(connID string)
	RoomOf(connID string) string
}

// RoundRecorder archives revealed rounds. Record must not block.
type RoundRecorder interface {
	Record(summary models.RoundSummary)
}
