package models

import (
	"time"
)

// Room represents one voting session.
// HostID always names a key of Players; a room with no players does not exist.
type Room struct {
	ID             string             `json:"id"`
	HostID         string             `json:"host_id"`
	Players        map[string]*Player `json:"players"`
	CardsRevealed  bool               `json:"cards_revealed"`
	CardSet        CardSet            `json:"card_set"`
	Round          int                `json:"round"`
	RevealedAt     *time.Time         `json:"revealed_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	LastActivityAt time.Time          `json:"last_activity_at"`
}

// Clone returns a deep copy of the room. The card set is shared since it never changes.
func (r *Room) Clone() *Room {
	clone := *r
	clone.Players = make(map[string]*Player, len(r.Players))
	for id, player := range r.Players {
		p := *player
		if player.Vote != nil {
			v := *player.Vote
			p.Vote = &v
		}
		clone.Players[id] = &p
	}
	if r.RevealedAt != nil {
		t := *r.RevealedAt
		clone.RevealedAt = &t
	}
	return &clone
}

// RoomSnapshot is the consistent view of a room sent to clients.
// Vote values are withheld until the cards are revealed.
type RoomSnapshot struct {
	ID            string            `json:"id"`
	HostID        string            `json:"host_id"`
	Players       map[string]Player `json:"players"`
	CardsRevealed bool              `json:"cards_revealed"`
	CardSet       CardSet           `json:"card_set"`
	Round         int               `json:"round"`
	Results       *Aggregate        `json:"results,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Aggregate summarizes the revealed votes of a round
type Aggregate struct {
	Counted        int      `json:"counted"`
	Mode           *int     `json:"mode"`
	ModeLabel      string   `json:"mode_label,omitempty"`
	ModeCount      int      `json:"mode_count"`
	Agreement      *int     `json:"agreement"`
	AgreementLabel string   `json:"agreement_label"`
	Average        *float64 `json:"average"`
}

// RoomSummary is the lightweight listing view of a room
type RoomSummary struct {
	ID             string    `json:"id"`
	HostID         string    `json:"host_id"`
	Players        int       `json:"players"`
	Spectators     int       `json:"spectators"`
	CardsRevealed  bool      `json:"cards_revealed"`
	CardSet        string    `json:"card_set"`
	Round          int       `json:"round"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}
