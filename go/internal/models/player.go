package models

import (
	"time"
)

// Player represents one connected participant of a room.
// ID is the id of the connection that joined; it is never reused while that connection is open.
type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Vote        *int      `json:"vote"` // nil until the player votes
	HasVoted    bool      `json:"has_voted"`
	IsSpectator bool      `json:"is_spectator"`
	JoinedAt    time.Time `json:"joined_at"`
}

// SetVote records a vote and marks the player as having voted
func (p *Player) SetVote(value int) {
	p.Vote = &value
	p.HasVoted = true
}

// ClearVote resets the player to "no vote"
func (p *Player) ClearVote() {
	p.Vote = nil
	p.HasVoted = false
}
