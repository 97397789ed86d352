package models

import (
	"time"
)

// RoundSummary is the archived outcome of a revealed round, captured when the round is reset
type RoundSummary struct {
	RoomID     string      `json:"room_id"`
	Round      int         `json:"round"`
	CardSet    string      `json:"card_set"`
	Votes      []RoundVote `json:"votes"`
	Results    Aggregate   `json:"results"`
	RevealedAt time.Time   `json:"revealed_at"`
	ResetAt    time.Time   `json:"reset_at"`
}

// RoundVote is one player's vote in an archived round
type RoundVote struct {
	PlayerID    string `json:"player_id"`
	PlayerName  string `json:"player_name"`
	Value       *int   `json:"value"`
	IsSpectator bool   `json:"is_spectator"`
}
