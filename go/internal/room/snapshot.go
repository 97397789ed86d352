package room

import "github.com/mcdev12/planningpoker/go/internal/models"

// NewSnapshot copies the room into the view sent to clients. While the cards are hidden the
// vote values are withheld and only has_voted is visible; once revealed the values and the
// aggregate are included, votes cast after the reveal among them.
func NewSnapshot(r *models.Room) *models.RoomSnapshot {
	snap := &models.RoomSnapshot{
		ID:            r.ID,
		HostID:        r.HostID,
		Players:       make(map[string]models.Player, len(r.Players)),
		CardsRevealed: r.CardsRevealed,
		CardSet:       r.CardSet,
		Round:         r.Round,
		CreatedAt:     r.CreatedAt,
	}

	for id, p := range r.Players {
		player := *p
		if r.CardsRevealed && p.Vote != nil {
			v := *p.Vote
			player.Vote = &v
		} else {
			player.Vote = nil
		}
		snap.Players[id] = player
	}

	if r.CardsRevealed {
		results := Aggregate(r.Players, r.CardSet)
		snap.Results = &results
	}
	return snap
}

// NewSummary returns the listing view of the room
func NewSummary(r *models.Room) models.RoomSummary {
	summary := models.RoomSummary{
		ID:             r.ID,
		HostID:         r.HostID,
		CardsRevealed:  r.CardsRevealed,
		CardSet:        r.CardSet.Name,
		Round:          r.Round,
		CreatedAt:      r.CreatedAt,
		LastActivityAt: r.LastActivityAt,
	}
	for _, p := range r.Players {
		if p.IsSpectator {
			summary.Spectators++
		} else {
			summary.Players++
		}
	}
	return summary
}
