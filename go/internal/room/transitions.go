package room

import (
	"fmt"
	"sort"
	"time"

	"github.com/mcdev12/planningpoker/go/internal/models"
)

// The functions below are the per-room state machine. They run with the room's slot locked,
// validate before they mutate, and return the events describing the new state.

func addPlayer(r *models.Room, p *models.Player) []Event {
	r.Players[p.ID] = p
	snap := NewSnapshot(r)
	return []Event{
		{Type: EventPlayerJoined, Except: p.ID, Room: snap},
		{Type: EventRoomState, To: p.ID, Room: snap, PlayerID: p.ID, IsHost: r.HostID == p.ID},
	}
}

func castVote(r *models.Room, playerID string, value int) ([]Event, error) {
	p, ok := r.Players[playerID]
	if !ok {
		return nil, ErrNotAMember
	}
	if !r.CardSet.Contains(value) {
		return nil, fmt.Errorf("vote %d: %w", value, ErrInvalidVote)
	}
	if p.IsSpectator {
		return nil, ErrSpectatorCannotVote
	}

	p.SetVote(value)
	return []Event{{Type: EventPlayerVoted, Room: NewSnapshot(r)}}, nil
}

func requireHost(r *models.Room, playerID string) error {
	if _, ok := r.Players[playerID]; !ok {
		return ErrNotAMember
	}
	if r.HostID != playerID {
		return ErrNotHost
	}
	return nil
}

func revealCards(r *models.Room, playerID string, now time.Time) ([]Event, error) {
	if err := requireHost(r, playerID); err != nil {
		return nil, err
	}
	if r.CardsRevealed {
		return nil, nil
	}
	if !anyVoterVoted(r) {
		return nil, ErrNothingToReveal
	}

	r.CardsRevealed = true
	r.RevealedAt = &now
	return []Event{{Type: EventCardsRevealed, Room: NewSnapshot(r)}}, nil
}

func anyVoterVoted(r *models.Room) bool {
	for _, p := range r.Players {
		if !p.IsSpectator && p.HasVoted {
			return true
		}
	}
	return false
}

// resetVotes starts the next round. The summary is non-nil when the finished round had
// been revealed.
func resetVotes(r *models.Room, playerID string, now time.Time) ([]Event, *models.RoundSummary, error) {
	if err := requireHost(r, playerID); err != nil {
		return nil, nil, err
	}

	var summary *models.RoundSummary
	if r.CardsRevealed {
		summary = summarizeRound(r, now)
	}

	r.CardsRevealed = false
	r.RevealedAt = nil
	for _, p := range r.Players {
		p.ClearVote()
	}
	r.Round++

	return []Event{{Type: EventVotesReset, Room: NewSnapshot(r)}}, summary, nil
}

func summarizeRound(r *models.Room, resetAt time.Time) *models.RoundSummary {
	summary := &models.RoundSummary{
		RoomID:  r.ID,
		Round:   r.Round,
		CardSet: r.CardSet.Name,
		Results: Aggregate(r.Players, r.CardSet),
		ResetAt: resetAt,
	}
	if r.RevealedAt != nil {
		summary.RevealedAt = *r.RevealedAt
	}

	for _, p := range r.Players {
		vote := models.RoundVote{
			PlayerID:    p.ID,
			PlayerName:  p.Name,
			IsSpectator: p.IsSpectator,
		}
		if p.Vote != nil {
			v := *p.Vote
			vote.Value = &v
		}
		summary.Votes = append(summary.Votes, vote)
	}
	sort.Slice(summary.Votes, func(i, j int) bool {
		return summary.Votes[i].PlayerID < summary.Votes[j].PlayerID
	})
	return summary
}

// removePlayer drops the player and, when the host left and others remain, elects a new
// host. It returns no events once the room is empty; the caller destroys it.
func removePlayer(r *models.Room, playerID string) []Event {
	delete(r.Players, playerID)
	if len(r.Players) == 0 {
		return nil
	}

	hostChanged := false
	if r.HostID == playerID {
		r.HostID = ElectHost(r.Players)
		hostChanged = true
	}

	events := []Event{{Type: EventPlayerDisconnected, Room: NewSnapshot(r)}}
	if hostChanged {
		events = append(events, Event{Type: EventNewHostElected, HostID: r.HostID})
	}
	return events
}
