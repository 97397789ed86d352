package history

import (
	"context"
	"sort"
	"sync"

	"github.com/mcdev12/planningpoker/go/internal/models"
)

// DefaultMaxRoundsPerRoom bounds the rounds kept per room by the memory repository
const DefaultMaxRoundsPerRoom = 100

// MemoryRepository keeps the most recent rounds of every room in memory
type MemoryRepository struct {
	rounds     map[string][]models.RoundSummary
	maxPerRoom int
	mu         sync.RWMutex
}

// NewMemoryRepository creates a repository keeping at most maxPerRoom rounds per room.
// A non-positive maxPerRoom uses DefaultMaxRoundsPerRoom.
func NewMemoryRepository(maxPerRoom int) *MemoryRepository {
	if maxPerRoom <= 0 {
		maxPerRoom = DefaultMaxRoundsPerRoom
	}
	return &MemoryRepository{
		rounds:     make(map[string][]models.RoundSummary),
		maxPerRoom: maxPerRoom,
	}
}

// Save stores the summary, replacing an earlier one for the same round
func (r *MemoryRepository) Save(ctx context.Context, summary models.RoundSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rounds := r.rounds[summary.RoomID]
	replaced := false
	for i := range rounds {
		if rounds[i].Round == summary.Round {
			rounds[i] = summary
			replaced = true
			break
		}
	}
	if !replaced {
		rounds = append(rounds, summary)
	}

	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Round < rounds[j].Round })
	if len(rounds) > r.maxPerRoom {
		rounds = append([]models.RoundSummary(nil), rounds[len(rounds)-r.maxPerRoom:]...)
	}
	r.rounds[summary.RoomID] = rounds
	return nil
}

// ListByRoom returns up to limit rounds of the room, most recent first
func (r *MemoryRepository) ListByRoom(ctx context.Context, roomID string, limit int) ([]models.RoundSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rounds := r.rounds[roomID]
	out := make([]models.RoundSummary, 0, min(limit, len(rounds)))
	for i := len(rounds) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, rounds[i])
	}
	return out, nil
}
