package room

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/planningpoker/go/internal/models"
)

// slot owns one room and the lock that serializes its transitions.
// room is nil once the room has been destroyed.
type slot struct {
	mu   sync.Mutex
	room *models.Room
}

// Store is the in-memory owner of every active room.
// The map lock only covers lookup, insert and delete; transitions hold the slot lock instead,
// so traffic for different rooms never contends. Lock order is slot, then map.
type Store struct {
	rooms map[string]*slot
	mu    sync.RWMutex
	clock clockwork.Clock
}

// NewStore creates an empty room store
func NewStore(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		rooms: make(map[string]*slot),
		clock: clock,
	}
}

// Create allocates a room with a fresh random id, the given player as sole member and host,
// and the cards hidden. It returns a copy of the new room.
func (s *Store) Create(initial *models.Player, cardSet models.CardSet) *models.Room {
	sl := s.create(initial, cardSet)
	defer sl.mu.Unlock()
	return sl.room.Clone()
}

// Get returns a consistent copy of the room taken between transitions
func (s *Store) Get(roomID string) (*models.Room, error) {
	sl, ok := s.lookup(roomID)
	if !ok {
		return nil, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.room == nil {
		return nil, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	return sl.room.Clone(), nil
}

// Delete removes a room from the store
func (s *Store) Delete(roomID string) bool {
	sl, ok := s.lookup(roomID)
	if !ok {
		return false
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	s.destroy(roomID, sl)
	return true
}

// List returns summaries of every active room ordered by creation time
func (s *Store) List() []models.RoomSummary {
	s.mu.RLock()
	slots := make([]*slot, 0, len(s.rooms))
	for _, sl := range s.rooms {
		slots = append(slots, sl)
	}
	s.mu.RUnlock()

	summaries := make([]models.RoomSummary, 0, len(slots))
	for _, sl := range slots {
		sl.mu.Lock()
		if sl.room != nil {
			summaries = append(summaries, NewSummary(sl.room))
		}
		sl.mu.Unlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// Count returns the number of active rooms
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// create inserts a new room and returns its slot locked, so nothing can reach the room
// before the caller has finished setting it up.
func (s *Store) create(initial *models.Player, cardSet models.CardSet) *slot {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// UUIDv4 carries 122 random bits; the loop only guards the theoretical collision.
	id := uuid.New().String()
	for _, exists := s.rooms[id]; exists; _, exists = s.rooms[id] {
		id = uuid.New().String()
	}

	sl := &slot{
		room: &models.Room{
			ID:             id,
			HostID:         initial.ID,
			Players:        map[string]*models.Player{initial.ID: initial},
			CardsRevealed:  false,
			CardSet:        cardSet,
			Round:          1,
			CreatedAt:      now,
			LastActivityAt: now,
		},
	}
	sl.mu.Lock()
	s.rooms[id] = sl
	return sl
}

func (s *Store) lookup(roomID string) (*slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.rooms[roomID]
	return sl, ok
}

// destroy must be called with the slot locked
func (s *Store) destroy(roomID string, sl *slot) {
	sl.room = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms[roomID] == sl {
		delete(s.rooms, roomID)
	}
}
