package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Player name bounds, counted in characters after trimming
const (
	MinNameLength = 3
	MaxNameLength = 100
)

// CreateRoomRequest holds the parameters of a createRoom action
type CreateRoomRequest struct {
	Name        string
	IsSpectator bool
	CardSet     string
}

// JoinRoomRequest holds the parameters of a joinRoom action
type JoinRoomRequest struct {
	RoomID      string
	Name        string
	IsSpectator bool
}

// Manager is the single point of mutation for rooms. Actions on one room are applied
// strictly one at a time under that room's slot lock; actions on different rooms run
// in parallel. Events are handed to the publisher before the lock is released.
type Manager struct {
	store     *Store
	members   Membership
	publisher Publisher
	recorder  RoundRecorder
	cardSets  *CardSets
	clock     clockwork.Clock
}

// Option configures a Manager
type Option func(*Manager)

// WithRecorder archives every revealed round when it is reset
func WithRecorder(recorder RoundRecorder) Option {
	return func(m *Manager) {
		m.recorder = recorder
	}
}

// WithCardSets replaces the built-in card set registry
func WithCardSets(cardSets *CardSets) Option {
	return func(m *Manager) {
		m.cardSets = cardSets
	}
}

// WithClock sets the clock used for activity timestamps
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a room manager over store
func NewManager(store *Store, members Membership, publisher Publisher, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		members:   members,
		publisher: publisher,
		cardSets:  DefaultCardSets(),
		clock:     store.clock,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NormalizeName trims the name and checks its length
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	if n < MinNameLength || n > MaxNameLength {
		return "", fmt.Errorf("name %q: %w", trimmed, ErrInvalidName)
	}
	return trimmed, nil
}

// CardSets returns the registry rooms are created from
func (m *Manager) CardSets() *CardSets {
	return m.cardSets
}

// CreateRoom creates a room with the connection as its host. A connection bound to another
// room leaves it first.
func (m *Manager) CreateRoom(ctx context.Context, connID string, req CreateRoomRequest) (*models.RoomSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := NormalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	cardSet, err := m.cardSets.Resolve(req.CardSet)
	if err != nil {
		return nil, err
	}

	m.leaveCurrent(ctx, connID, "")

	player := &models.Player{
		ID:          connID,
		Name:        name,
		IsSpectator: req.IsSpectator,
		JoinedAt:    m.clock.Now(),
	}

	sl := m.store.create(player, cardSet)
	defer sl.mu.Unlock()

	r := sl.room
	m.members.Bind(connID, r.ID)
	snap := NewSnapshot(r)
	m.publish(r.ID, []Event{{
		Type:     EventRoomCreated,
		To:       connID,
		Room:     snap,
		PlayerID: connID,
		IsHost:   true,
	}}, r.CreatedAt)

	log.Info().
		Str("room_id", r.ID).
		Str("connection_id", connID).
		Str("card_set", cardSet.Name).
		Bool("spectator", req.IsSpectator).
		Msg("room created")

	return snap, nil
}

// JoinRoom adds the connection to an existing room. Joining a room the connection is
// already a member of only re-sends the room state. A connection bound to another room
// leaves it only once the join succeeded, so a failed join keeps its current room.
func (m *Manager) JoinRoom(ctx context.Context, connID string, req JoinRoomRequest) (*models.RoomSnapshot, error) {
	name, err := NormalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	previous := m.members.RoomOf(connID)
	var snap *models.RoomSnapshot
	err = m.apply(ctx, req.RoomID, func(r *models.Room, now time.Time) ([]Event, error) {
		if _, ok := r.Players[connID]; ok {
			snap = NewSnapshot(r)
			return []Event{{Type: EventRoomState, To: connID, Room: snap, PlayerID: connID, IsHost: r.HostID == connID}}, nil
		}

		m.members.Bind(connID, r.ID)
		r.LastActivityAt = now
		events := addPlayer(r, &models.Player{
			ID:          connID,
			Name:        name,
			IsSpectator: req.IsSpectator,
			JoinedAt:    now,
		})
		snap = events[0].Room

		log.Info().
			Str("room_id", r.ID).
			Str("connection_id", connID).
			Int("players", len(r.Players)).
			Msg("player joined room")
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	if previous != "" && previous != req.RoomID {
		m.leavePrevious(ctx, connID, previous)
	}
	return snap, nil
}

// Vote records the caller's vote. Votes are accepted whether or not the cards are revealed.
func (m *Manager) Vote(ctx context.Context, connID, roomID string, value int) error {
	return m.apply(ctx, roomID, func(r *models.Room, now time.Time) ([]Event, error) {
		events, err := castVote(r, connID, value)
		if err != nil {
			return nil, err
		}
		r.LastActivityAt = now

		log.Debug().
			Str("room_id", roomID).
			Str("connection_id", connID).
			Msg("vote recorded")
		return events, nil
	})
}

// RevealCards shows every vote. Revealing an already revealed round is a no-op.
func (m *Manager) RevealCards(ctx context.Context, connID, roomID string) error {
	return m.apply(ctx, roomID, func(r *models.Room, now time.Time) ([]Event, error) {
		events, err := revealCards(r, connID, now)
		if err != nil {
			return nil, err
		}
		r.LastActivityAt = now

		if len(events) > 0 {
			log.Info().Str("room_id", roomID).Int("round", r.Round).Msg("cards revealed")
		}
		return events, nil
	})
}

// ResetVotes clears every vote and hides the cards, starting the next round
func (m *Manager) ResetVotes(ctx context.Context, connID, roomID string) error {
	return m.apply(ctx, roomID, func(r *models.Room, now time.Time) ([]Event, error) {
		events, summary, err := resetVotes(r, connID, now)
		if err != nil {
			return nil, err
		}
		r.LastActivityAt = now

		if summary != nil && m.recorder != nil {
			m.recorder.Record(*summary)
		}

		log.Info().Str("room_id", roomID).Int("round", r.Round).Msg("votes reset")
		return events, nil
	})
}

// ExitRoom removes the caller from the room at its own request
func (m *Manager) ExitRoom(ctx context.Context, connID, roomID string) error {
	return m.leave(ctx, connID, roomID, true)
}

// Disconnect removes a connection that went away. It never fails for a connection that
// is already gone, so a repeated disconnect has no effect.
func (m *Manager) Disconnect(ctx context.Context, connID, roomID string) error {
	err := m.leave(ctx, connID, roomID, false)
	if errors.Is(err, ErrNotAMember) || errors.Is(err, ErrRoomNotFound) {
		return nil
	}
	return err
}

// CloseRoom removes every player from the room and destroys it
func (m *Manager) CloseRoom(ctx context.Context, roomID, reason string) error {
	_, err := m.closeRoom(ctx, roomID, reason, func(*models.Room) bool { return true })
	return err
}

// closeIdle closes the room if it has seen no activity since cutoff
func (m *Manager) closeIdle(ctx context.Context, roomID string, cutoff time.Time) (bool, error) {
	return m.closeRoom(ctx, roomID, "idle", func(r *models.Room) bool {
		return !r.LastActivityAt.After(cutoff)
	})
}

// Snapshot returns the client view of the room
func (m *Manager) Snapshot(roomID string) (*models.RoomSnapshot, error) {
	r, err := m.store.Get(roomID)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(r), nil
}

// ListRooms returns summaries of every active room
func (m *Manager) ListRooms() []models.RoomSummary {
	return m.store.List()
}

// RoomCount returns the number of active rooms
func (m *Manager) RoomCount() int {
	return m.store.Count()
}

func (m *Manager) leave(ctx context.Context, connID, roomID string, explicit bool) error {
	return m.apply(ctx, roomID, func(r *models.Room, now time.Time) ([]Event, error) {
		if _, ok := r.Players[connID]; !ok {
			return nil, ErrNotAMember
		}

		wasHost := r.HostID == connID
		events := removePlayer(r, connID)
		if m.members.RoomOf(connID) == roomID {
			m.members.Unbind(connID)
		}
		r.LastActivityAt = now

		if explicit {
			events = append([]Event{{Type: EventRoomLeft, To: connID}}, events...)
		}

		logEvent := log.Info().
			Str("room_id", roomID).
			Str("connection_id", connID).
			Bool("explicit", explicit).
			Int("remaining", len(r.Players))
		if wasHost && len(r.Players) > 0 {
			logEvent = logEvent.Str("new_host_id", r.HostID)
		}
		logEvent.Msg("player left room")
		return events, nil
	})
}

// leaveCurrent takes the connection out of the room it is bound to, unless that room is keep
func (m *Manager) leaveCurrent(ctx context.Context, connID, keep string) {
	current := m.members.RoomOf(connID)
	if current == "" || current == keep {
		return
	}
	m.leavePrevious(ctx, connID, current)
}

// leavePrevious takes the connection out of a room it is moving away from
func (m *Manager) leavePrevious(ctx context.Context, connID, roomID string) {
	err := m.leave(ctx, connID, roomID, true)
	if err == nil || errors.Is(err, ErrNotAMember) || errors.Is(err, ErrRoomNotFound) {
		return
	}
	log.Warn().
		Err(err).
		Str("room_id", roomID).
		Str("connection_id", connID).
		Msg("failed to leave previous room")
	if m.members.RoomOf(connID) == roomID {
		m.members.Unbind(connID)
	}
}

func (m *Manager) closeRoom(ctx context.Context, roomID, reason string, pred func(*models.Room) bool) (bool, error) {
	closed := false
	err := m.apply(ctx, roomID, func(r *models.Room, now time.Time) ([]Event, error) {
		if !pred(r) {
			return nil, nil
		}

		events := make([]Event, 0, len(r.Players))
		for id := range r.Players {
			events = append(events, Event{Type: EventRoomClosed, To: id, Reason: reason})
			if m.members.RoomOf(id) == roomID {
				m.members.Unbind(id)
			}
		}
		r.Players = make(map[string]*models.Player)
		closed = true

		log.Info().Str("room_id", roomID).Str("reason", reason).Int("players", len(events)).Msg("closing room")
		return events, nil
	})
	return closed, err
}

// apply runs one transition with the room's slot locked. A room left without players is
// destroyed before the lock is released, so no empty room is ever observable.
func (m *Manager) apply(ctx context.Context, roomID string, fn func(r *models.Room, now time.Time) ([]Event, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sl, ok := m.store.lookup(roomID)
	if !ok {
		return fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.room == nil {
		return fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}

	now := m.clock.Now()
	events, err := fn(sl.room, now)
	if err != nil {
		return err
	}

	if len(sl.room.Players) == 0 {
		m.store.destroy(roomID, sl)
		log.Info().Str("room_id", roomID).Msg("room destroyed")
	}

	m.publish(roomID, events, now)
	return nil
}

func (m *Manager) publish(roomID string, events []Event, at time.Time) {
	for _, ev := range events {
		ev.RoomID = roomID
		ev.At = at
		m.publisher.Publish(roomID, ev)
	}
}
