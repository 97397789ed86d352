package gateway

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Disconnector removes a connection from the room it is bound to
type Disconnector interface {
	Disconnect(ctx context.Context, connID, roomID string) error
}

// Registry maps connections to the room they are bound to and rooms to their members.
// A connection is bound to at most one room at a time.
type Registry struct {
	rooms   map[string]string
	members map[string]map[string]struct{}
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]string),
		members: make(map[string]map[string]struct{}),
	}
}

// Bind binds the connection to roomID, replacing any previous binding
func (r *Registry) Bind(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unbindLocked(connID)
	r.rooms[connID] = roomID
	if r.members[roomID] == nil {
		r.members[roomID] = make(map[string]struct{})
	}
	r.members[roomID][connID] = struct{}{}
}

// Unbind removes the connection's binding, if any
func (r *Registry) Unbind(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unbindLocked(connID)
}

func (r *Registry) unbindLocked(connID string) {
	roomID, ok := r.rooms[connID]
	if !ok {
		return
	}
	delete(r.rooms, connID)
	if members := r.members[roomID]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.members, roomID)
		}
	}
}

// RoomOf returns the room the connection is bound to, or ""
func (r *Registry) RoomOf(connID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[connID]
}

// Members returns the connections bound to roomID in sorted order
func (r *Registry) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.members[roomID]))
	for connID := range r.members[roomID] {
		members = append(members, connID)
	}
	sort.Strings(members)
	return members
}

// RoomCount returns the number of rooms with at least one bound connection
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Disconnect runs the disconnect transition for the room the connection is bound to.
// The binding itself is removed by that transition; a connection that is no longer bound
// is left alone, so a repeated disconnect has no effect.
func (r *Registry) Disconnect(ctx context.Context, connID string, d Disconnector) error {
	roomID := r.RoomOf(connID)
	if roomID == "" {
		return nil
	}

	err := d.Disconnect(ctx, connID, roomID)
	if err != nil {
		log.Error().
			Err(err).
			Str("connection_id", connID).
			Str("room_id", roomID).
			Msg("failed to disconnect player")
	}

	// The transition normally unbinds; this only matters when it could not run.
	if r.RoomOf(connID) == roomID {
		r.Unbind(connID)
	}
	return err
}
