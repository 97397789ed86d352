package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/rs/zerolog/log"
)

// StateProvider exposes read-only views of the live rooms
type StateProvider interface {
	Snapshot(roomID string) (*models.RoomSnapshot, error)
	ListRooms() []models.RoomSummary
}

// HistoryReader returns the archived rounds of a room, most recent first
type HistoryReader interface {
	ListByRoom(ctx context.Context, roomID string, limit int) ([]models.RoundSummary, error)
}

const defaultHistoryLimit = 20

// StateHandler handles HTTP requests for room state
type StateHandler struct {
	stateProvider StateProvider
	history       HistoryReader
	listing       bool
}

// NewStateHandler creates a new state handler. history may be nil. Room ids are enough to
// join a room, so the room list is only served when listing is set.
func NewStateHandler(provider StateProvider, history HistoryReader, listing bool) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
		history:       history,
		listing:       listing,
	}
}

// HandleListRooms handles GET /api/rooms
func (h *StateHandler) HandleListRooms(w http.ResponseWriter, r *http.Request) {
	if !h.listing {
		http.Error(w, "Room listing is disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.stateProvider.ListRooms())
}

// HandleGetRoom handles GET /api/rooms/{id}
func (h *StateHandler) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseRoomID(w, r)
	if !ok {
		return
	}

	snap, err := h.stateProvider.Snapshot(roomID)
	if errors.Is(err, room.ErrRoomNotFound) {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to get room state")
		http.Error(w, "Failed to get room state", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// HandleGetHistory handles GET /api/rooms/{id}/history
func (h *StateHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseRoomID(w, r)
	if !ok {
		return
	}
	if h.history == nil {
		http.Error(w, "Round history is disabled", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rounds, err := h.history.ListByRoom(r.Context(), roomID, limit)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to get round history")
		http.Error(w, "Failed to get round history", http.StatusInternalServerError)
		return
	}
	if rounds == nil {
		rounds = []models.RoundSummary{}
	}

	writeJSON(w, http.StatusOK, rounds)
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rooms", h.HandleListRooms)
	mux.HandleFunc("GET /api/rooms/{id}", h.HandleGetRoom)
	mux.HandleFunc("GET /api/rooms/{id}/history", h.HandleGetHistory)
}

// parseRoomID reads the {id} path value and rejects anything that is not a UUID
func parseRoomID(w http.ResponseWriter, r *http.Request) (string, bool) {
	roomID := r.PathValue("id")
	if roomID == "" {
		http.Error(w, "Room ID is required", http.StatusBadRequest)
		return "", false
	}
	if _, err := uuid.Parse(roomID); err != nil {
		http.Error(w, "Invalid room ID format", http.StatusBadRequest)
		return "", false
	}
	return roomID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
