package gateway

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// QR code size bounds in pixels
const (
	defaultInviteSize = 320
	minInviteSize     = 128
	maxInviteSize     = 1024
)

// InviteHandler renders join links of live rooms as QR codes
type InviteHandler struct {
	stateProvider StateProvider
	publicURL     string
}

// NewInviteHandler creates an invite handler building links under publicURL
func NewInviteHandler(provider StateProvider, publicURL string) *InviteHandler {
	return &InviteHandler{
		stateProvider: provider,
		publicURL:     strings.TrimRight(publicURL, "/"),
	}
}

// JoinURL returns the link a participant follows to join the room
func (h *InviteHandler) JoinURL(roomID string) string {
	return h.publicURL + "/room/" + url.PathEscape(roomID)
}

// HandleInvite handles GET /api/rooms/{id}/invite.png
func (h *InviteHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseRoomID(w, r)
	if !ok {
		return
	}

	if _, err := h.stateProvider.Snapshot(roomID); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get room state", http.StatusInternalServerError)
		return
	}

	size := defaultInviteSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minInviteSize || n > maxInviteSize {
			http.Error(w, "size must be between 128 and 1024", http.StatusBadRequest)
			return
		}
		size = n
	}

	png, err := qrcode.Encode(h.JoinURL(roomID), qrcode.Medium, size)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to render invite QR code")
		http.Error(w, "Failed to render invite", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// RegisterRoutes registers the invite route
func (h *InviteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rooms/{id}/invite.png", h.HandleInvite)
}
