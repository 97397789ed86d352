package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoutedService(t *testing.T, opts ...Option) (*Service, *http.ServeMux) {
	t.Helper()
	return newConfiguredService(t, func(*Config) {}, opts...)
}

func newConfiguredService(t *testing.T, configure func(*Config), opts ...Option) (*Service, *http.ServeMux) {
	t.Helper()
	config := DefaultConfig()
	config.PublicURL = "https://poker.example.com/"
	configure(&config)
	service := NewService(config, opts...)
	mux := http.NewServeMux()
	service.RegisterRoutes(mux)
	return service, mux
}

func serve(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// createRoom registers a socketless connection under connID and creates a room with it
func createRoom(t *testing.T, service *Service, connID string) *models.RoomSnapshot {
	t.Helper()
	conn := service.connectionManager.newConnection(nil)
	conn.ID = connID
	require.True(t, service.connectionManager.registerConnection(conn))
	snap, err := service.Manager().CreateRoom(context.Background(), connID, room.CreateRoomRequest{Name: "Alice"})
	require.NoError(t, err)
	return snap
}

func TestStateHandlerRooms(t *testing.T) {
	service, mux := newConfiguredService(t, func(c *Config) { c.RoomListing = true })
	snap := createRoom(t, service, "c1")
	require.NoError(t, service.Manager().Vote(context.Background(), "c1", snap.ID, 8))

	rec := serve(mux, "/api/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []models.RoomSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, snap.ID, summaries[0].ID)
	assert.Equal(t, 1, summaries[0].Players)

	rec = serve(mux, "/api/rooms/"+snap.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got models.RoomSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "c1", got.HostID)
	assert.True(t, got.Players["c1"].HasVoted)
	assert.Nil(t, got.Players["c1"].Vote)
}

func TestStateHandlerErrors(t *testing.T) {
	_, mux := newRoutedService(t)

	assert.Equal(t, http.StatusBadRequest, serve(mux, "/api/rooms/not-a-uuid").Code)
	assert.Equal(t, http.StatusNotFound, serve(mux, "/api/rooms/"+uuid.NewString()).Code)
	assert.Equal(t, http.StatusNotFound, serve(mux, "/api/rooms/"+uuid.NewString()+"/history").Code, "history disabled")

	assert.Equal(t, http.StatusNotFound, serve(mux, "/api/rooms").Code, "listing disabled")
}

func TestStateHandlerListingDisabledByDefault(t *testing.T) {
	service, mux := newRoutedService(t)
	snap := createRoom(t, service, "c1")

	rec := serve(mux, "/api/rooms")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), snap.ID)

	// A known id still resolves
	assert.Equal(t, http.StatusOK, serve(mux, "/api/rooms/"+snap.ID).Code)
}

func TestStateHandlerEmptyListing(t *testing.T) {
	_, mux := newConfiguredService(t, func(c *Config) { c.RoomListing = true })

	rec := serve(mux, "/api/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

type staticHistory struct {
	rounds []models.RoundSummary
	limit  int
}

func (h *staticHistory) ListByRoom(ctx context.Context, roomID string, limit int) ([]models.RoundSummary, error) {
	h.limit = limit
	return h.rounds, nil
}

func TestStateHandlerHistory(t *testing.T) {
	reader := &staticHistory{rounds: []models.RoundSummary{{RoomID: "r", Round: 2}, {RoomID: "r", Round: 1}}}
	_, mux := newRoutedService(t, WithRoundHistory(nil, reader))
	roomID := uuid.NewString()

	rec := serve(mux, "/api/rooms/"+roomID+"/history?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, reader.limit)
	var rounds []models.RoundSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rounds))
	assert.Len(t, rounds, 2)

	serve(mux, "/api/rooms/"+roomID+"/history")
	assert.Equal(t, defaultHistoryLimit, reader.limit)

	assert.Equal(t, http.StatusBadRequest, serve(mux, "/api/rooms/"+roomID+"/history?limit=0").Code)

	reader.rounds = nil
	rec = serve(mux, "/api/rooms/"+roomID+"/history")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestInviteHandler(t *testing.T) {
	service, mux := newRoutedService(t)
	snap := createRoom(t, service, "c1")

	assert.Equal(t, "https://poker.example.com/room/"+snap.ID, service.inviteHandler.JoinURL(snap.ID))

	rec := serve(mux, "/api/rooms/"+snap.ID+"/invite.png?size=256")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	assert.Equal(t, http.StatusBadRequest, serve(mux, "/api/rooms/"+snap.ID+"/invite.png?size=64").Code)
	assert.Equal(t, http.StatusNotFound, serve(mux, "/api/rooms/"+uuid.NewString()+"/invite.png").Code)
}
