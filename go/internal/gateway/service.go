package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/rs/zerolog/log"
)

// Service is the planning poker gateway: it owns the live rooms, the WebSocket
// connections of their participants and the HTTP views of both
type Service struct {
	connectionManager *ConnectionManager
	registry          *Registry
	dispatcher        *Dispatcher
	manager           *room.Manager
	reaper            *room.Reaper
	sessions          *SessionHandler
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	inviteHandler     *InviteHandler
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	PublicURL        string
	IdleTimeout      time.Duration // zero keeps rooms until their last player leaves
	RoomListing      bool          // serve GET /api/rooms
	Clock            clockwork.Clock
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		PublicURL:        "http://localhost:5173",
	}
}

// Option adds an optional collaborator to the service
type Option func(*options)

type options struct {
	mirrors  []room.Publisher
	recorder room.RoundRecorder
	history  HistoryReader
	cardSets *room.CardSets
}

// WithMirror publishes every room event to pub in addition to the room's connections.
// pub must not block.
func WithMirror(pub room.Publisher) Option {
	return func(o *options) {
		o.mirrors = append(o.mirrors, pub)
	}
}

// WithRoundHistory archives revealed rounds and serves them over HTTP
func WithRoundHistory(recorder room.RoundRecorder, reader HistoryReader) Option {
	return func(o *options) {
		o.recorder = recorder
		o.history = reader
	}
}

// WithCardSets sets the card sets rooms can be created with
func WithCardSets(cardSets *room.CardSets) Option {
	return func(o *options) {
		o.cardSets = cardSets
	}
}

// NewService creates a new gateway service
func NewService(config Config, opts ...Option) *Service {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	clock := config.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	registry := NewRegistry()
	connectionManager := NewConnectionManager(config.ConnectionConfig, clock)
	dispatcher := NewDispatcher(registry, connectionManager)

	publisher := room.Publishers{dispatcher}
	for _, mirror := range o.mirrors {
		publisher = append(publisher, mirror)
	}

	managerOpts := []room.Option{room.WithClock(clock)}
	if o.recorder != nil {
		managerOpts = append(managerOpts, room.WithRecorder(o.recorder))
	}
	if o.cardSets != nil {
		managerOpts = append(managerOpts, room.WithCardSets(o.cardSets))
	}
	manager := room.NewManager(room.NewStore(clock), registry, publisher, managerOpts...)
	dispatcher.SetDisconnector(manager)

	sessions := NewSessionHandler(manager, registry, dispatcher, clock)
	connectionManager.SetHandler(sessions)

	s := &Service{
		connectionManager: connectionManager,
		registry:          registry,
		dispatcher:        dispatcher,
		manager:           manager,
		sessions:          sessions,
		wsHandler:         NewWebSocketHandler(connectionManager, registry),
		stateHandler:      NewStateHandler(manager, o.history, config.RoomListing),
		inviteHandler:     NewInviteHandler(manager, config.PublicURL),
	}
	if config.IdleTimeout > 0 {
		s.reaper = room.NewReaper(manager, config.IdleTimeout, 0, clock)
	}
	return s
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting planning poker gateway")

	go s.connectionManager.Start(ctx)
	if s.reaper != nil {
		go s.reaper.Run(ctx)
	}

	// Wait for context cancellation
	<-ctx.Done()

	log.Info().Msg("planning poker gateway shutting down")
	return s.Stop()
}

// Stop closes every connection. Rooms empty out through the regular disconnect path.
func (s *Service) Stop() error {
	s.connectionManager.CloseAll()
	log.Info().Int("rooms", s.manager.RoomCount()).Msg("planning poker gateway stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	s.inviteHandler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

// Manager returns the room manager, for read-only APIs served next to the gateway
func (s *Service) Manager() *room.Manager {
	return s.manager
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["active_rooms"] = s.manager.RoomCount()
	stats["service"] = "planning_poker_gateway"
	stats["status"] = "running"
	return stats
}
