package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// MessageHandler reacts to the lifecycle and the inbound messages of a connection
type MessageHandler interface {
	OnConnect(conn *Connection)
	HandleMessage(ctx context.Context, conn *Connection, message []byte)
	OnDisconnect(ctx context.Context, conn *Connection)
}

// ConnectionManager manages WebSocket connections of room participants
type ConnectionManager struct {
	connections map[string]*Connection
	mu          sync.RWMutex
	closing     bool

	// Read pumps still running; each one releases its connection on exit
	pumps sync.WaitGroup

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	// Connection configuration
	config ConnectionConfig

	handler MessageHandler
	clock   clockwork.Clock
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Manager *ConnectionManager

	// Connection metadata
	ConnectedAt time.Time

	send     chan []byte
	mu       sync.Mutex
	closed   bool
	lastPing time.Time
	release  sync.Once
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			// Rooms are joined by id only; any origin may connect
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock) *ConnectionManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = DefaultConnectionConfig().SendBufferSize
	}
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		clock:  clock,
	}
}

// SetHandler sets the handler receiving connection lifecycle and messages.
// It must be called before the first connection is accepted.
func (cm *ConnectionManager) SetHandler(handler MessageHandler) {
	cm.handler = handler
}

// Start runs until ctx is cancelled, then closes every open connection
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	<-ctx.Done()
	log.Info().Msg("connection manager shutting down")
	cm.CloseAll()
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and starts its pumps
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := cm.newConnection(conn)
	if !cm.registerConnection(connection) {
		conn.Close()
		return nil, errors.New("connection manager is shutting down")
	}

	if cm.handler != nil {
		cm.handler.OnConnect(connection)
	}

	// Start connection handlers
	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return connection, nil
}

func (cm *ConnectionManager) newConnection(conn *websocket.Conn) *Connection {
	now := cm.clock.Now()
	return &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Manager:     cm,
		ConnectedAt: now,
		send:        make(chan []byte, cm.config.SendBufferSize),
		lastPing:    now,
	}
}

// registerConnection adds a connection to the manager. It fails once CloseAll has started.
// A connection with a socket is counted as a running read pump until readPump returns.
func (cm *ConnectionManager) registerConnection(conn *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.closing {
		return false
	}
	cm.connections[conn.ID] = conn
	if conn.Conn != nil {
		cm.pumps.Add(1)
	}

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
	return true
}

// unregisterConnection removes a connection from the manager
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if existing, ok := cm.connections[conn.ID]; ok && existing == conn {
		delete(cm.connections, conn.ID)
		log.Info().
			Str("connection_id", conn.ID).
			Dur("connected_for", cm.clock.Since(conn.ConnectedAt)).
			Msg("connection unregistered")
	}
}

// Lookup returns the open connection with the given id
func (cm *ConnectionManager) Lookup(connID string) (*Connection, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	conn, ok := cm.connections[connID]
	return conn, ok
}

// Evict closes a connection that cannot keep up. It only closes the queue and the socket:
// the read pump finishes the message it may be handling, then runs the disconnect path.
// Evict never blocks, so it is safe to call with a room locked.
func (cm *ConnectionManager) Evict(conn *Connection) {
	if !conn.close() {
		return
	}

	log.Warn().
		Str("connection_id", conn.ID).
		Msg("connection send buffer full, closing connection")

	if conn.Conn != nil {
		conn.Conn.Close()
	}
}

// CloseAll closes every open connection and waits until each of them has left its room
func (cm *ConnectionManager) CloseAll() {
	cm.mu.Lock()
	cm.closing = true
	conns := make([]*Connection, 0, len(cm.connections))
	for _, conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.Unlock()

	for _, conn := range conns {
		conn.close()
		if conn.Conn == nil {
			// No read pump to release it
			cm.releaseConnection(conn)
		}
	}

	cm.pumps.Wait()
}

// releaseConnection runs the disconnect path of a connection exactly once. For a connection
// with a socket it is only called when its read pump exits, so no message of that connection
// can be applied after its disconnect.
func (cm *ConnectionManager) releaseConnection(conn *Connection) {
	conn.release.Do(func() {
		conn.close()
		if cm.handler != nil {
			cm.handler.OnDisconnect(context.Background(), conn)
		}
		cm.unregisterConnection(conn)
	})
}

// Count returns the number of open connections
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	queued := 0
	for _, conn := range cm.connections {
		queued += len(conn.send)
	}

	return map[string]interface{}{
		"total_connections": len(cm.connections),
		"queued_messages":   queued,
	}
}

// enqueue hands a message to the write pump without blocking. It reports false when the
// connection is closed or its buffer is full.
func (c *Connection) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// close stops accepting messages; the write pump sends a close frame and exits.
// It reports whether this call closed the connection.
func (c *Connection) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.closed = true
	close(c.send)
	return true
}

// LastPing returns when the client last answered a ping
func (c *Connection) LastPing() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPing
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastPing = c.Manager.clock.Now()
	c.mu.Unlock()
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := c.Manager.clock.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.Chan():
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection. Its exit is the
// connection's disconnect.
func (c *Connection) readPump() {
	defer c.Manager.pumps.Done()
	defer c.Manager.releaseConnection(c)

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.touch()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.handler != nil {
			c.Manager.handler.HandleMessage(context.Background(), c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
