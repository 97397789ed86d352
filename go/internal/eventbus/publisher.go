package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/planningpoker/go/internal/gateway"
	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Config holds configuration for the NATS event mirror
type Config struct {
	URL           string
	SubjectPrefix string // e.g. "poker" publishes to "poker.rooms.<room_id>.<event_type>"
	Name          string
	BufferSize    int
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns default NATS mirror configuration
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "poker",
		Name:          "planning-poker-gateway",
		BufferSize:    1024,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Conn is the part of a NATS connection the publisher uses
type Conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Drain() error
}

// Envelope is the message published for every room event
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	RoomID    string          `json:"roomId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type message struct {
	subject string
	data    []byte
}

// Publisher mirrors room events to NATS. Publish only enqueues; a background loop does the
// network I/O, so room transitions never wait on the broker. Events are dropped when the
// queue is full.
type Publisher struct {
	conn   Conn
	prefix string
	queue  chan message

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64

	mu            sync.Mutex
	lastPublished time.Time
}

// Connect dials NATS and returns a publisher on the connection
func Connect(config Config) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject_prefix", config.SubjectPrefix).
		Msg("connected to NATS")

	return NewPublisher(nc, config), nil
}

// NewPublisher creates a publisher on an existing connection
func NewPublisher(conn Conn, config Config) *Publisher {
	size := config.BufferSize
	if size <= 0 {
		size = DefaultConfig().BufferSize
	}
	return &Publisher{
		conn:   conn,
		prefix: strings.TrimSuffix(config.SubjectPrefix, "."),
		queue:  make(chan message, size),
	}
}

// Subject returns the subject a room event is published to
func (p *Publisher) Subject(roomID string, eventType room.EventType) string {
	subject := "rooms." + roomID + "." + string(eventType)
	if p.prefix == "" {
		return subject
	}
	return p.prefix + "." + subject
}

// Publish enqueues the event for mirroring. It never blocks.
func (p *Publisher) Publish(roomID string, ev room.Event) {
	payload, err := json.Marshal(gateway.EventData(ev))
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to marshal mirrored event")
		return
	}
	data, err := json.Marshal(Envelope{
		EventID:   uuid.New().String(),
		EventType: string(ev.Type),
		RoomID:    roomID,
		Timestamp: ev.At.UTC(),
		Payload:   payload,
	})
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to marshal event envelope")
		return
	}

	select {
	case p.queue <- message{subject: p.Subject(roomID, ev.Type), data: data}:
	default:
		p.dropped.Add(1)
		log.Warn().
			Str("room_id", roomID).
			Str("event_type", string(ev.Type)).
			Msg("event mirror queue full, dropping event")
	}
}

// Start publishes queued events until ctx is cancelled, then drains the connection
func (p *Publisher) Start(ctx context.Context) {
	log.Info().Str("subject_prefix", p.prefix).Msg("event mirror started")

	for {
		select {
		case <-ctx.Done():
			p.flushQueue()
			if err := p.conn.Drain(); err != nil {
				log.Error().Err(err).Msg("failed to drain NATS connection")
			}
			log.Info().Msg("event mirror stopped")
			return
		case msg := <-p.queue:
			p.send(msg)
		}
	}
}

func (p *Publisher) flushQueue() {
	for {
		select {
		case msg := <-p.queue:
			p.send(msg)
		default:
			return
		}
	}
}

func (p *Publisher) send(msg message) {
	if err := p.conn.Publish(msg.subject, msg.data); err != nil {
		p.failed.Add(1)
		log.Error().Err(err).Str("subject", msg.subject).Msg("failed to publish event")
		return
	}
	p.published.Add(1)

	p.mu.Lock()
	p.lastPublished = time.Now()
	p.mu.Unlock()
}

// IsConnected reports whether the NATS connection is up
func (p *Publisher) IsConnected() bool {
	return p.conn.IsConnected()
}

// Stats returns how many events were published, dropped on a full queue and failed to
// publish, and when the last one was published
func (p *Publisher) Stats() (published, dropped, failed uint64, last time.Time) {
	p.mu.Lock()
	last = p.lastPublished
	p.mu.Unlock()
	return p.published.Load(), p.dropped.Load(), p.failed.Load(), last
}
