package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/planningpoker/go/internal/gateway"
	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/mcdev12/planningpoker/go/internal/room"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// History store kinds
const (
	HistoryStoreMemory   = "memory"
	HistoryStorePostgres = "postgres"
)

// Config is the server configuration, read from the environment and an optional YAML file
type Config struct {
	Port              string
	NATSURL           string // empty disables the event mirror
	NATSSubjectPrefix string
	PublicURL         string
	AllowedOrigins    []string
	RoomIdleTimeout   time.Duration // zero disables the idle reaper
	LogLevel          zerolog.Level
	ConfigPath        string
	HistoryEnabled    bool
	HistoryStore      string
	RoomListing       bool // expose the list of live room ids
	File              FileConfig
}

// FileConfig is the YAML part of the configuration
type FileConfig struct {
	DefaultCardSet string           `yaml:"default_card_set"`
	CardSets       []models.CardSet `yaml:"card_sets"`
	WebSocket      WebSocketConfig  `yaml:"websocket"`
}

// WebSocketConfig overrides the connection defaults. Zero values keep the defaults.
type WebSocketConfig struct {
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendBufferSize int           `yaml:"send_buffer_size"`
}

// Load reads the configuration from the environment and, when CONFIG_PATH is set, from
// the YAML file it names
func Load() (*Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	idle, err := time.ParseDuration(getEnv("ROOM_IDLE_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROOM_IDLE_TIMEOUT: %w", err)
	}
	if idle < 0 {
		return nil, fmt.Errorf("invalid ROOM_IDLE_TIMEOUT: %s is negative", idle)
	}

	cfg := &Config{
		Port:              getEnv("GATEWAY_PORT", "8081"),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "poker"),
		PublicURL:         getEnv("PUBLIC_URL", "http://localhost:5173"),
		AllowedOrigins:    splitList(os.Getenv("ALLOWED_ORIGINS")),
		RoomIdleTimeout:   idle,
		LogLevel:          level,
		ConfigPath:        os.Getenv("CONFIG_PATH"),
		HistoryEnabled:    getEnvAsBool("HISTORY_ENABLED", true),
		HistoryStore:      strings.ToLower(getEnv("HISTORY_STORE", HistoryStoreMemory)),
		RoomListing:       getEnvAsBool("ROOM_LISTING_ENABLED", false),
	}

	switch cfg.HistoryStore {
	case HistoryStoreMemory, HistoryStorePostgres:
	default:
		return nil, fmt.Errorf("invalid HISTORY_STORE %q: want %s or %s", cfg.HistoryStore, HistoryStoreMemory, HistoryStorePostgres)
	}

	if cfg.ConfigPath != "" {
		file, err := LoadFile(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.File = *file
	}

	return cfg, nil
}

// LoadFile reads the YAML configuration file
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &file, nil
}

// CardSets builds the card set registry from the built-in sets and the configured ones
func (c *Config) CardSets() (*room.CardSets, error) {
	return room.NewCardSets(c.File.DefaultCardSet, c.File.CardSets...)
}

// ConnectionConfig returns the WebSocket settings with the file's overrides applied
func (c *Config) ConnectionConfig() gateway.ConnectionConfig {
	cc := gateway.DefaultConnectionConfig()
	ws := c.File.WebSocket
	if ws.WriteTimeout > 0 {
		cc.WriteTimeout = ws.WriteTimeout
	}
	if ws.ReadTimeout > 0 {
		cc.ReadTimeout = ws.ReadTimeout
	}
	if ws.PingInterval > 0 {
		cc.PingInterval = ws.PingInterval
	}
	if ws.MaxMessageSize > 0 {
		cc.MaxMessageSize = ws.MaxMessageSize
	}
	if ws.SendBufferSize > 0 {
		cc.SendBufferSize = ws.SendBufferSize
	}
	return cc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
