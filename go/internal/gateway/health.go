package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthStatus is the result of one health check
type HealthStatus struct {
	Healthy           bool
	Rooms             int
	Connections       int
	MirrorEnabled     bool
	MirrorConnected   bool
	EventsMirrored    uint64
	EventsDropped     uint64
	LastEventTime     time.Time
	HistoryEnabled    bool
	RoundsSaved       uint64
	RoundsDropped     uint64
	RoundsFailed      uint64
	DatabaseConnected bool
	Errors            []string
}

// MirrorStats reports the state of the event mirror
type MirrorStats interface {
	IsConnected() bool
	Stats() (published, dropped, failed uint64, last time.Time)
}

// RecorderStats reports the state of the round recorder
type RecorderStats interface {
	Stats() (saved, dropped, failed uint64)
}

// Pinger checks a database connection; *sql.DB satisfies it
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthSources are the optional collaborators whose state is part of the health check
type HealthSources struct {
	Mirror   MirrorStats
	Recorder RecorderStats
	DB       Pinger
}

// HealthChecker checks the gateway and its collaborators
type HealthChecker struct {
	service *Service
	sources HealthSources
}

// NewHealthChecker creates a health checker for the service
func NewHealthChecker(service *Service, sources HealthSources) *HealthChecker {
	return &HealthChecker{
		service: service,
		sources: sources,
	}
}

// Check runs the health check. Only an unreachable broker or database makes the gateway
// unhealthy; dropped events are reported as errors.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:     true,
		Rooms:       h.service.manager.RoomCount(),
		Connections: h.service.connectionManager.Count(),
		Errors:      []string{},
	}

	if h.sources.Mirror != nil {
		status.MirrorEnabled = true
		status.MirrorConnected = h.sources.Mirror.IsConnected()
		published, dropped, failed, last := h.sources.Mirror.Stats()
		status.EventsMirrored = published
		status.EventsDropped = dropped
		status.LastEventTime = last

		if !status.MirrorConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
		if dropped > 0 || failed > 0 {
			status.Errors = append(status.Errors, fmt.Sprintf("event mirror lost events: %d dropped, %d failed", dropped, failed))
		}
	}

	if h.sources.Recorder != nil {
		status.HistoryEnabled = true
		status.RoundsSaved, status.RoundsDropped, status.RoundsFailed = h.sources.Recorder.Stats()
		if status.RoundsDropped > 0 || status.RoundsFailed > 0 {
			status.Errors = append(status.Errors, fmt.Sprintf("round history lost rounds: %d dropped, %d failed", status.RoundsDropped, status.RoundsFailed))
		}
	}

	if h.sources.DB != nil {
		if err := h.sources.DB.PingContext(ctx); err != nil {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		} else {
			status.DatabaseConnected = true
		}
	}

	return status
}

// ServeHTTP reports the health check as JSON, with 503 when unhealthy
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	response := map[string]interface{}{
		"healthy":            status.Healthy,
		"rooms":              status.Rooms,
		"connections":        status.Connections,
		"mirror_enabled":     status.MirrorEnabled,
		"nats_connected":     status.MirrorConnected,
		"events_mirrored":    status.EventsMirrored,
		"events_dropped":     status.EventsDropped,
		"history_enabled":    status.HistoryEnabled,
		"rounds_saved":       status.RoundsSaved,
		"rounds_dropped":     status.RoundsDropped,
		"rounds_failed":      status.RoundsFailed,
		"database_connected": status.DatabaseConnected,
		"errors":             status.Errors,
	}
	if !status.LastEventTime.IsZero() {
		response["last_event_time"] = status.LastEventTime
	}

	w.Header().Set("Content-Type", "application/json")

	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}

// Export renders the health check in the Prometheus text format
func (h *HealthChecker) Export(ctx context.Context) string {
	status := h.Check(ctx)

	var lastEvent int64
	if !status.LastEventTime.IsZero() {
		lastEvent = status.LastEventTime.Unix()
	}

	return fmt.Sprintf(`# HELP poker_healthy Whether the gateway is healthy
# TYPE poker_healthy gauge
poker_healthy %d

# HELP poker_rooms Current number of live rooms
# TYPE poker_rooms gauge
poker_rooms %d

# HELP poker_connections Current number of open WebSocket connections
# TYPE poker_connections gauge
poker_connections %d

# HELP poker_nats_connected Whether the event mirror is connected
# TYPE poker_nats_connected gauge
poker_nats_connected %d

# HELP poker_events_mirrored_total Total number of events published to NATS
# TYPE poker_events_mirrored_total counter
poker_events_mirrored_total %d

# HELP poker_events_dropped_total Total number of events dropped by the mirror
# TYPE poker_events_dropped_total counter
poker_events_dropped_total %d

# HELP poker_rounds_saved_total Total number of rounds archived
# TYPE poker_rounds_saved_total counter
poker_rounds_saved_total %d

# HELP poker_last_event_timestamp Unix timestamp of the last mirrored event
# TYPE poker_last_event_timestamp gauge
poker_last_event_timestamp %d
`,
		boolGauge(status.Healthy),
		status.Rooms,
		status.Connections,
		boolGauge(status.MirrorConnected),
		status.EventsMirrored,
		status.EventsDropped,
		status.RoundsSaved,
		lastEvent,
	)
}

// HandleMetrics serves Export
func (h *HealthChecker) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprint(w, h.Export(ctx))
}

// RegisterRoutes registers /health and /metrics
func (h *HealthChecker) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /health", h)
	mux.HandleFunc("GET /metrics", h.HandleMetrics)
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}
