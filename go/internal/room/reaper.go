package room

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Reaper closes rooms that have seen no transition for longer than the idle timeout.
// It is an optional policy on top of the manager; rooms otherwise live until empty.
type Reaper struct {
	manager     *Manager
	idleTimeout time.Duration
	interval    time.Duration
	clock       clockwork.Clock
}

// NewReaper creates a reaper that sweeps every interval. A zero interval defaults to a
// quarter of the idle timeout.
func NewReaper(manager *Manager, idleTimeout, interval time.Duration, clock clockwork.Clock) *Reaper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = idleTimeout / 4
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		manager:     manager,
		idleTimeout: idleTimeout,
		interval:    interval,
		clock:       clock,
	}
}

// Run sweeps until ctx is cancelled
func (r *Reaper) Run(ctx context.Context) {
	log.Info().
		Dur("idle_timeout", r.idleTimeout).
		Dur("interval", r.interval).
		Msg("room reaper started")

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("room reaper shutting down")
			return
		case <-ticker.Chan():
			if n := r.Sweep(ctx); n > 0 {
				log.Info().Int("closed", n).Msg("closed idle rooms")
			}
		}
	}
}

// Sweep closes every idle room and returns how many were closed
func (r *Reaper) Sweep(ctx context.Context) int {
	cutoff := r.clock.Now().Add(-r.idleTimeout)
	closed := 0
	for _, summary := range r.manager.ListRooms() {
		if summary.LastActivityAt.After(cutoff) {
			continue
		}
		ok, err := r.manager.closeIdle(ctx, summary.ID, cutoff)
		if err != nil {
			log.Debug().Err(err).Str("room_id", summary.ID).Msg("skipping idle room")
			continue
		}
		if ok {
			closed++
		}
	}
	return closed
}
