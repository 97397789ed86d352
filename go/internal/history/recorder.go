package history

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/rs/zerolog/log"
)

// RecorderConfig holds configuration for the round recorder
type RecorderConfig struct {
	BufferSize  int
	SaveTimeout time.Duration
}

// DefaultRecorderConfig returns default recorder configuration
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		BufferSize:  256,
		SaveTimeout: 5 * time.Second,
	}
}

// Recorder archives round summaries in the background. Record is called with a room
// locked and only enqueues; a full queue drops the summary.
type Recorder struct {
	repo   Repository
	queue  chan models.RoundSummary
	config RecorderConfig

	saved   atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewRecorder creates a recorder writing to repo
func NewRecorder(repo Repository, config RecorderConfig) *Recorder {
	defaults := DefaultRecorderConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.SaveTimeout <= 0 {
		config.SaveTimeout = defaults.SaveTimeout
	}
	return &Recorder{
		repo:   repo,
		queue:  make(chan models.RoundSummary, config.BufferSize),
		config: config,
	}
}

// Record enqueues a summary without blocking
func (r *Recorder) Record(summary models.RoundSummary) {
	select {
	case r.queue <- summary:
	default:
		r.dropped.Add(1)
		log.Warn().
			Str("room_id", summary.RoomID).
			Int("round", summary.Round).
			Msg("round history queue full, dropping round")
	}
}

// Start saves queued summaries until ctx is cancelled. Summaries still queued at that point
// are saved before it returns.
func (r *Recorder) Start(ctx context.Context) {
	log.Info().Int("buffer_size", r.config.BufferSize).Msg("round recorder started")

	for {
		select {
		case <-ctx.Done():
			r.drain()
			log.Info().Uint64("saved", r.saved.Load()).Msg("round recorder stopped")
			return
		case summary := <-r.queue:
			r.save(summary)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case summary := <-r.queue:
			r.save(summary)
		default:
			return
		}
	}
}

func (r *Recorder) save(summary models.RoundSummary) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.SaveTimeout)
	defer cancel()

	if err := r.repo.Save(ctx, summary); err != nil {
		r.failed.Add(1)
		log.Error().
			Err(err).
			Str("room_id", summary.RoomID).
			Int("round", summary.Round).
			Msg("failed to save round")
		return
	}
	r.saved.Add(1)

	log.Debug().
		Str("room_id", summary.RoomID).
		Int("round", summary.Round).
		Int("counted", summary.Results.Counted).
		Msg("round saved")
}

// Stats returns how many rounds were saved, dropped and failed to save
func (r *Recorder) Stats() (saved, dropped, failed uint64) {
	return r.saved.Load(), r.dropped.Load(), r.failed.Load()
}
