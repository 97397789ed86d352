package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepository struct{}

func (failingRepository) Save(context.Context, models.RoundSummary) error {
	return errors.New("connection refused")
}

func (failingRepository) ListByRoom(context.Context, string, int) ([]models.RoundSummary, error) {
	return nil, nil
}

func TestRecorderSavesInBackground(t *testing.T) {
	repo := NewMemoryRepository(0)
	rec := NewRecorder(repo, RecorderConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Start(ctx)
		close(done)
	}()

	rec.Record(summary("room-a", 1))
	rec.Record(summary("room-a", 2))

	require.Eventually(t, func() bool {
		saved, _, _ := rec.Stats()
		return saved == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	rounds, err := repo.ListByRoom(context.Background(), "room-a", 10)
	require.NoError(t, err)
	assert.Len(t, rounds, 2)
}

func TestRecorderDrainsOnShutdown(t *testing.T) {
	repo := NewMemoryRepository(0)
	rec := NewRecorder(repo, RecorderConfig{BufferSize: 4})

	rec.Record(summary("room-a", 1))
	rec.Record(summary("room-a", 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Start(ctx)

	saved, dropped, failed := rec.Stats()
	assert.Equal(t, uint64(2), saved)
	assert.Zero(t, dropped)
	assert.Zero(t, failed)
}

func TestRecorderDropsWhenFull(t *testing.T) {
	rec := NewRecorder(NewMemoryRepository(0), RecorderConfig{BufferSize: 1})

	rec.Record(summary("room-a", 1))
	rec.Record(summary("room-a", 2))

	_, dropped, _ := rec.Stats()
	assert.Equal(t, uint64(1), dropped)
}

func TestRecorderCountsFailures(t *testing.T) {
	rec := NewRecorder(failingRepository{}, RecorderConfig{BufferSize: 1})
	rec.Record(summary("room-a", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Start(ctx)

	saved, _, failed := rec.Stats()
	assert.Zero(t, saved)
	assert.Equal(t, uint64(1), failed)
}
