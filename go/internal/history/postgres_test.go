package history

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HISTORY_TEST_DSN points at a disposable Postgres database
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("HISTORY_TEST_DSN")
	if dsn == "" {
		t.Skip("HISTORY_TEST_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Ping())
	return db
}

func TestPostgresRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewPostgresRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))

	roomID := uuid.NewString()
	mode, agreement, average := 5, 67, 4.0
	five, three := 5, 3
	revealed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	round := models.RoundSummary{
		RoomID:  roomID,
		Round:   1,
		CardSet: models.CardSetFibonacci,
		Votes: []models.RoundVote{
			{PlayerID: "conn-a", PlayerName: "Alice", Value: &five},
			{PlayerID: "conn-b", PlayerName: "Bob", Value: &three},
			{PlayerID: "conn-c", PlayerName: "Carol", IsSpectator: true},
		},
		Results: models.Aggregate{
			Counted:        2,
			Mode:           &mode,
			ModeLabel:      "5",
			ModeCount:      1,
			Agreement:      &agreement,
			AgreementLabel: "67%",
			Average:        &average,
		},
		RevealedAt: revealed,
		ResetAt:    revealed.Add(time.Minute),
	}
	require.NoError(t, repo.Save(ctx, round))
	require.NoError(t, repo.Save(ctx, round), "saving a round twice replaces it")

	second := round
	second.Round = 2
	second.Votes = nil
	require.NoError(t, repo.Save(ctx, second))

	rounds, err := repo.ListByRoom(ctx, roomID, 10)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 2, rounds[0].Round)

	got := rounds[1]
	assert.Equal(t, roomID, got.RoomID)
	assert.Equal(t, "67%", got.Results.AgreementLabel)
	assert.Equal(t, 67, *got.Results.Agreement)
	assert.Equal(t, 5, *got.Results.Mode)
	require.Len(t, got.Votes, 3)
	assert.Equal(t, "conn-a", got.Votes[0].PlayerID)
	assert.Nil(t, got.Votes[2].Value)
	assert.True(t, revealed.Equal(got.RevealedAt))
}

func TestPostgresRepositoryRejectsBadRoomID(t *testing.T) {
	repo := NewPostgresRepository(nil)

	err := repo.Save(context.Background(), models.RoundSummary{RoomID: "not-a-uuid"})
	require.Error(t, err)

	_, err = repo.ListByRoom(context.Background(), "not-a-uuid", 10)
	require.Error(t, err)
}
