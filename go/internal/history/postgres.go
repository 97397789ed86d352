package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/planningpoker/go/internal/history/historydb"
	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/mcdev12/planningpoker/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

// PostgresRepository stores rounds in Postgres
type PostgresRepository struct {
	db      *sql.DB
	queries *historydb.Queries
}

// NewPostgresRepository creates a repository on db
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		queries: historydb.New(db),
	}
}

// EnsureSchema creates the history tables when missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, historydb.Schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Save stores the round and its votes in one transaction. Saving a round again replaces it.
func (r *PostgresRepository) Save(ctx context.Context, summary models.RoundSummary) error {
	roomID, err := uuid.Parse(summary.RoomID)
	if err != nil {
		return fmt.Errorf("invalid room id %q: %w", summary.RoomID, err)
	}

	results, err := json.Marshal(summary.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal round results: %w", err)
	}

	voterIDs := make([]string, 0, len(summary.Votes))
	for _, v := range summary.Votes {
		if !v.IsSpectator && v.Value != nil {
			voterIDs = append(voterIDs, v.PlayerID)
		}
	}

	err = sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *historydb.Queries) error {
		roundID, err := q.InsertRound(ctx, historydb.InsertRoundParams{
			RoomID:     roomID,
			Round:      int32(summary.Round),
			CardSet:    summary.CardSet,
			Counted:    int32(summary.Results.Counted),
			Mode:       sqlutil.ToSqlInt32(summary.Results.Mode),
			Agreement:  sqlutil.ToSqlInt32(summary.Results.Agreement),
			Average:    sqlutil.ToSqlFloat64(summary.Results.Average),
			Results:    pqtype.NullRawMessage{RawMessage: results, Valid: true},
			VoterIds:   voterIDs,
			RevealedAt: summary.RevealedAt,
			ResetAt:    summary.ResetAt,
		})
		if err != nil {
			return fmt.Errorf("insert round: %w", err)
		}

		if err := q.DeleteRoundVotes(ctx, roundID); err != nil {
			return fmt.Errorf("delete round votes: %w", err)
		}
		for _, v := range summary.Votes {
			if err := q.InsertRoundVote(ctx, historydb.InsertRoundVoteParams{
				RoundID:     roundID,
				PlayerID:    v.PlayerID,
				PlayerName:  v.PlayerName,
				Value:       sqlutil.ToSqlInt32(v.Value),
				IsSpectator: v.IsSpectator,
			}); err != nil {
				return fmt.Errorf("insert vote of %s: %w", v.PlayerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save round %d of room %s: %w", summary.Round, summary.RoomID, err)
	}
	return nil
}

// ListByRoom returns up to limit rounds of the room, most recent first
func (r *PostgresRepository) ListByRoom(ctx context.Context, roomID string, limit int) ([]models.RoundSummary, error) {
	id, err := uuid.Parse(roomID)
	if err != nil {
		return nil, fmt.Errorf("invalid room id %q: %w", roomID, err)
	}

	rows, err := r.queries.ListRoundsByRoom(ctx, id, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	roundIDs := make([]int64, len(rows))
	for i, row := range rows {
		roundIDs[i] = row.ID
	}
	votes, err := r.queries.ListRoundVotes(ctx, roundIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list round votes: %w", err)
	}

	votesByRound := make(map[int64][]models.RoundVote)
	for _, v := range votes {
		votesByRound[v.RoundID] = append(votesByRound[v.RoundID], models.RoundVote{
			PlayerID:    v.PlayerID,
			PlayerName:  v.PlayerName,
			Value:       sqlutil.FromSqlInt32(v.Value),
			IsSpectator: v.IsSpectator,
		})
	}

	summaries := make([]models.RoundSummary, 0, len(rows))
	for _, row := range rows {
		summary, err := r.dbRoundToModel(row)
		if err != nil {
			return nil, err
		}
		summary.Votes = votesByRound[row.ID]
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *PostgresRepository) dbRoundToModel(row historydb.PokerRound) (models.RoundSummary, error) {
	summary := models.RoundSummary{
		RoomID:     row.RoomID.String(),
		Round:      int(row.Round),
		CardSet:    row.CardSet,
		RevealedAt: row.RevealedAt,
		ResetAt:    row.ResetAt,
	}

	if row.Results.Valid {
		if err := json.Unmarshal(row.Results.RawMessage, &summary.Results); err != nil {
			return summary, fmt.Errorf("failed to unmarshal results of round %d: %w", row.Round, err)
		}
	}
	summary.Results.Counted = int(row.Counted)
	summary.Results.Mode = sqlutil.FromSqlInt32(row.Mode)
	summary.Results.Agreement = sqlutil.FromSqlInt32(row.Agreement)
	summary.Results.Average = sqlutil.FromSqlFloat64(row.Average)
	return summary, nil
}
