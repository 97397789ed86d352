package historydb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const insertRound = `-- name: InsertRound :one
INSERT INTO poker_rounds (
    room_id, round, card_set, counted, mode, agreement, average, results, voter_ids, revealed_at, reset_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
ON CONFLICT (room_id, round) DO UPDATE SET
    counted = EXCLUDED.counted,
    mode = EXCLUDED.mode,
    agreement = EXCLUDED.agreement,
    average = EXCLUDED.average,
    results = EXCLUDED.results,
    voter_ids = EXCLUDED.voter_ids,
    revealed_at = EXCLUDED.revealed_at,
    reset_at = EXCLUDED.reset_at
RETURNING id
`

type InsertRoundParams struct {
	RoomID     uuid.UUID
	Round      int32
	CardSet    string
	Counted    int32
	Mode       sql.NullInt32
	Agreement  sql.NullInt32
	Average    sql.NullFloat64
	Results    pqtype.NullRawMessage
	VoterIds   []string
	RevealedAt time.Time
	ResetAt    time.Time
}

func (q *Queries) InsertRound(ctx context.Context, arg InsertRoundParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertRound,
		arg.RoomID,
		arg.Round,
		arg.CardSet,
		arg.Counted,
		arg.Mode,
		arg.Agreement,
		arg.Average,
		arg.Results,
		pq.Array(arg.VoterIds),
		arg.RevealedAt,
		arg.ResetAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const deleteRoundVotes = `-- name: DeleteRoundVotes :exec
DELETE FROM poker_round_votes WHERE round_id = $1
`

func (q *Queries) DeleteRoundVotes(ctx context.Context, roundID int64) error {
	_, err := q.db.ExecContext(ctx, deleteRoundVotes, roundID)
	return err
}

const insertRoundVote = `-- name: InsertRoundVote :exec
INSERT INTO poker_round_votes (
    round_id, player_id, player_name, value, is_spectator
) VALUES (
    $1, $2, $3, $4, $5
)
`

type InsertRoundVoteParams struct {
	RoundID     int64
	PlayerID    string
	PlayerName  string
	Value       sql.NullInt32
	IsSpectator bool
}

func (q *Queries) InsertRoundVote(ctx context.Context, arg InsertRoundVoteParams) error {
	_, err := q.db.ExecContext(ctx, insertRoundVote,
		arg.RoundID,
		arg.PlayerID,
		arg.PlayerName,
		arg.Value,
		arg.IsSpectator,
	)
	return err
}

const listRoundsByRoom = `-- name: ListRoundsByRoom :many
SELECT id, room_id, round, card_set, counted, mode, agreement, average, results, voter_ids, revealed_at, reset_at
FROM poker_rounds
WHERE room_id = $1
ORDER BY round DESC
LIMIT $2
`

func (q *Queries) ListRoundsByRoom(ctx context.Context, roomID uuid.UUID, limit int32) ([]PokerRound, error) {
	rows, err := q.db.QueryContext(ctx, listRoundsByRoom, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PokerRound
	for rows.Next() {
		var i PokerRound
		if err := rows.Scan(
			&i.ID,
			&i.RoomID,
			&i.Round,
			&i.CardSet,
			&i.Counted,
			&i.Mode,
			&i.Agreement,
			&i.Average,
			&i.Results,
			pq.Array(&i.VoterIds),
			&i.RevealedAt,
			&i.ResetAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRoundVotes = `-- name: ListRoundVotes :many
SELECT round_id, player_id, player_name, value, is_spectator
FROM poker_round_votes
WHERE round_id = ANY($1::bigint[])
ORDER BY round_id, player_id
`

func (q *Queries) ListRoundVotes(ctx context.Context, roundIds []int64) ([]PokerRoundVote, error) {
	rows, err := q.db.QueryContext(ctx, listRoundVotes, pq.Array(roundIds))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PokerRoundVote
	for rows.Next() {
		var i PokerRoundVote
		if err := rows.Scan(
			&i.RoundID,
			&i.PlayerID,
			&i.PlayerName,
			&i.Value,
			&i.IsSpectator,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
