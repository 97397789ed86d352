package historydb

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type PokerRound struct {
	ID         int64
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

type PokerRoundVote struct {
	RoundID     int64
	PlayerID    string
	PlayerName  string
	Value       sql.NullInt32
	IsSpectator bool
}
