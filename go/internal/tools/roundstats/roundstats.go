package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/planningpoker/go/internal/dbconfig"
)

// roomStats is the archived estimation record of one room
type roomStats struct {
	RoomID       string
	Rounds       int
	Consensus    int      // rounds where every counted vote agreed
	NoEstimate   int      // rounds with nothing counted
	AvgAgreement *float64 // over rounds with an agreement
	LastReset    time.Time
}

const statsQuery = `
    SELECT room_id::text,
           COUNT(*),
           COUNT(*) FILTER (WHERE agreement = 100),
           COUNT(*) FILTER (WHERE counted = 0),
           AVG(agreement)::float8,
           MAX(reset_at)
      FROM poker_rounds
     WHERE $1::uuid IS NULL OR room_id = $1::uuid
  GROUP BY room_id
  ORDER BY MAX(reset_at) DESC
`

// Usage: roundstats [room-id]
func main() {
	var roomID *string
	if len(os.Args) > 1 {
		if _, err := uuid.Parse(os.Args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "invalid room id %q: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		roomID = &os.Args[1]
	}

	// Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	rows, err := pool.Query(context.Background(), statsQuery, roomID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query rounds: %v\n", err)
		os.Exit(1)
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (roomStats, error) {
		var s roomStats
		err := row.Scan(&s.RoomID, &s.Rounds, &s.Consensus, &s.NoEstimate, &s.AvgAgreement, &s.LastReset)
		return s, err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "read rounds: %v\n", err)
		os.Exit(1)
	}

	writeStats(os.Stdout, stats)
}

func writeStats(w io.Writer, stats []roomStats) {
	total := 0
	for _, s := range stats {
		avg := "N/A"
		if s.AvgAgreement != nil {
			avg = fmt.Sprintf("%.0f%%", *s.AvgAgreement)
		}
		fmt.Fprintf(w, "%s  rounds=%d consensus=%d no_estimate=%d avg_agreement=%s last=%s\n",
			s.RoomID, s.Rounds, s.Consensus, s.NoEstimate, avg, s.LastReset.UTC().Format(time.RFC3339))
		total += s.Rounds
	}

	fmt.Fprintf(w, "Round stats: %d rooms, %d rounds\n", len(stats), total)
}
