package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWriteStats(t *testing.T) {
	avg := 72.4
	var buf bytes.Buffer
	writeStats(&buf, []roomStats{
		{
			RoomID:       "0b0c6f4e-6f0e-4a8e-9a55-0d8f6f7c2a11",
			Rounds:       5,
			Consensus:    2,
			AvgAgreement: &avg,
			LastReset:    time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
		},
		{RoomID: "7d7d1a0b-57a4-4a45-8b0e-3c1e6a6d9f02", Rounds: 1, NoEstimate: 1},
	})

	assert.Equal(t,
		"0b0c6f4e-6f0e-4a8e-9a55-0d8f6f7c2a11  rounds=5 consensus=2 no_estimate=0 avg_agreement=72% last=2026-05-04T10:30:00Z\n"+
			"7d7d1a0b-57a4-4a45-8b0e-3c1e6a6d9f02  rounds=1 consensus=0 no_estimate=1 avg_agreement=N/A last=0001-01-01T00:00:00Z\n"+
			"Round stats: 2 rooms, 6 rounds\n",
		buf.String())
}
