package room

import (
	"math"
	"strconv"

	"github.com/mcdev12/planningpoker/go/internal/models"
)

// NotApplicable is the agreement label when no vote was counted
const NotApplicable = "N/A"

// Aggregate computes the results of a round. Only non-spectator votes that are neither
// missing nor the abstain card are counted. The mode is the most frequent value, ties going
// to the smaller value; agreement is the share of counted votes equal to the mode.
func Aggregate(players map[string]*models.Player, cardSet models.CardSet) models.Aggregate {
	counts := make(map[int]int)
	counted, sum := 0, 0
	for _, p := range players {
		if p.IsSpectator || p.Vote == nil || *p.Vote == models.AbstainValue {
			continue
		}
		counts[*p.Vote]++
		counted++
		sum += *p.Vote
	}

	result := models.Aggregate{
		Counted:        counted,
		AgreementLabel: NotApplicable,
	}
	if counted == 0 {
		return result
	}

	mode, modeCount := 0, 0
	for value, count := range counts {
		if count > modeCount || (count == modeCount && value < mode) {
			mode, modeCount = value, count
		}
	}

	agreement := int(math.Round(float64(modeCount) * 100 / float64(counted)))
	average := float64(sum) / float64(counted)

	result.Mode = &mode
	result.ModeCount = modeCount
	result.ModeLabel, _ = cardSet.Label(mode)
	result.Agreement = &agreement
	result.AgreementLabel = strconv.Itoa(agreement) + "%"
	result.Average = &average
	return result
}
