package history

import (
	"context"

	"github.com/mcdev12/planningpoker/go/internal/models"
)

// Repository stores archived rounds
type Repository interface {
	Save(ctx context.Context, summary models.RoundSummary) error
	// ListByRoom returns up to limit rounds of the room, most recent first
	ListByRoom(ctx context.Context, roomID string, limit int) ([]models.RoundSummary, error)
}
