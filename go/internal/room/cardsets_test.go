package room

import (
	"testing"

	"github.com/mcdev12/planningpoker/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardSetsResolve(t *testing.T) {
	sets := DefaultCardSets()

	def, err := sets.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, models.CardSetFibonacci, def.Name)

	tshirt, err := sets.Resolve(models.CardSetTShirt)
	require.NoError(t, err)
	assert.True(t, tshirt.Contains(6))
	assert.False(t, tshirt.Contains(13))

	_, err = sets.Resolve("unknown")
	require.ErrorIs(t, err, ErrInvalidCardSet)

	assert.Equal(t, []string{models.CardSetFibonacci, models.CardSetTShirt}, sets.Names())
}

func TestNewCardSetsWithCustomSet(t *testing.T) {
	powers := models.CardSet{
		Name: "powers",
		Cards: []models.Card{
			{Label: "?", Value: 0},
			{Label: "1", Value: 1},
			{Label: "2", Value: 2},
			{Label: "4", Value: 4},
			{Label: "8", Value: 8},
		},
	}

	sets, err := NewCardSets("powers", powers)
	require.NoError(t, err)

	def, err := sets.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "powers", def.Name)
	assert.Len(t, sets.Names(), 3)
}

func TestNewCardSetsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		def  string
		set  models.CardSet
	}{
		{"unnamed", "", models.CardSet{Cards: []models.Card{{Label: "?", Value: 0}, {Label: "1", Value: 1}}}},
		{"single card", "", models.CardSet{Name: "one", Cards: []models.Card{{Label: "?", Value: 0}}}},
		{"missing abstain", "", models.CardSet{Name: "x", Cards: []models.Card{{Label: "1", Value: 1}, {Label: "2", Value: 2}}}},
		{"duplicate value", "", models.CardSet{Name: "x", Cards: []models.Card{{Label: "?", Value: 0}, {Label: "a", Value: 1}, {Label: "b", Value: 1}}}},
		{"duplicate label", "", models.CardSet{Name: "x", Cards: []models.Card{{Label: "?", Value: 0}, {Label: "a", Value: 1}, {Label: "a", Value: 2}}}},
		{"negative value", "", models.CardSet{Name: "x", Cards: []models.Card{{Label: "?", Value: 0}, {Label: "a", Value: -1}}}},
		{"empty label", "", models.CardSet{Name: "x", Cards: []models.Card{{Label: "?", Value: 0}, {Label: "", Value: 1}}}},
		{"unknown default", "missing", models.FibonacciCardSet()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCardSets(tt.def, tt.set)
			require.Error(t, err)
		})
	}
}

func TestManagerUsesConfiguredCardSets(t *testing.T) {
	sets, err := NewCardSets(models.CardSetTShirt)
	require.NoError(t, err)

	store := NewStore(nil)
	m := NewManager(store, newMemberMap(), &recordingPublisher{}, WithCardSets(sets))

	snap, err := m.CreateRoom(t.Context(), "conn-a", CreateRoomRequest{Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, models.CardSetTShirt, snap.CardSet.Name)
	require.NoError(t, m.Vote(t.Context(), "conn-a", snap.ID, 6))
}
