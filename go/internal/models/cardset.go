package models

import (
	"errors"
	"fmt"
)

// AbstainValue is the value of the "no opinion" card. It counts as a vote but is
// excluded from aggregation.
const AbstainValue = 0

// Built-in card set names
const (
	CardSetFibonacci = "fibonacci"
	CardSetTShirt    = "tshirt"
)

// Card is one votable card: a display label and the numeric value behind it
type Card struct {
	Label string `json:"label" yaml:"label"`
	Value int    `json:"value" yaml:"value"`
}

// CardSet is the fixed list of cards available for voting in a room
type CardSet struct {
	Name  string `json:"name" yaml:"name"`
	Cards []Card `json:"cards" yaml:"cards"`
}

// FibonacciCardSet returns the sequential estimation set
func FibonacciCardSet() CardSet {
	return CardSet{
		Name: CardSetFibonacci,
		Cards: []Card{
			{Label: "?", Value: AbstainValue},
			{Label: "1", Value: 1},
			{Label: "2", Value: 2},
			{Label: "3", Value: 3},
			{Label: "5", Value: 5},
			{Label: "8", Value: 8},
			{Label: "13", Value: 13},
		},
	}
}

// TShirtCardSet returns the size based set
func TShirtCardSet() CardSet {
	return CardSet{
		Name: CardSetTShirt,
		Cards: []Card{
			{Label: "?", Value: AbstainValue},
			{Label: "XS", Value: 1},
			{Label: "S", Value: 2},
			{Label: "M", Value: 3},
			{Label: "L", Value: 4},
			{Label: "XL", Value: 5},
			{Label: "2XL", Value: 6},
		},
	}
}

// Contains reports whether value belongs to one of the set's cards
func (c CardSet) Contains(value int) bool {
	_, ok := c.Label(value)
	return ok
}

// Label returns the label of the card carrying value
func (c CardSet) Label(value int) (string, bool) {
	for _, card := range c.Cards {
		if card.Value == value {
			return card.Label, true
		}
	}
	return "", false
}

// Validate checks that the set is usable for voting: it must be named, carry the abstain
// card, and have unique labels and unique non-negative values.
func (c CardSet) Validate() error {
	if c.Name == "" {
		return errors.New("card set name is required")
	}
	if len(c.Cards) < 2 {
		return fmt.Errorf("card set %s: at least two cards are required", c.Name)
	}

	labels := make(map[string]bool, len(c.Cards))
	values := make(map[int]bool, len(c.Cards))
	for _, card := range c.Cards {
		if card.Label == "" {
			return fmt.Errorf("card set %s: card label is required", c.Name)
		}
		if card.Value < 0 {
			return fmt.Errorf("card set %s: card %s has negative value %d", c.Name, card.Label, card.Value)
		}
		if labels[card.Label] {
			return fmt.Errorf("card set %s: duplicate label %s", c.Name, card.Label)
		}
		if values[card.Value] {
			return fmt.Errorf("card set %s: duplicate value %d", c.Name, card.Value)
		}
		labels[card.Label] = true
		values[card.Value] = true
	}

	if !values[AbstainValue] {
		return fmt.Errorf("card set %s: missing abstain card with value %d", c.Name, AbstainValue)
	}
	return nil
}
