package room

import (
	"fmt"
	"sort"

	"github.com/mcdev12/planningpoker/go/internal/models"
)

// CardSets is the registry of card sets a room can be created with. It is immutable once built.
type CardSets struct {
	sets        map[string]models.CardSet
	defaultName string
}

// NewCardSets builds a registry holding the built-in sets plus extra. An empty defaultName
// selects the fibonacci set.
func NewCardSets(defaultName string, extra ...models.CardSet) (*CardSets, error) {
	c := &CardSets{
		sets:        make(map[string]models.CardSet),
		defaultName: defaultName,
	}
	if c.defaultName == "" {
		c.defaultName = models.CardSetFibonacci
	}

	for _, set := range append([]models.CardSet{models.FibonacciCardSet(), models.TShirtCardSet()}, extra...) {
		if err := set.Validate(); err != nil {
			return nil, fmt.Errorf("invalid card set: %w", err)
		}
		c.sets[set.Name] = set
	}

	if _, ok := c.sets[c.defaultName]; !ok {
		return nil, fmt.Errorf("default card set %q is not defined", c.defaultName)
	}
	return c, nil
}

// DefaultCardSets returns the registry with only the built-in sets
func DefaultCardSets() *CardSets {
	c, err := NewCardSets("")
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve returns the named set; the empty name resolves to the default set
func (c *CardSets) Resolve(name string) (models.CardSet, error) {
	if name == "" {
		name = c.defaultName
	}
	set, ok := c.sets[name]
	if !ok {
		return models.CardSet{}, fmt.Errorf("card set %q: %w", name, ErrInvalidCardSet)
	}
	return set, nil
}

// Names lists the registered set names in sorted order
func (c *CardSets) Names() []string {
	names := make([]string, 0, len(c.sets))
	for name := range c.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
