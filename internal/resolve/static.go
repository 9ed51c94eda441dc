package resolve

import (
	"context"

	"github.com/sahilm/fuzzy"

	"github.com/cardforge/proxysheet/internal/deck"
	"github.com/cardforge/proxysheet/internal/scryfall"
	"github.com/cardforge/proxysheet/internal/shared"
)

// StaticCatalog is a Catalog over a fixed in-memory card list. Fuzzy lookup
// ranks candidates and accepts only the best match at or above the score
// threshold.
type StaticCatalog struct {
	names     []string
	index     map[string]*scryfall.Card
	threshold int
}

// NewStaticCatalog builds a catalog from a card list. threshold is the
// minimum fuzzy match score; matches below it are reported as not found.
func NewStaticCatalog(cards []*scryfall.Card, threshold int) *StaticCatalog {
	c := &StaticCatalog{
		index:     make(map[string]*scryfall.Card, len(cards)),
		threshold: threshold,
	}
	for _, card := range cards {
		key := deck.NormalizeName(card.Name)
		if _, ok := c.index[key]; ok {
			continue
		}
		c.index[key] = card
		c.names = append(c.names, card.Name)
	}
	return c
}

// Named returns the card with the exact normalized name.
func (c *StaticCatalog) Named(_ context.Context, name string) (*scryfall.Card, error) {
	card, ok := c.index[deck.NormalizeName(name)]
	if !ok {
		return nil, shared.ErrCardNotFound
	}
	return card, nil
}

// Fuzzy returns the best-scoring candidate above the threshold.
func (c *StaticCatalog) Fuzzy(_ context.Context, name string) (*scryfall.Card, error) {
	matches := fuzzy.Find(name, c.names)
	if len(matches) == 0 || matches[0].Score < c.threshold {
		return nil, shared.ErrCardNotFound
	}
	return c.index[deck.NormalizeName(matches[0].Str)], nil
}
