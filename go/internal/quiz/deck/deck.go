// Package deck draws cards without replacement for the per-question draw.
package deck

import (
	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/random"
)

// Deck holds the card pool for one game. Draws are uniform over the cards
// that remain and pass the caller's filter.
type Deck struct {
	cards []*models.Card
	drawn map[string]bool
	rnd   *random.Randomizer
}

// New copies the card definitions into a fresh deck.
func New(cards []models.Card, rnd *random.Randomizer) *Deck {
	pool := make([]*models.Card, 0, len(cards))
	for i := range cards {
		c := cards[i]
		pool = append(pool, &c)
	}
	return &Deck{
		cards: pool,
		drawn: make(map[string]bool),
		rnd:   rnd,
	}
}

// Draw picks a random undrawn card for which skip returns false, marks it
// drawn, and returns it. It returns nil when no eligible card remains.
func (d *Deck) Draw(skip func(*models.Card) bool) *models.Card {
	eligible := make([]*models.Card, 0, len(d.cards))
	for _, c := range d.cards {
		if d.drawn[c.ID] {
			continue
		}
		if skip != nil && skip(c) {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}
	card := eligible[d.rnd.Intn(len(eligible))]
	d.drawn[card.ID] = true
	return card
}

// Remaining reports how many cards have not been drawn yet.
func (d *Deck) Remaining() int {
	n := 0
	for _, c := range d.cards {
		if !d.drawn[c.ID] {
			n++
		}
	}
	return n
}

// Find returns the card definition with the given id, drawn or not.
func (d *Deck) Find(id string) *models.Card {
	for _, c := range d.cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Reset forgets all draws so the pool can serve another game.
func (d *Deck) Reset() {
	d.drawn = make(map[string]bool)
}
