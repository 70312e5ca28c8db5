package deck

import (
	"fmt"
	"math/rand/v2"

	"github.com/luca-patrignani/war/domain/card"
)

// Hand is the set of cards dealt to one player, in dealt order.
type Hand [card.HandSize]card.Card

// Cards returns the hand as a slice.
func (h Hand) Cards() []card.Card {
	return h[:]
}

// Dealer produces pairs of disjoint hands from a shuffled 52-card deck.
// A Dealer is not safe for concurrent use.
type Dealer struct {
	rng *rand.Rand
}

type option func(*Dealer)

// NewDealer creates a Dealer. Without options the shuffle is seeded from
// the Ed25519 suite random stream.
func NewDealer(opts ...option) *Dealer {
	d := &Dealer{}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewChaCha8(randomSeed()))
	}
	return d
}

// WithSeed makes the dealer deterministic.
func WithSeed(seed [32]byte) option {
	return func(d *Dealer) {
		d.rng = rand.New(rand.NewChaCha8(seed))
	}
}

// Deal shuffles the full deck and splits it into two 26-card hands.
// Every card appears in exactly one hand.
func (d *Dealer) Deal() (Hand, Hand) {
	deck := d.shuffled()
	var h1, h2 Hand
	copy(h1[:], deck[:card.HandSize])
	copy(h2[:], deck[card.HandSize:])
	return h1, h2
}

// Deal deals two hands with a freshly seeded Dealer.
func Deal() (Hand, Hand) {
	return NewDealer().Deal()
}

// Validate checks that h1 and h2 partition the 52-card deck: no card is
// missing, duplicated or out of range.
func Validate(h1, h2 Hand) error {
	var seen [card.DeckSize]bool
	for i, c := range append(h1.Cards(), h2.Cards()...) {
		if !c.Valid() {
			return fmt.Errorf("position %d: invalid card %d", i, c)
		}
		if seen[c] {
			return fmt.Errorf("position %d: duplicate card %v", i, c)
		}
		seen[c] = true
	}
	for c, ok := range seen {
		if !ok {
			return fmt.Errorf("card %v not dealt", card.Card(c))
		}
	}
	return nil
}
