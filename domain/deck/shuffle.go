package deck

import (
	"go.dedis.ch/kyber/v4/suites"

	"github.com/luca-patrignani/war/domain/card"
)

var suite suites.Suite = suites.MustFind("Ed25519")

// shuffled returns a uniformly random permutation of the 52 cards
// (Fisher-Yates).
func (d *Dealer) shuffled() []card.Card {
	deck := make([]card.Card, card.DeckSize)
	for i := range deck {
		deck[i] = card.Card(i)
	}
	d.rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// randomSeed draws 32 bytes from the suite random stream.
func randomSeed() [32]byte {
	var seed [32]byte
	suite.RandomStream().XORKeyStream(seed[:], seed[:])
	return seed
}
