package card

import (
	"fmt"

	"github.com/paulhankin/poker"
	"github.com/pterm/pterm"
)

// Deck and hand sizes.
const (
	DeckSize  = 52
	HandSize  = DeckSize / 2
	RankCount = 13
)

// Suit constants (0-3), as encoded by value / 13.
const (
	Club    = 0 // ♣ (black)
	Diamond = 1 // ♦ (red)
	Heart   = 2 // ♥ (red)
	Spade   = 3 // ♠ (black)
)

// Rank constants for face cards and ace, as encoded by value % 13.
const (
	Two   = 0
	Ten   = 8
	Jack  = 9
	Queen = 10
	King  = 11
	Ace   = 12
)

// Card is a playing card encoded as a byte in [0, 52).
type Card uint8

// New creates a Card from its wire value.
// Returns an error if v is outside [0, 52).
func New(v int) (Card, error) {
	if v < 0 || v >= DeckSize {
		return 0, fmt.Errorf("invalid card %d", v)
	}
	return Card(v), nil
}

// Valid reports whether c is one of the 52 cards.
func (c Card) Valid() bool {
	return c < DeckSize
}

// Rank returns the rank of the card, 0 (two) through 12 (ace).
func (c Card) Rank() uint8 {
	return uint8(c) % RankCount
}

// Suit returns the suit of the card (0-3: clubs, diamonds, hearts, spades).
func (c Card) Suit() uint8 {
	return uint8(c) / RankCount
}

// Poker converts the card to the representation of the poker evaluator,
// where ranks run from ace (1) to king (13).
func (c Card) Poker() (poker.Card, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("invalid card %d", c)
	}
	rank := c.Rank() + 2
	if rank == 14 {
		rank = 1
	}
	return poker.MakeCard(poker.Suit(c.Suit()), poker.Rank(rank))
}

// String returns a human-readable representation of the Card using suit
// symbols (♣, ♦, ♥, ♠) and rank abbreviations (A, J, Q, K, or number).
func (c Card) String() string {
	if !c.Valid() {
		return fmt.Sprintf("?%d", uint8(c))
	}
	var suit string
	switch c.Suit() {
	case Club:
		suit = "♣"
	case Diamond:
		suit = pterm.LightRed("♦")
	case Heart:
		suit = pterm.LightRed("♥")
	case Spade:
		suit = "♠"
	}

	var rankStr string
	switch c.Rank() {
	case Ace:
		rankStr = "A"
	case King:
		rankStr = "K"
	case Queen:
		rankStr = "Q"
	case Jack:
		rankStr = "J"
	default:
		rankStr = fmt.Sprintf("%d", c.Rank()+2)
	}
	return rankStr + suit
}

// Ordering is the result of comparing two cards.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	}
	return fmt.Sprintf("Ordering(%d)", int(o))
}

// Compare orders a and b by rank. Suit is ignored.
func Compare(a, b Card) Ordering {
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra < rb:
		return Less
	case ra > rb:
		return Greater
	}
	return Equal
}

// Bytes returns the wire encoding of cards.
func Bytes(cards []Card) []byte {
	b := make([]byte, len(cards))
	for i, c := range cards {
		b[i] = byte(c)
	}
	return b
}

// FromBytes decodes cards from their wire encoding.
// Returns an error on the first byte that is not a valid card.
func FromBytes(b []byte) ([]Card, error) {
	cards := make([]Card, len(b))
	for i, v := range b {
		c, err := New(int(v))
		if err != nil {
			return nil, fmt.Errorf("byte %d: %w", i, err)
		}
		cards[i] = c
	}
	return cards, nil
}
