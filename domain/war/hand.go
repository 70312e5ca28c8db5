package war

import (
	"fmt"

	"github.com/luca-patrignani/war/domain/card"
)

// Hand tracks the cards of one player during a game.
// given never changes; remaining loses exactly one card per resolved round.
type Hand struct {
	given     [card.DeckSize]bool
	remaining [card.DeckSize]bool
	left      int
}

// NewHand builds a hand from the dealt cards.
func NewHand(dealt []card.Card) (*Hand, error) {
	h := &Hand{}
	for _, c := range dealt {
		if !c.Valid() {
			return nil, fmt.Errorf("invalid card %d in hand", uint8(c))
		}
		if h.given[c] {
			return nil, fmt.Errorf("card %v dealt twice", c)
		}
		h.given[c] = true
		h.remaining[c] = true
		h.left++
	}
	return h, nil
}

// Check returns an *IllegalPlayError unless c was dealt to this hand and has
// not been played yet.
func (h *Hand) Check(c card.Card) error {
	if !c.Valid() || !h.given[c] {
		return &IllegalPlayError{Card: c, Reason: ReasonNotDealt}
	}
	if !h.remaining[c] {
		return &IllegalPlayError{Card: c, Reason: ReasonAlreadyPlayed}
	}
	return nil
}

// Remove plays c. It must follow a successful Check.
func (h *Hand) Remove(c card.Card) error {
	if err := h.Check(c); err != nil {
		return err
	}
	h.remaining[c] = false
	h.left--
	return nil
}

// Given reports whether c was dealt to this hand.
func (h *Hand) Given(c card.Card) bool {
	return c.Valid() && h.given[c]
}

// Holds reports whether c is still in the hand.
func (h *Hand) Holds(c card.Card) bool {
	return c.Valid() && h.remaining[c]
}

// Left is the number of cards not yet played.
func (h *Hand) Left() int {
	return h.left
}

// Empty reports whether every dealt card has been played.
func (h *Hand) Empty() bool {
	return h.left == 0
}
