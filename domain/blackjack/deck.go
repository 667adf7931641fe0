package blackjack

import (
	"errors"
	"math/rand/v2"
)

// ErrDeckExhausted is returned by Draw when no cards remain. One round can
// never draw 52 cards under correct dealing, so hitting this means a
// broken invariant rather than bad luck.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is a single shuffled 52-card deck. A fresh one is created per round,
// not per session, and drawing removes cards without replacement.
type Deck struct {
	cards []Card
}

// NewDeck returns a fully shuffled standard deck.
func NewDeck() *Deck {
	cards := make([]Card, 0, 52)
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(1); rank <= 13; rank++ {
			cards = append(cards, Card{suit: suit, rank: rank})
		}
	}
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// Stacked returns a deck that deals the given cards in order. Only tests
// and demos want a predictable deal.
func Stacked(cards ...Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	for i, c := range cards {
		d.cards[len(cards)-1-i] = c
	}
	return d
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrDeckExhausted
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, nil
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
