package blackjack

import (
	"fmt"

	"github.com/pterm/pterm"
)

// Card suit constants (0-3), in wire order.
const (
	Heart   = 0 // ♥ (red)
	Diamond = 1 // ♦ (red)
	Club    = 2 // ♣ (black)
	Spade   = 3 // ♠ (black)
)

// Card rank constants for face cards and ace
const (
	Ace   = 1  // A (11 or 1)
	Jack  = 11 // J
	Queen = 12 // Q
	King  = 13 // K
)

// Card represents a playing card with suit and rank.
type Card struct {
	suit uint8 // 0-3: hearts, diamonds, clubs, spades
	rank uint8 // 1-13: ace through king
}

// NewCard creates a new Card with validation.
//
// Parameters:
//   - rank: 1-13 (Ace=1, 2-10=face value, Jack=11, Queen=12, King=13)
//   - suit: 0-3 (Heart, Diamond, Club, Spade)
//
// Returns the Card or an error if suit or rank is invalid.
func NewCard(rank uint8, suit uint8) (Card, error) {
	if suit > 3 || rank == 0 || rank > 13 {
		return Card{}, fmt.Errorf("invalid card %d, %d", rank, suit)
	}
	return Card{
		suit: suit,
		rank: rank,
	}, nil
}

// Suit returns the suit value of the Card (0-3: hearts, diamonds, clubs, spades).
func (c Card) Suit() uint8 {
	return c.suit
}

// Rank returns the rank value of the Card (1-13: ace through king).
func (c Card) Rank() uint8 {
	return c.rank
}

// Value returns the Card's blackjack value counting an ace as 11.
// Hand.Value handles the demotion of aces to 1.
func (c Card) Value() int {
	switch {
	case c.rank == Ace:
		return 11
	case c.rank >= 10:
		return 10
	default:
		return int(c.rank)
	}
}

// String returns a human-readable representation of the Card using suit
// symbols (♥, ♦, ♣, ♠) and rank abbreviations (A, J, Q, K, or number).
func (c Card) String() string {
	var suit string
	switch c.suit {
	case Heart:
		suit = pterm.LightRed("♥")
	case Diamond:
		suit = pterm.LightRed("♦")
	case Club:
		suit = pterm.Black("♣")
	case Spade:
		suit = pterm.Black("♠")
	default:
		suit = "?"
	}

	var rankStr string
	switch c.rank {
	case Ace:
		rankStr = "A"
	case Jack:
		rankStr = "J"
	case Queen:
		rankStr = "Q"
	case King:
		rankStr = "K"
	default:
		rankStr = fmt.Sprintf("%d", c.rank)
	}
	return rankStr + suit
}
