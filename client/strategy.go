package client

import (
	"github.com/casinoroyale/blackjack/domain/blackjack"
	"github.com/casinoroyale/blackjack/protocol"
)

// Advise returns the basic-strategy token for the current hand against the
// dealer's upcard: stand on 17+, hit on 11 or less, and on a stiff 12-16
// stand only when the dealer shows a weak 2-6.
func Advise(player blackjack.Hand, dealerUp blackjack.Card) string {
	sum := player.Value()
	if sum >= 17 {
		return protocol.DecisionStand
	}
	if sum <= 11 {
		return protocol.DecisionHit
	}
	if up := dealerUp.Value(); up >= 2 && up <= 6 {
		return protocol.DecisionStand
	}
	return protocol.DecisionHit
}

// StrategyDecider plays unattended using Advise. Useful for bots and tests.
type StrategyDecider struct{}

func (StrategyDecider) Decide(player blackjack.Hand, dealerUp blackjack.Card) (string, error) {
	return Advise(player, dealerUp), nil
}
