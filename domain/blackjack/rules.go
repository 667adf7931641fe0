package blackjack

// RoundResult is the outcome of one round, produced once and never mutated.
type RoundResult int

const (
	PlayerBlackjack RoundResult = iota
	PlayerWin
	DealerWin
	Push
	PlayerBust
	DealerBust
)

func (r RoundResult) String() string {
	switch r {
	case PlayerBlackjack:
		return "player blackjack"
	case PlayerWin:
		return "player win"
	case DealerWin:
		return "dealer win"
	case Push:
		return "push"
	case PlayerBust:
		return "player bust"
	case DealerBust:
		return "dealer bust"
	default:
		return "unknown"
	}
}

// PlayerWon reports whether the result counts as a win for the player.
func (r RoundResult) PlayerWon() bool {
	return r == PlayerBlackjack || r == PlayerWin || r == DealerBust
}

// DealerShouldHit is the fixed dealer policy: hit while the hand value is
// below 17. With hitSoft17 set the dealer also hits a soft 17; a hard 17
// always stands.
func DealerShouldHit(h Hand, hitSoft17 bool) bool {
	v := h.Value()
	if v < 17 {
		return true
	}
	if v == 17 && hitSoft17 && h.IsSoft() {
		return true
	}
	return false
}

// Naturals resolves the blackjack short-circuit checked immediately after
// the initial deal, before any hit/stand exchange. The second return value
// is false when neither side holds a natural and play continues.
func Naturals(player, dealer Hand) (RoundResult, bool) {
	switch {
	case player.IsBlackjack() && dealer.IsBlackjack():
		return Push, true
	case player.IsBlackjack():
		return PlayerBlackjack, true
	case dealer.IsBlackjack():
		return DealerWin, true
	}
	return 0, false
}

// Outcome determines the result of a completed round. Busts take priority
// over value comparison; equal non-bust values push.
func Outcome(player, dealer Hand) RoundResult {
	switch {
	case player.IsBust():
		return PlayerBust
	case dealer.IsBust():
		return DealerBust
	case player.Value() > dealer.Value():
		return PlayerWin
	case dealer.Value() > player.Value():
		return DealerWin
	default:
		return Push
	}
}
