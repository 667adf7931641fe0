package blackjack

// Hand is the ordered sequence of cards held by one participant for the
// duration of one round.
type Hand []Card

// Value computes the blackjack value of the hand: every ace starts at 11
// and is demoted to 1, one at a time, while the total exceeds 21. This
// yields the usual soft/hard semantics.
func (h Hand) Value() int {
	total := 0
	aces := 0
	for _, c := range h {
		if c.Rank() == Ace {
			aces++
		}
		total += c.Value()
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsSoft reports whether the hand still counts an ace as 11.
func (h Hand) IsSoft() bool {
	total := 0
	aces := 0
	for _, c := range h {
		if c.Rank() == Ace {
			aces++
		}
		total += c.Value()
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return aces > 0
}

// IsBlackjack reports whether the hand is a natural: exactly two cards
// totaling 21. Only meaningful right after the initial deal.
func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && h.Value() == 21
}

// IsBust reports whether the hand value exceeds 21.
func (h Hand) IsBust() bool {
	return h.Value() > 21
}
