package main

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/casinoroyale/blackjack/client"
	"github.com/casinoroyale/blackjack/domain/blackjack"
	"github.com/casinoroyale/blackjack/protocol"
)

// terminalUI renders the event stream with pterm and asks the user for
// decisions, showing the basic-strategy hint first.
type terminalUI struct{}

func (terminalUI) CardDealt(owner client.Owner, card blackjack.Card, hand blackjack.Hand) {
	title := pterm.LightGreen("|YOUR HAND|")
	if owner == client.DealerHand {
		title = pterm.LightYellow("|DEALER|")
	}
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTitle(title).WithTitleTopCenter()
	pterm.Println(pbox.Sprintf("%s   (%s: %d)", handString(hand), "value", hand.Value()))
}

func (terminalUI) RoundResolved(code byte, player, dealer blackjack.Hand, stats client.Statistics) {
	switch code {
	case protocol.CodePlayerWin:
		pterm.Success.Println("You won this round!")
	case protocol.CodeDealerWin:
		pterm.Error.Println("You lost this round.")
	case protocol.CodePush:
		pterm.Warning.Println("Push, nobody wins.")
	}
	pterm.Printfln("Final hands: you %s (%d) vs dealer %s (%d)",
		handString(player), player.Value(), handString(dealer), dealer.Value())

	pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Played", "Wins", "Losses", "Pushes"},
		{
			strconv.Itoa(stats.Played),
			strconv.Itoa(stats.Wins),
			strconv.Itoa(stats.Losses),
			strconv.Itoa(stats.Pushes),
		},
	}).Render()
}

func (terminalUI) Decide(player blackjack.Hand, dealerUp blackjack.Card) (string, error) {
	hint := client.Advise(player, dealerUp)
	pterm.Info.Printfln("Advisor: statistically you should %s", strings.ToUpper(prettyDecision(hint)))
	for {
		answer, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Your move (hit/stand)").
			WithDefaultValue(prettyDecision(hint)).Show()
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "hit", "h":
			return protocol.DecisionHit, nil
		case "stand", "s":
			return protocol.DecisionStand, nil
		}
		pterm.Error.Println("Please type exactly 'hit' or 'stand'.")
	}
}

func prettyDecision(token string) string {
	if token == protocol.DecisionHit {
		return "hit"
	}
	return "stand"
}

func handString(h blackjack.Hand) string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
