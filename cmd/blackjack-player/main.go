package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/sirupsen/logrus"

	"github.com/casinoroyale/blackjack/client"
)

const defaultDiscoveryPort = 13122

func main() {
	godotenv.Load()

	team := flag.String("team", getenv("BLACKJACK_TEAM", "TheHighRollers"), "team name sent in the session request")
	discoveryPort := flag.Uint("discovery-port", defaultDiscoveryPort, "UDP discovery port to listen on")
	auto := flag.Bool("auto", false, "play unattended using basic strategy")
	flag.Parse()

	// pterm owns the terminal, keep library logs out of the table talk.
	logrus.SetLevel(logrus.WarnLevel)

	pterm.Print("\n")
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Black", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("jack", pterm.FgRed.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}
	pterm.Info.Printfln("Playing as team %s", *team)

	rounds := askRounds()

	ui := &terminalUI{}
	var decider client.Decider = ui
	if *auto {
		decider = client.StrategyDecider{}
	}
	c := client.NewClient(client.ClientConfig{
		TeamName:      *team,
		Rounds:        rounds,
		DiscoveryPort: uint16(*discoveryPort),
	}, decider, ui)

	for {
		pterm.Info.Println("Listening for offers...")
		if err := c.PlaySession(context.Background()); err != nil {
			pterm.Error.Printfln("Session ended: %v", err)
		}
		pterm.Info.Println("Returning to discovery...")
	}
}

// askRounds prompts until the user enters a round count the wire can carry.
func askRounds() uint8 {
	for {
		answer, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("How many rounds do you want to play?").
			WithDefaultValue("1").Show()
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= 255 {
			return uint8(n)
		}
		pterm.Error.Println("Please enter a number between 1 and 255.")
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
