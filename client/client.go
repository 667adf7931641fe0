// Package client implements the player side of the protocol: discover a
// host, open a session, drive the round state machine from the respondent
// end and accumulate statistics. Where decisions come from and how cards
// are shown is the presentation layer's business, reached through the
// Decider and Events boundaries.
package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/casinoroyale/blackjack/discovery"
	"github.com/casinoroyale/blackjack/domain/blackjack"
	"github.com/casinoroyale/blackjack/protocol"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultReadTimeout = 30 * time.Second
)

// Owner identifies whose hand a dealt card joins.
type Owner int

const (
	PlayerHand Owner = iota
	DealerHand
)

func (o Owner) String() string {
	if o == PlayerHand {
		return "player"
	}
	return "dealer"
}

// Decider supplies a Hit/Stand token whenever the host asks for one.
// Implementations return protocol.DecisionHit or protocol.DecisionStand.
type Decider interface {
	Decide(player blackjack.Hand, dealerUp blackjack.Card) (string, error)
}

// Events receives the presentation stream: every dealt card and every
// resolved round.
type Events interface {
	CardDealt(owner Owner, card blackjack.Card, hand blackjack.Hand)
	RoundResolved(code byte, player, dealer blackjack.Hand, stats Statistics)
}

// Statistics accumulate across the life of one session and reset when a
// new session begins.
type Statistics struct {
	Played int
	Wins   int
	Losses int
	Pushes int
}

func (s *Statistics) record(code byte) {
	s.Played++
	switch code {
	case protocol.CodePlayerWin:
		s.Wins++
	case protocol.CodeDealerWin:
		s.Losses++
	case protocol.CodePush:
		s.Pushes++
	}
}

type ClientConfig struct {
	TeamName      string
	Rounds        uint8
	DiscoveryPort uint16
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
}

// Client plays sessions strictly sequentially: one connection, one round,
// one pending decision at a time.
type Client struct {
	ClientConfig
	Decider Decider
	Events  Events

	stats Statistics
}

func NewClient(cfg ClientConfig, d Decider, e Events) *Client {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	return &Client{
		ClientConfig: cfg,
		Decider:      d,
		Events:       e,
	}
}

// Stats returns the statistics of the current or last session.
func (c *Client) Stats() Statistics {
	return c.stats
}

// PlaySession runs one discovery-to-disconnect cycle: wait for an offer,
// connect, request the configured rounds and play them out. The caller
// loops to return to discovery afterwards.
func (c *Client) PlaySession(ctx context.Context) error {
	found, err := discovery.Listen(ctx, c.DiscoveryPort)
	if err != nil {
		return err
	}
	return c.Play(found)
}

// Play runs one session against an already-discovered host.
func (c *Client) Play(found discovery.Found) error {
	addr := net.JoinHostPort(found.Host.String(), fmt.Sprint(found.Offer.TCPPort))
	conn, err := net.DialTimeout("tcp", addr, c.DialTimeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{
		"host": found.Offer.HostName,
		"addr": addr,
	})
	log.Info("session opened")

	c.stats = Statistics{}
	req := protocol.Request{Rounds: c.Rounds, TeamName: c.TeamName}
	if err := protocol.Write(conn, req); err != nil {
		return err
	}

	for i := 0; i < int(c.Rounds); i++ {
		if err := c.playRound(conn); err != nil {
			return err
		}
	}
	log.WithField("stats", c.stats).Info("session finished")
	return nil
}

// playRound consumes host payloads until a terminal code arrives. Card
// ownership follows the protocol's ordering guarantees: the first two cards
// are the player's, the third is the dealer's upcard, a card following a
// Hit reply is the player's and every other card is the dealer's.
func (c *Client) playRound(conn net.Conn) error {
	var player, dealer blackjack.Hand
	expectPlayerCard := false

	for {
		conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		p, err := protocol.ReadServerPayload(conn)
		if err != nil {
			return err
		}

		if p.HasCard {
			card, err := blackjack.NewCard(p.Rank, p.Suit)
			if err != nil {
				return fmt.Errorf("%w: %v", protocol.ErrUnexpectedMessage, err)
			}
			owner := DealerHand
			if len(player) < 2 || expectPlayerCard {
				owner = PlayerHand
			}
			if owner == PlayerHand {
				player = append(player, card)
				expectPlayerCard = false
			} else {
				dealer = append(dealer, card)
			}
			if c.Events != nil {
				hand := dealer
				if owner == PlayerHand {
					hand = player
				}
				c.Events.CardDealt(owner, card, hand)
			}
		}

		switch p.Code {
		case protocol.CodeCard:
			if !p.HasCard {
				return protocol.ErrUnexpectedMessage
			}
		case protocol.CodeAwaitDecision:
			if len(player) < 2 || len(dealer) < 1 {
				return protocol.ErrUnexpectedMessage
			}
			decision, err := c.Decider.Decide(player, dealer[0])
			if err != nil {
				return err
			}
			if err := protocol.Write(conn, protocol.ClientPayload{Decision: decision}); err != nil {
				return err
			}
			expectPlayerCard = decision == protocol.DecisionHit
		case protocol.CodePlayerWin, protocol.CodeDealerWin, protocol.CodePush:
			c.stats.record(p.Code)
			if c.Events != nil {
				c.Events.RoundResolved(p.Code, player, dealer, c.stats)
			}
			return nil
		default:
			return protocol.ErrUnexpectedMessage
		}
	}
}
