package server

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/casinoroyale/blackjack/domain/blackjack"
	"github.com/casinoroyale/blackjack/protocol"
)

// handleConn runs one full session: exactly one Request, then the round
// state machine once per requested round. Any decode error or protocol
// violation closes this connection and nothing else; a peer disconnect is
// a normal way for a session to end.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	addr := conn.RemoteAddr().String()
	log := logrus.WithField("remote", addr)

	conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
	req, err := protocol.ReadRequest(conn)
	if err != nil {
		log.WithError(err).Warn("handshake failed")
		return
	}
	if req.Rounds == 0 {
		log.WithField("team", req.TeamName).Warn("request for zero rounds rejected")
		return
	}

	log = log.WithField("team", req.TeamName)
	log.WithField("rounds", req.Rounds).Info("session started")

	s.register(addr, &sessionInfo{Team: req.TeamName, Requested: int(req.Rounds)})
	defer s.unregister(addr)

	for i := 0; i < int(req.Rounds); i++ {
		result, err := s.playRound(conn)
		if err != nil {
			if isDisconnect(err) {
				log.Info("peer disconnected")
			} else {
				log.WithError(err).Warn("session terminated")
			}
			return
		}
		s.roundDone(addr)
		log.WithFields(logrus.Fields{
			"round":  i + 1,
			"result": result,
		}).Info("round resolved")
	}
	log.Info("session finished")
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// newDeck is swapped for a stacked deck in tests.
var newDeck = blackjack.NewDeck

// playRound drives one Dealt -> PlayerTurn -> DealerTurn -> Resolved cycle
// over the connection, with a fresh deck.
func (s *Server) playRound(conn net.Conn) (blackjack.RoundResult, error) {
	deck := newDeck()

	var player, dealer blackjack.Hand
	for i := 0; i < 2; i++ {
		c, err := deck.Draw()
		if err != nil {
			return 0, err
		}
		player = append(player, c)
		c, err = deck.Draw()
		if err != nil {
			return 0, err
		}
		dealer = append(dealer, c)
	}

	// Dealt: the player's two cards and the dealer's upcard. The hole card
	// stays hidden until the dealer's turn.
	for _, c := range []blackjack.Card{player[0], player[1], dealer[0]} {
		if err := sendCard(conn, protocol.CodeCard, c); err != nil {
			return 0, err
		}
	}

	// Blackjack short-circuit: naturals end the round before any decision.
	if result, done := blackjack.Naturals(player, dealer); done {
		if err := sendCard(conn, protocol.CodeCard, dealer[1]); err != nil {
			return 0, err
		}
		return result, sendResult(conn, wireCode(result))
	}

	// PlayerTurn: prompt, read exactly one decision, repeat on hit.
	for {
		if err := protocol.Write(conn, protocol.ServerPayload{Code: protocol.CodeAwaitDecision}); err != nil {
			return 0, err
		}
		conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		decision, err := protocol.ReadClientPayload(conn)
		if err != nil {
			return 0, err
		}
		if decision.Decision == protocol.DecisionStand {
			break
		}
		c, err := deck.Draw()
		if err != nil {
			return 0, err
		}
		player = append(player, c)
		if player.IsBust() {
			// The bust card and the terminal code travel together.
			return blackjack.PlayerBust, sendCard(conn, protocol.CodeDealerWin, c)
		}
		if err := sendCard(conn, protocol.CodeCard, c); err != nil {
			return 0, err
		}
	}

	// DealerTurn: reveal the hole card, then apply the fixed policy.
	if err := sendCard(conn, protocol.CodeCard, dealer[1]); err != nil {
		return 0, err
	}
	for blackjack.DealerShouldHit(dealer, s.HitSoft17) {
		c, err := deck.Draw()
		if err != nil {
			return 0, err
		}
		dealer = append(dealer, c)
		if dealer.IsBust() {
			return blackjack.DealerBust, sendCard(conn, protocol.CodePlayerWin, c)
		}
		if err := sendCard(conn, protocol.CodeCard, c); err != nil {
			return 0, err
		}
	}

	result := blackjack.Outcome(player, dealer)
	return result, sendResult(conn, wireCode(result))
}

// wireCode collapses the six domain outcomes onto the three terminal codes
// the wire knows about.
func wireCode(r blackjack.RoundResult) byte {
	switch {
	case r.PlayerWon():
		return protocol.CodePlayerWin
	case r == blackjack.Push:
		return protocol.CodePush
	default:
		return protocol.CodeDealerWin
	}
}

func sendCard(conn net.Conn, code byte, c blackjack.Card) error {
	return protocol.Write(conn, protocol.ServerPayload{
		Code:    code,
		HasCard: true,
		Rank:    c.Rank(),
		Suit:    c.Suit(),
	})
}

func sendResult(conn net.Conn, code byte) error {
	return protocol.Write(conn, protocol.ServerPayload{Code: code})
}
