package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/casinoroyale/blackjack/client"
	"github.com/casinoroyale/blackjack/discovery"
	"github.com/casinoroyale/blackjack/domain/blackjack"
	"github.com/casinoroyale/blackjack/protocol"
)

func mustCard(t *testing.T, rank, suit uint8) blackjack.Card {
	t.Helper()
	c, err := blackjack.NewCard(rank, suit)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// stackDeck replaces the deck constructor for the duration of one test.
func stackDeck(t *testing.T, cards ...blackjack.Card) {
	t.Helper()
	orig := newDeck
	newDeck = func() *blackjack.Deck { return blackjack.Stacked(cards...) }
	t.Cleanup(func() { newDeck = orig })
}

func startSession(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	host, peer := net.Pipe()
	go srv.handleConn(host)
	t.Cleanup(func() { peer.Close() })
	return peer
}

func readPayload(t *testing.T, conn net.Conn) protocol.ServerPayload {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	p, err := protocol.ReadServerPayload(conn)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	return p
}

func expectCard(t *testing.T, conn net.Conn, code byte, c blackjack.Card) {
	t.Helper()
	p := readPayload(t, conn)
	if p.Code != code || !p.HasCard || p.Rank != c.Rank() || p.Suit != c.Suit() {
		t.Fatalf("got %+v, want code %#x card %v", p, code, c)
	}
}

func expectClosed(t *testing.T, conn net.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("connection not closed, read returned %v", err)
	}
}

func TestZeroRoundsRejected(t *testing.T) {
	peer := startSession(t, NewServer(ServerConfig{HostName: "test"}))
	if err := protocol.Write(peer, protocol.Request{Rounds: 0, TeamName: "T"}); err != nil {
		t.Fatal(err)
	}
	// No cards may be dealt: the very next read sees the close.
	expectClosed(t, peer)
}

func TestMalformedRequestRejected(t *testing.T) {
	peer := startSession(t, NewServer(ServerConfig{HostName: "test"}))
	if _, err := peer.Write(bytes.Repeat([]byte{0x42}, protocol.RequestSize)); err != nil {
		t.Fatal(err)
	}
	expectClosed(t, peer)
}

func TestSingleRoundStandWins(t *testing.T) {
	// Draw order is player, dealer, player, dealer: the player gets {10,7},
	// the dealer {9,8}. The player stands on 20, the dealer stops at 17.
	tenH := mustCard(t, 10, blackjack.Heart)
	nineC := mustCard(t, 9, blackjack.Club)
	sevenS := mustCard(t, 7, blackjack.Spade)
	eightD := mustCard(t, 8, blackjack.Diamond)
	stackDeck(t, tenH, nineC, sevenS, eightD)

	peer := startSession(t, NewServer(ServerConfig{HostName: "test"}))
	if err := protocol.Write(peer, protocol.Request{Rounds: 1, TeamName: "T"}); err != nil {
		t.Fatal(err)
	}

	expectCard(t, peer, protocol.CodeCard, tenH)
	expectCard(t, peer, protocol.CodeCard, sevenS)
	expectCard(t, peer, protocol.CodeCard, nineC)

	if p := readPayload(t, peer); p.Code != protocol.CodeAwaitDecision {
		t.Fatalf("got %+v, want decision prompt", p)
	}
	if err := protocol.Write(peer, protocol.ClientPayload{Decision: protocol.DecisionStand}); err != nil {
		t.Fatal(err)
	}

	// Hole card reveal, then the result: 20 beats 17.
	expectCard(t, peer, protocol.CodeCard, eightD)
	if p := readPayload(t, peer); p.Code != protocol.CodePlayerWin || p.HasCard {
		t.Fatalf("got %+v, want bare player-win result", p)
	}
	expectClosed(t, peer)
}

func TestPlayerBustEndsRound(t *testing.T) {
	stackDeck(t,
		mustCard(t, 10, blackjack.Heart),   // player
		mustCard(t, 9, blackjack.Club),     // dealer
		mustCard(t, 6, blackjack.Spade),    // player: 16
		mustCard(t, 8, blackjack.Diamond),  // dealer
		mustCard(t, 10, blackjack.Club),    // hit: 26, bust
	)

	peer := startSession(t, NewServer(ServerConfig{HostName: "test"}))
	if err := protocol.Write(peer, protocol.Request{Rounds: 1, TeamName: "T"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		readPayload(t, peer)
	}
	if p := readPayload(t, peer); p.Code != protocol.CodeAwaitDecision {
		t.Fatalf("got %+v, want decision prompt", p)
	}
	if err := protocol.Write(peer, protocol.ClientPayload{Decision: protocol.DecisionHit}); err != nil {
		t.Fatal(err)
	}
	// The bust card and the loss arrive in one payload.
	p := readPayload(t, peer)
	if p.Code != protocol.CodeDealerWin || !p.HasCard || p.Rank != 10 {
		t.Fatalf("got %+v, want dealer-win with the bust card", p)
	}
	expectClosed(t, peer)
}

func TestBlackjackShortCircuit(t *testing.T) {
	aceH := mustCard(t, blackjack.Ace, blackjack.Heart)
	nineC := mustCard(t, 9, blackjack.Club)
	kingS := mustCard(t, blackjack.King, blackjack.Spade)
	eightD := mustCard(t, 8, blackjack.Diamond)
	stackDeck(t, aceH, nineC, kingS, eightD)

	peer := startSession(t, NewServer(ServerConfig{HostName: "test"}))
	if err := protocol.Write(peer, protocol.Request{Rounds: 1, TeamName: "T"}); err != nil {
		t.Fatal(err)
	}

	expectCard(t, peer, protocol.CodeCard, aceH)
	expectCard(t, peer, protocol.CodeCard, kingS)
	expectCard(t, peer, protocol.CodeCard, nineC)
	// No decision prompt: the hole card is revealed and the round resolves.
	expectCard(t, peer, protocol.CodeCard, eightD)
	if p := readPayload(t, peer); p.Code != protocol.CodePlayerWin || p.HasCard {
		t.Fatalf("got %+v, want bare player-win result", p)
	}
	expectClosed(t, peer)
}

func TestBadDecisionTokenTerminates(t *testing.T) {
	stackDeck(t,
		mustCard(t, 10, blackjack.Heart),
		mustCard(t, 9, blackjack.Club),
		mustCard(t, 7, blackjack.Spade),
		mustCard(t, 8, blackjack.Diamond),
	)

	peer := startSession(t, NewServer(ServerConfig{HostName: "test"}))
	if err := protocol.Write(peer, protocol.Request{Rounds: 1, TeamName: "T"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		readPayload(t, peer)
	}
	if p := readPayload(t, peer); p.Code != protocol.CodeAwaitDecision {
		t.Fatalf("got %+v, want decision prompt", p)
	}

	frame, err := protocol.ClientPayload{Decision: protocol.DecisionHit}.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	copy(frame[5:], "Fold!")
	if _, err := peer.Write(frame); err != nil {
		t.Fatal(err)
	}
	expectClosed(t, peer)
}

func TestEarlyDisconnectIsHandled(t *testing.T) {
	peer := startSession(t, NewServer(ServerConfig{HostName: "test"}))
	if err := protocol.Write(peer, protocol.Request{Rounds: 3, TeamName: "T"}); err != nil {
		t.Fatal(err)
	}
	readPayload(t, peer)
	peer.Close() // mid-round, a normal termination
}

// TestConcurrentSessions plays full sessions over real TCP from two clients
// at once: each session keeps its own deck and statistics.
func TestConcurrentSessions(t *testing.T) {
	srv := NewServer(ServerConfig{
		HostName:      "test",
		ListenAddr:    "127.0.0.1:0",
		DiscoveryPort: freeUDPPort(t),
	})
	go srv.Start()
	defer srv.Close()
	waitForPort(t, srv)

	const rounds = 5
	var wg sync.WaitGroup
	stats := make([]client.Statistics, 2)
	errs := make([]error, 2)
	for i := range stats {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := client.NewClient(client.ClientConfig{
				TeamName: "team",
				Rounds:   rounds,
			}, client.StrategyDecider{}, nil)
			errs[i] = c.Play(discovery.Found{
				Offer: protocol.Offer{TCPPort: srv.Port(), HostName: "test"},
				Host:  net.IPv4(127, 0, 0, 1),
			})
			stats[i] = c.Stats()
		}(i)
	}
	wg.Wait()

	for i := range stats {
		if errs[i] != nil {
			t.Fatalf("client %d: %v", i, errs[i])
		}
		s := stats[i]
		if s.Played != rounds {
			t.Fatalf("client %d played %d rounds, want %d", i, s.Played, rounds)
		}
		if s.Wins+s.Losses+s.Pushes != s.Played {
			t.Fatalf("client %d statistics do not add up: %+v", i, s)
		}
	}
}

// TestEndToEndDiscoveryAndPlay walks the whole player path: hear an offer,
// connect to the advertised port, play one stacked round, win it.
func TestEndToEndDiscoveryAndPlay(t *testing.T) {
	stackDeck(t,
		mustCard(t, 10, blackjack.Heart),
		mustCard(t, 9, blackjack.Club),
		mustCard(t, 7, blackjack.Spade),
		mustCard(t, 8, blackjack.Diamond),
	)

	discoveryPort := freeUDPPort(t)
	srv := NewServer(ServerConfig{
		HostName:      "test",
		ListenAddr:    "127.0.0.1:0",
		DiscoveryPort: discoveryPort,
	})
	go srv.Start()
	defer srv.Close()
	waitForPort(t, srv)

	// Offers are unicast to the listener over loopback so the test does not
	// depend on the sandbox routing broadcasts.
	done := make(chan struct{})
	defer close(done)
	go func() {
		offer := protocol.Offer{TCPPort: srv.Port(), HostName: "test"}
		buf, err := offer.MarshalBinary()
		if err != nil {
			t.Errorf("marshal offer: %v", err)
			return
		}
		conn, err := net.Dial("udp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(discoveryPort))))
		if err != nil {
			t.Errorf("dial discovery port: %v", err)
			return
		}
		defer conn.Close()
		for {
			conn.Write(buf)
			select {
			case <-done:
				return
			case <-time.After(50 * time.Millisecond):
			}
		}
	}()

	c := client.NewClient(client.ClientConfig{
		TeamName:      "team",
		Rounds:        1,
		DiscoveryPort: discoveryPort,
	}, client.StrategyDecider{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.PlaySession(ctx); err != nil {
		t.Fatalf("session: %v", err)
	}
	// The player stands on 20, the dealer stops at 17.
	if got := c.Stats(); got != (client.Statistics{Played: 1, Wins: 1}) {
		t.Fatalf("stats: %+v", got)
	}
}

func freeUDPPort(t *testing.T) uint16 {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	return uint16(conn.LocalAddr().(*net.UDPAddr).Port)
}

func waitForPort(t *testing.T, srv *Server) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for srv.Port() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("server did not bind in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
