// Package server implements the host side of the protocol: the TCP session
// server advertised by the discovery broadcaster, with one round engine per
// accepted connection.
package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/casinoroyale/blackjack/discovery"
	"github.com/casinoroyale/blackjack/protocol"
)

const (
	defaultBroadcastInterval = time.Second
	defaultReadTimeout       = 2 * time.Minute
)

type ServerConfig struct {
	HostName          string
	ListenAddr        string // TCP address for sessions, ":0" lets the OS pick
	DiscoveryPort     uint16
	BroadcastInterval time.Duration
	APIListenAddr     string // "" disables the status API
	HitSoft17         bool
	ReadTimeout       time.Duration
}

// Server owns the listening socket, the offer broadcaster and the live
// session registry. Game state never lives here: each connection's deck and
// hands are exclusive to its goroutine. The registry is read-only
// observability for the status API.
type Server struct {
	ServerConfig

	listener    net.Listener
	broadcaster *discovery.Broadcaster
	started     time.Time

	sessionLock sync.RWMutex
	sessions    map[string]*sessionInfo
	served      int
}

type sessionInfo struct {
	Team      string
	Requested int
	Played    int
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":0"
	}
	if cfg.BroadcastInterval == 0 {
		cfg.BroadcastInterval = defaultBroadcastInterval
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	return &Server{
		ServerConfig: cfg,
		sessions:     make(map[string]*sessionInfo),
	}
}

// Start binds the session port, begins broadcasting offers for it and
// accepts connections until Close. It blocks for the server's lifetime.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = l
	s.started = time.Now()

	offer := protocol.Offer{
		TCPPort:  uint16(l.Addr().(*net.TCPAddr).Port),
		HostName: s.HostName,
	}
	s.broadcaster, err = discovery.NewBroadcaster(offer, s.DiscoveryPort, s.BroadcastInterval)
	if err != nil {
		l.Close()
		return err
	}

	if s.APIListenAddr != "" {
		go s.serveAPI()
	}

	logrus.WithFields(logrus.Fields{
		"host":           s.HostName,
		"session-port":   offer.TCPPort,
		"discovery-port": s.DiscoveryPort,
	}).Info("host up, broadcasting offers")

	return s.acceptLoop()
}

// Close stops the broadcaster and the accept loop. Live sessions finish on
// their own connections.
func (s *Server) Close() error {
	var errs []error
	if s.broadcaster != nil {
		errs = append(errs, s.broadcaster.Close())
	}
	if s.listener != nil {
		errs = append(errs, s.listener.Close())
	}
	return errors.Join(errs...)
}

// Port returns the session port actually bound, or zero before Start has
// bound one.
func (s *Server) Port() uint16 {
	if s.listener == nil {
		return 0
	}
	return uint16(s.listener.Addr().(*net.TCPAddr).Port)
}

func (s *Server) acceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		logrus.WithFields(logrus.Fields{
			"remote": conn.RemoteAddr(),
		}).Info("new connection")
		go s.handleConn(conn)
	}
}

func (s *Server) register(addr string, info *sessionInfo) {
	s.sessionLock.Lock()
	defer s.sessionLock.Unlock()
	s.sessions[addr] = info
	s.served++
}

func (s *Server) unregister(addr string) {
	s.sessionLock.Lock()
	defer s.sessionLock.Unlock()
	delete(s.sessions, addr)
}

func (s *Server) roundDone(addr string) {
	s.sessionLock.Lock()
	defer s.sessionLock.Unlock()
	if info, ok := s.sessions[addr]; ok {
		info.Played++
	}
}
