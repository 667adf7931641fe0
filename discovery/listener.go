package discovery

import (
	"context"
	"errors"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/casinoroyale/blackjack/protocol"
)

// Found is a decoded Offer together with the address it came from.
type Found struct {
	Offer protocol.Offer
	Host  net.IP
}

// Listen blocks on the discovery port until the first datagram that decodes
// as an Offer and returns it. Anything that fails to decode is noise from
// the shared port and is silently discarded. No de-duplication or scoring
// between simultaneous offers happens: first valid one wins.
func Listen(ctx context.Context, port uint16) (Found, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return Found{}, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	buf := make([]byte, 1024)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return Found{}, ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return Found{}, err
			}
			logrus.WithError(err).Warn("discovery read")
			continue
		}
		var offer protocol.Offer
		if err := offer.UnmarshalBinary(buf[:n]); err != nil {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"host": offer.HostName,
			"addr": src.IP,
			"port": offer.TCPPort,
		}).Info("offer received")
		return Found{Offer: offer, Host: src.IP}, nil
	}
}
