// Package discovery implements the UDP side of the protocol: hosts
// broadcast Offer messages on a well-known port once per interval, players
// listen on that port and take the first offer that decodes.
package discovery

import (
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/casinoroyale/blackjack/protocol"
)

// Broadcaster periodically emits an Offer as a UDP broadcast. Sending is
// fire-and-forget: a failed send is logged and the next tick proceeds, with
// no retry and no backoff.
type Broadcaster struct {
	Offer    protocol.Offer
	Port     uint16
	Interval time.Duration

	conn *net.UDPConn
	done chan struct{}
}

// NewBroadcaster opens the send socket and starts the broadcast loop.
func NewBroadcaster(offer protocol.Offer, port uint16, interval time.Duration) (*Broadcaster, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}
	b := &Broadcaster{
		Offer:    offer,
		Port:     port,
		Interval: interval,
		conn:     conn,
		done:     make(chan struct{}),
	}
	go b.loop()
	return b, nil
}

// Close stops the broadcast loop and releases the socket.
func (b *Broadcaster) Close() error {
	close(b.done)
	return b.conn.Close()
}

func (b *Broadcaster) loop() {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()
	for {
		b.sendOne()
		select {
		case <-b.done:
			return
		case <-ticker.C:
		}
	}
}

func (b *Broadcaster) sendOne() {
	// The offer is encoded fresh each tick.
	buf, err := b.Offer.MarshalBinary()
	if err != nil {
		logrus.WithError(err).Warn("encode offer")
		return
	}
	for _, ip := range broadcastAddrs() {
		_, err := b.conn.WriteToUDP(buf, &net.UDPAddr{IP: ip, Port: int(b.Port)})
		if err != nil && !errors.Is(err, net.ErrClosed) {
			logrus.WithFields(logrus.Fields{
				"dst": ip,
			}).WithError(err).Warn("offer broadcast failed")
		}
	}
}

// broadcastAddrs returns the directed broadcast address of every IPv4
// interface, falling back to the limited broadcast address when none is
// found.
func broadcastAddrs() []net.IP {
	var dsts []net.IP
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return []net.IP{net.IPv4bcast}
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || !ipnet.IP.IsGlobalUnicast() || ipnet.IP.To4() == nil {
			continue
		}
		ip := ipnet.IP.To4()
		mask := ipnet.Mask
		if len(mask) == net.IPv6len {
			mask = mask[12:]
		}
		bcast := make(net.IP, net.IPv4len)
		for i := range bcast {
			bcast[i] = ip[i] | ^mask[i]
		}
		dsts = append(dsts, bcast)
	}
	if len(dsts) == 0 {
		dsts = append(dsts, net.IPv4bcast)
	}
	return dsts
}
