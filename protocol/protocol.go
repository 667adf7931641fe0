package protocol

import (
	"encoding"
	"encoding/binary"
	"errors"
	"strings"
)

// MagicCookie prefixes every message on the wire. A listener sharing the
// discovery port with unrelated broadcast traffic can drop foreign frames
// by checking these four bytes alone.
const MagicCookie uint32 = 0xabcddcba

// Message type tags.
const (
	TypeOffer   byte = 0x2 // host -> broadcast (UDP)
	TypeRequest byte = 0x3 // client -> host, once per session (TCP)
	TypePayload byte = 0x4 // bidirectional game data (TCP)
)

// Codes carried by a ServerPayload. CodeCard means the round continues and a
// card is attached; CodeAwaitDecision asks the client for a Hit/Stand reply;
// the remaining three terminate the round.
const (
	CodeCard          byte = 0x0
	CodePush          byte = 0x1
	CodeDealerWin     byte = 0x2
	CodePlayerWin     byte = 0x3
	CodeAwaitDecision byte = 0x4
)

// Decision tokens carried by a ClientPayload. Both are exactly
// decisionWidth bytes so the frame size never varies.
const (
	DecisionHit   = "Hittt"
	DecisionStand = "Stand"
)

const (
	nameWidth     = 32
	decisionWidth = 5
)

// Exact frame sizes. Every message is fixed-length; stream readers pull
// exactly these many bytes per frame.
const (
	OfferSize         = 4 + 1 + 2 + nameWidth     // 39
	RequestSize       = 4 + 1 + 1 + nameWidth     // 38
	ServerPayloadSize = 4 + 1 + 1 + 1 + 1 + 1     // 9
	ClientPayloadSize = 4 + 1 + decisionWidth     // 10
)

// Decode failure taxonomy. All of these are local to one message and, on a
// TCP stream, terminate that one connection.
var (
	ErrBadMagicCookie    = errors.New("bad magic cookie")
	ErrUnknownType       = errors.New("unknown message type")
	ErrTruncated         = errors.New("truncated message")
	ErrUnexpectedMessage = errors.New("unexpected message")
)

// Offer advertises a host's presence and the TCP port a session can be
// opened on. Broadcast over UDP once per interval, never persisted.
type Offer struct {
	TCPPort  uint16
	HostName string
}

// Request opens a session: how many rounds the client wants to play and
// under which team name. Sent exactly once after connecting.
type Request struct {
	Rounds   uint8
	TeamName string
}

// ServerPayload is every host->client message of the round state machine:
// a code plus, when HasCard is set, one card.
type ServerPayload struct {
	Code    byte
	HasCard bool
	Rank    uint8
	Suit    uint8
}

// ClientPayload carries one decision token, expected only while the host
// awaits a decision.
type ClientPayload struct {
	Decision string
}

var (
	_ encoding.BinaryMarshaler   = Offer{}
	_ encoding.BinaryUnmarshaler = (*Offer)(nil)
	_ encoding.BinaryMarshaler   = Request{}
	_ encoding.BinaryUnmarshaler = (*Request)(nil)
	_ encoding.BinaryMarshaler   = ServerPayload{}
	_ encoding.BinaryUnmarshaler = (*ServerPayload)(nil)
	_ encoding.BinaryMarshaler   = ClientPayload{}
	_ encoding.BinaryUnmarshaler = (*ClientPayload)(nil)
)

// header validates the magic cookie before anything else, then the type
// tag, then the frame length. Returns the payload bytes after the tag.
func header(data []byte, wantType byte, size int) ([]byte, error) {
	if len(data) < 4 {
		return nil, ErrTruncated
	}
	if binary.BigEndian.Uint32(data[:4]) != MagicCookie {
		return nil, ErrBadMagicCookie
	}
	if len(data) < 5 {
		return nil, ErrTruncated
	}
	switch t := data[4]; {
	case t == wantType:
	case t == TypeOffer || t == TypeRequest || t == TypePayload:
		return nil, ErrUnexpectedMessage
	default:
		return nil, ErrUnknownType
	}
	if len(data) < size {
		return nil, ErrTruncated
	}
	return data[5:size], nil
}

func packName(buf []byte, name string) {
	b := []byte(name)
	if len(b) > nameWidth {
		b = b[:nameWidth]
	}
	copy(buf, b)
}

func unpackName(buf []byte) string {
	return strings.TrimRight(string(buf), "\x00")
}

func (o Offer) MarshalBinary() ([]byte, error) {
	buf := make([]byte, OfferSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = TypeOffer
	binary.BigEndian.PutUint16(buf[5:7], o.TCPPort)
	packName(buf[7:], o.HostName)
	return buf, nil
}

func (o *Offer) UnmarshalBinary(data []byte) error {
	body, err := header(data, TypeOffer, OfferSize)
	if err != nil {
		return err
	}
	o.TCPPort = binary.BigEndian.Uint16(body[0:2])
	o.HostName = unpackName(body[2:])
	return nil
}

func (r Request) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RequestSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = TypeRequest
	buf[5] = r.Rounds
	packName(buf[6:], r.TeamName)
	return buf, nil
}

func (r *Request) UnmarshalBinary(data []byte) error {
	body, err := header(data, TypeRequest, RequestSize)
	if err != nil {
		return err
	}
	r.Rounds = body[0]
	r.TeamName = unpackName(body[1:])
	return nil
}

func (p ServerPayload) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ServerPayloadSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = TypePayload
	buf[5] = p.Code
	if p.HasCard {
		buf[6] = 1
		buf[7] = p.Rank
		buf[8] = p.Suit
	}
	return buf, nil
}

func (p *ServerPayload) UnmarshalBinary(data []byte) error {
	body, err := header(data, TypePayload, ServerPayloadSize)
	if err != nil {
		return err
	}
	p.Code = body[0]
	p.HasCard = body[1] != 0
	if p.HasCard {
		p.Rank = body[2]
		p.Suit = body[3]
	} else {
		p.Rank, p.Suit = 0, 0
	}
	return nil
}

func (p ClientPayload) MarshalBinary() ([]byte, error) {
	if p.Decision != DecisionHit && p.Decision != DecisionStand {
		return nil, ErrUnexpectedMessage
	}
	buf := make([]byte, ClientPayloadSize)
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = TypePayload
	copy(buf[5:], p.Decision)
	return buf, nil
}

func (p *ClientPayload) UnmarshalBinary(data []byte) error {
	body, err := header(data, TypePayload, ClientPayloadSize)
	if err != nil {
		return err
	}
	decision := strings.TrimRight(string(body), "\x00")
	if decision != DecisionHit && decision != DecisionStand {
		return ErrUnexpectedMessage
	}
	p.Decision = decision
	return nil
}
