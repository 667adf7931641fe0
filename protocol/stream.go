package protocol

import (
	"fmt"
	"io"
)

// readFrame pulls exactly size bytes off the stream. A clean EOF before the
// first byte is returned as-is so callers can treat peer disconnection as a
// normal termination; a partial frame is a truncated message.
func readFrame(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		return nil, err
	}
	return buf, nil
}

// ReadRequest reads and decodes one Request frame from the stream.
func ReadRequest(r io.Reader) (Request, error) {
	buf, err := readFrame(r, RequestSize)
	if err != nil {
		return Request{}, err
	}
	var req Request
	if err := req.UnmarshalBinary(buf); err != nil {
		return Request{}, err
	}
	return req, nil
}

// ReadServerPayload reads and decodes one Server-Payload frame.
func ReadServerPayload(r io.Reader) (ServerPayload, error) {
	buf, err := readFrame(r, ServerPayloadSize)
	if err != nil {
		return ServerPayload{}, err
	}
	var p ServerPayload
	if err := p.UnmarshalBinary(buf); err != nil {
		return ServerPayload{}, err
	}
	return p, nil
}

// ReadClientPayload reads and decodes one Client-Payload frame.
func ReadClientPayload(r io.Reader) (ClientPayload, error) {
	buf, err := readFrame(r, ClientPayloadSize)
	if err != nil {
		return ClientPayload{}, err
	}
	var p ClientPayload
	if err := p.UnmarshalBinary(buf); err != nil {
		return ClientPayload{}, err
	}
	return p, nil
}

// Write encodes msg and writes the whole frame to w.
func Write(w io.Writer, msg interface{ MarshalBinary() ([]byte, error) }) error {
	buf, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
