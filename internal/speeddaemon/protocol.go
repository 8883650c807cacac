// Package speeddaemon implements the Speed-Enforcement Dispatcher: cameras
// report plate sightings, the server infers speed from pairs of sightings on
// the same road, and tickets are routed to whichever dispatcher has claimed
// that road, deduplicated per plate per day.
package speeddaemon

import (
	"errors"
	"fmt"

	"github.com/protohackers/suite/internal/wire"
)

// Message type bytes, per the wire catalogue.
const (
	msgError         = 0x10
	msgPlate         = 0x20
	msgTicket        = 0x21
	msgWantHeartbeat = 0x40
	msgHeartbeat     = 0x41
	msgIAmCamera     = 0x80
	msgIAmDispatcher = 0x81
)

// ErrProtocolViolation covers every disallowed-in-this-state message; the
// caller sends an Error frame with its message and closes the connection.
var ErrProtocolViolation = errors.New("speeddaemon: protocol violation")

type plateMsg struct {
	plate     string
	timestamp uint32
}

type ticketMsg struct {
	plate string
	road  uint16
	pos1  uint16
	t1    uint32
	pos2  uint16
	t2    uint32
	speed uint16 // mph * 100
}

type iAmCameraMsg struct {
	road, mile, limit uint16
}

type iAmDispatcherMsg struct {
	roads []uint16
}

// readMessage reads and decodes exactly one client-to-server message. Only
// Plate, WantHeartbeat, IAmCamera and IAmDispatcher are ever sent by clients;
// any other type byte is a protocol violation.
func readMessage(r *wire.Reader) (msgType uint8, payload any, err error) {
	msgType, err = r.ReadU8()
	if err != nil {
		return 0, nil, err
	}

	switch msgType {
	case msgPlate:
		plate, err := r.ReadStr8()
		if err != nil {
			return 0, nil, err
		}
		ts, err := r.ReadU32()
		if err != nil {
			return 0, nil, err
		}
		return msgType, plateMsg{plate: plate, timestamp: ts}, nil

	case msgWantHeartbeat:
		interval, err := r.ReadU32()
		if err != nil {
			return 0, nil, err
		}
		return msgType, interval, nil

	case msgIAmCamera:
		road, err := r.ReadU16()
		if err != nil {
			return 0, nil, err
		}
		mile, err := r.ReadU16()
		if err != nil {
			return 0, nil, err
		}
		limit, err := r.ReadU16()
		if err != nil {
			return 0, nil, err
		}
		return msgType, iAmCameraMsg{road: road, mile: mile, limit: limit}, nil

	case msgIAmDispatcher:
		numroads, err := r.ReadU8()
		if err != nil {
			return 0, nil, err
		}
		roads := make([]uint16, numroads)
		for i := range roads {
			roads[i], err = r.ReadU16()
			if err != nil {
				return 0, nil, err
			}
		}
		return msgType, iAmDispatcherMsg{roads: roads}, nil

	default:
		return msgType, nil, fmt.Errorf("%w: unknown message type 0x%02x", ErrProtocolViolation, msgType)
	}
}

func encodeError(msg string) ([]byte, error) {
	w := wire.NewWriter()
	w.WriteU8(msgError)
	if _, err := w.WriteStr8(msg); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func encodeHeartbeat() []byte {
	return wire.NewWriter().WriteU8(msgHeartbeat).Bytes()
}

func encodeTicket(t ticketMsg) ([]byte, error) {
	w := wire.NewWriter()
	w.WriteU8(msgTicket)
	if _, err := w.WriteStr8(t.plate); err != nil {
		return nil, err
	}
	w.WriteU16(t.road)
	w.WriteU16(t.pos1)
	w.WriteU32(t.t1)
	w.WriteU16(t.pos2)
	w.WriteU32(t.t2)
	w.WriteU16(t.speed)
	return w.Bytes(), nil
}
