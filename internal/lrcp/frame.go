// Package lrcp implements the Reliable-Datagram Transport: a connection-
// oriented, in-order, retransmitting byte stream multiplexed over UDP by
// integer session ID, with a line-reversal application hook.
package lrcp

import (
	"errors"
	"fmt"
	"strconv"
)

// maxFrameBytes bounds every outbound datagram, outer slashes included.
const maxFrameBytes = 1000

// maxPayloadBytes is the largest escaped payload transmitted per
// retransmission cycle, leaving headroom for the frame's own fields within
// maxFrameBytes.
const maxPayloadBytes = 950

// maxFieldValue is the 31-bit ceiling placed on SESSION, POS and LENGTH
// fields, per the design note directing these to fit 31 bits throughout.
const maxFieldValue = 1<<31 - 1

var (
	// ErrMalformed covers any frame that fails to parse as one of the four
	// known kinds with well-formed fields.
	ErrMalformed = errors.New("lrcp: malformed frame")
	// ErrFieldOutOfRange is returned when SESSION, POS or LENGTH exceeds 31
	// bits; a negative value is reported as ErrMalformed.
	ErrFieldOutOfRange = errors.New("lrcp: numeric field out of range")
)

type frameKind int

const (
	frameConnect frameKind = iota
	frameData
	frameAck
	frameClose
)

type frame struct {
	kind    frameKind
	session int64
	pos     int64
	length  int64
	payload []byte
}

// parseFrame splits a raw datagram into fields by unescaped '/' and decodes
// it into one of the four frame kinds. The datagram must begin and end with
// '/'; PAYLOAD fields may themselves contain escaped '/' and '\'.
func parseFrame(data []byte) (frame, error) {
	if len(data) < 2 || data[0] != '/' || data[len(data)-1] != '/' {
		return frame{}, fmt.Errorf("%w: missing outer slashes", ErrMalformed)
	}

	fields, err := splitEscaped(data[1 : len(data)-1])
	if err != nil {
		return frame{}, err
	}
	if len(fields) == 0 {
		return frame{}, fmt.Errorf("%w: empty frame", ErrMalformed)
	}

	switch fields[0] {
	case "connect":
		if len(fields) != 2 {
			return frame{}, fmt.Errorf("%w: connect wants 1 field", ErrMalformed)
		}
		session, err := parseField(fields[1])
		if err != nil {
			return frame{}, err
		}
		return frame{kind: frameConnect, session: session}, nil

	case "data":
		if len(fields) != 4 {
			return frame{}, fmt.Errorf("%w: data wants 3 fields", ErrMalformed)
		}
		session, err := parseField(fields[1])
		if err != nil {
			return frame{}, err
		}
		pos, err := parseField(fields[2])
		if err != nil {
			return frame{}, err
		}
		return frame{kind: frameData, session: session, pos: pos, payload: []byte(fields[3])}, nil

	case "ack":
		if len(fields) != 3 {
			return frame{}, fmt.Errorf("%w: ack wants 2 fields", ErrMalformed)
		}
		session, err := parseField(fields[1])
		if err != nil {
			return frame{}, err
		}
		length, err := parseField(fields[2])
		if err != nil {
			return frame{}, err
		}
		return frame{kind: frameAck, session: session, length: length}, nil

	case "close":
		if len(fields) != 2 {
			return frame{}, fmt.Errorf("%w: close wants 1 field", ErrMalformed)
		}
		session, err := parseField(fields[1])
		if err != nil {
			return frame{}, err
		}
		return frame{kind: frameClose, session: session}, nil

	default:
		return frame{}, fmt.Errorf("%w: unknown frame kind %q", ErrMalformed, fields[0])
	}
}

func parseField(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if v > maxFieldValue {
		return 0, fmt.Errorf("%w: %q", ErrFieldOutOfRange, s)
	}
	return v, nil
}

// splitEscaped splits on unescaped '/' and unescapes '\/' and '\\' within
// each field, in a single left-to-right pass.
func splitEscaped(b []byte) ([]string, error) {
	var fields []string
	var cur []byte

	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
			if i >= len(b) || (b[i] != '/' && b[i] != '\\') {
				return nil, fmt.Errorf("%w: dangling escape", ErrMalformed)
			}
			cur = append(cur, b[i])
		case '/':
			fields = append(fields, string(cur))
			cur = nil
		default:
			cur = append(cur, b[i])
		}
	}
	fields = append(fields, string(cur))
	return fields, nil
}

// escapePayload escapes '\' and '/' for embedding a PAYLOAD field in an
// outbound frame.
func escapePayload(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c == '\\' || c == '/' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return out
}

func encodeConnect(session int64) []byte {
	return []byte(fmt.Sprintf("/connect/%d/", session))
}

func encodeAck(session, length int64) []byte {
	return []byte(fmt.Sprintf("/ack/%d/%d/", session, length))
}

func encodeClose(session int64) []byte {
	return []byte(fmt.Sprintf("/close/%d/", session))
}

func encodeData(session, pos int64, payload []byte) []byte {
	prefix := fmt.Sprintf("/data/%d/%d/", session, pos)
	return append(append([]byte(prefix), escapePayload(payload)...), '/')
}
