// Package pestcontrol implements the Pest-Control Mediator: a stateful
// broker that multiplexes site-visit reports from untrusted clients against
// an upstream population-authority connection, reconciling observed
// populations with target ranges through a policy-lifecycle state machine.
package pestcontrol

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/protohackers/suite/internal/wire"
)

const (
	msgHello             = 0x50
	msgError             = 0x51
	msgOK                = 0x52
	msgDialAuthority     = 0x53
	msgTargetPopulations = 0x54
	msgCreatePolicy      = 0x55
	msgDeletePolicy      = 0x56
	msgPolicyResult      = 0x57
	msgSiteVisit         = 0x58
)

const (
	actCull     = 0x90
	actConserve = 0xA0
)

const (
	wrapperSize  = 6 // type(1) + length(4) + checksum(1)
	maxFrameSize = 1 << 20
	maxStrLen    = maxFrameSize
)

// ErrProtocol covers every framing- or payload-level violation: bad
// checksum, over-length frame, truncated payload, unused trailing bytes, or
// an unexpected message type/sequence.
var ErrProtocol = errors.New("pestcontrol: protocol error")

// ErrContinuable marks a protocol violation that does not end the
// connection: a bad handshake declaration, an unexpected message type, or
// conflicting duplicate entries within one message. Everything else
// (checksum, over-length, truncated, unused trailing bytes) is fatal.
var ErrContinuable = errors.New("pestcontrol: continuable violation")

func protoErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

func continuableErr(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrProtocol, ErrContinuable, fmt.Sprintf(format, args...))
}

// readFrame reads one length-prefixed, checksummed frame and returns its
// type and payload. The checksum is verified before payload decoding begins.
func readFrame(r *wire.Reader) (msgType uint8, payload []byte, err error) {
	header := make([]byte, 5)
	if _, err = io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	msgType = header[0]
	length := uint32(header[1])<<24 | uint32(header[2])<<16 | uint32(header[3])<<8 | uint32(header[4])
	if length >= maxFrameSize {
		return 0, nil, protoErr("message is too long")
	}
	if length < wrapperSize {
		return 0, nil, protoErr("message shorter than its wrapper")
	}

	rest := make([]byte, length-5)
	if _, err = io.ReadFull(r, rest); err != nil {
		return 0, nil, err
	}

	checksum := rest[len(rest)-1]
	payload = rest[:len(rest)-1]

	sum := uint32(msgType) + uint32(header[1]) + uint32(header[2]) + uint32(header[3]) + uint32(header[4]) + uint32(checksum)
	for _, b := range payload {
		sum += uint32(b)
	}
	if sum%256 != 0 {
		return 0, nil, protoErr("invalid checksum")
	}
	return msgType, payload, nil
}

// encodeFrame wraps a message type and payload into a length-prefixed,
// checksummed frame.
func encodeFrame(msgType uint8, payload []byte) []byte {
	length := uint32(len(payload) + wrapperSize)
	buf := make([]byte, 0, length)
	buf = append(buf, msgType, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	buf = append(buf, payload...)

	var sum uint32
	for _, b := range buf {
		sum += uint32(b)
	}
	checksum := byte((256 - sum%256) % 256)
	return append(buf, checksum)
}

func newPayloadReader(payload []byte) *wire.Reader {
	return wire.NewReader(bytes.NewReader(payload))
}

// checkEnd returns a protocol error if the reader has unread bytes left in
// the payload it was handed.
func checkEnd(r *wire.Reader) error {
	if _, err := r.ReadU8(); err != io.EOF {
		return protoErr("unused bytes in message")
	}
	return nil
}

// mapSizeHint bounds a map pre-size hint derived from an untrusted count
// field: a frame can declare a huge count backed by a short payload, and
// make(map[K]V, count) allocates for count regardless of what's actually
// readable. minEntrySize is the fewest bytes each entry can possibly take
// on the wire, so count is never trusted past remaining/minEntrySize.
func mapSizeHint(count uint32, remaining, minEntrySize int) int {
	if minEntrySize <= 0 || remaining <= 0 {
		return 0
	}
	if max := remaining / minEntrySize; uint32(max) < count {
		return max
	}
	return int(count)
}

type helloMsg struct {
	protocol string
	version  uint32
}

func decodeHello(payload []byte) (helloMsg, error) {
	r := newPayloadReader(payload)
	protocol, err := r.ReadStr32(maxStrLen)
	if err != nil {
		return helloMsg{}, protoErr("truncated Hello")
	}
	version, err := r.ReadU32()
	if err != nil {
		return helloMsg{}, protoErr("truncated Hello")
	}
	if err := checkEnd(r); err != nil {
		return helloMsg{}, err
	}
	return helloMsg{protocol: protocol, version: version}, nil
}

func encodeHello() []byte {
	w := wire.NewWriter().WriteStr32("pestcontrol").WriteU32(1)
	return encodeFrame(msgHello, w.Bytes())
}

func encodeError(message string) []byte {
	w := wire.NewWriter().WriteStr32(message)
	return encodeFrame(msgError, w.Bytes())
}

func encodeOK() []byte {
	return encodeFrame(msgOK, nil)
}

func encodeDialAuthority(site uint32) []byte {
	w := wire.NewWriter().WriteU32(site)
	return encodeFrame(msgDialAuthority, w.Bytes())
}

type targetRange struct{ min, max uint32 }

type targetPopulationsMsg struct {
	site    uint32
	targets map[string]targetRange
}

func decodeTargetPopulations(payload []byte) (targetPopulationsMsg, error) {
	r := newPayloadReader(payload)
	site, err := r.ReadU32()
	if err != nil {
		return targetPopulationsMsg{}, protoErr("truncated TargetPopulations")
	}
	count, err := r.ReadU32()
	if err != nil {
		return targetPopulationsMsg{}, protoErr("truncated TargetPopulations")
	}

	targets := make(map[string]targetRange, mapSizeHint(count, len(payload)-8, 12))
	for i := uint32(0); i < count; i++ {
		species, err := r.ReadStr32(maxStrLen)
		if err != nil {
			return targetPopulationsMsg{}, protoErr("truncated TargetPopulations")
		}
		min, err := r.ReadU32()
		if err != nil {
			return targetPopulationsMsg{}, protoErr("truncated TargetPopulations")
		}
		max, err := r.ReadU32()
		if err != nil {
			return targetPopulationsMsg{}, protoErr("truncated TargetPopulations")
		}
		if existing, ok := targets[species]; ok && existing != (targetRange{min, max}) {
			return targetPopulationsMsg{}, continuableErr("conflicting target for species %q", species)
		}
		targets[species] = targetRange{min, max}
	}
	if err := checkEnd(r); err != nil {
		return targetPopulationsMsg{}, err
	}
	return targetPopulationsMsg{site: site, targets: targets}, nil
}

func encodeCreatePolicy(species string, action uint8) []byte {
	w := wire.NewWriter().WriteStr32(species).WriteU8(action)
	return encodeFrame(msgCreatePolicy, w.Bytes())
}

func encodeDeletePolicy(policyID uint32) []byte {
	w := wire.NewWriter().WriteU32(policyID)
	return encodeFrame(msgDeletePolicy, w.Bytes())
}

type policyResultMsg struct{ policyID uint32 }

func decodePolicyResult(payload []byte) (policyResultMsg, error) {
	r := newPayloadReader(payload)
	id, err := r.ReadU32()
	if err != nil {
		return policyResultMsg{}, protoErr("truncated PolicyResult")
	}
	if err := checkEnd(r); err != nil {
		return policyResultMsg{}, err
	}
	return policyResultMsg{policyID: id}, nil
}

type siteVisitMsg struct {
	site        uint32
	populations map[string]uint32
}

func decodeSiteVisit(payload []byte) (siteVisitMsg, error) {
	r := newPayloadReader(payload)
	site, err := r.ReadU32()
	if err != nil {
		return siteVisitMsg{}, protoErr("truncated SiteVisit")
	}
	count, err := r.ReadU32()
	if err != nil {
		return siteVisitMsg{}, protoErr("truncated SiteVisit")
	}
	populations := make(map[string]uint32, mapSizeHint(count, len(payload)-8, 8))
	for i := uint32(0); i < count; i++ {
		species, err := r.ReadStr32(maxStrLen)
		if err != nil {
			return siteVisitMsg{}, protoErr("truncated SiteVisit")
		}
		n, err := r.ReadU32()
		if err != nil {
			return siteVisitMsg{}, protoErr("truncated SiteVisit")
		}
		if existing, ok := populations[species]; ok && existing != n {
			return siteVisitMsg{}, continuableErr("conflicting counts for species %q", species)
		}
		populations[species] = n
	}
	if err := checkEnd(r); err != nil {
		return siteVisitMsg{}, err
	}
	return siteVisitMsg{site: site, populations: populations}, nil
}
