package lrcp

import (
	"net"
	"sync"
	"time"
)

// DefaultRetryTimeout and DefaultExpireTimeout are the retransmission
// timers from §4.2: retransmit the unacknowledged tail after
// DefaultRetryTimeout of no progress, give up and close after
// DefaultExpireTimeout. A Server may override both via NewServer.
const (
	DefaultRetryTimeout  = 1 * time.Second
	DefaultExpireTimeout = 60 * time.Second
)

// Session is one logical reliable byte stream multiplexed onto UDP by
// integer ID. All mutable fields are guarded by mu; the retransmission
// timer runs on its own goroutine (tick, not a backgroundheartbeat thread
// touching the socket directly — it only ever calls Server.writeTo).
type Session struct {
	mu sync.Mutex

	id   int64
	addr *net.UDPAddr

	recvLen int64
	recvBuf []byte

	sendBuf    []byte
	sendLen    int64
	sendAckLen int64

	// lastAck is the last time an ack advanced sendAckLen, or the time data
	// became outstanding after everything sent had been acked (session
	// creation, if neither yet); it is the clock expiry is measured against.
	// lastRetry paces the retransmit cadence and must never feed expiry,
	// or a peer that keeps triggering retransmits without acking would
	// never be reclaimed.
	lastAck   time.Time
	lastRetry time.Time
	closed    bool

	retryTimeout  time.Duration
	expireTimeout time.Duration

	writeTo func(addr *net.UDPAddr, b []byte)
	onData  func(newBytes []byte)

	stop chan struct{}
}

func newSession(id int64, addr *net.UDPAddr, writeTo func(*net.UDPAddr, []byte), retryTimeout, expireTimeout time.Duration) *Session {
	now := time.Now()
	s := &Session{
		id:            id,
		addr:          addr,
		lastAck:       now,
		lastRetry:     now,
		writeTo:       writeTo,
		retryTimeout:  retryTimeout,
		expireTimeout: expireTimeout,
		stop:          make(chan struct{}),
	}
	go s.retransmitLoop()
	return s
}

// handleData appends the portion of payload not already received, per
// §4.2's data-handling rule, and returns the bytes newly appended to
// recv_buf so the caller can hand them to the application.
func (s *Session) handleData(pos int64, payload []byte) (newBytes []byte, ackLen int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos > s.recvLen {
		return nil, s.recvLen
	}

	skip := s.recvLen - pos
	if skip < int64(len(payload)) {
		appended := payload[skip:]
		s.recvBuf = append(s.recvBuf, appended...)
		s.recvLen += int64(len(appended))
		newBytes = appended
	}
	return newBytes, s.recvLen
}

// handleAck applies an ack/id/len frame. ok is false if the peer
// misbehaved (len > send_len) and the session must be closed.
func (s *Session) handleAck(length int64) (shouldRetransmit, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if length > s.sendLen {
		return false, false
	}
	if length <= s.sendAckLen {
		return false, true
	}

	s.sendBuf = s.sendBuf[length-s.sendAckLen:]
	s.sendAckLen = length
	s.lastAck = time.Now()
	return s.sendAckLen < s.sendLen, true
}

// Send enqueues bytes for delivery and attempts an immediate transmission
// of the outstanding tail.
func (s *Session) Send(data []byte) {
	s.mu.Lock()
	if s.sendAckLen == s.sendLen {
		// Nothing was outstanding, so the expiry and retry clocks start now.
		now := time.Now()
		s.lastAck = now
		s.lastRetry = now
	}
	s.sendBuf = append(s.sendBuf, data...)
	s.sendLen += int64(len(data))
	s.mu.Unlock()

	s.transmitPending()
}

func (s *Session) transmitPending() {
	s.mu.Lock()
	if s.sendAckLen >= s.sendLen || s.closed {
		s.mu.Unlock()
		return
	}
	// Cut the chunk so that its escaped form stays within maxPayloadBytes.
	n, size := 0, 0
	for n < len(s.sendBuf) {
		c := 1
		if s.sendBuf[n] == '/' || s.sendBuf[n] == '\\' {
			c = 2
		}
		if size+c > maxPayloadBytes {
			break
		}
		size += c
		n++
	}
	chunk := s.sendBuf[:n]
	ackLen := s.sendAckLen
	s.mu.Unlock()

	s.writeTo(s.addr, encodeData(s.id, ackLen, chunk))
}

func (s *Session) retransmitLoop() {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			now := time.Now()
			pending := s.sendAckLen < s.sendLen
			needsRetry := pending && now.Sub(s.lastRetry) > s.retryTimeout
			expired := pending && now.Sub(s.lastAck) > s.expireTimeout
			s.mu.Unlock()

			if expired {
				s.writeTo(s.addr, encodeClose(s.id))
				s.Close()
				return
			}
			if needsRetry {
				s.mu.Lock()
				s.lastRetry = now
				s.mu.Unlock()
				s.transmitPending()
			}
		}
	}
}

// Close marks the session dead and stops its retransmission goroutine.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.stop)
}
