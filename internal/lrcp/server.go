package lrcp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/protohackers/suite/internal/logger"
)

// Server owns every active session, keyed by session ID, and the single
// shared UDP socket all of them write through.
type Server struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	conn     *net.UDPConn

	retryTimeout  time.Duration
	expireTimeout time.Duration
}

// NewServer returns a Server that will write replies out through conn,
// retransmitting unacknowledged data after retryTimeout of no progress and
// giving up on a session after expireTimeout. A zero value for either
// falls back to the §4.2 defaults.
func NewServer(conn *net.UDPConn, retryTimeout, expireTimeout time.Duration) *Server {
	if retryTimeout <= 0 {
		retryTimeout = DefaultRetryTimeout
	}
	if expireTimeout <= 0 {
		expireTimeout = DefaultExpireTimeout
	}
	return &Server{
		sessions:      make(map[int64]*Session),
		conn:          conn,
		retryTimeout:  retryTimeout,
		expireTimeout: expireTimeout,
	}
}

func (s *Server) writeTo(addr *net.UDPAddr, b []byte) {
	s.conn.WriteToUDP(b, addr)
}

func (s *Server) getSession(id int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) dropSession(id int64) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.Close()
	}
}

// HandleDatagram implements netutil.UDPHandler, decoding one datagram and
// driving the session state machine from §4.2.
func (s *Server) HandleDatagram(ctx context.Context, data []byte, from *net.UDPAddr) {
	f, err := parseFrame(data)
	if err != nil {
		logger.DebugCtx(ctx, "lrcp: discarding malformed datagram", logger.Err(err))
		return
	}

	switch f.kind {
	case frameConnect:
		s.mu.Lock()
		sess, exists := s.sessions[f.session]
		if !exists {
			sess = newSession(f.session, from, s.writeTo, s.retryTimeout, s.expireTimeout)
			sess.onData = newLineReverser(sess)
			s.sessions[f.session] = sess
		}
		s.mu.Unlock()
		s.writeTo(from, encodeAck(f.session, sess.recvLenSnapshot()))

	case frameData:
		sess, ok := s.getSession(f.session)
		if !ok {
			s.writeTo(from, encodeClose(f.session))
			return
		}
		newBytes, ackLen := sess.handleData(f.pos, f.payload)
		s.writeTo(from, encodeAck(f.session, ackLen))
		if len(newBytes) > 0 && sess.onData != nil {
			sess.onData(newBytes)
		}

	case frameAck:
		sess, ok := s.getSession(f.session)
		if !ok {
			s.writeTo(from, encodeClose(f.session))
			return
		}
		shouldRetransmit, ok := sess.handleAck(f.length)
		if !ok {
			s.writeTo(from, encodeClose(f.session))
			s.dropSession(f.session)
			return
		}
		if shouldRetransmit {
			sess.transmitPending()
		}

	case frameClose:
		s.writeTo(from, encodeClose(f.session))
		s.dropSession(f.session)
	}
}

// recvLenSnapshot reads recv_len under lock, for the initial connect ack.
func (s *Session) recvLenSnapshot() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recvLen
}
