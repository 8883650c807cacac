// Package netutil provides the shared accept-loop/server-harness used by all
// ten protocol engines: a TCP listener driving one handler goroutine per
// connection, a UDP listener polling a single shared socket, and the
// WaitGroup-plus-shutdown-channel-plus-sync.Once graceful stop discipline
// common to both.
package netutil

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/protohackers/suite/internal/logger"
)

// TCPHandler processes one accepted connection to completion. It must return
// when conn is closed or ctx is cancelled.
type TCPHandler func(ctx context.Context, conn net.Conn, connID uint64)

// TCPServer accepts connections on a net.Listener and runs Handler for each
// on its own goroutine, tracked by a WaitGroup so Stop can block until every
// in-flight connection has been given a chance to unwind.
type TCPServer struct {
	Service  string
	Listener net.Listener
	Handler  TCPHandler

	nextConnID atomic.Uint64
	wg         sync.WaitGroup
	shutdown   chan struct{}
	stopOnce   sync.Once
}

// NewTCPServer returns a server bound to an already-listening listener.
func NewTCPServer(service string, ln net.Listener, handler TCPHandler) *TCPServer {
	return &TCPServer{
		Service:  service,
		Listener: ln,
		Handler:  handler,
		shutdown: make(chan struct{}),
	}
}

// Serve runs the accept loop until Stop is called or the listener errors.
// It blocks; callers typically run it in its own goroutine or under an
// errgroup.
func (s *TCPServer) Serve(ctx context.Context) error {
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				s.wg.Wait()
				return nil
			default:
				return err
			}
		}

		connID := s.nextConnID.Add(1)
		lc := logger.NewLogContext(s.Service, connID, conn.RemoteAddr().String())
		connCtx := logger.WithContext(ctx, lc)
		logger.InfoCtx(connCtx, "connection accepted",
			logger.ConnectionID(connID), logger.ClientAddr(conn.RemoteAddr().String()))

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer recoverConnection(connCtx, connID)
			defer conn.Close()
			s.Handler(connCtx, conn, connID)
			logger.InfoCtx(connCtx, "connection closed", logger.ConnectionID(connID))
		}()
	}
}

// Stop closes the listener and waits for all in-flight handlers to return.
func (s *TCPServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdown)
		s.Listener.Close()
	})
	s.wg.Wait()
}

func recoverConnection(ctx context.Context, connID uint64) {
	if r := recover(); r != nil {
		logger.ErrorCtx(ctx, "connection handler panicked",
			logger.ConnectionID(connID), "panic", r)
	}
}

// ConnectionUUID mints a correlation UUID for a connection. Serve does not
// call it; a connection's LogContext carries only the integer connection ID.
func ConnectionUUID() string {
	return uuid.NewString()
}
