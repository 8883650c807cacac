package netutil

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// udpPollInterval bounds how long Serve blocks in ReadFromUDP before
// checking the shutdown channel, so Stop returns promptly even though UDP
// sockets have no Accept to unblock on close.
const udpPollInterval = 500 * time.Millisecond

// UDPHandler processes one received datagram. Implementations must not
// block for long, since a single goroutine polls the shared socket by
// default — protocol engines that need per-peer state dispatch to their own
// goroutines internally (see internal/lrcp).
type UDPHandler func(ctx context.Context, data []byte, from *net.UDPAddr)

// UDPServer polls a single shared net.PacketConn on one goroutine, handing
// each datagram to Handler synchronously. This matches the portmap-style
// polling loop: SetReadDeadline bounds each read so the loop can observe
// shutdown without a second goroutine or a control pipe.
type UDPServer struct {
	Service string
	Conn    *net.UDPConn
	Handler UDPHandler

	maxDatagram int

	wg       sync.WaitGroup
	shutdown chan struct{}
	stopOnce sync.Once
}

// NewUDPServer returns a server bound to an already-listening UDP socket.
// maxDatagram bounds the read buffer (cmd/lrcp and cmd/udpkv both pass 1024,
// which covers the Reliable-Datagram Transport's 1000-byte framing limit).
func NewUDPServer(service string, conn *net.UDPConn, maxDatagram int, handler UDPHandler) *UDPServer {
	return &UDPServer{
		Service:     service,
		Conn:        conn,
		Handler:     handler,
		maxDatagram: maxDatagram,
		shutdown:    make(chan struct{}),
	}
}

// Serve polls the socket until Stop is called or a non-timeout error occurs.
func (s *UDPServer) Serve(ctx context.Context) error {
	buf := make([]byte, s.maxDatagram)
	for {
		select {
		case <-s.shutdown:
			return nil
		default:
		}

		s.Conn.SetReadDeadline(time.Now().Add(udpPollInterval))
		n, from, err := s.Conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			select {
			case <-s.shutdown:
				return nil
			default:
				return err
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		s.Handler(ctx, data, from)
	}
}

// Stop signals Serve to return and closes the socket.
func (s *UDPServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdown)
		s.Conn.Close()
	})
	s.wg.Wait()
}
