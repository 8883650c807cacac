package udpkv

import (
	"bytes"
	"context"
	"net"

	"github.com/protohackers/suite/internal/logger"
)

// Server dispatches datagrams against a Store and writes retrieve responses
// back out through the same shared socket requests arrive on.
type Server struct {
	store *Store
	conn  *net.UDPConn
}

// NewServer returns a Server that answers retrievals by writing through conn.
func NewServer(store *Store, conn *net.UDPConn) *Server {
	return &Server{store: store, conn: conn}
}

// HandleDatagram implements netutil.UDPHandler. A datagram containing "="
// is an insert; one without is a retrieve, answered with "key=value".
func (s *Server) HandleDatagram(ctx context.Context, data []byte, from *net.UDPAddr) {
	if i := bytes.IndexByte(data, '='); i >= 0 {
		key, value := string(data[:i]), string(data[i+1:])
		if err := s.store.Set(key, value); err != nil {
			logger.WarnCtx(ctx, "udpkv: set failed", logger.Err(err))
		}
		return
	}

	key := string(data)
	value, err := s.store.Get(key)
	if err != nil {
		logger.WarnCtx(ctx, "udpkv: get failed", logger.Err(err))
		return
	}
	resp := append([]byte(key+"="), value...)
	s.conn.WriteToUDP(resp, from)
}
