package pestcontrol

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/protohackers/suite/internal/logger"
	"github.com/protohackers/suite/internal/wire"
)

// Handle implements netutil.TCPHandler for client connections: the mediator
// sends Hello immediately on accept, then serves SiteVisit messages.
func Handle(srv *Server) func(ctx context.Context, conn net.Conn, connID uint64) {
	return func(ctx context.Context, conn net.Conn, connID uint64) {
		if _, err := conn.Write(encodeHello()); err != nil {
			return
		}
		serveClient(ctx, srv, conn)
	}
}

func serveClient(ctx context.Context, srv *Server, conn net.Conn) {
	r := wire.NewReader(conn)
	gotHello := false

	for {
		msgType, payload, err := readFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.DebugCtx(ctx, "client connection framing error", logger.Err(err))
				conn.Write(encodeError(err.Error()))
			}
			return
		}

		if msgType == msgHello {
			hello, herr := decodeHello(payload)
			if herr != nil {
				conn.Write(encodeError(herr.Error()))
				return
			}
			if hello.protocol != "pestcontrol" || hello.version != 1 {
				conn.Write(encodeError("unexpected protocol or version"))
				continue
			}
			gotHello = true
			continue
		}
		if !gotHello {
			conn.Write(encodeError("did not get Hello"))
			continue
		}

		if err := handleClientMessage(ctx, srv, msgType, payload); err != nil {
			conn.Write(encodeError(err.Error()))
			if !errors.Is(err, ErrContinuable) {
				return
			}
		}
	}
}

func handleClientMessage(ctx context.Context, srv *Server, msgType uint8, payload []byte) error {
	switch msgType {
	case msgError, msgOK:
		return nil

	case msgSiteVisit:
		msg, err := decodeSiteVisit(payload)
		if err != nil {
			return err
		}
		return srv.handleSiteVisit(ctx, msg.site, msg.populations)

	default:
		return continuableErr("unexpected message type 0x%02x", msgType)
	}
}
