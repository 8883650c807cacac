package pestcontrol

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/protohackers/suite/internal/logger"
	"github.com/protohackers/suite/internal/wire"
)

// authorityLink is the one upstream connection per site, dialed lazily and
// reused across client visits until it drops.
type authorityLink struct {
	site uint32
	conn net.Conn

	writeMu sync.Mutex
}

func (l *authorityLink) send(frame []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, err := l.conn.Write(frame)
	return err
}

// dialAuthority opens a new connection to addr for site, performs the
// Hello/DialAuthority handshake, and starts the link's read loop.
func (srv *Server) dialAuthority(ctx context.Context, site uint32) (*authorityLink, error) {
	conn, err := net.Dial("tcp", srv.authorityAddr)
	if err != nil {
		return nil, protoErr("failed to connect AS: %s", err)
	}
	link := &authorityLink{site: site, conn: conn}
	if err := link.send(encodeHello()); err != nil {
		conn.Close()
		return nil, err
	}
	if err := link.send(encodeDialAuthority(site)); err != nil {
		conn.Close()
		return nil, err
	}

	go srv.runAuthorityLink(ctx, link)
	return link, nil
}

func (srv *Server) runAuthorityLink(ctx context.Context, link *authorityLink) {
	defer func() {
		link.conn.Close()
		srv.authorityDropped(link.site)
	}()

	r := wire.NewReader(link.conn)
	gotHello := false
	for {
		msgType, payload, err := readFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.DebugCtx(ctx, "authority link framing error", logger.Err(err))
				link.send(encodeError(err.Error()))
			}
			return
		}

		if msgType == msgHello {
			hello, herr := decodeHello(payload)
			if herr != nil {
				link.send(encodeError(herr.Error()))
				return
			}
			if hello.protocol != "pestcontrol" || hello.version != 1 {
				link.send(encodeError("unexpected protocol or version"))
				continue
			}
			gotHello = true
			continue
		}
		if !gotHello {
			link.send(encodeError("did not get Hello"))
			continue
		}

		if err := srv.handleAuthorityMessage(link, msgType, payload); err != nil {
			link.send(encodeError(err.Error()))
			if !errors.Is(err, ErrContinuable) {
				return
			}
		}
	}
}

func (srv *Server) handleAuthorityMessage(link *authorityLink, msgType uint8, payload []byte) error {
	switch msgType {
	case msgError, msgOK:
		return nil

	case msgTargetPopulations:
		msg, err := decodeTargetPopulations(payload)
		if err != nil {
			return err
		}
		if msg.site != link.site {
			return continuableErr("authority site mismatch")
		}
		srv.setTargetPopulations(msg.site, msg.targets)
		return nil

	case msgPolicyResult:
		msg, err := decodePolicyResult(payload)
		if err != nil {
			return err
		}
		srv.resolvePendingPolicy(link, msg.policyID)
		return nil

	default:
		return continuableErr("unexpected message type 0x%02x", msgType)
	}
}
