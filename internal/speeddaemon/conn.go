package speeddaemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/protohackers/suite/internal/logger"
	"github.com/protohackers/suite/internal/wire"
)

type role int

const (
	roleUnclassified role = iota
	roleCamera
	roleDispatcher
)

// connHandler drives one accepted connection through the per-connection
// state machine described in §4.1: unclassified until an IAmCamera or
// IAmDispatcher message arrives, at most one WantHeartbeat, and a dedicated
// write goroutine so cross-connection ticket delivery never races the
// connection's own writes.
type connHandler struct {
	srv    *Server
	conn   net.Conn
	connID uint64

	send chan []byte
	role role

	camRoad, camMile, camLimit uint16
	dispatchRoads              []uint16

	heartbeatSet bool
	stopHB       chan struct{}
}

// Handle implements netutil.TCPHandler.
func Handle(srv *Server) func(ctx context.Context, conn net.Conn, connID uint64) {
	return func(ctx context.Context, conn net.Conn, connID uint64) {
		h := &connHandler{
			srv:    srv,
			conn:   conn,
			connID: connID,
			send:   make(chan []byte, 64),
			stopHB: make(chan struct{}),
		}
		h.run(ctx)
	}
}

func (h *connHandler) run(ctx context.Context) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for frame := range h.send {
			if _, err := h.conn.Write(frame); err != nil {
				return
			}
		}
	}()

	defer func() {
		close(h.stopHB)
		if h.role == roleDispatcher {
			h.srv.detachDispatcher(h.connID, h.dispatchRoads)
		}
		close(h.send)
		<-writerDone
	}()

	r := wire.NewReader(h.conn)
	for {
		msgType, payload, err := readMessage(r)
		if err != nil {
			if errors.Is(err, ErrProtocolViolation) {
				h.sendError(err.Error())
				return
			}
			if !errors.Is(err, io.EOF) {
				logger.DebugCtx(ctx, "connection read error", logger.Err(err))
			}
			return
		}

		if err := h.dispatch(ctx, msgType, payload); err != nil {
			h.sendError(err.Error())
			return
		}
	}
}

func (h *connHandler) dispatch(ctx context.Context, msgType uint8, payload any) error {
	switch msgType {
	case msgIAmCamera:
		if h.role != roleUnclassified {
			return errProtocol("already classified")
		}
		m := payload.(iAmCameraMsg)
		if _, err := h.srv.claimCamera(m.road, m.mile, m.limit); err != nil {
			return err
		}
		h.role = roleCamera
		h.camRoad, h.camMile, h.camLimit = m.road, m.mile, m.limit
		return nil

	case msgIAmDispatcher:
		if h.role != roleUnclassified {
			return errProtocol("already classified")
		}
		m := payload.(iAmDispatcherMsg)
		h.role = roleDispatcher
		h.dispatchRoads = m.roads
		h.srv.attachDispatcher(h.connID, m.roads, h.send)
		return nil

	case msgWantHeartbeat:
		if h.heartbeatSet {
			return errProtocol("heartbeat already requested")
		}
		h.heartbeatSet = true
		interval := payload.(uint32)
		if interval > 0 {
			h.startHeartbeat(time.Duration(interval) * 100 * time.Millisecond)
		}
		return nil

	case msgPlate:
		if h.role != roleCamera {
			return errProtocol("Plate received outside Camera role")
		}
		m := payload.(plateMsg)
		h.srv.observePlate(h.camRoad, h.camMile, h.camLimit, m)
		return nil

	default:
		return errProtocol("unexpected message type")
	}
}

func (h *connHandler) startHeartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case h.send <- encodeHeartbeat():
				default:
				}
			case <-h.stopHB:
				return
			}
		}
	}()
}

func (h *connHandler) sendError(msg string) {
	frame, err := encodeError(msg)
	if err != nil {
		return
	}
	h.conn.Write(frame)
}

func errProtocol(msg string) error {
	return fmt.Errorf("%w: %s", ErrProtocolViolation, msg)
}
