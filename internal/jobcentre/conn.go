package jobcentre

import (
	"bufio"
	"context"
	"net"

	"github.com/protohackers/suite/internal/logger"
)

// Handle implements netutil.TCPHandler for the job centre: newline-delimited
// JSON requests, one response per request except a get{wait:true} that
// finds nothing, which blocks until a matching put/abort/disconnect
// delivers a job.
func Handle(hub *Hub) func(ctx context.Context, conn net.Conn, connID uint64) {
	return func(ctx context.Context, conn net.Conn, connID uint64) {
		h := &connHandler{hub: hub, conn: conn, connID: connID}
		h.run(ctx)
	}
}

type connHandler struct {
	hub    *Hub
	conn   net.Conn
	connID uint64
}

func (h *connHandler) run(ctx context.Context) {
	defer h.hub.Disconnect(h.connID)

	lines := make(chan []byte)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(h.conn)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			lines <- line
		}
		if err := scanner.Err(); err != nil {
			logger.DebugCtx(ctx, "connection read error", logger.Err(err))
		}
	}()

	var pending chan *Job
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if pending != nil {
				if !h.writeLine(errorResponse("request already pending")) {
					return
				}
				continue
			}
			resp, w := processLine(h.hub, h.connID, line)
			if w != nil {
				pending = w.deliver
				continue
			}
			if !h.writeLine(resp) {
				return
			}

		case job := <-pending:
			pending = nil
			if !h.writeLine(jobResponse(job)) {
				return
			}
		}
	}
}

func (h *connHandler) writeLine(b []byte) bool {
	b = append(b, '\n')
	_, err := h.conn.Write(b)
	return err == nil
}
