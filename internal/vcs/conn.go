package vcs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/protohackers/suite/internal/logger"
)

// Handle implements netutil.TCPHandler for the versioned file store.
func Handle(store *Store) func(ctx context.Context, conn net.Conn, connID uint64) {
	return func(ctx context.Context, conn net.Conn, connID uint64) {
		h := &connHandler{store: store, conn: conn, r: bufio.NewReader(conn)}
		h.run(ctx)
	}
}

// connHandler drives one connection through the line protocol described in
// §4.3: a READY prompt after every completed exchange, with PUT's raw body
// read interleaved between command lines.
type connHandler struct {
	store *Store
	conn  net.Conn
	r     *bufio.Reader
}

func (h *connHandler) run(ctx context.Context) {
	if !h.writeString("READY\n") {
		return
	}

	for {
		line, err := h.r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.DebugCtx(ctx, "connection read error", logger.Err(err))
			}
			return
		}
		if !h.handleLine(strings.TrimRight(line, "\r\n")) {
			return
		}
	}
}

// handleLine returns false when the connection should close.
func (h *connHandler) handleLine(line string) bool {
	cmd := parseCommand(line)
	switch cmd.kind {
	case cmdIllegal:
		return h.writeString(fmt.Sprintf("ERR illegal method: %s\n", cmd.verb))

	case cmdUsageError:
		return h.writeReady("ERR " + cmd.usageErr)

	case cmdHelp:
		return h.writeReady("OK usage: HELP|GET|PUT|LIST")

	case cmdGet:
		return h.handleGet(cmd)

	case cmdList:
		return h.handleList(cmd)

	case cmdPut:
		return h.handlePut(cmd)
	}
	return true
}

func (h *connHandler) handleGet(cmd command) bool {
	if err := validateFilePath(cmd.path); err != nil {
		return h.writeString("ERR illegal file name\n")
	}

	data, _, err := h.store.Get(cmd.path, cmd.revision)
	if err != nil {
		if errors.Is(err, ErrNoSuchFile) {
			return h.writeString("ERR no such file\n")
		}
		return h.writeString("ERR no such revision\n")
	}

	if !h.writeString(fmt.Sprintf("OK %d\n", len(data))) {
		return false
	}
	if !h.write(data) {
		return false
	}
	return h.writeReady("")
}

func (h *connHandler) handleList(cmd command) bool {
	if err := validateDirPath(cmd.path); err != nil {
		return h.writeString("ERR illegal dir name\n")
	}

	entries := h.store.List(cmd.path)
	if !h.writeString(fmt.Sprintf("OK %d\n", len(entries))) {
		return false
	}
	for _, e := range entries {
		if e.IsDir {
			if !h.writeString(fmt.Sprintf("%s/ DIR\n", e.Name)) {
				return false
			}
			continue
		}
		if !h.writeString(fmt.Sprintf("%s r%d\n", e.Name, e.Rev)) {
			return false
		}
	}
	return h.writeReady("")
}

func (h *connHandler) handlePut(cmd command) bool {
	if err := validateFilePath(cmd.path); err != nil {
		if !h.discardBody(cmd.length) {
			return false
		}
		return h.writeReady("ERR illegal file name")
	}

	body := make([]byte, cmd.length)
	if _, err := io.ReadFull(h.r, body); err != nil {
		return false
	}

	if err := ValidateContent(body); err != nil {
		return h.writeReady("ERR text files only")
	}

	rev := h.store.Put(cmd.path, body)
	return h.writeReady(fmt.Sprintf("OK r%d", rev))
}

// discardBody drains a PUT's body bytes so the connection's line framing
// stays in sync even when the path is rejected before the body is read.
func (h *connHandler) discardBody(length int) bool {
	_, err := io.CopyN(io.Discard, h.r, int64(length))
	return err == nil
}

func (h *connHandler) write(b []byte) bool {
	_, err := h.conn.Write(b)
	return err == nil
}

func (h *connHandler) writeString(s string) bool {
	_, err := io.WriteString(h.conn, s)
	return err == nil
}

// writeReady writes msg (if non-empty) followed by a READY prompt, each on
// its own line.
func (h *connHandler) writeReady(msg string) bool {
	if msg != "" && !h.writeString(msg + "\n") {
		return false
	}
	return h.writeString("READY\n")
}
