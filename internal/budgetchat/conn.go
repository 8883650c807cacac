package budgetchat

import (
	"bufio"
	"context"
	"net"
	"strings"
)

// Handle implements netutil.TCPHandler.
func Handle(hub *Hub) func(ctx context.Context, conn net.Conn, connID uint64) {
	return func(ctx context.Context, conn net.Conn, connID uint64) {
		h := &connHandler{hub: hub, c: &client{id: connID, conn: conn}}
		h.run()
	}
}

type connHandler struct {
	hub *Hub
	c   *client
}

func (h *connHandler) run() {
	h.c.send("Welcome. Please enter a name: ")

	r := bufio.NewReader(h.c.conn)
	nameLine, err := r.ReadString('\n')
	if err != nil {
		return
	}
	name := strings.TrimRight(nameLine, "\r\n")
	if name == "" || !validName.MatchString(name) {
		h.c.send("Illegal name")
		return
	}
	h.c.name = name

	others := h.hub.Join(h.c)
	h.c.send("* Users online: " + strings.Join(others, ", "))
	h.hub.Broadcast(h.c.id, "* "+name+" has joined")

	defer func() {
		if h.hub.Leave(h.c.id) {
			h.hub.Broadcast(h.c.id, "* "+name+" has left")
		}
	}()

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		msg := strings.TrimRight(line, "\r\n")
		if !isASCII(msg) {
			return
		}
		h.hub.Broadcast(h.c.id, "["+name+"] "+msg)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
