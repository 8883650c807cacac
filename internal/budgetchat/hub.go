// Package budgetchat implements the chat relay (§6, §11.6): a name-gated
// join, broadcast joins/leaves, and line relay prefixed with the sender's
// name.
package budgetchat

import (
	"net"
	"regexp"
	"sync"
)

var validName = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

type client struct {
	id      uint64
	name    string
	conn    net.Conn
	writeMu sync.Mutex
}

func (c *client) send(line string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.Write([]byte(line + "\n"))
}

// Hub tracks every joined client by connection id, broadcasting relays and
// join/leave notices.
type Hub struct {
	mu      sync.Mutex
	clients map[uint64]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uint64]*client)}
}

// Join registers c and returns the names of the members already present
// (before c joins), snapshotted under the lock so a concurrent join can't
// be missed or double-counted.
func (h *Hub) Join(c *client) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.clients))
	for _, other := range h.clients {
		names = append(names, other.name)
	}
	h.clients[c.id] = c
	return names
}

// Leave removes id, reporting whether it had been a member.
func (h *Hub) Leave(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	return ok
}

// Broadcast relays msg to every member except excludeID.
func (h *Hub) Broadcast(excludeID uint64, msg string) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		if id != excludeID {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.send(msg)
	}
}
