// Package meansend implements the means-to-an-end server (§6): fixed 9-byte
// binary records (u8 type, i32 a, i32 b) per connection, with a private
// price history per socket — nothing is shared across connections.
package meansend

import (
	"context"
	"net"
	"sort"

	"github.com/protohackers/suite/internal/wire"
)

const (
	msgInsert = 'I'
	msgQuery  = 'Q'
)

type record struct {
	timestamp int32
	price     int32
}

// Handle implements netutil.TCPHandler.
func Handle() func(ctx context.Context, conn net.Conn, connID uint64) {
	return func(ctx context.Context, conn net.Conn, connID uint64) {
		h := &connHandler{r: wire.NewReader(conn), conn: conn}
		h.run()
	}
}

type connHandler struct {
	r       *wire.Reader
	conn    net.Conn
	records []record
}

func (h *connHandler) run() {
	for {
		kind, err := h.r.ReadU8()
		if err != nil {
			return
		}
		a, err := readI32(h.r)
		if err != nil {
			return
		}
		b, err := readI32(h.r)
		if err != nil {
			return
		}

		switch kind {
		case msgInsert:
			h.insert(a, b)
		case msgQuery:
			if !h.query(a, b) {
				return
			}
		default:
			h.conn.Write([]byte("ERR unknown message type\n"))
			return
		}
	}
}

// insert adds (timestamp, price), keeping records sorted by timestamp so
// query can binary-search its range.
func (h *connHandler) insert(timestamp, price int32) {
	i := sort.Search(len(h.records), func(i int) bool { return h.records[i].timestamp >= timestamp })
	h.records = append(h.records, record{})
	copy(h.records[i+1:], h.records[i:])
	h.records[i] = record{timestamp: timestamp, price: price}
}

// query answers the mean price in [mintime, maxtime] inclusive, 0 if the
// range is inverted or empty, and writes the i32 reply.
func (h *connHandler) query(mintime, maxtime int32) bool {
	var mean int32
	if maxtime >= mintime {
		left := sort.Search(len(h.records), func(i int) bool { return h.records[i].timestamp >= mintime })
		right := sort.Search(len(h.records), func(i int) bool { return h.records[i].timestamp > maxtime })
		if right > left {
			var sum int64
			for _, rec := range h.records[left:right] {
				sum += int64(rec.price)
			}
			mean = int32(sum / int64(right-left))
		}
	}
	w := wire.NewWriter().WriteU32(uint32(mean))
	_, err := h.conn.Write(w.Bytes())
	return err == nil
}

func readI32(r *wire.Reader) (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}
