package meansend

import (
	"context"
	"net"
	"testing"

	"github.com/protohackers/suite/internal/netutil"
	"github.com/protohackers/suite/internal/wire"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) net.Conn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	srv := netutil.NewTCPServer("meansend-test", ln, Handle())
	go srv.Serve(context.Background())
	t.Cleanup(srv.Stop)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendRecord(t *testing.T, conn net.Conn, kind byte, a, b int32) {
	t.Helper()
	w := wire.NewWriter().WriteU8(kind).WriteU32(uint32(a)).WriteU32(uint32(b))
	_, err := conn.Write(w.Bytes())
	require.NoError(t, err)
}

func readI32(t *testing.T, conn net.Conn) int32 {
	t.Helper()
	r := wire.NewReader(conn)
	v, err := r.ReadU32()
	require.NoError(t, err)
	return int32(v)
}

func TestQueryReturnsMeanWithinRange(t *testing.T) {
	conn := newTestClient(t)
	sendRecord(t, conn, msgInsert, 12345, 101)
	sendRecord(t, conn, msgInsert, 12346, 102)
	sendRecord(t, conn, msgInsert, 12347, 100)
	sendRecord(t, conn, msgQuery, 12345, 12347)
	require.Equal(t, int32(101), readI32(t, conn))
}

func TestQueryWithInvertedRangeReturnsZero(t *testing.T) {
	conn := newTestClient(t)
	sendRecord(t, conn, msgInsert, 1, 50)
	sendRecord(t, conn, msgQuery, 10, 5)
	require.Equal(t, int32(0), readI32(t, conn))
}

func TestQueryWithNoMatchingRecordsReturnsZero(t *testing.T) {
	conn := newTestClient(t)
	sendRecord(t, conn, msgInsert, 1, 50)
	sendRecord(t, conn, msgQuery, 100, 200)
	require.Equal(t, int32(0), readI32(t, conn))
}

func TestPriceHistoryIsPrivatePerConnection(t *testing.T) {
	connA := newTestClient(t)
	connB := newTestClient(t)

	sendRecord(t, connA, msgInsert, 1, 1000)
	sendRecord(t, connB, msgQuery, 0, 100)
	require.Equal(t, int32(0), readI32(t, connB))
}
