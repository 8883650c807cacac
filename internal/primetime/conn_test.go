package primetime

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/protohackers/suite/internal/netutil"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (net.Conn, *bufio.Reader) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	srv := netutil.NewTCPServer("primetime-test", ln, Handle())
	go srv.Serve(context.Background())
	t.Cleanup(srv.Stop)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func TestPrimeRequestReportsTrue(t *testing.T) {
	conn, r := newTestClient(t)
	conn.Write([]byte(`{"method":"isPrime","number":7}` + "\n"))
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.JSONEq(t, `{"method":"isPrime","prime":true}`, line)
}

func TestCompositeRequestReportsFalse(t *testing.T) {
	conn, r := newTestClient(t)
	conn.Write([]byte(`{"method":"isPrime","number":8}` + "\n"))
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.JSONEq(t, `{"method":"isPrime","prime":false}`, line)
}

func TestNonIntegerNumberIsNeverPrime(t *testing.T) {
	conn, r := newTestClient(t)
	conn.Write([]byte(`{"method":"isPrime","number":7.5}` + "\n"))
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.JSONEq(t, `{"method":"isPrime","prime":false}`, line)
}

func TestMalformedRequestClosesConnection(t *testing.T) {
	conn, r := newTestClient(t)
	conn.Write([]byte(`not json` + "\n"))
	buf := make([]byte, 4)
	n, _ := r.Read(buf)
	require.Equal(t, "}bad", string(buf[:n]))
}

func TestWrongMethodIsMalformed(t *testing.T) {
	conn, r := newTestClient(t)
	conn.Write([]byte(`{"method":"nope","number":7}` + "\n"))
	buf := make([]byte, 4)
	n, _ := r.Read(buf)
	require.Equal(t, "}bad", string(buf[:n]))
}
