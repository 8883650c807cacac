package mitm

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/protohackers/suite/internal/netutil"
	"github.com/stretchr/testify/require"
)

func TestRewriteBoguscoinReplacesSingleToken(t *testing.T) {
	in := "Send payment to 7iKDZEwPZSqIvDnHvVN2r0hUWXD5rHX"
	require.Equal(t, "Send payment to "+realBoguscoinAddress, rewriteBoguscoin(in))
}

func TestRewriteBoguscoinLeavesRealAddressUnchanged(t *testing.T) {
	in := "pay me at " + realBoguscoinAddress
	require.Equal(t, in, rewriteBoguscoin(in))
}

func TestRewriteBoguscoinIgnoresShortOrLongTokens(t *testing.T) {
	short := "7short"
	require.Equal(t, short, rewriteBoguscoin(short))
	long := "7abcdefghijklmnopqrstuvwxyz012345678"
	require.Equal(t, long, rewriteBoguscoin(long))
}

func startUpstreamEcho(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			conn.Write([]byte(scanner.Text() + "\n"))
		}
	}()
	return ln.Addr().String()
}

func TestProxyRewritesClientToUpstreamMessage(t *testing.T) {
	upstreamAddr := startUpstreamEcho(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	srv := netutil.NewTCPServer("mitm-test", ln, NewServer(upstreamAddr).Handle())
	go srv.Serve(context.Background())
	t.Cleanup(srv.Stop)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.Write([]byte("pay 7iKDZEwPZSqIvDnHvVN2r0hUWXD5rHX now\n"))
	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "pay "+realBoguscoinAddress+" now\n", line)
}
