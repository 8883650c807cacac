// Package mitm implements the intercepting proxy (§6, §11.6): a
// line-oriented TCP relay to a fixed upstream that rewrites Boguscoin
// addresses in both directions.
package mitm

import (
	"bufio"
	"context"
	"net"
	"regexp"
	"strings"

	"github.com/protohackers/suite/internal/logger"
)

const realBoguscoinAddress = "7YWHMfk9JZe0LM0g1ZauHuiSxhI"

var boguscoinToken = regexp.MustCompile(`^7[A-Za-z0-9]{25,34}$`)

// rewriteBoguscoin replaces every Boguscoin-address token in line with the
// real address. Tokens are the line's single-space-separated words, so two
// addresses separated by a single shared space both get rewritten.
func rewriteBoguscoin(line string) string {
	words := strings.Split(line, " ")
	for i, w := range words {
		if boguscoinToken.MatchString(w) {
			words[i] = realBoguscoinAddress
		}
	}
	return strings.Join(words, " ")
}

// Server proxies accepted connections to a fixed upstream address.
type Server struct {
	upstreamAddr string
}

func NewServer(upstreamAddr string) *Server {
	return &Server{upstreamAddr: upstreamAddr}
}

// Handle implements netutil.TCPHandler.
func (s *Server) Handle() func(ctx context.Context, conn net.Conn, connID uint64) {
	return func(ctx context.Context, client net.Conn, connID uint64) {
		upstream, err := net.Dial("tcp", s.upstreamAddr)
		if err != nil {
			logger.WarnCtx(ctx, "mitm: dialing upstream failed", logger.Err(err))
			return
		}
		defer upstream.Close()

		done := make(chan struct{}, 2)
		go func() { forwardLines(client, upstream); done <- struct{}{} }()
		go func() { forwardLines(upstream, client); done <- struct{}{} }()

		<-done
		client.Close()
		upstream.Close()
		<-done
	}
}

// forwardLines copies src's lines to dst, rewriting Boguscoin addresses as
// it goes, until src is closed or a write to dst fails.
func forwardLines(src, dst net.Conn) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := rewriteBoguscoin(scanner.Text())
		if _, err := dst.Write([]byte(line + "\n")); err != nil {
			return
		}
	}
}
