// Package testserver runs a scripted stand-in for the capture server: it
// answers each command with one reply and then keeps the connection open
// and silent, like the real server.
package testserver

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"
)

// Handler returns the reply for a command. A nil reply sends nothing.
type Handler func(command string) []byte

type Option func(*Server)

// WithChunkSize splits each reply into writes of at most n bytes.
func WithChunkSize(n int) Option {
	return func(s *Server) { s.chunkSize = n }
}

// WithChunkDelay sleeps between chunk writes.
func WithChunkDelay(d time.Duration) Option {
	return func(s *Server) { s.chunkDelay = d }
}

// WithCloseAfterReply closes the connection after the reply is written.
func WithCloseAfterReply() Option {
	return func(s *Server) { s.closeAfterReply = true }
}

type Server struct {
	ln      net.Listener
	handler Handler

	chunkSize       int
	chunkDelay      time.Duration
	closeAfterReply bool

	mu       sync.Mutex
	commands []string
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// Start listens on 127.0.0.1 with a random port. The server is stopped
// by t.Cleanup.
func Start(t testing.TB, h Handler, opts ...Option) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("testserver: listen: %v", err)
	}
	s := &Server{ln: ln, handler: h, conns: map[net.Conn]struct{}{}}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// Static replies with the same bytes to every command.
func Static(reply string) Handler {
	return func(string) []byte { return []byte(reply) }
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Port is the listening port.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Commands lists the commands received so far, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}
	command := string(bytes.TrimSpace(buf[:n]))
	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()

	if reply := s.handler(command); len(reply) > 0 {
		if err := s.write(conn, reply); err != nil {
			return
		}
	}
	if s.closeAfterReply {
		return
	}

	// stay open and silent until the client hangs up
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
}

func (s *Server) write(conn net.Conn, reply []byte) error {
	size := s.chunkSize
	if size <= 0 {
		size = len(reply)
	}
	for off := 0; off < len(reply); off += size {
		end := min(off+size, len(reply))
		if _, err := conn.Write(reply[off:end]); err != nil {
			return err
		}
		if s.chunkDelay > 0 && end < len(reply) {
			time.Sleep(s.chunkDelay)
		}
	}
	return nil
}
