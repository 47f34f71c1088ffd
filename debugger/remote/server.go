// Copyright © 2018 The ELPS authors

// Package remote serves a debugger session over TCP.  A client opens two
// connections: the first carries the command stream and the second
// receives the debuggee's output.  Both carry plain newline terminated
// text without framing or authentication.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/luthersystems/sdbg/debugger/iface"
	log "github.com/sirupsen/logrus"
)

// DefaultHost is used when an address names only a port.
const DefaultHost = "localhost"

// ParseAddress normalizes "[host:]port" to "host:port".
func ParseAddress(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	host, port := DefaultHost, spec
	if i := strings.LastIndex(spec, ":"); i >= 0 {
		host, port = spec[:i], spec[i+1:]
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
		if host == "" {
			host = DefaultHost
		}
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return "", fmt.Errorf("invalid port in address %q", spec)
	}
	return net.JoinHostPort(host, port), nil
}

// Option configures a Server.
type Option func(*Server)

// WithFallback sets where debuggee output goes until the output
// connection is established.  It defaults to os.Stdout.
func WithFallback(w io.Writer) Option {
	return func(s *Server) {
		s.fallback = w
	}
}

// WithLogger sets the logger of the server.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.log = log.NewEntry(l)
	}
}

// Server accepts the connections of one remote debugger client.
type Server struct {
	ln       net.Listener
	log      *log.Entry
	fallback io.Writer
	cmdCh    chan net.Conn
	done     chan struct{}
	wg       sync.WaitGroup

	mu     sync.Mutex
	output net.Conn
	closed bool
}

// Listen starts listening on addr ("[host:]port").
func Listen(addr string, opts ...Option) (*Server, error) {
	address, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		log:      log.NewEntry(log.StandardLogger()),
		fallback: os.Stdout,
		cmdCh:    make(chan net.Conn, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	s.ln = ln
	s.log.Infof("Listening on %s", ln.Addr())
	s.wg.Add(1)
	go s.listen()
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Server) listen() {
	defer s.wg.Done()
	accepted := 0
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Errorf("Connection failed: %v", err)
			continue
		}
		accepted++
		s.log.Infof("Accepted connection from %s", conn.RemoteAddr())
		switch accepted {
		case 1:
			s.cmdCh <- conn
		case 2:
			if !s.setOutput(conn) {
				conn.Close() //nolint:errcheck
			}
		default:
			s.log.Warnf("Rejecting extra connection from %s", conn.RemoteAddr())
			conn.Close() //nolint:errcheck
		}
	}
}

func (s *Server) setOutput(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.output = conn
	return true
}

// Accept waits for the command connection and returns it as a debugger
// interface.
func (s *Server) Accept(ctx context.Context) (*iface.Stream, error) {
	select {
	case conn := <-s.cmdCh:
		return iface.NewRemote(conn), nil
	case <-s.done:
		return nil, net.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Output returns a writer relaying debuggee output to the output
// connection, or to the fallback writer while it is not connected.
func (s *Server) Output() io.Writer {
	return relay{s}
}

type relay struct {
	s *Server
}

func (r relay) Write(p []byte) (int, error) {
	s := r.s
	s.mu.Lock()
	conn := s.output
	s.mu.Unlock()
	if conn != nil {
		n, err := conn.Write(p)
		if err == nil {
			return n, nil
		}
		s.log.Warnf("Output connection failed: %v", err)
		s.mu.Lock()
		if s.output == conn {
			s.output = nil
		}
		s.mu.Unlock()
		conn.Close() //nolint:errcheck
	}
	return s.fallback.Write(p)
}

// Close stops listening and closes the output connection.  A command
// connection that was never handed out by Accept is closed too; once
// accepted it is owned by the returned interface.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	out := s.output
	s.output = nil
	s.mu.Unlock()

	close(s.done)
	err := s.ln.Close()
	s.wg.Wait()
	select {
	case conn := <-s.cmdCh:
		conn.Close() //nolint:errcheck
	default:
	}
	if out != nil {
		out.Close() //nolint:errcheck
	}
	return err
}
