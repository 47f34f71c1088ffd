// Copyright © 2018 The ELPS authors

package remote

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sourcegraph/conc"
)

// Client attaches a local terminal to a remote debugger server.
type Client struct {
	Stdin  io.Reader
	Stdout io.Writer
	Dialer net.Dialer
}

// Connect dials the command and output connections of the server at addr
// ("[host:]port") and relays text until the server closes the command
// connection or ctx is done.
func (c *Client) Connect(ctx context.Context, addr string) error {
	address, err := ParseAddress(addr)
	if err != nil {
		return err
	}
	out := &lockedWriter{w: c.Stdout}
	fmt.Fprintf(out, "Connecting to sdbg server at %s...\n", address) //nolint:errcheck
	cmd, err := c.Dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	defer cmd.Close() //nolint:errcheck
	output, err := c.Dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	defer output.Close() //nolint:errcheck

	done := make(chan struct{})
	var wg conc.WaitGroup
	wg.Go(func() {
		io.Copy(out, output) //nolint:errcheck
	})
	wg.Go(func() {
		defer close(done)
		io.Copy(out, cmd) //nolint:errcheck
	})
	go forwardLines(cmd, c.Stdin)

	select {
	case <-done:
	case <-ctx.Done():
	}
	cmd.Close()    //nolint:errcheck
	output.Close() //nolint:errcheck
	wg.Wait()
	return ctx.Err()
}

// forwardLines copies stdin to conn a line at a time.  It returns when
// stdin is exhausted or conn fails; stdin is never closed.
func forwardLines(conn net.Conn, stdin io.Reader) {
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(conn, scanner.Text()); err != nil {
			return
		}
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.CloseWrite() //nolint:errcheck
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
