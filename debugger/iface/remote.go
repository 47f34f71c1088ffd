// Copyright © 2024 The ELPS authors

package iface

import "net"

// NewRemote returns an Interface that carries the command stream over conn
// as newline terminated text.  Errors are written to the same stream and
// closing the interface closes conn.
func NewRemote(conn net.Conn) *Stream {
	return NewStream(conn, conn, nil, conn)
}
