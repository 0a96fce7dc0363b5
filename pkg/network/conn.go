// Package network adapts raw TCP/TLS sockets to the bytestream.Stream
// contract the parser and connection pool are built on, so the same
// state machine drives both plain and encrypted connections, and both
// the client dialer and the server listener.
package network

import (
	"errors"
	"io"
	"net"

	httpcoreerrors "github.com/WhileEndless/go-httpcore/pkg/errors"
)

// Conn adapts a net.Conn to bytestream.Stream. A zero-length Read with
// a nil error signals a closed connection (EOF), matching the
// end-of-body convention the parser expects everywhere else.
type Conn struct {
	net.Conn

	// Metadata describes the connection as it was actually established:
	// resolved address, TLS details, and proxy usage, if any.
	Metadata Metadata
}

// Metadata carries the information gathered while a connection was
// dialed: which address was actually reached, whether TLS was
// negotiated, and whether a proxy was involved.
type Metadata struct {
	ConnectedIP        string
	ConnectedPort      int
	TLSVersion         string
	TLSCipherSuite     string
	TLSServerName      string
	NegotiatedProtocol string
	ProxyUsed          bool
	ProxyType          string
	ProxyAddr          string
}

func newConn(c net.Conn, meta Metadata) *Conn {
	return &Conn{Conn: c, Metadata: meta}
}

// Read returns up to size bytes. A read that observes EOF is reported
// as a zero-length, nil-error result rather than io.EOF.
func (c *Conn) Read(size int) ([]byte, error) {
	if size <= 0 {
		size = 64 * 1024
	}
	buf := make([]byte, size)
	n, err := c.Conn.Read(buf)
	if err != nil {
		if n > 0 {
			return buf[:n], nil
		}
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return nil, nil
		}
		return nil, httpcoreerrors.NewIOError("reading network connection", err)
	}
	return buf[:n], nil
}

// Write writes all of p to the connection.
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if err != nil {
		return n, httpcoreerrors.NewIOError("writing network connection", err)
	}
	return n, nil
}

// Close closes the underlying socket. Idempotent: a second Close on an
// already-closed net.Conn returns nil.
func (c *Conn) Close() error {
	if err := c.Conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
