package bytestream

import (
	"bytes"
	"sync"
)

// Duplex is a Stream with independent read and write buffers: writes go
// to one buffer, reads come from another. It lets tests drive a full
// client+server HTTP/1.1 cycle in-process without opening a real socket:
// the client's Duplex write buffer is handed to the server as its read
// buffer, and vice versa, via Pair.
type Duplex struct {
	mu     sync.Mutex
	inbuf  *bytes.Buffer
	outbuf *bytes.Buffer
	closed bool
}

// NewDuplex returns a standalone Duplex seeded with data to read; writes
// accumulate in an internal buffer retrievable with OutputBytes.
func NewDuplex(data []byte) *Duplex {
	return &Duplex{inbuf: bytes.NewBuffer(data), outbuf: &bytes.Buffer{}}
}

func (d *Duplex) Read(size int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if size <= 0 {
		size = 64 * 1024
	}
	if d.inbuf.Len() == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	n, _ := d.inbuf.Read(buf)
	return buf[:n], nil
}

func (d *Duplex) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outbuf.Write(p)
}

func (d *Duplex) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (d *Duplex) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// InputBytes returns whatever remains unread of the read buffer.
func (d *Duplex) InputBytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.inbuf.Bytes()...)
}

// OutputBytes returns everything written so far.
func (d *Duplex) OutputBytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.outbuf.Bytes()...)
}

// Feed appends more bytes for a subsequent Read to return, letting a
// test trickle data in to exercise the parser's read-ahead buffering.
func (d *Duplex) Feed(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inbuf.Write(data)
}

// linkedDuplex is a Duplex whose writes land directly in a peer's
// read buffer, so two linked Duplexes behave like a connected socket
// pair.
type linkedDuplex struct {
	*Duplex
	peer *Duplex
}

func (d *linkedDuplex) Write(p []byte) (int, error) {
	d.peer.mu.Lock()
	defer d.peer.mu.Unlock()
	return d.peer.inbuf.Write(p)
}

// Pair returns two linked streams, each of which reads what the other
// writes, simulating a connected socket pair so a parser running in
// CLIENT mode and one running in SERVER mode can be driven against
// each other in-process.
func Pair() (clientSide, serverSide Stream) {
	a := NewDuplex(nil)
	b := NewDuplex(nil)
	return &linkedDuplex{Duplex: a, peer: b}, &linkedDuplex{Duplex: b, peer: a}
}
