// Package bytestream provides the byte-level I/O abstractions that the
// HTTP/1.1 parser reads from and writes to. A Stream is deliberately not
// an io.Reader: a zero-length Read signals end-of-data with a nil error,
// matching the framer's own end-of-body convention, instead of io.EOF.
package bytestream

import (
	"bytes"
	"io"

	"github.com/WhileEndless/go-httpcore/pkg/errors"
)

// Stream is the raw byte source/sink every connection, body, and test
// fixture in this module is built on top of.
type Stream interface {
	// Read returns up to size bytes. A zero-length, nil-error return
	// indicates the stream is exhausted.
	Read(size int) ([]byte, error)
	// Write writes all of p or returns an error.
	Write(p []byte) (int, error)
	// Close is idempotent.
	Close() error
}

// Sizer is implemented by streams that know their total length up front,
// such as an in-memory buffer. message.NewRequest and NewResponse use
// this to decide between Content-Length and chunked framing.
type Sizer interface {
	Size() (int64, bool)
}

// Size returns the stream's known size and whether it reported one.
func Size(s Stream) (int64, bool) {
	if sz, ok := s.(Sizer); ok {
		return sz.Size()
	}
	return 0, false
}

// ReadAll drains a Stream to completion.
func ReadAll(s Stream) ([]byte, error) {
	var buf bytes.Buffer
	for {
		chunk, err := s.Read(64 * 1024)
		if err != nil {
			return buf.Bytes(), err
		}
		if len(chunk) == 0 {
			return buf.Bytes(), nil
		}
		buf.Write(chunk)
	}
}

// Memory is a Stream backed entirely by an in-memory byte slice. It is
// the default, empty-body stream for freshly constructed Requests and
// Responses, and the target that Request/Response.Read() caches into.
type Memory struct {
	r    *bytes.Reader
	size int64
}

// NewMemory returns a Stream that serves data from an in-memory slice.
func NewMemory(data []byte) *Memory {
	return &Memory{r: bytes.NewReader(data), size: int64(len(data))}
}

func (m *Memory) Read(size int) ([]byte, error) {
	if size <= 0 {
		size = 64 * 1024
	}
	buf := make([]byte, size)
	n, err := m.r.Read(buf)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.NewIOError("reading memory stream", err)
	}
	return buf[:n], nil
}

func (m *Memory) Write(p []byte) (int, error) {
	return 0, errors.NewValidationError("Memory stream is read-only")
}

func (m *Memory) Close() error { return nil }

// Size reports the total length of the in-memory payload.
func (m *Memory) Size() (int64, bool) { return m.size, true }
