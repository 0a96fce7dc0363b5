package httpparser

import (
	"bytes"

	"github.com/WhileEndless/go-httpcore/pkg/constants"
	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/errors"
)

// ReadAheadParser wraps a bytestream.Stream with a single-chunk
// push-back buffer, giving the HTTP parser both fixed-size reads
// (Read) and marker-delimited reads (ReadUntil) over the same
// underlying stream without losing over-read bytes between calls.
type ReadAheadParser struct {
	stream    bytestream.Stream
	buffer    []byte
	chunkSize int
}

// NewReadAheadParser wraps stream for read-ahead parsing.
func NewReadAheadParser(stream bytestream.Stream) *ReadAheadParser {
	return &ReadAheadParser{stream: stream, chunkSize: constants.ReadAheadChunkSize}
}

func (p *ReadAheadParser) readSome() ([]byte, error) {
	if len(p.buffer) > 0 {
		ret := p.buffer
		p.buffer = nil
		return ret, nil
	}
	return p.stream.Read(p.chunkSize)
}

func (p *ReadAheadParser) pushBack(buf []byte) {
	// Invariant: at most one pending residual chunk at a time — every
	// call site drains p.buffer via readSome before calling pushBack.
	p.buffer = buf
}

// Read returns up to size bytes from the stream. A zero-length, nil
// error result means the stream is exhausted.
func (p *ReadAheadParser) Read(size int) ([]byte, error) {
	var buf []byte
	for len(buf) < size {
		chunk, err := p.readSome()
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		buf = append(buf, chunk...)
	}
	if len(buf) > size {
		pushed := buf[size:]
		buf = buf[:size]
		p.pushBack(pushed)
	}
	return buf, nil
}

// PeekEOF reports whether the stream is exhausted, without consuming
// any data — used to tell a peer closing before sending anything apart
// from a protocol error mid-message.
func (p *ReadAheadParser) PeekEOF() (bool, error) {
	chunk, err := p.readSome()
	if err != nil {
		return false, err
	}
	if len(chunk) == 0 {
		return true, nil
	}
	p.pushBack(chunk)
	return false, nil
}

// ReadUntil reads and returns the bytes up to (not including) the
// first occurrence of marker, consuming the marker from the stream.
// It returns a ProtocolError if the stream closes before the marker
// is found, or if the marker does not occur within maxSize bytes.
func (p *ReadAheadParser) ReadUntil(marker []byte, maxSize int, excText string) ([]byte, error) {
	var buf []byte
	for len(buf) <= maxSize {
		chunk, err := p.readSome()
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return nil, errors.NewProtocolError("Stream closed early "+excText, nil)
		}
		start := len(buf) - len(marker)
		if start < 0 {
			start = 0
		}
		buf = append(buf, chunk...)
		index := bytes.Index(buf[start:], marker)
		if index >= 0 {
			index += start
		}

		if index > maxSize {
			return nil, errors.NewProtocolError("Exceeded maximum size "+excText, nil)
		} else if index >= 0 {
			end := index + len(marker)
			p.pushBack(buf[end:])
			return buf[:index], nil
		}
	}
	return nil, errors.NewProtocolError("Exceeded maximum size "+excText, nil)
}
