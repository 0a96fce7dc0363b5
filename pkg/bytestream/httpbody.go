package bytestream

import "github.com/WhileEndless/go-httpcore/pkg/errors"

// NextChunk pulls one more chunk of body bytes from the parser; an
// empty, nil-error return signals end of body.
type NextChunk func() ([]byte, error)

// Complete is invoked exactly once, when an HTTPBody is closed, so the
// owner (a pool Connection) can re-idle the underlying parser.
// Exhausting the body without closing it does not invoke it.
type Complete func() error

// HTTPBody is the lazy response/request body stream produced by the
// parser: it pulls chunks on demand via NextChunk and buffers any
// excess for the next Read, rather than materializing the whole body
// up front.
type HTTPBody struct {
	next     NextChunk
	complete Complete
	buffer   []byte
	done     bool
	closed   bool
}

// NewHTTPBody wires a lazy body stream to its chunk producer and
// completion hook.
func NewHTTPBody(next NextChunk, complete Complete) *HTTPBody {
	return &HTTPBody{next: next, complete: complete}
}

// Read accumulates buffered remainder plus fresh chunks from the
// producer until size bytes are available or the producer is
// exhausted. Excess bytes are held back for the next call.
func (h *HTTPBody) Read(size int) ([]byte, error) {
	if size <= 0 {
		size = 64 * 1024
	}

	var sections [][]byte
	length := 0

	if len(h.buffer) > 0 {
		sections = append(sections, h.buffer)
		length += len(h.buffer)
		h.buffer = nil
	}

	for !h.done && length < size {
		chunk, err := h.next()
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			h.done = true
			break
		}
		sections = append(sections, chunk)
		length += len(chunk)
	}

	output := joinChunks(sections, length)
	if len(output) > size {
		h.buffer = output[size:]
		output = output[:size]
	}
	return output, nil
}

func joinChunks(sections [][]byte, length int) []byte {
	out := make([]byte, 0, length)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// Write is unsupported; an HTTPBody is receive-only.
func (h *HTTPBody) Write(p []byte) (int, error) {
	return 0, errors.NewValidationError("HTTPBody is not writable")
}

// Close invokes the completion callback exactly once.
func (h *HTTPBody) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.complete != nil {
		return h.complete()
	}
	return nil
}

