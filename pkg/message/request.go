// Package message implements the Request/Response value types built
// on top of pkg/headers, pkg/httpurl, and pkg/bytestream, plus the
// standard status-code reason-phrase table.
package message

import (
	"strconv"

	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/content"
	"github.com/WhileEndless/go-httpcore/pkg/errors"
	"github.com/WhileEndless/go-httpcore/pkg/headers"
	"github.com/WhileEndless/go-httpcore/pkg/httpurl"
)

// Request is an outbound (client) or inbound (server) HTTP/1.1
// message: method, target URL, headers, and a body stream.
type Request struct {
	Method  string
	URL     httpurl.URL
	Headers headers.Headers
	Stream  bytestream.Stream

	body     []byte
	bodyRead bool
}

// NewRequest builds a Request, defaulting the Host header from url and
// framing the body per RFC 7230 §3.3.2: a byte slice or content.Content
// payload sets Content-Length (when its size is known and non-zero) or
// Transfer-Encoding: chunked (when it is not); POST/PUT/PATCH with no
// body at all get an explicit Content-Length: 0.
//
// body may be nil, []byte, a bytestream.Stream, or a content.Content.
func NewRequest(method string, url httpurl.URL, hdrs headers.Headers, body any) (*Request, error) {
	r := &Request{
		Method:  method,
		URL:     url,
		Headers: hdrs,
		Stream:  bytestream.NewMemory(nil),
	}

	if !r.Headers.Has("Host") {
		set, err := r.Headers.CopySet("Host", url.Netloc())
		if err != nil {
			return nil, err
		}
		r.Headers = set
	}

	switch b := body.(type) {
	case nil:
		if isBodyMethod(method) {
			set, err := r.Headers.CopySet("Content-Length", "0")
			if err != nil {
				return nil, err
			}
			r.Headers = set
		}
		return r, nil
	case []byte:
		r.Stream = bytestream.NewMemory(b)
	case bytestream.Stream:
		r.Stream = b
	case content.Content:
		stream, err := b.Encode()
		if err != nil {
			return nil, err
		}
		r.Stream = stream
		set, err := r.Headers.CopySet("Content-Type", b.ContentType())
		if err != nil {
			return nil, err
		}
		r.Headers = set
	default:
		return nil, errors.NewValidationError("unsupported request body type")
	}

	if size, ok := bytestream.Size(r.Stream); !ok {
		set, err := r.Headers.CopySet("Transfer-Encoding", "chunked")
		if err != nil {
			return nil, err
		}
		r.Headers = set
	} else if size > 0 {
		set, err := r.Headers.CopySet("Content-Length", strconv.FormatInt(size, 10))
		if err != nil {
			return nil, err
		}
		r.Headers = set
	}
	return r, nil
}

func isBodyMethod(method string) bool {
	return method == "POST" || method == "PUT" || method == "PATCH"
}

// Read drains and caches the full request body, returning it. Safe to
// call more than once; later calls return the cached bytes.
func (r *Request) Read() ([]byte, error) {
	if r.bodyRead {
		return r.body, nil
	}
	b, err := bytestream.ReadAll(r.Stream)
	if err != nil {
		return nil, err
	}
	r.body = b
	r.bodyRead = true
	r.Stream = bytestream.NewMemory(b)
	return r.body, nil
}

// Body returns the cached body. It panics with a validation error if
// Read has not been called yet, matching the grounding source's
// "'.body' cannot be accessed without calling '.read()'" contract.
func (r *Request) Body() []byte {
	if !r.bodyRead {
		panic(errors.NewValidationError("Request body accessed before Read()"))
	}
	return r.body
}

// Close releases the body stream.
func (r *Request) Close() error { return r.Stream.Close() }
