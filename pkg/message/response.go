package message

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/content"
	"github.com/WhileEndless/go-httpcore/pkg/errors"
	"github.com/WhileEndless/go-httpcore/pkg/headers"
)

// Response is a server's HTTP/1.1 reply: status code, headers, and a
// body stream.
type Response struct {
	StatusCode int
	Headers    headers.Headers
	Stream     bytestream.Stream

	body     []byte
	bodyRead bool
	text     string
	textRead bool
}

// NewResponse builds a Response, framing the body per RFC 7230 §3.3.2:
// 1xx, 204, and 304 responses never carry a Content-Length or
// Transfer-Encoding, since they MUST NOT include a message body.
// Every other status gets an explicit Content-Length (even 0) unless
// the body's size is unknown, in which case it gets
// Transfer-Encoding: chunked.
func NewResponse(statusCode int, hdrs headers.Headers, body any) (*Response, error) {
	r := &Response{
		StatusCode: statusCode,
		Headers:    hdrs,
		Stream:     bytestream.NewMemory(nil),
	}

	switch b := body.(type) {
	case nil:
		// no body
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
		return nil, errors.NewValidationError("unsupported response body type")
	}

	if bodyless(statusCode) {
		return r, nil
	}

	if size, ok := bytestream.Size(r.Stream); !ok {
		set, err := r.Headers.CopySet("Transfer-Encoding", "chunked")
		if err != nil {
			return nil, err
		}
		r.Headers = set
	} else {
		set, err := r.Headers.CopySet("Content-Length", strconv.FormatInt(size, 10))
		if err != nil {
			return nil, err
		}
		r.Headers = set
	}
	return r, nil
}

func bodyless(statusCode int) bool {
	return statusCode < 200 || statusCode == 204 || statusCode == 304
}

// ReasonPhrase returns the standard textual reason for StatusCode.
func (r *Response) ReasonPhrase() string { return ReasonPhrase(r.StatusCode) }

// Read drains and caches the full response body, then closes the
// drained stream so its completion callback runs.
func (r *Response) Read() ([]byte, error) {
	if r.bodyRead {
		return r.body, nil
	}
	b, err := bytestream.ReadAll(r.Stream)
	if err != nil {
		return nil, err
	}
	if err := r.Stream.Close(); err != nil {
		return nil, err
	}
	r.body = b
	r.bodyRead = true
	r.Stream = bytestream.NewMemory(b)
	return r.body, nil
}

// Body returns the cached body. It panics if Read has not been called.
func (r *Response) Body() []byte {
	if !r.bodyRead {
		panic(errors.NewValidationError("Response body accessed before Read()"))
	}
	return r.body
}

// Text decodes the cached body as text, selecting a charset from the
// Content-Type header's "charset" parameter for text/* media types,
// defaulting to utf-8 otherwise — matching the grounding source. An
// unrecognized charset name falls back to raw utf-8 decoding rather
// than failing. It panics if Read has not been called.
func (r *Response) Text() string {
	if !r.bodyRead {
		panic(errors.NewValidationError("Response text accessed before Read()"))
	}
	if r.textRead {
		return r.text
	}

	charset := "utf-8"
	media, params := headers.ParseContentType(r.Headers.Get("Content-Type", ""))
	if strings.HasPrefix(media, "text/") {
		if cs, ok := params["charset"]; ok {
			charset = cs
		}
	}

	r.text = decodeCharset(r.body, charset)
	r.textRead = true
	return r.text
}

func decodeCharset(body []byte, charset string) string {
	if strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(body)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(body)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// Close releases the body stream.
func (r *Response) Close() error { return r.Stream.Close() }
