// Package pool implements origin-keyed HTTP/1.1 connection reuse: a
// Connection wraps one HTTPParser-driven socket and a ConnectionPool
// hands out idle connections to the same origin instead of dialing a
// fresh one for every request.
package pool

import (
	"log"
	"runtime"
	"sync"

	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/constants"
	"github.com/WhileEndless/go-httpcore/pkg/headers"
	"github.com/WhileEndless/go-httpcore/pkg/httpparser"
	"github.com/WhileEndless/go-httpcore/pkg/httpurl"
	"github.com/WhileEndless/go-httpcore/pkg/message"
	"github.com/WhileEndless/go-httpcore/pkg/network"
	"github.com/WhileEndless/go-httpcore/pkg/timing"
)

// Origin identifies the scheme/host/port a Connection was dialed for.
// Two requests share a Connection only when their Origins are equal.
type Origin struct {
	Scheme string
	Host   string
	Port   int
}

func originOf(url httpurl.URL) Origin {
	port := 0
	if p := url.Port(); p != nil {
		port = *p
	} else if url.Scheme() == "https" {
		port = 443
	} else {
		port = 80
	}
	return Origin{Scheme: url.Scheme(), Host: url.RawHost(), Port: port}
}

// Connection owns a single socket and the HTTPParser driving it in
// CLIENT mode. requestLock serializes Send calls: unlike the
// grounding source's commented-out lock, this one is a real
// sync.Mutex, since Go connections are actually shared across
// goroutines rather than cooperatively scheduled.
type Connection struct {
	origin      Origin
	conn        *network.Conn
	parser      *httpparser.Parser
	requestLock sync.Mutex

	idleExpiry timing.Deadline
}

func newConnection(conn *network.Conn, origin Origin) *Connection {
	c := &Connection{
		origin: origin,
		conn:   conn,
		parser: httpparser.New(conn, httpparser.ModeClient),
	}
	c.idleExpiry = timing.NewDeadline(constants.DefaultKeepAlive)
	runtime.SetFinalizer(c, func(c *Connection) {
		if !c.IsClosed() {
			log.Printf("httpcore: Connection to %s:%d was garbage collected without being closed", c.origin.Host, c.origin.Port)
		}
	})
	return c
}

// Origin returns the scheme/host/port this connection was dialed for.
func (c *Connection) Origin() Origin { return c.origin }

// IsIdle reports whether the connection is between request/response
// cycles and free to take on a new request.
func (c *Connection) IsIdle() bool { return c.parser.IsIdle() }

// IsExpired reports whether the connection is idle and has sat unused
// past its keep-alive deadline.
func (c *Connection) IsExpired() bool {
	return c.parser.IsIdle() && c.idleExpiry.Expired()
}

// IsClosed reports whether the connection's socket has been shut down.
func (c *Connection) IsClosed() bool { return c.parser.IsClosed() }

// Description forwards the parser's human-readable state, used by
// ConnectionPool.Description for pool-wide diagnostics.
func (c *Connection) Description() string { return c.parser.Description() }

// Send drives one full request/response cycle over this connection:
// write the request line, headers, and body, then read back the
// status line, headers, and a lazily-pulled body stream. It blocks
// other Send calls on the same Connection until it returns, which is
// after the response headers are read and before the body is pulled.
func (c *Connection) Send(req *message.Request) (*message.Response, error) {
	c.requestLock.Lock()
	defer c.requestLock.Unlock()

	if err := c.sendHead(req); err != nil {
		return nil, err
	}
	if err := c.sendBody(req); err != nil {
		return nil, err
	}

	statusCode, hdrs, err := c.recvHead()
	if err != nil {
		return nil, err
	}

	// Built directly rather than via message.NewResponse: that
	// constructor derives its own Content-Length/Transfer-Encoding
	// from the body it's given, which would clobber the framing
	// headers this response already carries from the wire.
	return &message.Response{
		StatusCode: statusCode,
		Headers:    hdrs,
		Stream:     c.bodyStream(),
	}, nil
}

// Request builds a Request from its parts, sends it, and reads the
// response body fully before returning — the common case when the
// caller just wants the bytes, not a live stream.
func (c *Connection) Request(method string, url httpurl.URL, hdrs headers.Headers, body any) (*message.Response, error) {
	resp, err := c.Stream(method, url, hdrs, body)
	if err != nil {
		return nil, err
	}
	if _, err := resp.Read(); err != nil {
		return nil, err
	}
	return resp, nil
}

// Stream builds a Request from its parts and sends it, returning the
// Response with its body left unread for the caller to pull lazily.
func (c *Connection) Stream(method string, url httpurl.URL, hdrs headers.Headers, body any) (*message.Response, error) {
	req, err := message.NewRequest(method, url, hdrs, body)
	if err != nil {
		return nil, err
	}
	return c.Send(req)
}

func (c *Connection) sendHead(req *message.Request) error {
	if err := c.parser.SendMethodLine(req.Method, req.URL.Target(), "HTTP/1.1"); err != nil {
		return err
	}
	fields := make([]httpparser.HeaderField, 0, req.Headers.Len())
	for _, kv := range req.Headers.Items() {
		fields = append(fields, httpparser.HeaderField{Name: []byte(kv[0]), Value: []byte(kv[1])})
	}
	return c.parser.SendHeaders(fields)
}

func (c *Connection) sendBody(req *message.Request) error {
	for {
		chunk, err := req.Stream.Read(64 * 1024)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return c.parser.SendBody(nil)
		}
		if err := c.parser.SendBody(chunk); err != nil {
			return err
		}
	}
}

func (c *Connection) recvHead() (int, headers.Headers, error) {
	_, statusCode, _, err := c.parser.RecvStatusLine()
	if err != nil {
		return 0, headers.Headers{}, err
	}
	fields, err := c.parser.RecvHeaders()
	if err != nil {
		return 0, headers.Headers{}, err
	}
	pairs := make([][2]string, len(fields))
	for i, f := range fields {
		pairs[i] = [2]string{string(f.Name), string(f.Value)}
	}
	hdrs, err := headers.New(pairs)
	if err != nil {
		return 0, headers.Headers{}, err
	}
	return statusCode, hdrs, nil
}

func (c *Connection) bodyStream() *bytestream.HTTPBody {
	return bytestream.NewHTTPBody(c.parser.RecvBody, func() error {
		c.complete()
		return nil
	})
}

// complete marks the current request/response cycle finished: the
// parser decides whether the connection goes back to idle (keep-alive)
// or closes, and the idle-expiry deadline is refreshed either way.
func (c *Connection) complete() {
	c.parser.Complete()
	c.idleExpiry.Refresh(constants.DefaultKeepAlive)
}

// Close shuts down the connection's socket and parser immediately,
// regardless of any in-flight cycle state.
func (c *Connection) Close() error {
	c.requestLock.Lock()
	defer c.requestLock.Unlock()
	c.parser.Close()
	return c.conn.Close()
}
