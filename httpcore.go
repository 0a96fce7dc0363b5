// Package httpcore is a byte-level HTTP/1.1 client and server library:
// an I/O-agnostic message framer (pkg/httpparser) together with the
// connection-lifecycle machinery built on top of it — an origin-keyed
// connection pool (pkg/pool) and a per-connection server loop
// (pkg/server). This file wires those pieces into the Client/Server
// entry points most callers reach for first.
package httpcore

import (
	"context"

	"github.com/WhileEndless/go-httpcore/pkg/headers"
	"github.com/WhileEndless/go-httpcore/pkg/httpurl"
	"github.com/WhileEndless/go-httpcore/pkg/message"
	"github.com/WhileEndless/go-httpcore/pkg/network"
	"github.com/WhileEndless/go-httpcore/pkg/pool"
	"github.com/WhileEndless/go-httpcore/pkg/server"
)

// Version identifies this module's API surface.
const Version = "1.0.0"

// Re-exported types, so callers of this package rarely need to import
// the sub-packages directly.
type (
	// Request is an outbound HTTP/1.1 message.
	Request = message.Request

	// Response is an HTTP/1.1 reply, client- or server-side.
	Response = message.Response

	// Headers is an ordered, case-insensitive header set.
	Headers = headers.Headers

	// URL is a parsed absolute or relative HTTP URL.
	URL = httpurl.URL

	// Backend dials outbound connections and accepts inbound ones.
	Backend = network.Backend

	// DialConfig configures a single Backend.Connect/ConnectTLS call.
	DialConfig = network.DialConfig

	// Endpoint handles one server-side request.
	Endpoint = server.Endpoint

	// ServerConfig configures a Server.
	ServerConfig = server.Config

	// Server drives the per-connection request/response loop.
	Server = server.Server
)

// NewBackend returns a Backend with the library's default TLS profile
// and no proxy.
func NewBackend() *Backend { return network.NewBackend() }

// ParseURL parses an absolute or relative HTTP URL.
func ParseURL(raw string) (URL, error) { return httpurl.Parse(raw) }

// NewHeaders validates and builds a Headers set from name/value pairs.
func NewHeaders(pairs [][2]string) (Headers, error) { return headers.New(pairs) }

// NewRequest builds a Request; body may be nil, []byte, a
// bytestream.Stream, or a content.Content.
func NewRequest(method string, url URL, hdrs Headers, body any) (*Request, error) {
	return message.NewRequest(method, url, hdrs, body)
}

// NewResponse builds a Response; body may be nil, []byte, a
// bytestream.Stream, or a content.Content.
func NewResponse(statusCode int, hdrs Headers, body any) (*Response, error) {
	return message.NewResponse(statusCode, hdrs, body)
}

// NewServer returns a Server that accepts connections through backend
// (nil selects NewBackend()'s defaults) and dispatches them to config.Endpoint.
func NewServer(backend *Backend, config ServerConfig) *Server {
	return server.New(backend, config)
}

// Client is a pooled HTTP/1.1 client: it reuses a persistent
// Connection per origin rather than dialing one for every request,
// exactly as pkg/pool.ConnectionPool does.
type Client struct {
	pool *pool.ConnectionPool
}

// NewClient returns a Client dialing through NewBackend()'s defaults.
func NewClient() *Client { return NewClientWithBackend(nil) }

// NewClientWithBackend returns a Client dialing through backend (nil
// selects NewBackend()'s defaults).
func NewClientWithBackend(backend *Backend) *Client {
	return &Client{pool: pool.NewConnectionPool(backend)}
}

// Send routes req to a reused or freshly dialed connection for its
// origin and runs one full request/response cycle on it.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	return c.pool.Send(ctx, req)
}

// Get issues a bodyless GET request to url, reading the response body
// fully before returning.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	parsed, err := httpurl.Parse(url)
	if err != nil {
		return nil, err
	}
	return c.pool.Request(ctx, "GET", parsed, Headers{}, nil)
}

// Post issues a POST request to url with the given body and headers
// (nil headers defaults to none beyond what NewRequest sets), reading
// the response body fully before returning.
func (c *Client) Post(ctx context.Context, url string, hdrs Headers, body any) (*Response, error) {
	parsed, err := httpurl.Parse(url)
	if err != nil {
		return nil, err
	}
	return c.pool.Request(ctx, "POST", parsed, hdrs, body)
}

// Description summarizes the client's pooled connections for diagnostics.
func (c *Client) Description() string { return c.pool.Description() }

// Close closes every pooled connection. Safe to call more than once.
func (c *Client) Close() error { return c.pool.Close() }
