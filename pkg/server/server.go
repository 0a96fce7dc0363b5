// Package server implements the per-connection HTTP/1.1 server loop:
// read a request off a stream, hand it to a user endpoint, write back
// the response, and repeat for as long as keep-alive survives.
package server

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/content"
	"github.com/WhileEndless/go-httpcore/pkg/headers"
	"github.com/WhileEndless/go-httpcore/pkg/httpparser"
	"github.com/WhileEndless/go-httpcore/pkg/httpurl"
	"github.com/WhileEndless/go-httpcore/pkg/message"
	"github.com/WhileEndless/go-httpcore/pkg/network"
)

// Endpoint handles one request and returns the response to send back.
// A panic in an Endpoint is recovered by the connection loop and, like
// a nil Response, turned into a synthesized 500.
type Endpoint func(*message.Request) *message.Response

// Config configures a Server.
type Config struct {
	Endpoint Endpoint
	Logger   *log.Logger // nil: log.Default()
}

// Server accepts connections from a network.Backend listener and
// drives each one with the per-connection request/response loop.
type Server struct {
	backend *network.Backend
	config  Config
}

// New returns a Server with endpoint as its request handler.
func New(backend *network.Backend, config Config) *Server {
	if backend == nil {
		backend = network.NewBackend()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Server{backend: backend, config: config}
}

// Serve listens on addr and handles connections until ctx is canceled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := s.backend.Listen(addr)
	if err != nil {
		return err
	}
	return s.backend.Serve(ctx, ln, func(conn *network.Conn) {
		s.handleConnection(conn)
	})
}

func (s *Server) handleConnection(conn *network.Conn) {
	defer conn.Close()
	parser := httpparser.New(conn, httpparser.ModeServer)

	for !parser.IsClosed() {
		ok := s.handleOneRequest(parser)
		if !ok {
			return
		}
	}
}

// handleOneRequest runs one full request/response cycle. It returns
// false when the connection should stop looping (peer closed before
// sending anything, a protocol error occurred, or keep-alive did not
// survive).
func (s *Server) handleOneRequest(parser *httpparser.Parser) bool {
	req, err := s.recvRequest(parser)
	if err != nil {
		if err == errConnectionClosedEarly {
			return false
		}
		s.config.Logger.Printf("httpcore: error reading request: %v", err)
		return false
	}

	response := s.invokeEndpoint(req)

	if err := s.sendResponse(parser, response); err != nil {
		s.config.Logger.Printf("httpcore: error writing response: %v", err)
		return false
	}

	if parser.IsKeepAlive() {
		bytestream.ReadAll(req.Stream) // drain any unread request body
		parser.Reset()
		return true
	}
	parser.Close()
	return false
}

var errConnectionClosedEarly = fmt.Errorf("connection closed before a request arrived")

func (s *Server) recvRequest(parser *httpparser.Parser) (*message.Request, error) {
	if eof, err := parser.PeekEOF(); err != nil {
		return nil, err
	} else if eof {
		return nil, errConnectionClosedEarly
	}

	method, target, _, err := parser.RecvMethodLine()
	if err != nil {
		return nil, err
	}

	fields, err := parser.RecvHeaders()
	if err != nil {
		return nil, err
	}
	pairs := make([][2]string, len(fields))
	for i, f := range fields {
		pairs[i] = [2]string{string(f.Name), string(f.Value)}
	}
	hdrs, err := headers.New(pairs)
	if err != nil {
		return nil, err
	}

	url, err := httpurl.Parse(target)
	if err != nil {
		return nil, err
	}

	body := bytestream.NewHTTPBody(func() ([]byte, error) {
		return parser.RecvBody()
	}, nil)

	return &message.Request{
		Method:  method,
		URL:     url,
		Headers: hdrs,
		Stream:  body,
	}, nil
}

func (s *Server) invokeEndpoint(req *message.Request) (response *message.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.config.Logger.Printf("httpcore: panic in endpoint: %v\n%s", r, debug.Stack())
			response = s.internalServerError()
		}
	}()

	resp := s.config.Endpoint(req)
	if resp == nil {
		return s.internalServerError()
	}
	return resp
}

func (s *Server) internalServerError() *message.Response {
	resp, err := message.NewResponse(500, headers.Headers{}, content.NewText("Internal Server Error"))
	if err != nil {
		// content.Text always encodes successfully; this cannot fail.
		panic(err)
	}
	return resp
}

func (s *Server) sendResponse(parser *httpparser.Parser, resp *message.Response) error {
	if err := parser.SendStatusLine("HTTP/1.1", resp.StatusCode, resp.ReasonPhrase()); err != nil {
		return err
	}
	fields := make([]httpparser.HeaderField, 0, resp.Headers.Len())
	for _, kv := range resp.Headers.Items() {
		fields = append(fields, httpparser.HeaderField{Name: []byte(kv[0]), Value: []byte(kv[1])})
	}
	if err := parser.SendHeaders(fields); err != nil {
		return err
	}
	for {
		chunk, err := resp.Stream.Read(64 * 1024)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return parser.SendBody(nil)
		}
		if err := parser.SendBody(chunk); err != nil {
			return err
		}
	}
}
