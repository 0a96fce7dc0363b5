// Package httpparser implements the role-parameterized HTTP/1.1
// byte-level framer: independent send/recv sub-state machines layered
// over a ReadAheadParser, handling the request/status line, headers,
// and Content-Length/chunked body framing.
package httpparser

import (
	"strconv"
	"strings"

	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/constants"
	"github.com/WhileEndless/go-httpcore/pkg/errors"
)

// State is a single send- or recv-side step in the HTTP/1.1 framing
// state machine.
type State int

const (
	StateWait State = iota
	StateSendMethodLine
	StateSendStatusLine
	StateSendHeaders
	StateSendBody
	StateRecvMethodLine
	StateRecvStatusLine
	StateRecvHeaders
	StateRecvBody
	StateDone
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateWait:
		return "WAIT"
	case StateSendMethodLine:
		return "SEND_METHOD_LINE"
	case StateSendStatusLine:
		return "SEND_STATUS_LINE"
	case StateSendHeaders:
		return "SEND_HEADERS"
	case StateSendBody:
		return "SEND_BODY"
	case StateRecvMethodLine:
		return "RECV_METHOD_LINE"
	case StateRecvStatusLine:
		return "RECV_STATUS_LINE"
	case StateRecvHeaders:
		return "RECV_HEADERS"
	case StateRecvBody:
		return "RECV_BODY"
	case StateDone:
		return "DONE"
	case StateClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// Mode selects which side of the exchange a Parser plays.
type Mode int

const (
	ModeClient Mode = iota
	ModeServer
)

// HeaderField is a single raw, unvalidated (name, value) pair as seen
// on the wire — the parser itself does not enforce header grammar;
// that's pkg/headers' job once a message is assembled.
type HeaderField struct {
	Name  []byte
	Value []byte
}

// Parser drives the HTTP/1.1 wire protocol for one connection, one
// role (client or server), tracking the send and recv sub-states
// independently so a server can, for example, start writing a
// response before the request body has finished arriving.
type Parser struct {
	stream bytestream.Stream
	ra     *ReadAheadParser
	mode   Mode

	sendState State
	recvState State

	sendContentLength *int64
	recvContentLength *int64
	sendSeenLength    int64
	recvSeenLength    int64

	sendKeepAlive bool
	recvKeepAlive bool

	processing1xx bool
}

// New constructs a Parser for stream in the given role. A client
// starts by sending a method line and waiting to receive; a server
// starts by receiving a method line and waiting to send.
func New(stream bytestream.Stream, mode Mode) *Parser {
	p := &Parser{
		stream: stream,
		ra:     NewReadAheadParser(stream),
		mode:   mode,
	}
	p.resetState()
	return p
}

func (p *Parser) resetState() {
	if p.mode == ModeClient {
		p.sendState = StateSendMethodLine
		p.recvState = StateWait
	} else {
		p.recvState = StateRecvMethodLine
		p.sendState = StateWait
	}
	zero := int64(0)
	p.sendContentLength = &zero
	recvZero := int64(0)
	p.recvContentLength = &recvZero
	p.sendSeenLength = 0
	p.recvSeenLength = 0
	p.sendKeepAlive = true
	p.recvKeepAlive = true
	p.processing1xx = false
}

func protoErr(format string) error { return errors.NewProtocolError(format, nil) }

func invalidState(op string, state State) error {
	return errors.NewProtocolErrorState("Called '"+op+"' in invalid state "+state.String(), state.String())
}

// SendMethodLine writes the request line, eg. "GET / HTTP/1.1\r\n".
func (p *Parser) SendMethodLine(method, target, protocol string) error {
	if p.sendState != StateSendMethodLine {
		return invalidState("SendMethodLine", p.sendState)
	}
	if protocol != "HTTP/1.1" {
		return protoErr("Sent unsupported protocol version")
	}
	data := method + " " + target + " " + protocol + "\r\n"
	if _, err := p.stream.Write([]byte(data)); err != nil {
		return err
	}
	p.sendState = StateSendHeaders
	p.recvState = StateRecvStatusLine
	return nil
}

// SendStatusLine writes the response line, eg. "HTTP/1.1 200 OK\r\n".
func (p *Parser) SendStatusLine(protocol string, statusCode int, reason string) error {
	if p.sendState != StateSendStatusLine {
		return invalidState("SendStatusLine", p.sendState)
	}
	if protocol != "HTTP/1.1" {
		return protoErr("Sent unsupported protocol version")
	}
	data := protocol + " " + strconv.Itoa(statusCode) + " " + reason + "\r\n"
	if _, err := p.stream.Write([]byte(data)); err != nil {
		return err
	}
	p.sendState = StateSendHeaders
	return nil
}

// SendHeaders writes the header block, tracking Content-Length,
// Transfer-Encoding: chunked, and Connection: close as it goes.
func (p *Parser) SendHeaders(headers []HeaderField) error {
	if p.sendState != StateSendHeaders {
		return invalidState("SendHeaders", p.sendState)
	}

	seenHost := false
	for _, h := range headers {
		lname := strings.ToLower(string(h.Name))
		switch {
		case lname == "host":
			seenHost = true
		case lname == "content-length":
			n, err := boundedInt(string(h.Value), constants.MaxContentLengthDigits, "Sent invalid Content-Length")
			if err != nil {
				return err
			}
			p.sendContentLength = &n
		case lname == "connection" && string(h.Value) == "close":
			p.sendKeepAlive = false
		case lname == "transfer-encoding" && string(h.Value) == "chunked":
			p.sendContentLength = nil
		}
	}

	if p.mode == ModeClient && !seenHost {
		return protoErr("Request missing 'Host' header")
	}

	var b strings.Builder
	for _, h := range headers {
		b.Write(h.Name)
		b.WriteString(": ")
		b.Write(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	if _, err := p.stream.Write([]byte(b.String())); err != nil {
		return err
	}

	p.sendState = StateSendBody
	return nil
}

// SendBody writes one slice of the request/response body. An empty
// slice signals the end of the body and transitions to StateDone.
func (p *Parser) SendBody(body []byte) error {
	if p.sendState != StateSendBody {
		return invalidState("SendBody", p.sendState)
	}

	if p.sendContentLength == nil {
		// Transfer-Encoding: chunked.
		p.sendSeenLength += int64(len(body))
		marker := strconv.FormatInt(int64(len(body)), 16) + "\r\n"
		data := append([]byte(marker), body...)
		data = append(data, '\r', '\n')
		if _, err := p.stream.Write(data); err != nil {
			return err
		}
	} else {
		p.sendSeenLength += int64(len(body))
		if p.sendSeenLength > *p.sendContentLength {
			return protoErr("Too much data sent for declared Content-Length")
		}
		if p.sendSeenLength < *p.sendContentLength && len(body) == 0 {
			return protoErr("Not enough data sent for declared Content-Length")
		}
		if len(body) > 0 {
			if _, err := p.stream.Write(body); err != nil {
				return err
			}
		}
	}

	if len(body) == 0 {
		p.sendState = StateDone
	}
	return nil
}

// RecvMethodLine reads the request line, returning (method, target,
// protocol).
func (p *Parser) RecvMethodLine() (method, target, protocol string, err error) {
	if p.recvState != StateRecvMethodLine {
		return "", "", "", invalidState("RecvMethodLine", p.recvState)
	}
	line, err := p.ra.ReadUntil([]byte("\r\n"), constants.MaxLineSize, "reading request method line")
	if err != nil {
		return "", "", "", err
	}
	parts := strings.SplitN(string(line), " ", 3)
	if len(parts) != 3 {
		return "", "", "", protoErr("Received malformed request line")
	}
	method, target, protocol = parts[0], parts[1], parts[2]
	if protocol != "HTTP/1.1" {
		return "", "", "", protoErr("Received unsupported protocol version")
	}

	p.recvState = StateRecvHeaders
	p.sendState = StateSendStatusLine
	return method, target, protocol, nil
}

// RecvStatusLine reads the response line, returning (protocol,
// statusCode, reason).
func (p *Parser) RecvStatusLine() (protocol string, statusCode int, reason string, err error) {
	if p.recvState != StateRecvStatusLine {
		return "", 0, "", invalidState("RecvStatusLine", p.recvState)
	}
	line, err := p.ra.ReadUntil([]byte("\r\n"), constants.MaxLineSize, "reading response status line")
	if err != nil {
		return "", 0, "", err
	}
	parts := strings.SplitN(string(line), " ", 3)
	if len(parts) != 3 {
		return "", 0, "", protoErr("Received malformed status line")
	}
	protocol, codeStr, reason := parts[0], parts[1], parts[2]
	if protocol != "HTTP/1.1" {
		return "", 0, "", protoErr("Received unsupported protocol version")
	}
	code, err := boundedInt(codeStr, 3, "Received invalid status code")
	if err != nil {
		return "", 0, "", err
	}
	if code < 100 {
		return "", 0, "", protoErr("Received invalid status code")
	}
	p.processing1xx = code < 200

	p.recvState = StateRecvHeaders
	return protocol, int(code), reason, nil
}

// RecvHeaders reads the header block. For an interim 1xx response,
// recv transitions back to StateRecvStatusLine instead of
// StateRecvBody, and the block's framing fields are ignored.
func (p *Parser) RecvHeaders() ([]HeaderField, error) {
	if p.recvState != StateRecvHeaders {
		return nil, invalidState("RecvHeaders", p.recvState)
	}

	var headers []HeaderField
	for {
		line, err := p.ra.ReadUntil([]byte("\r\n"), constants.MaxLineSize, "reading response headers")
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			break
		}
		idx := indexOf(line, ':')
		if idx < 0 {
			return nil, protoErr("Received malformed header line")
		}
		name := line[:idx]
		value := trimSpaceBytes(line[idx+1:])
		headers = append(headers, HeaderField{Name: name, Value: value})
	}

	seenHost := false
	for _, h := range headers {
		lname := strings.ToLower(string(h.Name))
		switch {
		case lname == "host":
			seenHost = true
		case p.processing1xx:
			// Framing fields of an interim 1xx block describe no body.
		case lname == "content-length":
			n, err := boundedInt(string(h.Value), constants.MaxContentLengthDigits, "Received invalid Content-Length")
			if err != nil {
				return nil, err
			}
			p.recvContentLength = &n
		case lname == "connection" && string(h.Value) == "close":
			p.recvKeepAlive = false
		case lname == "transfer-encoding" && string(h.Value) == "chunked":
			p.recvContentLength = nil
		}
	}

	if p.mode == ModeServer && !seenHost {
		return nil, protoErr("Request missing 'Host' header")
	}

	if p.processing1xx {
		p.processing1xx = false
		p.recvState = StateRecvStatusLine
	} else {
		p.recvState = StateRecvBody
	}
	return headers, nil
}

// RecvBody reads one slice of the body. A zero-length, nil-error
// return signals the end of the body and transitions to StateDone.
func (p *Parser) RecvBody() ([]byte, error) {
	if p.recvState != StateRecvBody {
		return nil, invalidState("RecvBody", p.recvState)
	}

	var body []byte
	if p.recvContentLength == nil {
		// Transfer-Encoding: chunked.
		line, err := p.ra.ReadUntil([]byte("\r\n"), constants.MaxLineSize, "reading chunk size")
		if err != nil {
			return nil, err
		}
		sizeStr, _, _ := partition(line, ';')
		size, err := boundedHex(string(sizeStr), constants.MaxChunkSizeHexDigits, "Received invalid chunk size")
		if err != nil {
			return nil, err
		}
		if size > 0 {
			body, err = p.ra.Read(int(size))
			if err != nil {
				return nil, err
			}
			if _, err := p.ra.ReadUntil([]byte("\r\n"), 2, "reading chunk data"); err != nil {
				return nil, err
			}
			p.recvSeenLength += int64(len(body))
		} else {
			body = nil
			if _, err := p.ra.ReadUntil([]byte("\r\n"), 2, "reading chunk termination"); err != nil {
				return nil, err
			}
		}
	} else {
		remaining := *p.recvContentLength - p.recvSeenLength
		size := remaining
		if size > constants.ReadAheadChunkSize {
			size = constants.ReadAheadChunkSize
		}
		var err error
		body, err = p.ra.Read(int(size))
		if err != nil {
			return nil, err
		}
		p.recvSeenLength += int64(len(body))
		if p.recvSeenLength < *p.recvContentLength && len(body) == 0 {
			return nil, protoErr("Not enough data received for declared Content-Length")
		}
	}

	if len(body) == 0 {
		p.recvState = StateDone
	}
	return body, nil
}

// IsKeepAlive reports whether both directions have currently agreed
// to keep the connection alive — callers should read this before
// Reset clears the flags back to their per-exchange defaults.
func (p *Parser) IsKeepAlive() bool { return p.sendKeepAlive && p.recvKeepAlive }

// IsFullyComplete reports whether both sub-states have reached DONE.
func (p *Parser) IsFullyComplete() bool { return p.sendState == StateDone && p.recvState == StateDone }

// Complete ends the current exchange: if both directions finished and
// keep-alive survived, it resets the state machine for the next
// request/response pair on this connection; otherwise it closes.
func (p *Parser) Complete() error {
	if !(p.IsFullyComplete() && p.IsKeepAlive()) {
		return p.Close()
	}
	p.resetState()
	return nil
}

// Reset unconditionally restores the send/recv sub-states to their
// role-initial values and clears framing counters, without itself
// judging keep-alive — callers (the server loop) that have already
// decided to keep the connection open call this directly instead of
// Complete, after separately deciding whether to close.
func (p *Parser) Reset() { p.resetState() }

// Close marks both sub-states CLOSED and closes the underlying stream.
// Idempotent.
func (p *Parser) Close() error {
	if p.sendState == StateClosed {
		return nil
	}
	p.sendState = StateClosed
	p.recvState = StateClosed
	return p.stream.Close()
}

// IsIdle reports whether the parser is at the very start of a fresh
// request/response cycle, on either side.
func (p *Parser) IsIdle() bool {
	return p.sendState == StateSendMethodLine || p.recvState == StateRecvMethodLine
}

// IsClosed reports whether Close has been called.
func (p *Parser) IsClosed() bool { return p.sendState == StateClosed }

// PeekEOF reports whether the underlying stream is exhausted, without
// consuming any data. The server loop uses this before RecvMethodLine
// to tell a peer closing the connection before sending a request apart
// from a mid-message protocol error.
func (p *Parser) PeekEOF() (bool, error) { return p.ra.PeekEOF() }

// Description summarizes the parser's lifecycle phase for logging.
func (p *Parser) Description() string {
	switch p.sendState {
	case StateSendMethodLine:
		return "idle"
	case StateClosed:
		return "closed"
	default:
		return "active"
	}
}

// SendState and RecvState expose the raw sub-states, mainly for tests
// and pool/server bookkeeping that need to distinguish "idle" from
// "mid-exchange" more finely than IsIdle does.
func (p *Parser) SendState() State { return p.sendState }
func (p *Parser) RecvState() State { return p.recvState }

func indexOf(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func partition(b []byte, c byte) (before, sep, after []byte) {
	idx := indexOf(b, c)
	if idx < 0 {
		return b, nil, nil
	}
	return b[:idx], b[idx : idx+1], b[idx+1:]
}

func trimSpaceBytes(b []byte) []byte {
	start := 0
	for start < len(b) && b[start] == ' ' {
		start++
	}
	end := len(b)
	for end > start && b[end-1] == ' ' {
		end--
	}
	return b[start:end]
}
