package httpparser

import (
	"testing"

	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/errors"
)

func TestStateMachineRejectsOutOfOrderCalls(t *testing.T) {
	stream := bytestream.NewDuplex(nil)
	p := New(stream, ModeClient)
	err := p.SendHeaders(nil)
	if err == nil {
		t.Fatal("expected error calling SendHeaders before SendMethodLine")
	}
	if !errors.IsProtocolError(err) {
		t.Fatal("expected a ProtocolError")
	}
}

func TestContentLengthRoundTrip(t *testing.T) {
	clientSide, serverSide := bytestream.Pair()
	client := New(clientSide, ModeClient)
	server := New(serverSide, ModeServer)

	if err := client.SendMethodLine("GET", "/hello", "HTTP/1.1"); err != nil {
		t.Fatalf("SendMethodLine: %v", err)
	}
	if err := client.SendHeaders([]HeaderField{
		{Name: []byte("Host"), Value: []byte("example.com")},
	}); err != nil {
		t.Fatalf("SendHeaders: %v", err)
	}
	if err := client.SendBody(nil); err != nil {
		t.Fatalf("SendBody: %v", err)
	}

	method, target, protocol, err := server.RecvMethodLine()
	if err != nil {
		t.Fatalf("RecvMethodLine: %v", err)
	}
	if method != "GET" || target != "/hello" || protocol != "HTTP/1.1" {
		t.Fatalf("got %q %q %q", method, target, protocol)
	}
	headers, err := server.RecvHeaders()
	if err != nil {
		t.Fatalf("RecvHeaders: %v", err)
	}
	if len(headers) != 1 || string(headers[0].Name) != "Host" {
		t.Fatalf("headers = %v", headers)
	}
	body, err := server.RecvBody()
	if err != nil || len(body) != 0 {
		t.Fatalf("RecvBody: %v, %q", err, body)
	}

	if err := server.SendStatusLine("HTTP/1.1", 200, "OK"); err != nil {
		t.Fatalf("SendStatusLine: %v", err)
	}
	payload := []byte("hello world")
	if err := server.SendHeaders([]HeaderField{
		{Name: []byte("Content-Length"), Value: []byte("11")},
	}); err != nil {
		t.Fatalf("SendHeaders: %v", err)
	}
	if err := server.SendBody(payload); err != nil {
		t.Fatalf("SendBody: %v", err)
	}
	if err := server.SendBody(nil); err != nil {
		t.Fatalf("SendBody(end): %v", err)
	}

	protocol, statusCode, reason, err := client.RecvStatusLine()
	if err != nil {
		t.Fatalf("RecvStatusLine: %v", err)
	}
	if protocol != "HTTP/1.1" || statusCode != 200 || reason != "OK" {
		t.Fatalf("got %q %d %q", protocol, statusCode, reason)
	}
	if _, err := client.RecvHeaders(); err != nil {
		t.Fatalf("RecvHeaders: %v", err)
	}
	var got []byte
	for {
		chunk, err := client.RecvBody()
		if err != nil {
			t.Fatalf("RecvBody: %v", err)
		}
		if len(chunk) == 0 {
			break
		}
		got = append(got, chunk...)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}

	if !client.IsFullyComplete() || !server.IsFullyComplete() {
		t.Fatal("expected both sides fully complete")
	}
	if !client.IsKeepAlive() || !server.IsKeepAlive() {
		t.Fatal("expected keep-alive by default")
	}
}

func TestChunkedBodyRoundTrip(t *testing.T) {
	clientSide, serverSide := bytestream.Pair()
	client := New(clientSide, ModeClient)
	server := New(serverSide, ModeServer)

	mustSendRequest(t, client, "POST", "/upload")
	if _, _, _, err := server.RecvMethodLine(); err != nil {
		t.Fatal(err)
	}
	if _, err := server.RecvHeaders(); err != nil {
		t.Fatal(err)
	}
	drainBody(t, server)

	if err := server.SendStatusLine("HTTP/1.1", 200, "OK"); err != nil {
		t.Fatal(err)
	}
	if err := server.SendHeaders([]HeaderField{
		{Name: []byte("Transfer-Encoding"), Value: []byte("chunked")},
	}); err != nil {
		t.Fatal(err)
	}
	if err := server.SendBody([]byte("ab")); err != nil {
		t.Fatal(err)
	}
	if err := server.SendBody([]byte("cde")); err != nil {
		t.Fatal(err)
	}
	if err := server.SendBody(nil); err != nil {
		t.Fatal(err)
	}

	if _, _, _, err := client.RecvStatusLine(); err != nil {
		t.Fatal(err)
	}
	if _, err := client.RecvHeaders(); err != nil {
		t.Fatal(err)
	}
	got := drainBody(t, client)
	if string(got) != "abcde" {
		t.Fatalf("got %q", got)
	}
}

func mustSendRequest(t *testing.T, p *Parser, method, target string) {
	t.Helper()
	if err := p.SendMethodLine(method, target, "HTTP/1.1"); err != nil {
		t.Fatal(err)
	}
	if err := p.SendHeaders([]HeaderField{{Name: []byte("Host"), Value: []byte("example.com")}}); err != nil {
		t.Fatal(err)
	}
	if err := p.SendBody(nil); err != nil {
		t.Fatal(err)
	}
}

func drainBody(t *testing.T, p *Parser) []byte {
	t.Helper()
	var out []byte
	for {
		chunk, err := p.RecvBody()
		if err != nil {
			t.Fatal(err)
		}
		if len(chunk) == 0 {
			return out
		}
		out = append(out, chunk...)
	}
}

func TestConnectionCloseEndsKeepAlive(t *testing.T) {
	clientSide, serverSide := bytestream.Pair()
	client := New(clientSide, ModeClient)
	server := New(serverSide, ModeServer)

	if err := client.SendMethodLine("GET", "/", "HTTP/1.1"); err != nil {
		t.Fatal(err)
	}
	if err := client.SendHeaders([]HeaderField{
		{Name: []byte("Host"), Value: []byte("example.com")},
		{Name: []byte("Connection"), Value: []byte("close")},
	}); err != nil {
		t.Fatal(err)
	}
	if err := client.SendBody(nil); err != nil {
		t.Fatal(err)
	}

	if _, _, _, err := server.RecvMethodLine(); err != nil {
		t.Fatal(err)
	}
	if _, err := server.RecvHeaders(); err != nil {
		t.Fatal(err)
	}
	drainBody(t, server)

	if server.IsKeepAlive() {
		t.Fatal("expected Connection: close to clear recv keep-alive")
	}
}

func TestBoundedReadUntilRejectsOversizedLine(t *testing.T) {
	stream := bytestream.NewDuplex([]byte("x"))
	ra := NewReadAheadParser(stream)
	stream.Feed(make([]byte, 5000))
	stream.Feed([]byte("\r\n"))
	_, err := ra.ReadUntil([]byte("\r\n"), 4096, "reading test line")
	if err == nil || !errors.IsProtocolError(err) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestReadAheadPushBackPreservesOverrun(t *testing.T) {
	stream := bytestream.NewDuplex([]byte("hello\r\nworld"))
	ra := NewReadAheadParser(stream)
	line, err := ra.ReadUntil([]byte("\r\n"), 4096, "reading test line")
	if err != nil {
		t.Fatal(err)
	}
	if string(line) != "hello" {
		t.Fatalf("line = %q", line)
	}
	rest, err := ra.Read(5)
	if err != nil {
		t.Fatal(err)
	}
	if string(rest) != "world" {
		t.Fatalf("rest = %q", rest)
	}
}

func TestCompleteClosesWhenNotKeepAlive(t *testing.T) {
	clientSide, serverSide := bytestream.Pair()
	client := New(clientSide, ModeClient)
	_ = serverSide
	client.sendKeepAlive = false
	client.sendState = StateDone
	client.recvState = StateDone
	if err := client.Complete(); err != nil {
		t.Fatal(err)
	}
	if !client.IsClosed() {
		t.Fatal("expected Complete to close a non-keep-alive connection")
	}
}

func TestCompleteResetsOnKeepAlive(t *testing.T) {
	clientSide, _ := bytestream.Pair()
	client := New(clientSide, ModeClient)
	client.sendState = StateDone
	client.recvState = StateDone
	if err := client.Complete(); err != nil {
		t.Fatal(err)
	}
	if client.IsClosed() {
		t.Fatal("expected Complete to reset, not close, a keep-alive connection")
	}
	if client.SendState() != StateSendMethodLine {
		t.Fatalf("sendState = %v", client.SendState())
	}
}
