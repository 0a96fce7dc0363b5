package server

import (
	"context"
	"strings"
	"testing"

	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/content"
	"github.com/WhileEndless/go-httpcore/pkg/headers"
	"github.com/WhileEndless/go-httpcore/pkg/httpparser"
	"github.com/WhileEndless/go-httpcore/pkg/message"
)

// driveOneRequest runs the server's per-request handling loop against
// a CLIENT-mode parser wired to the other end of an in-process
// bytestream.Pair, and returns the client's view of the response.
func driveOneRequest(t *testing.T, endpoint Endpoint, method, target string) (statusCode int, body string, keepAlive bool) {
	t.Helper()
	clientSide, serverSide := bytestream.Pair()

	client := httpparser.New(clientSide, httpparser.ModeClient)
	if err := client.SendMethodLine(method, target, "HTTP/1.1"); err != nil {
		t.Fatal(err)
	}
	if err := client.SendHeaders([]httpparser.HeaderField{
		{Name: []byte("Host"), Value: []byte("example.com")},
	}); err != nil {
		t.Fatal(err)
	}
	if err := client.SendBody(nil); err != nil {
		t.Fatal(err)
	}

	srv := New(nil, Config{Endpoint: endpoint})
	serverParser := httpparser.New(serverSide, httpparser.ModeServer)
	if ok := srv.handleOneRequest(serverParser); !ok {
		// still fine; keep-alive is judged independently below
	}

	_, statusCode, _, err := client.RecvStatusLine()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.RecvHeaders(); err != nil {
		t.Fatal(err)
	}
	var buf []byte
	for {
		chunk, err := client.RecvBody()
		if err != nil {
			t.Fatal(err)
		}
		if len(chunk) == 0 {
			break
		}
		buf = append(buf, chunk...)
	}
	return statusCode, string(buf), client.IsKeepAlive()
}

func TestHandleOneRequestEchoesEndpointResponse(t *testing.T) {
	endpoint := func(req *message.Request) *message.Response {
		resp, err := message.NewResponse(200, headers.Headers{}, content.NewText("hello"))
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	statusCode, body, _ := driveOneRequest(t, endpoint, "GET", "/")
	if statusCode != 200 {
		t.Fatalf("statusCode = %d, want 200", statusCode)
	}
	if body != "hello" {
		t.Fatalf("body = %q, want %q", body, "hello")
	}
}

func TestHandleOneRequestRecoversEndpointPanic(t *testing.T) {
	endpoint := func(req *message.Request) *message.Response {
		panic("boom")
	}

	statusCode, body, _ := driveOneRequest(t, endpoint, "GET", "/")
	if statusCode != 500 {
		t.Fatalf("statusCode = %d, want 500", statusCode)
	}
	if !strings.Contains(body, "Internal Server Error") {
		t.Fatalf("body = %q, want it to mention Internal Server Error", body)
	}
}

func TestHandleOneRequestNilResponseBecomesInternalServerError(t *testing.T) {
	endpoint := func(req *message.Request) *message.Response { return nil }

	statusCode, _, _ := driveOneRequest(t, endpoint, "GET", "/")
	if statusCode != 500 {
		t.Fatalf("statusCode = %d, want 500", statusCode)
	}
}

func TestHandleOneRequestPassesThroughMethodAndTarget(t *testing.T) {
	var gotMethod, gotTarget string
	endpoint := func(req *message.Request) *message.Response {
		gotMethod = req.Method
		gotTarget = req.URL.Target()
		resp, err := message.NewResponse(204, headers.Headers{}, nil)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	driveOneRequest(t, endpoint, "POST", "/widgets")
	if gotMethod != "POST" {
		t.Fatalf("method = %q, want POST", gotMethod)
	}
	if gotTarget != "/widgets" {
		t.Fatalf("target = %q, want /widgets", gotTarget)
	}
}

func TestRecvRequestReturnsErrConnectionClosedEarlyOnCleanEOF(t *testing.T) {
	clientSide, serverSide := bytestream.Pair()
	clientSide.Close()

	srv := New(nil, Config{Endpoint: func(*message.Request) *message.Response { return nil }})
	serverParser := httpparser.New(serverSide, httpparser.ModeServer)
	_, err := srv.recvRequest(serverParser)
	if err != errConnectionClosedEarly {
		t.Fatalf("err = %v, want errConnectionClosedEarly", err)
	}
}

func TestServeUsesBackendListenerWithCanceledContext(t *testing.T) {
	srv := New(nil, Config{Endpoint: func(*message.Request) *message.Response { return nil }})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := srv.Serve(ctx, "127.0.0.1:0"); err != nil {
		t.Fatalf("Serve returned %v, want nil after immediate cancellation", err)
	}
}
