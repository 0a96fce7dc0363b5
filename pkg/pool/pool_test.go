package pool

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/WhileEndless/go-httpcore/pkg/headers"
	"github.com/WhileEndless/go-httpcore/pkg/httpurl"
	"github.com/WhileEndless/go-httpcore/pkg/message"
	"github.com/WhileEndless/go-httpcore/pkg/network"
)

// startEchoServer accepts connections on a loopback listener and
// writes a canned "200 OK" response to each of the first two requests
// on a connection, keeping it open between them for keep-alive reuse.
func startEchoServer(t *testing.T) (addr string, closeFn func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				r := bufio.NewReader(conn)
				for {
					line, err := r.ReadString('\n')
					if err != nil || line == "\r\n" {
						if err != nil {
							return
						}
					}
					if line == "\r\n" {
						break
					}
				}
				conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nOK"))
				// loop to serve a second request on the same connection
				r2 := bufio.NewReader(conn)
				for {
					line, err := r2.ReadString('\n')
					if err != nil {
						return
					}
					if line == "\r\n" {
						break
					}
				}
				conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nOK"))
			}()
		}
	}()
	return ln.Addr().String(), func() { ln.Close() }
}

func TestConnectionPoolSendsAndReusesConnection(t *testing.T) {
	addr, closeFn := startEchoServer(t)
	defer closeFn()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	_ = portStr

	p := NewConnectionPool(network.NewBackend())
	defer p.Close()

	url, err := httpurl.Parse("http://" + addr + "/")
	if err != nil {
		t.Fatal(err)
	}
	_ = host

	req, err := message.NewRequest("GET", url, headers.Headers{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := p.Send(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	body, err := resp.Read()
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "OK" {
		t.Fatalf("body = %q", body)
	}

	if len(p.Connections()) != 1 {
		t.Fatalf("expected 1 pooled connection, got %d", len(p.Connections()))
	}

	req2, err := message.NewRequest("GET", url, headers.Headers{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp2, err := p.Send(ctx, req2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := resp2.Read(); err != nil {
		t.Fatal(err)
	}

	if len(p.Connections()) != 1 {
		t.Fatalf("expected connection reuse, got %d pooled connections", len(p.Connections()))
	}
}

func TestConnectionPoolRequestReadsBodyFully(t *testing.T) {
	addr, closeFn := startEchoServer(t)
	defer closeFn()

	p := NewConnectionPool(network.NewBackend())
	defer p.Close()

	url, err := httpurl.Parse("http://" + addr + "/")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := p.Request(ctx, "GET", url, headers.Headers{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Body() panics if Read() was never called; Request must call it.
	if string(resp.Body()) != "OK" {
		t.Fatalf("body = %q", resp.Body())
	}
}
