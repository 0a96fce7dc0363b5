// Command httpcore-demo starts an httpcore.Server with a single echo
// endpoint and, unless -serve-only is given, exercises it with a
// pooled httpcore.Client over two requests on the same origin so the
// connection-reuse log line is visible.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/WhileEndless/go-httpcore"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8089", "address to listen on")
	serveOnly := flag.Bool("serve-only", false, "keep serving instead of exiting after the demo request")
	flag.Parse()

	backend := httpcore.NewBackend()
	srv := httpcore.NewServer(backend, httpcore.ServerConfig{
		Endpoint: echoEndpoint,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, *addr) }()

	// Give the listener a moment to come up before dialing it.
	time.Sleep(50 * time.Millisecond)

	if *serveOnly {
		if err := <-errCh; err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	client := httpcore.NewClientWithBackend(backend)
	defer client.Close()

	url := "http://" + *addr + "/hello"
	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), url)
		if err != nil {
			log.Fatalf("request %d failed: %v", i+1, err)
		}
		fmt.Printf("request %d: %d %s\n", i+1, resp.StatusCode, resp.Text())
		resp.Close()
	}
	fmt.Println("pool:", client.Description())

	cancel()
	<-errCh
}

func echoEndpoint(req *httpcore.Request) *httpcore.Response {
	hdrs, err := httpcore.NewHeaders([][2]string{{"Content-Type", "text/plain"}})
	if err != nil {
		return nil
	}
	body := []byte(req.Method + " " + req.URL.Target())
	resp, err := httpcore.NewResponse(200, hdrs, body)
	if err != nil {
		return nil
	}
	return resp
}
