package message

import (
	"testing"

	"github.com/WhileEndless/go-httpcore/pkg/content"
	"github.com/WhileEndless/go-httpcore/pkg/headers"
	"github.com/WhileEndless/go-httpcore/pkg/httpurl"
)

func TestReasonPhraseKnownAndUnknown(t *testing.T) {
	if ReasonPhrase(200) != "OK" {
		t.Fatalf("200 = %q", ReasonPhrase(200))
	}
	if ReasonPhrase(999) != "Unknown Status Code" {
		t.Fatalf("999 = %q", ReasonPhrase(999))
	}
}

func TestNewRequestDefaultsHost(t *testing.T) {
	url := httpurl.MustParse("http://example.com/a")
	r, err := NewRequest("GET", url, headers.Headers{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Headers.Get("Host", "") != "example.com" {
		t.Fatalf("Host = %q", r.Headers.Get("Host", ""))
	}
}

func TestNewRequestPostWithoutBodyGetsZeroContentLength(t *testing.T) {
	url := httpurl.MustParse("http://example.com/a")
	r, err := NewRequest("POST", url, headers.Headers{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Headers.Get("Content-Length", "") != "0" {
		t.Fatalf("Content-Length = %q", r.Headers.Get("Content-Length", ""))
	}
}

func TestNewRequestBytesBodySetsContentLength(t *testing.T) {
	url := httpurl.MustParse("http://example.com/a")
	r, err := NewRequest("POST", url, headers.Headers{}, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Headers.Get("Content-Length", "") != "5" {
		t.Fatalf("Content-Length = %q", r.Headers.Get("Content-Length", ""))
	}
	body, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello" {
		t.Fatalf("body = %q", body)
	}
}

func TestNewRequestContentSetsContentType(t *testing.T) {
	url := httpurl.MustParse("http://example.com/a")
	r, err := NewRequest("POST", url, headers.Headers{}, content.NewJSON(map[string]int{"x": 1}))
	if err != nil {
		t.Fatal(err)
	}
	if r.Headers.Get("Content-Type", "") != "application/json" {
		t.Fatalf("Content-Type = %q", r.Headers.Get("Content-Type", ""))
	}
}

func TestNewResponseBodylessStatusSkipsFraming(t *testing.T) {
	r, err := NewResponse(204, headers.Headers{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Headers.Has("Content-Length") || r.Headers.Has("Transfer-Encoding") {
		t.Fatalf("expected no framing headers on 204, got %v", r.Headers.Items())
	}
}

func TestNewResponseSetsZeroContentLength(t *testing.T) {
	r, err := NewResponse(200, headers.Headers{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Headers.Get("Content-Length", "") != "0" {
		t.Fatalf("Content-Length = %q", r.Headers.Get("Content-Length", ""))
	}
}

func TestResponseTextDefaultsToUTF8(t *testing.T) {
	hdrs, err := headers.New([][2]string{{"Content-Type", "text/plain"}})
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewResponse(200, hdrs, []byte("héllo"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Read(); err != nil {
		t.Fatal(err)
	}
	if r.Text() != "héllo" {
		t.Fatalf("text = %q", r.Text())
	}
}
