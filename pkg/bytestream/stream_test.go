package bytestream

import (
	"bytes"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory([]byte("hello world"))
	if sz, ok := m.Size(); !ok || sz != 11 {
		t.Fatalf("Size() = %d, %v", sz, ok)
	}
	got, err := ReadAll(m)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, []byte("hello world")) {
		t.Fatalf("got %q", got)
	}
}

func TestDuplexPair(t *testing.T) {
	client, server := Pair()
	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	got, err := server.Read(64)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ping" {
		t.Fatalf("got %q", got)
	}
	if _, err := server.Write([]byte("pong")); err != nil {
		t.Fatal(err)
	}
	got, err = client.Read(64)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "pong" {
		t.Fatalf("got %q", got)
	}
}

func TestHTTPBodyChunking(t *testing.T) {
	chunks := [][]byte{[]byte("ab"), []byte("cde"), nil}
	i := 0
	next := func() ([]byte, error) {
		c := chunks[i]
		if i < len(chunks)-1 {
			i++
		}
		return c, nil
	}
	completed := false
	body := NewHTTPBody(next, func() error { completed = true; return nil })

	got, err := body.Read(4)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abcd" {
		t.Fatalf("first read = %q", got)
	}
	got, err = body.Read(4)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "e" {
		t.Fatalf("second read = %q", got)
	}
	if err := body.Close(); err != nil {
		t.Fatal(err)
	}
	if !completed {
		t.Fatal("expected completion callback to fire")
	}
	if err := body.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
}

func TestFileSpillsPastThreshold(t *testing.T) {
	f := NewFile(4)
	if _, err := f.Write([]byte("hello world")); err != nil {
		t.Fatal(err)
	}
	if !f.IsSpilled() {
		t.Fatal("expected spill past 4-byte threshold")
	}
	got, err := ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}
