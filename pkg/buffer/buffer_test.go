package buffer

import (
	"io"
	"testing"
)

func TestWriteSpillsPastLimit(t *testing.T) {
	buf := New(10)
	defer buf.Close()

	small := []byte("small")
	if _, err := buf.Write(small); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if buf.IsSpilled() {
		t.Fatalf("expected data to stay in memory under the limit")
	}
	if buf.Bytes() == nil {
		t.Fatalf("expected in-memory bytes before spilling")
	}

	large := []byte("this is much larger data that exceeds the limit")
	if _, err := buf.Write(large); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !buf.IsSpilled() {
		t.Fatalf("expected data to spill to disk past the limit")
	}
	if buf.Path() == "" {
		t.Fatalf("expected a temp file path once spilled")
	}
	if buf.Bytes() != nil {
		t.Fatalf("expected no in-memory bytes after spilling")
	}

	want := int64(len(small) + len(large))
	if buf.Size() != want {
		t.Fatalf("Size() = %d, want %d", buf.Size(), want)
	}
}

func TestReaderReturnsWrittenBytesBothBeforeAndAfterSpill(t *testing.T) {
	buf := New(1024)
	defer buf.Close()

	want := []byte("test data for reader")
	if _, err := buf.Write(want); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r, err := buf.Reader()
	if err != nil {
		t.Fatalf("Reader() failed: %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCloseIsIdempotentAndRemovesSpillFile(t *testing.T) {
	buf := New(1)
	if _, err := buf.Write([]byte("spills immediately")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	path := buf.Path()
	if path == "" {
		t.Fatalf("expected a spill path")
	}

	if err := buf.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got: %v", err)
	}
	if _, err := buf.Write([]byte("x")); err == nil {
		t.Fatalf("expected write after close to fail")
	}
}
