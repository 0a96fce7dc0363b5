package content

import (
	"strings"
	"testing"

	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/httpurl"
)

func TestTextContent(t *testing.T) {
	c := NewText("hello")
	if c.ContentType() != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", c.ContentType())
	}
	s, err := c.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := bytestream.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestJSONContent(t *testing.T) {
	c := NewJSON(map[string]int{"a": 1})
	s, err := c.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := bytestream.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("got %q", got)
	}
}

func TestFormContent(t *testing.T) {
	c := NewForm(httpurl.NewFormFromPairs([][2]string{{"a", "1"}, {"b", "x y"}}))
	s, err := c.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := bytestream.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "a=1&b=x+y" {
		t.Fatalf("got %q", got)
	}
}

func TestMultipartFormOnly(t *testing.T) {
	m := NewMultipart([][2]string{{"name", "alice"}}, nil, "BOUND")
	s, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := bytestream.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	body := string(got)
	if !strings.Contains(body, "--BOUND\r\n") {
		t.Fatalf("missing boundary: %q", body)
	}
	if !strings.Contains(body, `name="name"`) {
		t.Fatalf("missing field name: %q", body)
	}
	if !strings.Contains(body, "alice") {
		t.Fatalf("missing value: %q", body)
	}
	if !strings.HasSuffix(body, "--BOUND--\r\n") {
		t.Fatalf("missing terminator: %q", body)
	}
}

func TestMultipartWithFile(t *testing.T) {
	part := FilePart{
		FieldName:   "upload",
		FileName:    "a.txt",
		ContentType: "text/plain",
		Open: func() (bytestream.Stream, error) {
			return bytestream.NewMemory([]byte("file contents")), nil
		},
	}
	m := NewMultipart(nil, []FilePart{part}, "BOUND")
	s, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := bytestream.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	body := string(got)
	if !strings.Contains(body, `filename="a.txt"`) {
		t.Fatalf("missing filename: %q", body)
	}
	if !strings.Contains(body, "file contents") {
		t.Fatalf("missing file contents: %q", body)
	}
	if !strings.Contains(body, "Content-Type: text/plain\r\n") {
		t.Fatalf("missing content-type: %q", body)
	}
}
