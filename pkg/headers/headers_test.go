package headers

import "testing"

func mustNew(t *testing.T, pairs [][2]string) Headers {
	h, err := New(pairs)
	if err != nil {
		t.Fatalf("New(%v): %v", pairs, err)
	}
	return h
}

func TestGetCaseInsensitive(t *testing.T) {
	h := mustNew(t, [][2]string{{"Content-Type", "text/plain"}})
	if got := h.Get("content-type", ""); got != "text/plain" {
		t.Fatalf("Get = %q", got)
	}
}

func TestInvalidNameRejected(t *testing.T) {
	if _, err := New([][2]string{{"bad name", "x"}}); err == nil {
		t.Fatal("expected error for header name with a space")
	}
}

func TestInvalidValueRejected(t *testing.T) {
	if _, err := New([][2]string{{"X-Test", "line1\nline2"}}); err == nil {
		t.Fatal("expected error for non-printable header value")
	}
}

func TestCopySetMovesFieldToEnd(t *testing.T) {
	h := mustNew(t, [][2]string{{"A", "1"}, {"B", "2"}})
	out, err := h.CopySet("a", "9")
	if err != nil {
		t.Fatal(err)
	}
	items := out.Items()
	if len(items) != 2 || items[0][0] != "B" || items[1] != [2]string{"a", "9"} {
		t.Fatalf("items = %v", items)
	}
}

func TestCopyAppendAllowsDuplicates(t *testing.T) {
	h := mustNew(t, [][2]string{{"Set-Cookie", "a=1"}})
	out, err := h.CopyAppend("Set-Cookie", "b=2")
	if err != nil {
		t.Fatal(err)
	}
	list := out.GetList("set-cookie")
	if len(list) != 2 || list[0] != "a=1" || list[1] != "b=2" {
		t.Fatalf("GetList = %v", list)
	}
}

func TestCopyRemove(t *testing.T) {
	h := mustNew(t, [][2]string{{"A", "1"}, {"B", "2"}})
	out := h.CopyRemove("a")
	if out.Has("A") {
		t.Fatal("expected A removed")
	}
	if out.Len() != 1 {
		t.Fatalf("len = %d", out.Len())
	}
}

func TestCopyUpdate(t *testing.T) {
	h := mustNew(t, [][2]string{{"Accept", "*/*"}, {"User-Agent", "go-httpcore"}})
	update := mustNew(t, [][2]string{{"Accept-Encoding", "gzip"}})
	out := h.CopyUpdate(update)
	if out.Get("accept", "") != "*/*" || out.Get("accept-encoding", "") != "gzip" {
		t.Fatalf("items = %v", out.Items())
	}
}

func TestEqualIgnoresCaseAndOrder(t *testing.T) {
	a := mustNew(t, [][2]string{{"Accept", "*/*"}, {"X-Id", "1"}})
	b := mustNew(t, [][2]string{{"x-id", "1"}, {"accept", "*/*"}})
	if !a.Equal(b) {
		t.Fatal("expected equal")
	}
}

func TestParseContentTypeBasic(t *testing.T) {
	mt, params := ParseContentType("Text/Plain; charset=UTF-8")
	if mt != "text/plain" {
		t.Fatalf("mediaType = %q", mt)
	}
	if params["charset"] != "UTF-8" {
		t.Fatalf("params = %v", params)
	}
}

func TestParseContentTypeQuotedWithEscape(t *testing.T) {
	mt, params := ParseContentType(`multipart/form-data; boundary="a\"b"`)
	if mt != "multipart/form-data" {
		t.Fatalf("mediaType = %q", mt)
	}
	if params["boundary"] != `a"b` {
		t.Fatalf("boundary = %q", params["boundary"])
	}
}

func TestParseContentTypeNoParams(t *testing.T) {
	mt, params := ParseContentType("application/json")
	if mt != "application/json" || len(params) != 0 {
		t.Fatalf("mt=%q params=%v", mt, params)
	}
}
