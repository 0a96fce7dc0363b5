// Package content implements the request/response body encoders:
// plain text, JSON, URL-encoded forms, and multipart/form-data.
package content

import (
	"encoding/json"
	"strings"

	"github.com/WhileEndless/go-httpcore/pkg/bytestream"
	"github.com/WhileEndless/go-httpcore/pkg/httpurl"
)

// Content is anything that knows how to turn itself into a body
// Stream and the Content-Type header that describes it.
type Content interface {
	Encode() (bytestream.Stream, error)
	ContentType() string
}

// Text is a plain text/plain body.
type Text struct{ value string }

// NewText wraps a string as a text/plain; charset=utf-8 body.
func NewText(value string) Text { return Text{value} }

func (t Text) Encode() (bytestream.Stream, error) { return bytestream.NewMemory([]byte(t.value)), nil }
func (t Text) ContentType() string                { return "text/plain; charset=utf-8" }

// HTML is a text/html body.
type HTML struct{ value string }

// NewHTML wraps a string as a text/html; charset=utf-8 body.
func NewHTML(value string) HTML { return HTML{value} }

func (h HTML) Encode() (bytestream.Stream, error) { return bytestream.NewMemory([]byte(h.value)), nil }
func (h HTML) ContentType() string                { return "text/html; charset=utf-8" }

// JSON serializes an arbitrary value as application/json.
type JSON struct{ data any }

// NewJSON wraps any JSON-marshalable value.
func NewJSON(data any) JSON { return JSON{data} }

func (j JSON) Encode() (bytestream.Stream, error) {
	buf, err := json.Marshal(j.data)
	if err != nil {
		return nil, err
	}
	return bytestream.NewMemory(buf), nil
}

func (j JSON) ContentType() string { return "application/json" }

// Form is an application/x-www-form-urlencoded body, backed by the
// same ordered multi-map as a URL's query string.
type Form struct{ values httpurl.Form }

// NewForm wraps a Form multi-map as a request/response body.
func NewForm(values httpurl.Form) Form { return Form{values} }

func (f Form) Encode() (bytestream.Stream, error) {
	return bytestream.NewMemory([]byte(f.values.Encode())), nil
}

func (f Form) ContentType() string { return "application/x-www-form-urlencoded" }

// FilePart is one file field of a multipart/form-data body. Open is
// called lazily, exactly once, when the multipart stream reaches this
// part — it returns a stream of the file's bytes; the filename comes
// from FileName.
type FilePart struct {
	FieldName   string
	FileName    string
	ContentType string
	Open        func() (bytestream.Stream, error)
}

// Multipart is a multipart/form-data body assembled from form fields
// and file parts.
type Multipart struct {
	form     [][2]string
	files    []FilePart
	boundary string
}

// NewMultipart builds a Multipart body. If boundary is empty, a random
// one is generated.
func NewMultipart(form [][2]string, files []FilePart, boundary string) Multipart {
	if boundary == "" {
		boundary = randomBoundary()
	}
	return Multipart{form: form, files: files, boundary: boundary}
}

func (m Multipart) ContentType() string {
	return "multipart/form-data; boundary=" + m.boundary
}

// Encode returns a lazily-generated Stream: form fields are rendered
// first, then each file part is opened, streamed in 64KiB chunks, and
// closed, mirroring the teacher's read_next_section progression.
func (m Multipart) Encode() (bytestream.Stream, error) {
	formQueue := append([][2]string(nil), m.form...)
	filesQueue := append([]FilePart(nil), m.files...)

	var current bytestream.Stream
	finalSent := false

	next := func() ([]byte, error) {
		if len(formQueue) > 0 {
			field := formQueue[0]
			formQueue = formQueue[1:]
			name := escapeDispositionValue(field[0])
			section := "--" + m.boundary + "\r\n" +
				`Content-Disposition: form-data; name="` + name + `"` + "\r\n\r\n" +
				field[1] + "\r\n"
			return []byte(section), nil
		}

		if current == nil && len(filesQueue) > 0 {
			part := filesQueue[0]
			filesQueue = filesQueue[1:]
			s, err := part.Open()
			if err != nil {
				return nil, err
			}
			current = s
			name := escapeDispositionValue(part.FieldName)
			filename := escapeDispositionValue(part.FileName)
			header := "--" + m.boundary + "\r\n" +
				`Content-Disposition: form-data; name="` + name + `"; filename="` + filename + `"` + "\r\n"
			if part.ContentType != "" {
				header += "Content-Type: " + part.ContentType + "\r\n"
			}
			header += "\r\n"
			return []byte(header), nil
		}

		if current != nil {
			chunk, err := current.Read(64 * 1024)
			if err != nil {
				return nil, err
			}
			if len(chunk) > 0 {
				return chunk, nil
			}
			_ = current.Close()
			current = nil
			return []byte("\r\n"), nil
		}

		if !finalSent {
			finalSent = true
			return []byte("--" + m.boundary + "--\r\n"), nil
		}
		return nil, nil
	}

	complete := func() error {
		if current != nil {
			return current.Close()
		}
		return nil
	}

	return bytestream.NewHTTPBody(next, complete), nil
}

func escapeDispositionValue(s string) string {
	s = strings.ReplaceAll(s, "\n", "%0A")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, `"`, "%22")
	return s
}
