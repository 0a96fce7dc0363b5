package bytestream

import (
	"io"

	"github.com/WhileEndless/go-httpcore/pkg/buffer"
	"github.com/WhileEndless/go-httpcore/pkg/errors"
)

// File is a Stream that accumulates written bytes in memory up to a
// threshold and, once a write would cross it, moves everything to a
// temp file, so a large body doesn't have to live entirely on the
// heap. It is built directly on the disk-spilling
// buffer.Buffer rather than reimplementing the spill threshold.
type File struct {
	buf    *buffer.Buffer
	reader io.ReadCloser
}

// NewFile returns an empty File stream with the given in-memory
// threshold (bytes); 0 selects buffer.DefaultMemoryLimit.
func NewFile(memLimit int64) *File {
	return &File{buf: buffer.New(memLimit)}
}

// Write appends to the backing buffer, spilling to disk past the limit.
func (f *File) Write(p []byte) (int, error) {
	return f.buf.Write(p)
}

// Read serves previously written bytes, opening a reader on first call.
func (f *File) Read(size int) ([]byte, error) {
	if f.reader == nil {
		r, err := f.buf.Reader()
		if err != nil {
			return nil, err
		}
		f.reader = r
	}
	if size <= 0 {
		size = 64 * 1024
	}
	out := make([]byte, size)
	n, err := f.reader.Read(out)
	if err != nil {
		if err == io.EOF {
			return out[:n], nil
		}
		return nil, errors.NewIOError("reading spilled body", err)
	}
	return out[:n], nil
}

// Close releases the reader and removes any spilled temp file.
func (f *File) Close() error {
	if f.reader != nil {
		_ = f.reader.Close()
		f.reader = nil
	}
	return f.buf.Close()
}

// Size reports the number of bytes written so far; it is always known
// once writing has finished, unlike a live chunked body.
func (f *File) Size() (int64, bool) {
	return f.buf.Size(), true
}

// IsSpilled reports whether the payload spilled to a temp file.
func (f *File) IsSpilled() bool { return f.buf.IsSpilled() }
