// Package formdata encodes multipart/form-data bodies.
//
// A FormData collects parts in order and encodes them either into memory or,
// when the body is larger than a threshold or its size is unknown, into a
// temporary file that is then streamed to the transport.
//
// The boundary is a random token generated per FormData. Part contents are
// not scanned for it: a collision is possible in principle and is an
// accepted risk, not something this package guards against.
package formdata

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HexmosTech/reqkit/request"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// DefaultMemoryThreshold is the largest body encoded in memory.
	DefaultMemoryThreshold int64 = 10 * 1024 * 1024

	crlf             = "\r\n"
	streamBufferSize = 32 * 1024
)

type FormData struct {
	// TempDir is where bodies above the threshold are written. Empty means
	// os.TempDir().
	TempDir string

	boundary string
	parts    []Part
}

// New returns an empty form. Its boundary is chosen here, once, so that
// ContentType matches every body Encode produces from it.
func New() *FormData {
	return &FormData{boundary: newBoundary()}
}

func newBoundary() string {
	return "reqkit.boundary." + strings.ReplaceAll(uuid.New().String(), "-", "")
}

func (f *FormData) Boundary() string {
	return f.boundary
}

func (f *FormData) ContentType() string {
	return "multipart/form-data; boundary=" + f.boundary
}

// Len returns the number of parts.
func (f *FormData) Len() int {
	return len(f.parts)
}

func (f *FormData) AppendPart(p Part) {
	f.parts = append(f.parts, p)
}

// AppendData appends a plain form field.
func (f *FormData) AppendData(name string, data []byte) {
	f.AppendPart(DataPart(name, "", "", data))
}

// AppendDataFile appends in-memory data as a file upload.
func (f *FormData) AppendDataFile(name, filename, contentType string, data []byte) {
	f.AppendPart(DataPart(name, filename, contentType, data))
}

// AppendReader appends a streamed part. Pass -1 as length when unknown.
func (f *FormData) AppendReader(name, filename, contentType string, r io.Reader, length int64) {
	f.AppendPart(ReaderPart(name, filename, contentType, r, length))
}

// AppendFile appends the file at path with a filename and content type
// derived from the path.
func (f *FormData) AppendFile(name, path string) error {
	return f.AppendFileAs(name, path, "", "")
}

func (f *FormData) AppendFileAs(name, path, filename, contentType string) error {
	p, err := FilePart(name, path, filename, contentType)
	if err != nil {
		return err
	}
	f.AppendPart(p)
	return nil
}

// ContentLength returns the exact size of the encoded body. ok is false when
// any part has an unknown length.
func (f *FormData) ContentLength() (n int64, ok bool) {
	for i := range f.parts {
		p := &f.parts[i]
		if p.Length < 0 {
			return 0, false
		}
		n += int64(len(f.openingBoundary())) + int64(len(p.header())) + p.Length + int64(len(crlf))
	}
	return n + int64(len(f.closingBoundary())), true
}

func (f *FormData) openingBoundary() string {
	return "--" + f.boundary + crlf
}

func (f *FormData) closingBoundary() string {
	return "--" + f.boundary + "--" + crlf
}

// Encoded is a successfully encoded body.
type Encoded struct {
	Body              request.BodySource
	ContentLength     int64
	ContentType       string
	StreamingFromDisk bool
	// Path is the temporary file backing Body when StreamingFromDisk.
	Path string
}

// Cleanup removes the temporary file of a disk-backed body.
func (e *Encoded) Cleanup() error {
	if e == nil || !e.StreamingFromDisk || e.Path == "" {
		return nil
	}
	if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing multipart temporary file")
	}
	return nil
}

// Encode encodes the body. When its length is known and no greater than
// threshold it is built in memory; otherwise it is written to a uniquely
// named temporary file. Encode blocks on file I/O and cannot be interrupted.
func (f *FormData) Encode(threshold int64) (*Encoded, error) {
	if n, ok := f.ContentLength(); ok && n <= threshold {
		return f.encodeInMemory(n)
	}
	return f.encodeToDisk()
}

func (f *FormData) encodeInMemory(size int64) (*Encoded, error) {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	n, err := f.writeTo(buf)
	if err != nil {
		return nil, err
	}
	return &Encoded{
		Body:          request.Bytes(buf.Bytes()),
		ContentLength: n,
		ContentType:   f.ContentType(),
	}, nil
}

func (f *FormData) encodeToDisk() (*Encoded, error) {
	base := f.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "reqkit", "multipart.form.data")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, newEncodingIOError("create temporary directory", err)
	}

	path := filepath.Join(dir, uuid.New().String())
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, newEncodingIOError("create temporary file", err)
	}

	w := bufio.NewWriterSize(file, streamBufferSize)
	n, err := f.writeTo(w)
	if err == nil {
		if ferr := w.Flush(); ferr != nil {
			err = newEncodingIOError("write temporary file", ferr)
		}
	}
	if cerr := file.Close(); cerr != nil && err == nil {
		err = newEncodingIOError("close temporary file", cerr)
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	body, err := request.File(path)
	if err != nil {
		os.Remove(path)
		return nil, newEncodingIOError("stat temporary file", err)
	}
	return &Encoded{
		Body:              body,
		ContentLength:     n,
		ContentType:       f.ContentType(),
		StreamingFromDisk: true,
		Path:              path,
	}, nil
}

// writeTo writes the whole body sequentially, one part at a time.
func (f *FormData) writeTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for i := range f.parts {
		p := &f.parts[i]
		if _, err := io.WriteString(cw, f.openingBoundary()+p.header()); err != nil {
			return cw.n, newEncodingIOError("write", err)
		}
		if err := writeContent(cw, p); err != nil {
			return cw.n, err
		}
		if _, err := io.WriteString(cw, crlf); err != nil {
			return cw.n, newEncodingIOError("write", err)
		}
	}
	if _, err := io.WriteString(cw, f.closingBoundary()); err != nil {
		return cw.n, newEncodingIOError("write", err)
	}
	return cw.n, nil
}

func writeContent(w *countingWriter, p *Part) error {
	if p.Open == nil {
		if p.Length > 0 {
			return newEncodingIOError("read part '"+p.Name+"'", errors.New("part has no content source"))
		}
		return nil
	}
	rc, err := p.Open()
	if err != nil {
		return newEncodingIOError("open part '"+p.Name+"'", err)
	}
	defer rc.Close()

	var src io.Reader = rc
	if p.Length >= 0 {
		src = io.LimitReader(rc, p.Length)
	}
	before := w.n
	if _, err := io.Copy(w, readerOnly{src}); err != nil {
		if w.err != nil {
			return newEncodingIOError("write", err)
		}
		return newEncodingIOError("read part '"+p.Name+"'", err)
	}
	if copied := w.n - before; p.Length >= 0 && copied != p.Length {
		return newEncodingIOError("read part '"+p.Name+"'",
			errors.Errorf("expected %d bytes, got %d", p.Length, copied))
	}
	return nil
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	if err != nil {
		c.err = err
	}
	return n, err
}

// readerOnly hides WriterTo so copies go through a fixed-size buffer.
type readerOnly struct {
	io.Reader
}
