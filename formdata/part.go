package formdata

import (
	"bytes"
	"io"
	"io/ioutil"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Part is one named section of a multipart/form-data body.
type Part struct {
	Name        string
	Filename    string
	ContentType string

	// Open returns the content of the part. It is called once per encode.
	Open func() (io.ReadCloser, error)
	// Length is the exact number of bytes Open yields, or -1 when unknown.
	Length int64
}

// header returns the part headers followed by the blank separator line.
func (p *Part) header() string {
	var b strings.Builder
	b.WriteString(`Content-Disposition: form-data; name="`)
	b.WriteString(quoteEscaper.Replace(p.Name))
	b.WriteByte('"')
	if p.Filename != "" {
		b.WriteString(`; filename="`)
		b.WriteString(quoteEscaper.Replace(p.Filename))
		b.WriteByte('"')
	}
	b.WriteString(crlf)
	if p.ContentType != "" {
		b.WriteString("Content-Type: ")
		b.WriteString(p.ContentType)
		b.WriteString(crlf)
	}
	b.WriteString(crlf)
	return b.String()
}

// DataPart returns a part holding data.
func DataPart(name, filename, contentType string, data []byte) Part {
	return Part{
		Name:        name,
		Filename:    filename,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return ioutil.NopCloser(bytes.NewReader(data)), nil
		},
		Length: int64(len(data)),
	}
}

// ReaderPart returns a part streamed from r. r is read at most once; length
// is -1 when the size of r is not known in advance.
func ReaderPart(name, filename, contentType string, r io.Reader, length int64) Part {
	var once sync.Once
	return Part{
		Name:        name,
		Filename:    filename,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			var rc io.ReadCloser
			once.Do(func() {
				if c, ok := r.(io.ReadCloser); ok {
					rc = c
				} else {
					rc = ioutil.NopCloser(r)
				}
			})
			if rc == nil {
				return nil, errors.Errorf("stream of part '%s' was already consumed", name)
			}
			return rc, nil
		},
		Length: length,
	}
}

// FilePart returns a part read from the file at path. An empty filename
// defaults to the base name of path and an empty contentType is derived
// from the extension, falling back to content sniffing.
func FilePart(name, path, filename, contentType string) (Part, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Part{}, newEncodingIOError("stat "+path, err)
	}
	if info.IsDir() {
		return Part{}, newEncodingIOError("stat "+path, errors.Errorf("%s is a directory", path))
	}
	f, err := os.Open(path)
	if err != nil {
		return Part{}, newEncodingIOError("open "+path, err)
	}
	f.Close()

	if filename == "" {
		filename = filepath.Base(path)
	}
	if contentType == "" {
		contentType = detectContentType(path)
	}

	return Part{
		Name:        name,
		Filename:    filename,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
		Length: info.Size(),
	}, nil
}

func detectContentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return mtype.String()
}
