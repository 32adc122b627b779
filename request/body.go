package request

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
)

// BodySource produces the body of a canonical request. NewReader may be
// called more than once (redirects, retries by the transport); every call
// yields the body from its first byte.
type BodySource interface {
	NewReader() (io.ReadCloser, error)
	ContentLength() (int64, bool)
}

// Bytes returns an in-memory body.
func Bytes(data []byte) BodySource {
	return &inlineBodySource{data: data}
}

// String returns an in-memory body holding s.
func String(s string) BodySource {
	return &inlineBodySource{data: []byte(s)}
}

type inlineBodySource struct {
	data []byte
}

func (s *inlineBodySource) NewReader() (io.ReadCloser, error) {
	return ioutil.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *inlineBodySource) ContentLength() (int64, bool) {
	return int64(len(s.data)), true
}

// File returns a body read from the file at path. The size is taken when
// File is called.
func File(path string) (BodySource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "body file")
	}
	if info.IsDir() {
		return nil, errors.Errorf("body file %q is a directory", path)
	}
	return &fileBodySource{path: path, size: info.Size()}, nil
}

type fileBodySource struct {
	path string
	size int64
}

func (s *fileBodySource) NewReader() (io.ReadCloser, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening body file %s", s.path)
	}
	return file, nil
}

func (s *fileBodySource) ContentLength() (int64, bool) {
	return s.size, true
}

// Path returns the backing file path.
func (s *fileBodySource) Path() string {
	return s.path
}

// Empty is a body with no content.
var Empty BodySource = emptyBodySource{}

type emptyBodySource struct{}

func (emptyBodySource) NewReader() (io.ReadCloser, error) {
	return ioutil.NopCloser(bytes.NewReader(nil)), nil
}

func (emptyBodySource) ContentLength() (int64, bool) {
	return 0, true
}

// ReadAll drains a body source into memory.
func ReadAll(body BodySource) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	rc, err := body.NewReader()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := ioutil.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(err, "reading request body")
	}
	return data, nil
}
