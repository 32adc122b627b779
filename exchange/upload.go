package exchange

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/HexmosTech/reqkit/formdata"
	"github.com/HexmosTech/reqkit/request"
	"github.com/HexmosTech/reqkit/urlconv"
	"go.uber.org/zap"
)

// Upload is a multipart request whose body is fully encoded.
type Upload struct {
	Request *request.Request
	Encoded *formdata.Encoded
}

// Cleanup removes the temporary body file, if any.
func (u *Upload) Cleanup() error {
	return u.Encoded.Cleanup()
}

// memoryThreshold returns the configured threshold. Zero selects
// formdata.DefaultMemoryThreshold; a negative value always encodes to disk.
func (m *Manager) memoryThreshold() int64 {
	if m.config.MemoryThreshold == 0 {
		return formdata.DefaultMemoryThreshold
	}
	return m.config.MemoryThreshold
}

// PrepareUpload builds a multipart request. fill appends the parts; the body
// is then encoded on another goroutine and done is called exactly once,
// through the Manager's executor, with either the Upload or the error.
func (m *Manager) PrepareUpload(method request.Method, src urlconv.URLConvertible, headers http.Header, fill func(*formdata.FormData) error, done func(*Upload, error)) {
	m.encodeUpload(method, src, headers, fill, m.executor, done)
}

func (m *Manager) encodeUpload(method request.Method, src urlconv.URLConvertible, headers http.Header, fill func(*formdata.FormData) error, exec formdata.Executor, done func(*Upload, error)) {
	fail := func(err error) {
		dispatch(exec, func() { done(nil, err) })
	}

	req, err := m.Build(method, src, nil, nil, headers)
	if err != nil {
		fail(err)
		return
	}
	form := formdata.New()
	form.TempDir = m.config.TempDir
	if fill != nil {
		if err := fill(form); err != nil {
			fail(err)
			return
		}
	}

	form.EncodeAsync(m.memoryThreshold(), exec, func(r formdata.Result) {
		if r.Err != nil {
			done(nil, r.Err)
			return
		}
		m.logger.Debug("multipart body encoded",
			zap.Int64("contentLength", r.Encoded.ContentLength),
			zap.Bool("streamingFromDisk", r.Encoded.StreamingFromDisk))
		req.Body = r.Encoded.Body
		// The boundary in the header must match the body.
		req.Header.Set("Content-Type", r.Encoded.ContentType)
		done(&Upload{Request: req, Encoded: r.Encoded}, nil)
	})
}

// prepareUpload is PrepareUpload waiting for the result. It bypasses the
// Manager's executor, which may be serviced by the waiting goroutine.
func (m *Manager) prepareUpload(method request.Method, src urlconv.URLConvertible, headers http.Header, fill func(*formdata.FormData) error) (*Upload, error) {
	type result struct {
		upload *Upload
		err    error
	}
	ch := make(chan result, 1)
	m.encodeUpload(method, src, headers, fill, nil, func(u *Upload, err error) {
		ch <- result{upload: u, err: err}
	})
	r := <-ch
	return r.upload, r.err
}

// Upload sends u. The temporary body file is removed once the response body
// is closed, since the transport may still be reading it when the response
// arrives; on failure it is removed right away.
func (m *Manager) Upload(ctx context.Context, u *Upload) (*http.Response, error) {
	resp, err := m.Do(ctx, u.Request)
	if err != nil {
		m.cleanupUpload(u)
		return nil, err
	}
	resp.Body = &cleanupBody{ReadCloser: resp.Body, cleanup: func() { m.cleanupUpload(u) }}
	return resp, nil
}

func (m *Manager) cleanupUpload(u *Upload) {
	if err := u.Cleanup(); err != nil {
		m.logger.Warn("failed to remove multipart body file", zap.Error(err))
	}
}

// cleanupBody runs cleanup once, after the wrapped body is closed.
type cleanupBody struct {
	io.ReadCloser
	once    sync.Once
	cleanup func()
}

func (b *cleanupBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.cleanup)
	return err
}

func dispatch(exec formdata.Executor, fn func()) {
	if exec == nil {
		fn()
		return
	}
	exec(fn)
}
