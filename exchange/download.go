package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/HexmosTech/reqkit/download"
	"github.com/HexmosTech/reqkit/request"
	"github.com/HexmosTech/reqkit/urlconv"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CancelledError is returned when a download stops before the body is
// complete. ResumeData continues it through DownloadResuming.
type CancelledError struct {
	ResumeData download.ResumeData
	cause      error
}

func (e *CancelledError) Error() string {
	return "download interrupted: " + e.cause.Error()
}

func (e *CancelledError) Unwrap() error { return e.cause }

func IsCancelled(err error) bool {
	var target *CancelledError
	return errors.As(err, &target)
}

// ResumeDataOf returns the resume data carried by err, if any.
func ResumeDataOf(err error) (download.ResumeData, bool) {
	var target *CancelledError
	if !errors.As(err, &target) {
		return nil, false
	}
	return target.ResumeData, true
}

// resumeState is the content of the resume data. Header is written to disk
// with the rest, credentials included, so Save uses mode 0600.
type resumeState struct {
	URL          string      `json:"url"`
	Header       http.Header `json:"header,omitempty"`
	PartialPath  string      `json:"partialPath"`
	Received     int64       `json:"received"`
	ETag         string      `json:"etag,omitempty"`
	LastModified string      `json:"lastModified,omitempty"`
}

func (s *resumeState) encode() download.ResumeData {
	data, _ := json.Marshal(s)
	return download.ResumeData(data)
}

// Download sends conv and streams the response body into a temporary file,
// then moves it to the location chosen by dest. A nil dest stores the file
// in Config.DownloadDir under its suggested name.
func (m *Manager) Download(ctx context.Context, conv request.Convertible, dest download.Destination) (*download.Result, error) {
	req, err := conv.CanonicalRequest()
	if err != nil {
		return nil, err
	}
	if req.Method == "" {
		req.Method = request.MethodGet
	}

	dir, err := m.partialDir()
	if err != nil {
		return nil, err
	}
	state := &resumeState{
		URL:         req.URL,
		Header:      req.Header.Clone(),
		PartialPath: filepath.Join(dir, uuid.New().String()),
	}
	return m.transfer(ctx, req, state, m.destination(dest))
}

// DownloadResuming continues the download described by data. The request is
// sent with Range and If-Range; a server answering 200 restarts the body
// from zero.
func (m *Manager) DownloadResuming(ctx context.Context, data download.ResumeData, dest download.Destination) (*download.Result, error) {
	var state resumeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrap(err, "invalid resume data")
	}
	if state.URL == "" || state.PartialPath == "" {
		return nil, errors.New("invalid resume data: missing URL or partial file")
	}

	state.Received = 0
	if info, err := os.Stat(state.PartialPath); err == nil {
		state.Received = info.Size()
	}

	req, err := m.builder.Build(request.MethodGet, urlconv.String(state.URL), state.Header)
	if err != nil {
		return nil, err
	}
	if state.Received > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", state.Received))
		if state.ETag != "" {
			req.Header.Set("If-Range", state.ETag)
		} else if state.LastModified != "" {
			req.Header.Set("If-Range", state.LastModified)
		}
	}
	m.logger.Debug("resuming download",
		zap.String("url", state.URL),
		zap.Int64("offset", state.Received))
	return m.transfer(ctx, req, &state, m.destination(dest))
}

func (m *Manager) destination(dest download.Destination) download.Destination {
	if dest != nil {
		return dest
	}
	dir := m.config.DownloadDir
	if dir == "" {
		dir = "."
	}
	return download.SuggestedDestination(dir, download.Options{})
}

func (m *Manager) partialDir() (string, error) {
	base := m.config.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "reqkit", "downloads")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", errors.Wrap(err, "creating download directory")
	}
	return dir, nil
}

func (m *Manager) transfer(ctx context.Context, req *request.Request, state *resumeState, dest download.Destination) (*download.Result, error) {
	resp, err := m.Do(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &CancelledError{ResumeData: state.encode(), cause: ctx.Err()}
		}
		return nil, err
	}
	defer resp.Body.Close()

	flags := os.O_WRONLY | os.O_CREATE
	switch {
	case resp.StatusCode == http.StatusPartialContent && state.Received > 0:
		expected := fmt.Sprintf("bytes %d-", state.Received)
		if !strings.HasPrefix(resp.Header.Get("Content-Range"), expected) {
			return nil, errors.Errorf("server resumed %s at an unexpected range: %s", state.URL, resp.Header.Get("Content-Range"))
		}
		flags |= os.O_APPEND
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if state.Received > 0 {
			m.logger.Debug("server ignored range, restarting download", zap.String("url", state.URL))
		}
		state.Received = 0
		flags |= os.O_TRUNC
	default:
		return nil, errors.Errorf("downloading %s: server responded %s", state.URL, resp.Status)
	}
	state.ETag = resp.Header.Get("ETag")
	state.LastModified = resp.Header.Get("Last-Modified")

	file, err := os.OpenFile(state.PartialPath, flags, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "opening partial download file")
	}
	total := int64(-1)
	if resp.ContentLength >= 0 {
		total = state.Received + resp.ContentLength
	}
	w := &progressWriter{w: file, received: state.Received, total: total, report: m.progress}
	_, copyErr := io.Copy(w, resp.Body)
	state.Received = w.received
	if err := file.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		cause := copyErr
		if ctx.Err() != nil {
			cause = ctx.Err()
		}
		return nil, &CancelledError{ResumeData: state.encode(), cause: cause}
	}

	finalPath, opts := download.Resolve(state.PartialPath, resp, dest)
	path, err := download.Move(state.PartialPath, finalPath, opts)
	if err != nil {
		m.logger.Warn("download kept in temporary location",
			zap.String("path", state.PartialPath), zap.Error(err))
		return nil, err
	}
	m.logger.Debug("download complete", zap.String("path", path), zap.Int64("bytes", state.Received))
	return &download.Result{Path: path, Response: resp}, nil
}

type progressWriter struct {
	w        io.Writer
	received int64
	total    int64
	report   ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.received += int64(n)
	if p.report != nil {
		p.report(p.received, p.total)
	}
	return n, err
}
