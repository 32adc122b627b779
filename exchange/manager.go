// Package exchange sends canonical requests over net/http. It ties the URL
// resolver, request builder, parameter encoder, multipart encoder and
// download resolver together behind a Manager.
package exchange

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/HexmosTech/reqkit/download"
	"github.com/HexmosTech/reqkit/formdata"
	"github.com/HexmosTech/reqkit/params"
	"github.com/HexmosTech/reqkit/request"
	"github.com/HexmosTech/reqkit/urlconv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Manager builds and sends requests. It does not change after NewManager
// returns and is safe for concurrent use.
type Manager struct {
	config   Config
	client   *http.Client
	builder  *request.Builder
	logger   *zap.Logger
	executor formdata.Executor
	progress ProgressFunc
}

var _ download.Resumer = (*Manager)(nil)

func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{config: cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.client == nil {
		m.client = BuildHTTPClient(cfg)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	defaults := request.DefaultHeaders()
	if cfg.UserAgent != "" {
		defaults.Set("User-Agent", cfg.UserAgent)
	}
	m.builder = request.NewBuilder(defaults)
	return m
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
	defaultErr     error
)

// Default returns the process-wide Manager configured from the environment.
// It is built on first use and shared afterwards.
func Default() (*Manager, error) {
	defaultOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			defaultErr = err
			return
		}
		defaultManager = NewManager(cfg)
	})
	return defaultManager, defaultErr
}

func (m *Manager) Config() Config {
	return m.config
}

func (m *Manager) resolveURL(src urlconv.URLConvertible) (urlconv.URLConvertible, error) {
	if m.config.BaseURL == "" {
		return src, nil
	}
	u, err := urlconv.Join(m.config.BaseURL, src)
	if err != nil {
		return nil, err
	}
	return urlconv.String(u), nil
}

// Build resolves src, applies headers over the default headers and encodes p
// with enc. A nil enc means params.Query.
func (m *Manager) Build(method request.Method, src urlconv.URLConvertible, p params.Params, enc params.Encoding, headers http.Header) (*request.Request, error) {
	src, err := m.resolveURL(src)
	if err != nil {
		return nil, err
	}
	req, err := m.builder.Build(method, src, headers)
	if err != nil {
		return nil, err
	}
	return params.Encode(req, p, enc)
}

// Do sends the request. The caller must close the response body.
func (m *Manager) Do(ctx context.Context, conv request.Convertible) (*http.Response, error) {
	req, err := conv.CanonicalRequest()
	if err != nil {
		return nil, err
	}
	hr, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("sending request",
		zap.String("method", hr.Method),
		zap.String("url", hr.URL.String()),
		zap.Int64("contentLength", hr.ContentLength))
	start := time.Now()
	resp, err := m.client.Do(hr)
	if err != nil {
		m.logger.Debug("request failed", zap.String("url", hr.URL.String()), zap.Error(err))
		return nil, errors.Wrap(err, "sending HTTP request")
	}
	m.logger.Debug("received response",
		zap.String("url", hr.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// Request is Build followed by Do.
func (m *Manager) Request(ctx context.Context, method request.Method, src urlconv.URLConvertible, p params.Params, enc params.Encoding, headers http.Header) (*http.Response, error) {
	req, err := m.Build(method, src, p, enc, headers)
	if err != nil {
		return nil, err
	}
	return m.Do(ctx, req)
}
