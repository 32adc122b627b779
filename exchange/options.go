package exchange

import (
	"net/http"

	"github.com/HexmosTech/reqkit/formdata"
	"go.uber.org/zap"
)

// Option customizes a Manager.
type Option func(*Manager)

// WithHTTPClient replaces the client built from Config.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.client = client
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithExecutor sets where PrepareUpload completions run.
func WithExecutor(exec formdata.Executor) Option {
	return func(m *Manager) {
		m.executor = exec
	}
}

type AuthOptions struct {
	Enabled  bool
	UserName string
	Password string
}

// ProgressFunc reports download progress. total is -1 when unknown.
type ProgressFunc func(received, total int64)

// WithProgress reports the progress of downloads.
func WithProgress(fn ProgressFunc) Option {
	return func(m *Manager) {
		m.progress = fn
	}
}
