package logging

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	testCases := []struct {
		title    string
		cfg      Config
		enabled  zapcore.Level
		disabled zapcore.Level
	}{
		{title: "default", cfg: DefaultConfig(), enabled: zapcore.WarnLevel, disabled: zapcore.InfoLevel},
		{title: "verbose", cfg: VerboseConfig(), enabled: zapcore.DebugLevel, disabled: zapcore.Level(-2)},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)

			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.disabled))
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	logger, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Info("request sent")
	require.NoError(t, logger.Sync())

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"message":"request sent"`)
	assert.Contains(t, line, `"level":"info"`)
}
