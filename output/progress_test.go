package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatProgress(t *testing.T) {
	testCases := []struct {
		title    string
		received int64
		total    int64
		expected string
	}{
		{title: "unknown length", received: 2048, total: -1, expected: "Downloading: 2K"},
		{title: "half", received: 512, total: 1024, expected: "Downloading: 512B / 1K (50%)"},
		{title: "empty body", received: 0, total: 0, expected: "Downloading: 0B / 0B (100%)"},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatProgress(tt.received, tt.total))
		})
	}
}

func TestProgress_Throttle(t *testing.T) {
	// Setup
	var buffer strings.Builder
	clock := time.Unix(0, 0)
	progress := NewProgress(&buffer)
	progress.now = func() time.Time { return clock }

	// Exercise
	progress.Update(1, 10)
	progress.Update(2, 10) // within the interval
	clock = clock.Add(progressInterval)
	progress.Update(3, 10)
	progress.Update(10, 10) // completion is always drawn
	progress.Finish("out.bin", 10)

	// Verify
	out := buffer.String()
	assert.Equal(t, 3, strings.Count(out, "\r"))
	assert.NotContains(t, out, "2B / 10B")
	assert.Contains(t, out, "10B / 10B (100%)\n")
	assert.Contains(t, out, `Downloaded 10B to "out.bin"`)
}

func TestProgress_Interrupted(t *testing.T) {
	var buffer strings.Builder
	progress := NewProgress(&buffer)

	progress.Interrupted("out.bin.resume")

	assert.Equal(t, "Download interrupted; resume with --continue out.bin.resume\n", buffer.String())
}
