package output

import (
	"fmt"
	"io"
	"time"

	"code.cloudfoundry.org/bytefmt"
)

const progressInterval = 100 * time.Millisecond

// Progress draws a single status line for a running download.
type Progress struct {
	writer   io.Writer
	now      func() time.Time
	lastDraw time.Time
	drawn    bool
}

func NewProgress(writer io.Writer) *Progress {
	return &Progress{
		writer: writer,
		now:    time.Now,
	}
}

// Update redraws the status line. A negative total means the length is
// unknown. Redraws are throttled except for the final one.
func (p *Progress) Update(received, total int64) {
	now := p.now()
	complete := total >= 0 && received >= total
	if p.drawn && !complete && now.Sub(p.lastDraw) < progressInterval {
		return
	}
	p.lastDraw = now
	p.drawn = true
	fmt.Fprintf(p.writer, "\r%s", formatProgress(received, total))
}

// Finish terminates the status line and reports where the file went.
func (p *Progress) Finish(path string, received int64) {
	if p.drawn {
		fmt.Fprintln(p.writer)
	}
	fmt.Fprintf(p.writer, "Downloaded %s to %q\n", bytefmt.ByteSize(uint64(received)), path)
}

// Interrupted terminates the status line and reports where the resume data
// was saved.
func (p *Progress) Interrupted(resumeFile string) {
	if p.drawn {
		fmt.Fprintln(p.writer)
	}
	fmt.Fprintf(p.writer, "Download interrupted; resume with --continue %s\n", resumeFile)
}

func formatProgress(received, total int64) string {
	if received < 0 {
		received = 0
	}
	if total < 0 {
		return fmt.Sprintf("Downloading: %s", bytefmt.ByteSize(uint64(received)))
	}
	percent := 100.0
	if total > 0 {
		percent = float64(received) * 100 / float64(total)
	}
	return fmt.Sprintf("Downloading: %s / %s (%.0f%%)",
		bytefmt.ByteSize(uint64(received)), bytefmt.ByteSize(uint64(total)), percent)
}
