package download

import (
	"context"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"
)

// ResumeData is an opaque token produced by an interrupted download. Only
// the transport that produced it interprets the contents.
type ResumeData []byte

// Result describes a finished download. The response body is already
// consumed and closed.
type Result struct {
	Path     string
	Response *http.Response
}

// Resumer continues an interrupted download from its resume data.
type Resumer interface {
	DownloadResuming(ctx context.Context, data ResumeData, dest Destination) (*Result, error)
}

// Resume hands data unchanged to r.
func Resume(ctx context.Context, r Resumer, data ResumeData, dest Destination) (*Result, error) {
	if len(data) == 0 {
		return nil, errors.New("no resume data")
	}
	return r.DownloadResuming(ctx, data, dest)
}

// Save writes the resume data to path so a later process can continue.
func (d ResumeData) Save(path string) error {
	if err := ioutil.WriteFile(path, d, 0600); err != nil {
		return errors.Wrapf(err, "saving resume data to %s", path)
	}
	return nil
}

func LoadResumeData(path string) (ResumeData, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading resume data from %s", path)
	}
	return ResumeData(data), nil
}
