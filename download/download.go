// Package download decides where a finished download is stored and moves
// it there.
package download

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Options control how a downloaded file is moved into place. With all
// options false an existing file at the destination is never overwritten
// and the move fails instead.
type Options struct {
	RemovePreviousFile            bool
	CreateIntermediateDirectories bool
	// UniqueFilename picks name.1, name.2, ... when the destination exists.
	UniqueFilename bool
}

// Destination maps the temporary file of a finished download and its
// response to the final path.
type Destination func(temporaryPath string, resp *http.Response) (string, Options)

// Resolve asks dest for the final location. A nil dest stores the file in
// the current directory under its suggested name, with no options.
func Resolve(temporaryPath string, resp *http.Response, dest Destination) (string, Options) {
	if dest == nil {
		dest = SuggestedDestination(".", Options{})
	}
	return dest(temporaryPath, resp)
}

// SuggestedDestination places downloads in dir under SuggestedFilename.
func SuggestedDestination(dir string, opts Options) Destination {
	return func(temporaryPath string, resp *http.Response) (string, Options) {
		return filepath.Join(dir, SuggestedFilename(resp, temporaryPath)), opts
	}
}

// To always answers finalPath.
func To(finalPath string, opts Options) Destination {
	return func(string, *http.Response) (string, Options) {
		return finalPath, opts
	}
}

// SuggestedFilename returns the filename from Content-Disposition, else the
// last segment of the request path, else the base name of temporaryPath.
func SuggestedFilename(resp *http.Response, temporaryPath string) string {
	if resp != nil {
		if cd := resp.Header.Get("Content-Disposition"); cd != "" {
			if _, params, err := mime.ParseMediaType(cd); err == nil {
				if name := cleanFilename(params["filename"]); name != "" {
					return name
				}
			}
		}
		if resp.Request != nil && resp.Request.URL != nil {
			if name := cleanFilename(path.Base(resp.Request.URL.Path)); name != "" {
				return name
			}
		}
	}
	return filepath.Base(temporaryPath)
}

// cleanFilename strips directories so a server cannot point outside the
// chosen directory.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}

// Move moves the temporary file to finalPath under opts and returns the
// path actually used, which differs from finalPath only with UniqueFilename.
func Move(temporaryPath, finalPath string, opts Options) (string, error) {
	if opts.CreateIntermediateDirectories {
		if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
			return "", newDestinationIOError("create directory", finalPath, err)
		}
	}

	if _, err := os.Lstat(finalPath); err == nil {
		switch {
		case opts.RemovePreviousFile:
			if err := os.Remove(finalPath); err != nil {
				return "", newDestinationIOError("remove previous file", finalPath, err)
			}
		case opts.UniqueFilename:
			finalPath = makeNonOverlappingFilename(finalPath)
		default:
			return "", newDestinationIOError("move", finalPath, os.ErrExist)
		}
	} else if !os.IsNotExist(err) {
		return "", newDestinationIOError("stat", finalPath, err)
	}

	if err := os.Rename(temporaryPath, finalPath); err != nil {
		// Rename fails across filesystems; copy instead.
		if cerr := copyFile(temporaryPath, finalPath); cerr != nil {
			return "", newDestinationIOError("move", finalPath, err)
		}
		os.Remove(temporaryPath)
	}
	return finalPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

var indexSuffix = regexp.MustCompile(`\.(\d+)$`)

func makeNonOverlappingFilename(path string) string {
	for {
		if _, err := os.Lstat(path); err != nil {
			return path
		}
		newPath := indexSuffix.ReplaceAllStringFunc(path, func(index string) string {
			i, _ := strconv.Atoi(strings.TrimPrefix(index, "."))
			return fmt.Sprintf(".%d", i+1)
		})
		if newPath == path {
			newPath = path + ".1"
		}
		path = newPath
	}
}

// DestinationIOError is returned when the downloaded file cannot be moved to
// its destination.
type DestinationIOError struct {
	Op    string
	Path  string
	cause error
}

func newDestinationIOError(op, path string, cause error) error {
	return errors.WithStack(&DestinationIOError{Op: op, Path: path, cause: cause})
}

func (e *DestinationIOError) Error() string {
	return fmt.Sprintf("download destination %s: %s: %s", e.Path, e.Op, e.cause)
}

func (e *DestinationIOError) Unwrap() error { return e.cause }

func IsDestinationIO(err error) bool {
	var target *DestinationIOError
	return errors.As(err, &target)
}
