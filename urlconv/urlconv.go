// Package urlconv turns the different kinds of request targets (strings,
// structured URL components, pre-built requests) into one canonical absolute
// URL string.
package urlconv

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// URLConvertible is anything that can yield an absolute URL string.
type URLConvertible interface {
	URLString() (string, error)
}

// String is a raw URL string.
type String string

func (s String) URLString() (string, error) {
	return string(s), nil
}

// Components is a structured URL value.
type Components url.URL

func (c *Components) URLString() (string, error) {
	if c == nil {
		return "", newInvalidURLError("", errors.New("nil URL components"))
	}
	u := url.URL(*c)
	return u.String(), nil
}

// FromURL wraps a parsed URL.
func FromURL(u *url.URL) URLConvertible {
	if u == nil {
		return (*Components)(nil)
	}
	c := Components(*u)
	return &c
}

type httpRequestSource struct {
	request *http.Request
}

func (s httpRequestSource) URLString() (string, error) {
	if s.request == nil || s.request.URL == nil {
		return "", newInvalidURLError("", errors.New("request has no URL"))
	}
	return s.request.URL.String(), nil
}

// FromHTTPRequest yields the URL of a pre-built *http.Request.
func FromHTTPRequest(r *http.Request) URLConvertible {
	return httpRequestSource{request: r}
}

// InvalidURLError is returned when a source does not yield an absolute URL.
type InvalidURLError struct {
	URL   string
	cause error
}

func newInvalidURLError(rawurl string, cause error) error {
	return errors.WithStack(&InvalidURLError{URL: rawurl, cause: cause})
}

func (e *InvalidURLError) Error() string {
	if e.cause == nil {
		return "invalid URL: " + e.URL
	}
	return "invalid URL: " + e.URL + ": " + e.cause.Error()
}

// Unwrap returns the underlying parse failure.
func (e *InvalidURLError) Unwrap() error { return e.cause }

// IsInvalidURL reports whether err was caused by an unusable URL.
func IsInvalidURL(err error) bool {
	var target *InvalidURLError
	return errors.As(err, &target)
}

// Resolve returns the canonical form of the URL yielded by src. The URL must
// be absolute: scheme and host are required.
func Resolve(src URLConvertible) (string, error) {
	if src == nil {
		return "", newInvalidURLError("", errors.New("no URL source"))
	}
	s, err := src.URLString()
	if err != nil {
		if IsInvalidURL(err) {
			return "", err
		}
		return "", newInvalidURLError(s, err)
	}
	u, err := Parse(s)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Parse parses s and checks it is absolute.
func Parse(s string) (*url.URL, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, newInvalidURLError(s, errors.New("empty URL"))
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, newInvalidURLError(s, err)
	}
	if !u.IsAbs() {
		return nil, newInvalidURLError(s, errors.New("URL is not absolute"))
	}
	if u.Host == "" && u.Opaque == "" {
		return nil, newInvalidURLError(s, errors.New("URL must have a host"))
	}
	return u, nil
}

// Join resolves ref against base. An absolute ref is returned as is.
func Join(base string, ref URLConvertible) (string, error) {
	if ref == nil {
		return "", newInvalidURLError("", errors.New("no URL source"))
	}
	s, err := ref.URLString()
	if err != nil {
		return "", newInvalidURLError(s, err)
	}
	r, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", newInvalidURLError(s, err)
	}
	if r.IsAbs() || base == "" {
		return Resolve(String(s))
	}
	b, err := Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
