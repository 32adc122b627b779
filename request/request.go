// Package request defines the canonical, transport-ready request value and
// the builder that produces it from a method, a URL source and headers.
package request

import (
	"context"
	"encoding/base64"
	"io"
	"io/ioutil"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var reMethod = regexp.MustCompile(`^[a-zA-Z]+$`)

type Method string

const (
	MethodOptions Method = "OPTIONS"
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodTrace   Method = "TRACE"
	MethodConnect Method = "CONNECT"
)

// ParseMethod validates s and returns it upper-cased.
func ParseMethod(s string) (Method, error) {
	if !reMethod.MatchString(s) {
		return Method(""), errors.Errorf("METHOD must consist of alphabets: %s", s)
	}
	return Method(strings.ToUpper(s)), nil
}

// Request is the canonical form of an HTTP request: method, absolute URL,
// header and an optional body.
type Request struct {
	Method Method
	URL    string
	Header http.Header
	Body   BodySource
}

// Convertible is implemented by anything that can yield a canonical request
// directly.
type Convertible interface {
	CanonicalRequest() (*Request, error)
}

// CanonicalRequest returns a copy of r.
func (r *Request) CanonicalRequest() (*Request, error) {
	return r.Clone(), nil
}

// Clone returns a copy whose header may be modified independently. The body
// source is shared.
func (r *Request) Clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	return &c
}

func (r *Request) ContentType() string {
	return r.Header.Get("Content-Type")
}

// SetBasicAuth sets the Authorization header for HTTP Basic authentication.
func (r *Request) SetBasicAuth(username, password string) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	r.Header.Set("Authorization", "Basic "+creds)
}

// HTTPRequest converts r into an *http.Request bound to ctx.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.ReadCloser
	contentLength := int64(0)
	if r.Body != nil {
		rc, err := r.Body.NewReader()
		if err != nil {
			return nil, err
		}
		body = rc
		if n, ok := r.Body.ContentLength(); ok {
			contentLength = n
		} else {
			contentLength = -1
		}
	}

	hr, err := http.NewRequestWithContext(ctx, string(r.Method), r.URL, body)
	if err != nil {
		if body != nil {
			body.Close()
		}
		return nil, errors.Wrap(err, "building HTTP request")
	}
	hr.Header = r.Header.Clone()
	if hr.Header == nil {
		hr.Header = make(http.Header)
	}
	if host := hr.Header.Get("Host"); host != "" {
		hr.Host = host
	}
	if r.Body != nil {
		hr.ContentLength = contentLength
		if contentLength == 0 {
			body.Close()
			hr.Body = http.NoBody
		}
		hr.GetBody = r.Body.NewReader
	}
	return hr, nil
}

// FromHTTPRequest adapts a pre-built *http.Request. A body without GetBody
// is read into memory on conversion.
func FromHTTPRequest(hr *http.Request) Convertible {
	return httpRequestSource{request: hr}
}

type httpRequestSource struct {
	request *http.Request
}

func (s httpRequestSource) CanonicalRequest() (*Request, error) {
	hr := s.request
	if hr == nil || hr.URL == nil {
		return nil, errors.New("request has no URL")
	}
	method, err := ParseMethod(hr.Method)
	if hr.Method == "" {
		method, err = MethodGet, nil
	}
	if err != nil {
		return nil, err
	}

	r := &Request{
		Method: method,
		URL:    hr.URL.String(),
		Header: hr.Header.Clone(),
	}
	if r.Header == nil {
		r.Header = make(http.Header)
	}

	switch {
	case hr.GetBody != nil:
		r.Body = &getBodySource{getBody: hr.GetBody, length: hr.ContentLength}
	case hr.Body != nil && hr.Body != http.NoBody:
		data, err := ioutil.ReadAll(hr.Body)
		hr.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, "reading request body")
		}
		r.Body = Bytes(data)
	}
	return r, nil
}

type getBodySource struct {
	getBody func() (io.ReadCloser, error)
	length  int64
}

func (s *getBodySource) NewReader() (io.ReadCloser, error) {
	return s.getBody()
}

func (s *getBodySource) ContentLength() (int64, bool) {
	return s.length, s.length >= 0
}
