package request

import (
	"net/http"
	"sort"

	"github.com/HexmosTech/reqkit/urlconv"
	"github.com/HexmosTech/reqkit/version"
)

// Builder combines a method, a URL source and headers into a canonical
// request. Defaults are applied first; headers passed to Build override them.
type Builder struct {
	Defaults http.Header
}

func NewBuilder(defaults http.Header) *Builder {
	return &Builder{Defaults: defaults.Clone()}
}

// DefaultHeaders returns the headers applied by the Default builder.
func DefaultHeaders() http.Header {
	header := make(http.Header)
	header.Set("User-Agent", version.Current().UserAgent())
	return header
}

// Default is the builder used by Build.
var Default = NewBuilder(DefaultHeaders())

// Build builds a canonical request with the Default builder.
func Build(method Method, src urlconv.URLConvertible, headers http.Header) (*Request, error) {
	return Default.Build(method, src, headers)
}

func (b *Builder) Build(method Method, src urlconv.URLConvertible, headers http.Header) (*Request, error) {
	u, err := urlconv.Resolve(src)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method: method,
		URL:    u,
		Header: buildHeader(b.Defaults, headers),
	}, nil
}

func buildHeader(layers ...http.Header) http.Header {
	header := make(http.Header)
	for _, layer := range layers {
		MergeHeader(header, layer)
	}
	return header
}

// MergeHeader copies every field of src into dst. Keys are compared case
// insensitively and a field in src replaces all values of the same field in
// dst. Keys of src are visited in sorted order so that spellings differing
// only in case resolve the same way on every call.
func MergeHeader(dst, src http.Header) {
	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values := src[name]
		if len(values) == 0 {
			continue
		}
		dst[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
}
