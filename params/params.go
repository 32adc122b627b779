// Package params applies a parameter set to a canonical request under one of
// several encoding strategies: URL query, form-urlencoded body, JSON body or
// binary property-list body.
package params

import (
	"sort"

	"github.com/pkg/errors"
)

// Pair is one key/value entry of a parameter set.
type Pair struct {
	Key   string
	Value interface{}
}

// Params is an ordered parameter set. Values are scalars (string, bool, nil,
// numbers, json.Number), nested Params, string-keyed maps or slices of those.
// Encoders preserve the order of the pairs and never modify them.
//
// A key appearing twice is encoded twice by the query encodings; the JSON and
// property-list encodings keep the last value at the position of the first.
type Params []Pair

// FromMap converts m into Params in sorted key order.
func FromMap(m map[string]interface{}) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := make(Params, 0, len(m))
	for _, k := range keys {
		p = append(p, Pair{Key: k, Value: m[k]})
	}
	return p
}

// unique collapses duplicate keys: the last value wins, the first position is
// kept.
func (p Params) unique() Params {
	index := make(map[string]int, len(p))
	out := make(Params, 0, len(p))
	for _, pair := range p {
		if i, ok := index[pair.Key]; ok {
			out[i].Value = pair.Value
			continue
		}
		index[pair.Key] = len(out)
		out = append(out, pair)
	}
	return out
}

// UnsupportedParameterTypeError is returned when a value cannot be represented
// by the selected encoding.
type UnsupportedParameterTypeError struct {
	Key   string
	Value interface{}
	cause error
}

func newUnsupportedParameterTypeError(key string, value interface{}, cause error) error {
	return errors.WithStack(&UnsupportedParameterTypeError{Key: key, Value: value, cause: cause})
}

func (e *UnsupportedParameterTypeError) Error() string {
	msg := "unsupported parameter type"
	if e.Key != "" {
		msg += " for '" + e.Key + "'"
	}
	msg += ": " + typeName(e.Value)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the encoder failure, if any.
func (e *UnsupportedParameterTypeError) Unwrap() error { return e.cause }

// IsUnsupportedParameterType reports whether err was caused by a value the
// encoding cannot represent.
func IsUnsupportedParameterType(err error) bool {
	var target *UnsupportedParameterTypeError
	return errors.As(err, &target)
}
