package params

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// EncodeQuery flattens p into a percent-encoded `key=value&...` string.
// Nested mappings become `key[sub]` and sequence elements `key[]`.
func EncodeQuery(p Params) (string, error) {
	var components []string
	for _, pair := range p {
		pairs, err := queryComponents(pair.Key, pair.Value, nil)
		if err != nil {
			return "", err
		}
		components = append(components, pairs...)
	}
	return strings.Join(components, "&"), nil
}

func queryComponents(key string, value interface{}, out []string) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return append(out, Escape(key)+"="), nil
	case Params:
		var err error
		for _, pair := range v {
			if out, err = queryComponents(key+"["+pair.Key+"]", pair.Value, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	case map[string]interface{}:
		return queryComponents(key, FromMap(v), out)
	case []interface{}:
		var err error
		for _, elem := range v {
			if out, err = queryComponents(key+"[]", elem, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []byte:
		return append(out, Escape(key)+"="+Escape(string(v))), nil
	}

	if s, ok := scalarString(value); ok {
		return append(out, Escape(key)+"="+Escape(s)), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return queryComponents(key, nil, out)
		}
		return queryComponents(key, rv.Elem().Interface(), out)
	case reflect.Slice, reflect.Array:
		var err error
		for i := 0; i < rv.Len(); i++ {
			if out, err = queryComponents(key+"[]", rv.Index(i).Interface(), out); err != nil {
				return nil, err
			}
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, newUnsupportedParameterTypeError(key, value, nil)
		}
		return queryComponents(key, mapToParams(rv), out)
	}
	return nil, newUnsupportedParameterTypeError(key, value, nil)
}

// scalarString formats strings, booleans and numbers.
func scalarString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	}
	return "", false
}

func mapToParams(rv reflect.Value) Params {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	p := make(Params, 0, len(keys))
	for _, k := range keys {
		p = append(p, Pair{Key: k.String(), Value: rv.MapIndex(k).Interface()})
	}
	return p
}

// Escape percent-encodes s for use as a query key or value. The RFC 3986
// unreserved characters are kept, as are "/" and "?" which RFC 3986 section
// 3.4 allows unescaped in a query. Space becomes "+".
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !shouldKeep(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case shouldKeep(c):
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}
	return b.String()
}

func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '/', '?':
		return true
	}
	return false
}

func typeName(v interface{}) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
