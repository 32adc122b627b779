package params

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/HexmosTech/reqkit/request"
	"github.com/pkg/errors"
	"howett.net/plist"
)

const (
	FormContentType  = "application/x-www-form-urlencoded; charset=utf-8"
	JSONContentType  = "application/json"
	PlistContentType = "application/x-plist"
)

// Encoding applies a parameter set to a request.
type Encoding interface {
	Encode(req *request.Request, p Params) (*request.Request, error)
}

// Strategy is one of the built-in encodings.
type Strategy int

const (
	// Query puts the parameters in the URL for GET, HEAD and DELETE and in
	// a form-urlencoded body otherwise.
	Query Strategy = iota
	// FormURLEncoded always puts the parameters in a form-urlencoded body.
	FormURLEncoded
	// QueryString always puts the parameters in the URL.
	QueryString
	// JSON serializes the parameters as a JSON object body.
	JSON
	// PropertyList serializes the parameters as a binary property list body.
	PropertyList
)

func (s Strategy) String() string {
	switch s {
	case Query:
		return "query"
	case FormURLEncoded:
		return "form"
	case QueryString:
		return "querystring"
	case JSON:
		return "json"
	case PropertyList:
		return "plist"
	default:
		return "unknown"
	}
}

// Placement says where an encoded parameter set ends up.
type Placement int

const (
	InURL Placement = iota
	InBody
)

// PlacementFor is the placement policy:
//
//	strategy        GET/HEAD/DELETE   other methods
//	Query           URL query         body
//	FormURLEncoded  body              body
//	QueryString     URL query         URL query
//	JSON            body              body
//	PropertyList    body              body
func PlacementFor(s Strategy, method request.Method) Placement {
	switch s {
	case Query:
		if encodesInURL(method) {
			return InURL
		}
		return InBody
	case QueryString:
		return InURL
	default:
		return InBody
	}
}

func encodesInURL(method request.Method) bool {
	switch method {
	case request.MethodGet, request.MethodHead, request.MethodDelete:
		return true
	}
	return false
}

// Encode returns a copy of req with p applied under enc. req and p are left
// untouched. With no parameters the copy is returned as is.
func Encode(req *request.Request, p Params, enc Encoding) (*request.Request, error) {
	if req == nil {
		return nil, errors.New("no request to encode parameters into")
	}
	if enc == nil {
		enc = Query
	}
	return enc.Encode(req, p)
}

func (s Strategy) Encode(req *request.Request, p Params) (*request.Request, error) {
	r := req.Clone()
	if len(p) == 0 {
		return r, nil
	}

	switch s {
	case Query, FormURLEncoded, QueryString:
		query, err := EncodeQuery(p)
		if err != nil {
			return nil, err
		}
		if PlacementFor(s, r.Method) == InURL {
			r.URL = appendQuery(r.URL, query)
			return r, nil
		}
		setBody(r, []byte(query), FormContentType)
		return r, nil

	case JSON:
		body, err := encodeJSON(p)
		if err != nil {
			return nil, err
		}
		setBody(r, body, JSONContentType)
		return r, nil

	case PropertyList:
		body, err := encodePlist(p)
		if err != nil {
			return nil, err
		}
		setBody(r, body, PlistContentType)
		return r, nil

	default:
		return nil, errors.Errorf("unknown parameter encoding: %d", int(s))
	}
}

// Custom adapts a function to the Encoding interface.
type Custom func(req *request.Request, p Params) (*request.Request, error)

func (c Custom) Encode(req *request.Request, p Params) (*request.Request, error) {
	return c(req.Clone(), p)
}

func setBody(r *request.Request, body []byte, contentType string) {
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.Body = request.Bytes(body)
}

// appendQuery merges query into the query component of rawurl, keeping any
// existing query and fragment.
func appendQuery(rawurl, query string) string {
	fragment := ""
	if i := strings.IndexByte(rawurl, '#'); i >= 0 {
		rawurl, fragment = rawurl[:i], rawurl[i:]
	}
	switch i := strings.IndexByte(rawurl, '?'); {
	case i < 0:
		rawurl += "?" + query
	case i == len(rawurl)-1:
		rawurl += query
	default:
		rawurl += "&" + query
	}
	return rawurl + fragment
}

// MarshalJSON writes p as a JSON object in pair order.
func (p Params) MarshalJSON() ([]byte, error) {
	return encodeJSON(p)
}

func encodeJSON(p Params) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pair := range p.unique() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSONValue(pair.Key)
		if err != nil {
			return nil, newUnsupportedParameterTypeError(pair.Key, pair.Key, err)
		}
		value, err := marshalJSONValue(pair.Value)
		if err != nil {
			return nil, newUnsupportedParameterTypeError(pair.Key, pair.Value, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalJSONValue(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func encodePlist(p Params) ([]byte, error) {
	tree, err := plistTree("", p)
	if err != nil {
		return nil, err
	}
	body, err := plist.Marshal(tree, plist.BinaryFormat)
	if err != nil {
		return nil, newUnsupportedParameterTypeError("", p, err)
	}
	return body, nil
}

// plistTree converts a value into plain maps and slices the property-list
// encoder understands. Property lists have no null.
func plistTree(key string, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, newUnsupportedParameterTypeError(key, value, errors.New("property lists cannot hold null"))
	case Params:
		m := make(map[string]interface{}, len(v))
		for _, pair := range v.unique() {
			child, err := plistTree(pair.Key, pair.Value)
			if err != nil {
				return nil, err
			}
			m[pair.Key] = child
		}
		return m, nil
	case map[string]interface{}:
		return plistTree(key, FromMap(v))
	case []interface{}:
		list := make([]interface{}, len(v))
		for i, elem := range v {
			child, err := plistTree(key, elem)
			if err != nil {
				return nil, err
			}
			list[i] = child
		}
		return list, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, newUnsupportedParameterTypeError(key, value, err)
		}
		return f, nil
	case string, bool, []byte, time.Time:
		return value, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return value, nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return plistTree(key, nil)
		}
		return plistTree(key, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		list := make([]interface{}, rv.Len())
		for i := range list {
			child, err := plistTree(key, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			list[i] = child
		}
		return list, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, newUnsupportedParameterTypeError(key, value, nil)
		}
		return plistTree(key, mapToParams(rv))
	}
	return nil, newUnsupportedParameterTypeError(key, value, nil)
}
