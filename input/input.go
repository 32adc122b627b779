package input

import (
	"net/url"

	"github.com/HexmosTech/reqkit/request"
)

// Input is a request described on the command line.
type Input struct {
	Method     request.Method
	URL        *url.URL
	Parameters []Field
	Header     Header
	Body       Body
}

type Header struct {
	Fields []Field
}

type BodyType int

const (
	EmptyBody BodyType = iota
	JSONBody
	FormBody
	MultipartBody
	PlistBody
	RawBody
)

type Body struct {
	BodyType      BodyType
	Fields        []Field
	RawJSONFields []Field // used only when BodyType is JSONBody or PlistBody
	Files         []Field // used only when BodyType == MultipartBody
	Raw           []byte  // used only when BodyType == RawBody
}

// Field is a name and a value. With IsFile the value is a path whose
// content is the actual value.
type Field struct {
	Name   string
	Value  string
	IsFile bool
}

// Options select how data fields are serialized. At most one of JSON, Form,
// Multipart and Plist may be set; JSON is the default.
type Options struct {
	JSON      bool
	Form      bool
	Multipart bool
	Plist     bool
	ReadStdin bool
}
