package input

import (
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/HexmosTech/reqkit/request"
)

func mustURL(rawurl string) *url.URL {
	u, err := url.Parse(rawurl)
	if err != nil {
		panic("Failed to parse URL: " + rawurl)
	}
	return u
}

func TestParseArgs(t *testing.T) {
	testCases := []struct {
		title         string
		args          []string
		stdin         string
		options       Options
		expectedInput *Input
		shouldBeError bool
		usageError    bool
	}{
		{
			title: "Happy case",
			args:  []string{"GET", "http://example.com/hello"},
			expectedInput: &Input{
				Method: request.MethodGet,
				URL:    mustURL("http://example.com/hello"),
			},
		},
		{
			title: "Lower-case method with items",
			args:  []string{"get", "example.com", "q==1", "name=alice"},
			expectedInput: &Input{
				Method:     request.MethodGet,
				URL:        mustURL("http://example.com/"),
				Parameters: []Field{{Name: "q", Value: "1"}},
				Body: Body{
					BodyType: JSONBody,
					Fields:   []Field{{Name: "name", Value: "alice"}},
				},
			},
		},
		{
			title: "Method guessed from body",
			args:  []string{"example.com", "name=alice"},
			expectedInput: &Input{
				Method: request.MethodPost,
				URL:    mustURL("http://example.com/"),
				Body: Body{
					BodyType: JSONBody,
					Fields:   []Field{{Name: "name", Value: "alice"}},
				},
			},
		},
		{
			title:   "File field switches form to multipart",
			args:    []string{"POST", "example.com/upload", "name=alice", "avatar@/tmp/a.png"},
			options: Options{Form: true},
			expectedInput: &Input{
				Method: request.MethodPost,
				URL:    mustURL("http://example.com/upload"),
				Body: Body{
					BodyType: MultipartBody,
					Fields:   []Field{{Name: "name", Value: "alice"}},
					Files:    []Field{{Name: "avatar", Value: "/tmp/a.png", IsFile: true}},
				},
			},
		},
		{
			title:   "Plist body",
			args:    []string{"PUT", "example.com", "n:=1"},
			options: Options{Plist: true},
			expectedInput: &Input{
				Method: request.MethodPut,
				URL:    mustURL("http://example.com/"),
				Body: Body{
					BodyType:      PlistBody,
					RawJSONFields: []Field{{Name: "n", Value: "1"}},
				},
			},
		},
		{
			title:   "Body from stdin",
			args:    []string{"example.com"},
			stdin:   `{"raw":true}`,
			options: Options{ReadStdin: true},
			expectedInput: &Input{
				Method: request.MethodPost,
				URL:    mustURL("http://example.com/"),
				Body: Body{
					BodyType: RawBody,
					Raw:      []byte(`{"raw":true}`),
				},
			},
		},
		{
			title:         "Stdin mixed with data field",
			args:          []string{"example.com", "a=b"},
			stdin:         "raw",
			options:       Options{ReadStdin: true},
			shouldBeError: true,
		},
		{
			title:         "File field in JSON body",
			args:          []string{"POST", "example.com", "avatar@/tmp/a.png"},
			shouldBeError: true,
		},
		{
			title:         "Unknown item",
			args:          []string{"GET", "http://example.com/hello", "bogus"},
			shouldBeError: true,
			usageError:    true,
		},
		{
			title:         "URL missing",
			args:          []string{},
			shouldBeError: true,
			usageError:    true,
		},
		{
			title:         "Conflicting body options",
			args:          []string{"example.com"},
			options:       Options{JSON: true, Form: true},
			shouldBeError: true,
			usageError:    true,
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			in, err := ParseArgs(tt.args, strings.NewReader(tt.stdin), &tt.options)
			if (err != nil) != tt.shouldBeError {
				t.Errorf("unexpected error: shouldBeError=%v, err=%v", tt.shouldBeError, err)
			}
			if IsUsageError(err) != tt.usageError {
				t.Errorf("unexpected usage error: expected=%v, err=%v", tt.usageError, err)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(in, tt.expectedInput) {
				t.Errorf("unexpected input: expected=%+v, actual=%+v", tt.expectedInput, in)
			}
		})
	}
}

func TestParseItem(t *testing.T) {
	testCases := []struct {
		title                     string
		input                     string
		expectedBodyFields        []Field
		expectedBodyRawJSONFields []Field
		expectedHeaderFields      []Field
		expectedParameters        []Field
		shouldBeError             bool
	}{
		{
			title:              "Data field",
			input:              "hello=world",
			expectedBodyFields: []Field{{Name: "hello", Value: "world"}},
		},
		{
			title:              "Data field with empty value",
			input:              "hello=",
			expectedBodyFields: []Field{{Name: "hello", Value: ""}},
		},
		{
			title:              "Data field from file",
			input:              "hello=@world.txt",
			expectedBodyFields: []Field{{Name: "hello", Value: "world.txt", IsFile: true}},
		},
		{
			title:                     "Raw JSON field",
			input:                     `hello:=[1, true, "world"]`,
			expectedBodyRawJSONFields: []Field{{Name: "hello", Value: `[1, true, "world"]`}},
		},
		{
			title:         "Raw JSON field with invalid JSON",
			input:         `hello:={invalid: JSON}`,
			shouldBeError: true,
		},
		{
			title:                "Header field",
			input:                "X-Example:Sample Value",
			expectedHeaderFields: []Field{{Name: "X-Example", Value: "Sample Value"}},
		},
		{
			title:                "Header field with empty value",
			input:                "X-Example:",
			expectedHeaderFields: []Field{{Name: "X-Example", Value: ""}},
		},
		{
			title:         "Invalid header field name",
			input:         `Bad"header":test`,
			shouldBeError: true,
		},
		{
			title:              "URL parameter",
			input:              "hello==world",
			expectedParameters: []Field{{Name: "hello", Value: "world"}},
		},
		{
			title:              "URL parameter with empty value",
			input:              "hello==",
			expectedParameters: []Field{{Name: "hello", Value: ""}},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			in := Input{}
			state := state{preferredBodyType: JSONBody}
			err := parseItem(tt.input, strings.NewReader(""), &state, &in)
			if (err != nil) != tt.shouldBeError {
				t.Errorf("unexpected error: shouldBeError=%v, err=%v", tt.shouldBeError, err)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(in.Body.Fields, tt.expectedBodyFields) {
				t.Errorf("unexpected body field: expected=%+v, actual=%+v", tt.expectedBodyFields, in.Body.Fields)
			}
			if !reflect.DeepEqual(in.Body.RawJSONFields, tt.expectedBodyRawJSONFields) {
				t.Errorf("unexpected raw JSON body field: expected=%+v, actual=%+v", tt.expectedBodyRawJSONFields, in.Body.RawJSONFields)
			}
			if !reflect.DeepEqual(in.Header.Fields, tt.expectedHeaderFields) {
				t.Errorf("unexpected header field: expected=%+v, actual=%+v", tt.expectedHeaderFields, in.Header.Fields)
			}
			if !reflect.DeepEqual(in.Parameters, tt.expectedParameters) {
				t.Errorf("unexpected parameters: expected=%+v, actual=%+v", tt.expectedParameters, in.Parameters)
			}
		})
	}
}

func TestParseUrl(t *testing.T) {
	testCases := []struct {
		title    string
		input    string
		expected url.URL
	}{
		{
			title: "Typical case",
			input: "http://example.com/hello/world",
			expected: url.URL{
				Scheme: "http",
				Host:   "example.com",
				Path:   "/hello/world",
			},
		},
		{
			title: "No scheme",
			input: "example.com/hello/world",
			expected: url.URL{
				Scheme: "http",
				Host:   "example.com",
				Path:   "/hello/world",
			},
		},
		{
			title: "No host and port",
			input: "/hello/world",
			expected: url.URL{
				Scheme: "http",
				Host:   "localhost",
				Path:   "/hello/world",
			},
		},
		{
			title: "No host and port but has colon",
			input: ":/foo",
			expected: url.URL{
				Scheme: "http",
				Host:   "localhost",
				Path:   "/foo",
			},
		},
		{
			title: "Only colon",
			input: ":",
			expected: url.URL{
				Scheme: "http",
				Host:   "localhost",
				Path:   "/",
			},
		},
		{
			title: "No host but has port",
			input: ":8080/hello/world",
			expected: url.URL{
				Scheme: "http",
				Host:   "localhost:8080",
				Path:   "/hello/world",
			},
		},
		{
			title: "Has query parameters",
			input: "http://example.com/?q=hello&lang=ja",
			expected: url.URL{
				Scheme:   "http",
				Host:     "example.com",
				Path:     "/",
				RawQuery: "q=hello&lang=ja",
			},
		},
		{
			title: "No path",
			input: "https://example.com",
			expected: url.URL{
				Scheme: "https",
				Host:   "example.com",
				Path:   "/",
			},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			u, err := parseURL(tt.input)
			if err != nil {
				t.Errorf("unexpected error: err=%v", err)
			}
			if !reflect.DeepEqual(*u, tt.expected) {
				t.Errorf("unexpected result: expected=%+v, actual=%+v", tt.expected, *u)
			}
		})
	}
}
