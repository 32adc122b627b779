package request

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/HexmosTech/reqkit/urlconv"
	"github.com/HexmosTech/reqkit/version"
)

func makeTempFile(t *testing.T, content string) string {
	tmpfile, err := ioutil.TempFile("", "reqkit-test-")
	if err != nil {
		t.Fatalf("failed to create temporary file: %v", err)
	}
	defer tmpfile.Close()
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		os.Remove(tmpfile.Name())
		t.Fatalf("failed to write to temporary file: %v", err)
	}
	return tmpfile.Name()
}

func readAll(t *testing.T, reader io.Reader) string {
	b, err := ioutil.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read all: %s", err)
	}
	return string(b)
}

func TestBuild(t *testing.T) {
	// Setup
	builder := NewBuilder(http.Header{
		"User-Agent": []string{"reqkit/test"},
		"Accept":     []string{"*/*"},
	})
	headers := http.Header{
		"accept": []string{"application/json"},
		"X-Foo":  []string{"fizz buzz"},
	}

	// Exercise
	actual, err := builder.Build(MethodPost, urlconv.String("https://api.example.com/items"), headers)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if actual.Method != MethodPost {
		t.Errorf("unexpected method: expected=%v, actual=%v", MethodPost, actual.Method)
	}
	if actual.URL != "https://api.example.com/items" {
		t.Errorf("unexpected URL: actual=%v", actual.URL)
	}
	expectedHeader := http.Header{
		"User-Agent": []string{"reqkit/test"},
		"Accept":     []string{"application/json"},
		"X-Foo":      []string{"fizz buzz"},
	}
	if !reflect.DeepEqual(expectedHeader, actual.Header) {
		t.Errorf("unexpected header: expected=%v, actual=%v", expectedHeader, actual.Header)
	}
	if actual.Body != nil {
		t.Errorf("unexpected body: %v", actual.Body)
	}
	if builder.Defaults.Get("Accept") != "*/*" {
		t.Errorf("defaults were mutated: %v", builder.Defaults)
	}
}

func TestBuild_DefaultUserAgent(t *testing.T) {
	actual, err := Build(MethodGet, urlconv.String("http://example.com/"), nil)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	expected := "reqkit/" + version.Current().String()
	if ua := actual.Header.Get("User-Agent"); ua != expected {
		t.Errorf("unexpected User-Agent: expected=%s, actual=%s", expected, ua)
	}
}

func TestBuild_InvalidURL(t *testing.T) {
	_, err := Build(MethodGet, urlconv.String("not a url"), nil)
	if !urlconv.IsInvalidURL(err) {
		t.Errorf("expected InvalidURLError, got %v", err)
	}
}

func TestMergeHeader(t *testing.T) {
	testCases := []struct {
		title    string
		dst      http.Header
		src      http.Header
		expected http.Header
	}{
		{
			title:    "Override existing field",
			dst:      http.Header{"Content-Type": []string{"text/plain"}},
			src:      http.Header{"content-type": []string{"application/json"}},
			expected: http.Header{"Content-Type": []string{"application/json"}},
		},
		{
			title:    "Multiple values replace all",
			dst:      http.Header{"X-Multi": []string{"a", "b"}},
			src:      http.Header{"X-Multi": []string{"c"}},
			expected: http.Header{"X-Multi": []string{"c"}},
		},
		{
			title:    "Empty values are skipped",
			dst:      http.Header{"X-Keep": []string{"a"}},
			src:      http.Header{"X-Keep": []string{}},
			expected: http.Header{"X-Keep": []string{"a"}},
		},
		{
			title:    "Case variants resolve deterministically",
			dst:      http.Header{},
			src:      http.Header{"X-Foo": []string{"upper"}, "x-foo": []string{"lower"}},
			expected: http.Header{"X-Foo": []string{"lower"}},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			MergeHeader(tt.dst, tt.src)
			if !reflect.DeepEqual(tt.expected, tt.dst) {
				t.Errorf("unexpected header: expected=%v, actual=%v", tt.expected, tt.dst)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	testCases := []struct {
		title         string
		input         string
		expected      Method
		shouldBeError bool
	}{
		{title: "Upper case", input: "GET", expected: MethodGet},
		{title: "Lower case", input: "patch", expected: MethodPatch},
		{title: "Invalid characters", input: "GET/POST", shouldBeError: true},
		{title: "Empty", input: "", shouldBeError: true},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			actual, err := ParseMethod(tt.input)
			if (err != nil) != tt.shouldBeError {
				t.Fatalf("unexpected error: shouldBeError=%v, err=%v", tt.shouldBeError, err)
			}
			if actual != tt.expected {
				t.Errorf("unexpected method: expected=%v, actual=%v", tt.expected, actual)
			}
		})
	}
}

func TestHTTPRequest(t *testing.T) {
	// Setup
	r := &Request{
		Method: MethodPut,
		URL:    "https://localhost:4000/foo?q=hello+world",
		Header: http.Header{
			"Host":  []string{"example.com:8080"},
			"X-Foo": []string{"bar"},
		},
		Body: String("hello"),
	}
	r.SetBasicAuth("alice", "open sesame")

	// Exercise
	actual, err := r.HTTPRequest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if actual.Method != "PUT" {
		t.Errorf("unexpected method: actual=%v", actual.Method)
	}
	if actual.URL.String() != r.URL {
		t.Errorf("unexpected URL: expected=%v, actual=%v", r.URL, actual.URL)
	}
	if actual.Host != "example.com:8080" {
		t.Errorf("unexpected host: actual=%v", actual.Host)
	}
	if auth := actual.Header.Get("Authorization"); auth != "Basic YWxpY2U6b3BlbiBzZXNhbWU=" {
		t.Errorf("unexpected authorization: actual=%v", auth)
	}
	if actual.ContentLength != 5 {
		t.Errorf("unexpected content length: actual=%v", actual.ContentLength)
	}
	if body := readAll(t, actual.Body); body != "hello" {
		t.Errorf("unexpected body: actual=%s", body)
	}
	again, err := actual.GetBody()
	if err != nil {
		t.Fatalf("GetBody failed: %v", err)
	}
	if body := readAll(t, again); body != "hello" {
		t.Errorf("unexpected body from GetBody: actual=%s", body)
	}
}

func TestHTTPRequest_EmptyBody(t *testing.T) {
	r := &Request{Method: MethodPost, URL: "http://example.com/", Header: http.Header{}, Body: Empty}
	actual, err := r.HTTPRequest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if actual.Body != http.NoBody {
		t.Errorf("expected http.NoBody, got %v", actual.Body)
	}
}

func TestFromHTTPRequest(t *testing.T) {
	hr, err := http.NewRequest("post", "https://example.com/upload", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	hr.Header.Set("X-Trace", "1")

	actual, err := FromHTTPRequest(hr).CanonicalRequest()
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if actual.Method != MethodPost {
		t.Errorf("unexpected method: actual=%v", actual.Method)
	}
	if actual.URL != "https://example.com/upload" {
		t.Errorf("unexpected URL: actual=%v", actual.URL)
	}
	if actual.Header.Get("X-Trace") != "1" {
		t.Errorf("unexpected header: actual=%v", actual.Header)
	}
	body, err := ReadAll(actual.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("unexpected body: actual=%s", body)
	}
	if n, ok := actual.Body.ContentLength(); !ok || n != 7 {
		t.Errorf("unexpected content length: %d, %v", n, ok)
	}
}

func TestFileBody(t *testing.T) {
	fileName := makeTempFile(t, "file content")
	defer os.Remove(fileName)

	body, err := File(fileName)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if n, ok := body.ContentLength(); !ok || n != 12 {
		t.Errorf("unexpected content length: %d, %v", n, ok)
	}
	data, err := ReadAll(body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if string(data) != "file content" {
		t.Errorf("unexpected body: actual=%s", data)
	}

	if _, err := File(os.TempDir()); err == nil {
		t.Errorf("expected error for directory body")
	}
}
