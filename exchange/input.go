package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/HexmosTech/reqkit/formdata"
	"github.com/HexmosTech/reqkit/input"
	"github.com/HexmosTech/reqkit/params"
	"github.com/HexmosTech/reqkit/request"
	"github.com/HexmosTech/reqkit/urlconv"
	"github.com/pkg/errors"
)

// Prepared is a request built from command-line input.
type Prepared struct {
	Request *request.Request
	upload  *Upload
}

// Cleanup releases the temporary body file of a multipart request.
func (p *Prepared) Cleanup() error {
	if p.upload == nil {
		return nil
	}
	return p.upload.Cleanup()
}

// BuildInput turns parsed command-line input into a request. URL parameters
// always go to the query string; data fields are encoded according to the
// body type.
func (m *Manager) BuildInput(in *input.Input, auth AuthOptions) (*Prepared, error) {
	header, err := buildHTTPHeader(in)
	if err != nil {
		return nil, err
	}
	query, err := buildQuery(in)
	if err != nil {
		return nil, err
	}

	base, err := m.Build(in.Method, urlconv.FromURL(in.URL), query, params.QueryString, header)
	if err != nil {
		return nil, err
	}

	prepared := &Prepared{}
	if in.Body.BodyType == input.MultipartBody {
		upload, err := m.prepareUpload(in.Method, urlconv.String(base.URL), header, func(form *formdata.FormData) error {
			return fillForm(form, in)
		})
		if err != nil {
			return nil, err
		}
		prepared.upload = upload
		prepared.Request = upload.Request
	} else {
		req, err := applyBody(base, in)
		if err != nil {
			return nil, err
		}
		prepared.Request = req
	}

	if auth.Enabled {
		prepared.Request.SetBasicAuth(auth.UserName, auth.Password)
	}
	return prepared, nil
}

// Send sends a prepared request and releases its temporary files.
func (m *Manager) Send(ctx context.Context, p *Prepared) (*http.Response, error) {
	if p.upload != nil {
		return m.Upload(ctx, p.upload)
	}
	return m.Do(ctx, p.Request)
}

func buildQuery(in *input.Input) (params.Params, error) {
	var query params.Params
	for _, field := range in.Parameters {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		query = append(query, params.Pair{Key: field.Name, Value: value})
	}
	return query, nil
}

func buildHTTPHeader(in *input.Input) (http.Header, error) {
	header := make(http.Header)
	for _, field := range in.Header.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		header.Add(field.Name, value)
	}
	return header, nil
}

func applyBody(req *request.Request, in *input.Input) (*request.Request, error) {
	switch in.Body.BodyType {
	case input.EmptyBody:
		return req, nil
	case input.JSONBody:
		p, err := buildBodyParams(in)
		if err != nil {
			return nil, err
		}
		return params.Encode(req, p, params.JSON)
	case input.PlistBody:
		p, err := buildBodyParams(in)
		if err != nil {
			return nil, err
		}
		return params.Encode(req, p, params.PropertyList)
	case input.FormBody:
		p, err := buildBodyParams(in)
		if err != nil {
			return nil, err
		}
		return params.Encode(req, p, params.FormURLEncoded)
	case input.RawBody:
		r := req.Clone()
		r.Body = request.Bytes(in.Body.Raw)
		if r.Header.Get("Content-Type") == "" {
			r.Header.Set("Content-Type", params.JSONContentType)
		}
		return r, nil
	default:
		return nil, errors.Errorf("unknown body type: %v", in.Body.BodyType)
	}
}

func buildBodyParams(in *input.Input) (params.Params, error) {
	var p params.Params
	for _, field := range in.Body.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		p = append(p, params.Pair{Key: field.Name, Value: value})
	}
	for _, field := range in.Body.RawJSONFields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		decoder := json.NewDecoder(bytes.NewReader([]byte(value)))
		decoder.UseNumber()
		var v interface{}
		if err := decoder.Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "parsing JSON value of '%s'", field.Name)
		}
		p = append(p, params.Pair{Key: field.Name, Value: v})
	}
	return p, nil
}

func fillForm(form *formdata.FormData, in *input.Input) error {
	for _, field := range in.Body.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return err
		}
		form.AppendData(field.Name, []byte(value))
	}
	for _, field := range in.Body.Files {
		if !field.IsFile {
			// content read from stdin
			form.AppendData(field.Name, []byte(field.Value))
			continue
		}
		if err := form.AppendFile(field.Name, field.Value); err != nil {
			return err
		}
	}
	return nil
}

func resolveFieldValue(field input.Field) (string, error) {
	if !field.IsFile {
		return field.Value, nil
	}
	data, err := ioutil.ReadFile(field.Value)
	if err != nil {
		return "", errors.Wrapf(err, "reading field value of '%s'", field.Name)
	}
	return string(data), nil
}
