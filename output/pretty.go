package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
)

const jsonIndent = "    "

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	headerPalette *HeaderPalette
	jsonPalette   *JSONPalette
}

type PrettyPrinterConfig struct {
	Writer      io.Writer
	EnableColor bool
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	Status         aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.GreenFg | aurora.BoldFm,
	URL:            aurora.CyanFg,
	Proto:          aurora.BlueFg,
	Status:         aurora.BrownFg | aurora.BoldFm,
	FieldName:      aurora.GrayFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.GrayFg,
}

type JSONPalette struct {
	Name    aurora.Color
	String  aurora.Color
	Number  aurora.Color
	Boolean aurora.Color
	Null    aurora.Color
	Symbol  aurora.Color
}

var defaultJSONPalette = JSONPalette{
	Name:    aurora.BlueFg,
	String:  aurora.BrownFg,
	Number:  aurora.CyanFg,
	Boolean: aurora.MagentaFg,
	Null:    aurora.RedFg,
	Symbol:  aurora.GrayFg,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        aurora.NewAurora(config.EnableColor),
		headerPalette: &defaultHeaderPalette,
		jsonPalette:   &defaultJSONPalette,
	}
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, p.headerPalette.Status))
	return nil
}

func (p *PrettyPrinter) PrintRequestLine(req *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(req.Method, p.headerPalette.Method),
		p.aurora.Colorize(req.URL.String(), p.headerPalette.URL),
		p.aurora.Colorize(req.Proto, p.headerPalette.Proto))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue))
		}
	}

	fmt.Fprintln(p.writer)
	return nil
}

func isJSON(contentType string) bool {
	contentType = strings.TrimSpace(contentType)

	semicolon := strings.Index(contentType, ";")
	if semicolon != -1 {
		contentType = strings.TrimSpace(contentType[:semicolon])
	}

	return contentType == "application/json" || strings.HasSuffix(contentType, "+json")
}

func (p *PrettyPrinter) PrintBody(body io.Reader, contentType string) error {
	// Fallback to PlainPrinter when the body is not JSON
	if !isJSON(contentType) {
		return p.plain.PrintBody(body, contentType)
	}

	data, err := ioutil.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}

	// Bodies that merely claim to be JSON are printed as they are.
	if !json.Valid(data) {
		_, err := p.writer.Write(data)
		return errors.Wrap(err, "printing body")
	}

	w := bufio.NewWriter(p.writer)
	f := &jsonFormatter{
		decoder: json.NewDecoder(bytes.NewReader(data)),
		writer:  w,
		aurora:  p.aurora,
		palette: p.jsonPalette,
	}
	f.decoder.UseNumber()
	if err := f.value(0); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return errors.Wrap(w.Flush(), "printing body")
}

// jsonFormatter re-indents a token stream. Keys keep the order in which the
// server sent them.
type jsonFormatter struct {
	decoder *json.Decoder
	writer  io.Writer
	aurora  aurora.Aurora
	palette *JSONPalette
}

func (f *jsonFormatter) value(depth int) error {
	token, err := f.decoder.Token()
	if err != nil {
		return errors.Wrap(err, "parsing JSON")
	}
	switch v := token.(type) {
	case json.Delim:
		switch v {
		case '{':
			return f.container(depth, '}', true)
		case '[':
			return f.container(depth, ']', false)
		}
		return errors.Errorf("unexpected delimiter: %s", v)
	case string:
		f.print(quoteJSON(v), f.palette.String)
	case json.Number:
		f.print(v.String(), f.palette.Number)
	case bool:
		f.print(fmt.Sprint(v), f.palette.Boolean)
	case nil:
		f.print("null", f.palette.Null)
	default:
		return errors.Errorf("unexpected JSON token: %v", token)
	}
	return nil
}

func (f *jsonFormatter) container(depth int, closing rune, isObject bool) error {
	open := "["
	if isObject {
		open = "{"
	}
	if !f.decoder.More() {
		if _, err := f.decoder.Token(); err != nil {
			return errors.Wrap(err, "parsing JSON")
		}
		f.print(open+string(closing), f.palette.Symbol)
		return nil
	}

	f.print(open, f.palette.Symbol)
	for first := true; f.decoder.More(); first = false {
		if !first {
			f.print(",", f.palette.Symbol)
		}
		fmt.Fprint(f.writer, "\n", strings.Repeat(jsonIndent, depth+1))
		if isObject {
			token, err := f.decoder.Token()
			if err != nil {
				return errors.Wrap(err, "parsing JSON")
			}
			name, ok := token.(string)
			if !ok {
				return errors.Errorf("unexpected object key: %v", token)
			}
			f.print(quoteJSON(name), f.palette.Name)
			f.print(":", f.palette.Symbol)
			fmt.Fprint(f.writer, " ")
		}
		if err := f.value(depth + 1); err != nil {
			return err
		}
	}
	if _, err := f.decoder.Token(); err != nil {
		return errors.Wrap(err, "parsing JSON")
	}
	fmt.Fprint(f.writer, "\n", strings.Repeat(jsonIndent, depth))
	f.print(string(closing), f.palette.Symbol)
	return nil
}

func (f *jsonFormatter) print(s string, color aurora.Color) {
	fmt.Fprint(f.writer, f.aurora.Colorize(s, color))
}

func quoteJSON(s string) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
