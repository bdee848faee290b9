package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/ianaindex"
)

// Layouts accepted for dateTime.iso8601, the first is what we emit.
var dateTimeLayouts = []string{
	iso8601,
	"20060102T150405",
	"2006-01-02T15:04:05",
	"20060102T15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
}

// extensionTypes are the value types that require extensions to decode.
var extensionTypes = map[string]bool{
	"nil":   true,
	"i1":    true,
	"i2":    true,
	"i8":    true,
	"float": true,
}

// charsetReader supports documents declaring a non-UTF-8 encoding, such as
// ISO-8859-1.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return nil, UnsupportedEncodingError{label}
	}
	return enc.NewDecoder().Reader(input), nil
}

// Decoder reads XML-RPC messages from an input stream. Successive documents
// on the same stream are read by successive calls to Decode.
type Decoder struct {
	// Extensions enables the Apache vendor extensions (nil, i1, i2, i8,
	// float). Without it, extension types are a parse error.
	Extensions bool

	dec *xml.Decoder
	// encErr keeps the charset failure, which xml.Decoder only reports as
	// text.
	encErr error
}

// NewDecoder returns a Decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{dec: xml.NewDecoder(r)}
	d.dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		r, err := charsetReader(label, input)
		if err != nil {
			d.encErr = err
		}
		return r, err
	}
	return d
}

// Unmarshal parses a single XML-RPC document.
func Unmarshal(data []byte, extensions bool) (*Message, error) {
	dec := NewDecoder(bytes.NewReader(data))
	dec.Extensions = extensions
	return dec.Decode()
}

// Decode reads the next methodCall or methodResponse document. Malformed
// XML is reported as a ParseError, and undecodable charsets as an
// UnsupportedEncodingError.
func (d *Decoder) Decode() (*Message, error) {
	msg, err := d.decode()
	if err == nil {
		return msg, nil
	}
	if d.encErr != nil {
		return nil, d.encErr
	}
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return nil, ParseError{fmt.Sprintf("line %d: %s", syntaxErr.Line, syntaxErr.Msg)}
	}
	return nil, err
}

func (d *Decoder) decode() (*Message, error) {
	start, err := d.nextStart()
	if err != nil {
		return nil, err
	}
	switch start.Name.Local {
	case "methodCall":
		call, err := d.methodCall()
		if err != nil {
			return nil, err
		}
		return &Message{Call: call}, nil
	case "methodResponse":
		resp, err := d.methodResponse()
		if err != nil {
			return nil, err
		}
		return &Message{Response: resp}, nil
	}
	return nil, ParseError{fmt.Sprintf("unexpected root element: <%s>", start.Name.Local)}
}

// next returns the next start or end element, skipping whitespace,
// comments and processing instructions.
func (d *Decoder) next() (xml.Token, error) {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement, xml.EndElement:
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, ParseError{fmt.Sprintf("unexpected text: %q", string(t))}
			}
		}
	}
}

func (d *Decoder) nextStart() (xml.StartElement, error) {
	tok, err := d.next()
	if err != nil {
		return xml.StartElement{}, err
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return xml.StartElement{}, ParseError{fmt.Sprintf("unexpected </%s>", tok.(xml.EndElement).Name.Local)}
	}
	return start, nil
}

func (d *Decoder) expectStart(name string) error {
	start, err := d.nextStart()
	if err != nil {
		return err
	}
	if start.Name.Local != name {
		return ParseError{fmt.Sprintf("expected <%s>, got <%s>", name, start.Name.Local)}
	}
	return nil
}

func (d *Decoder) expectEnd(name string) error {
	tok, err := d.next()
	if err != nil {
		return err
	}
	end, ok := tok.(xml.EndElement)
	if !ok {
		return ParseError{fmt.Sprintf("expected </%s>, got <%s>", name, tok.(xml.StartElement).Name.Local)}
	}
	if end.Name.Local != name {
		return ParseError{fmt.Sprintf("expected </%s>, got </%s>", name, end.Name.Local)}
	}
	return nil
}

// text reads character data up to the end of the current element.
func (d *Decoder) text() (string, error) {
	var buf []byte
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf = append(buf, t...)
		case xml.EndElement:
			return string(buf), nil
		case xml.StartElement:
			return "", ParseError{fmt.Sprintf("unexpected <%s> in text", t.Name.Local)}
		}
	}
}

func (d *Decoder) methodCall() (*MethodCall, error) {
	if err := d.expectStart("methodName"); err != nil {
		return nil, err
	}
	name, err := d.text()
	if err != nil {
		return nil, err
	}
	call := &MethodCall{MethodName: strings.TrimSpace(name)}
	if call.MethodName == "" {
		return nil, ParseError{"empty methodName"}
	}

	tok, err := d.next()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case xml.EndElement:
		// No params
		return call, nil
	case xml.StartElement:
		if t.Name.Local != "params" {
			return nil, ParseError{fmt.Sprintf("expected <params>, got <%s>", t.Name.Local)}
		}
	}
	if call.Params, err = d.params(); err != nil {
		return nil, err
	}
	return call, d.expectEnd("methodCall")
}

func (d *Decoder) methodResponse() (*MethodResponse, error) {
	start, err := d.nextStart()
	if err != nil {
		return nil, err
	}
	resp := &MethodResponse{}
	switch start.Name.Local {
	case "params":
		if resp.Params, err = d.params(); err != nil {
			return nil, err
		}
		if len(resp.Params) != 1 {
			return nil, ParseError{fmt.Sprintf("response has %d params, expected 1", len(resp.Params))}
		}
	case "fault":
		if resp.Fault, err = d.fault(); err != nil {
			return nil, err
		}
	default:
		return nil, ParseError{fmt.Sprintf("expected <params> or <fault>, got <%s>", start.Name.Local)}
	}
	return resp, d.expectEnd("methodResponse")
}

// params reads <param> elements until </params>.
func (d *Decoder) params() ([]interface{}, error) {
	params := []interface{}{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			return params, nil
		}
		if name := tok.(xml.StartElement).Name.Local; name != "param" {
			return nil, ParseError{fmt.Sprintf("expected <param>, got <%s>", name)}
		}
		if err := d.expectStart("value"); err != nil {
			return nil, err
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		params = append(params, v)
		if err := d.expectEnd("param"); err != nil {
			return nil, err
		}
	}
}

func (d *Decoder) fault() (*Fault, error) {
	if err := d.expectStart("value"); err != nil {
		return nil, err
	}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if err := d.expectEnd("fault"); err != nil {
		return nil, err
	}
	members, ok := v.(map[string]interface{})
	if !ok {
		return nil, ParseError{"fault value is not a struct"}
	}
	code, ok := toInt64(members["faultCode"])
	if !ok {
		return nil, ParseError{"fault is missing an integer faultCode"}
	}
	str, _ := members["faultString"].(string)
	return &Fault{Code: int(code), String: str}, nil
}

// value reads the contents of a <value> element, including its end tag.
// Untyped values are strings.
func (d *Decoder) value() (interface{}, error) {
	var text []byte
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text = append(text, t...)
		case xml.EndElement:
			return string(text), nil
		case xml.StartElement:
			if len(bytes.TrimSpace(text)) > 0 {
				return nil, ParseError{"mixed text and typed value"}
			}
			v, err := d.typed(t.Name.Local)
			if err != nil {
				return nil, err
			}
			return v, d.expectEnd("value")
		}
	}
}

// typed reads a typed value element whose start tag was just consumed.
func (d *Decoder) typed(typ string) (interface{}, error) {
	if extensionTypes[typ] && !d.Extensions {
		return nil, ParseError{fmt.Sprintf("extension type <%s> used, but extensions are disabled", typ)}
	}

	switch typ {
	case "array":
		return d.array()
	case "struct":
		return d.members()
	}

	s, err := d.text()
	if err != nil {
		return nil, err
	}
	switch typ {
	case "string":
		return s, nil
	case "i4", "int":
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return nil, ParseError{fmt.Sprintf("invalid <%s>: %q", typ, s)}
		}
		return int(n), nil
	case "i1", "i2", "i8":
		bits := map[string]int{"i1": 8, "i2": 16, "i8": 64}[typ]
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
		if err != nil {
			return nil, ParseError{fmt.Sprintf("invalid <%s>: %q", typ, s)}
		}
		switch bits {
		case 8:
			return int8(n), nil
		case 16:
			return int16(n), nil
		}
		return n, nil
	case "boolean":
		switch strings.TrimSpace(s) {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
		return nil, ParseError{fmt.Sprintf("invalid <boolean>: %q", s)}
	case "double":
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, ParseError{fmt.Sprintf("invalid <double>: %q", s)}
		}
		return f, nil
	case "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return nil, ParseError{fmt.Sprintf("invalid <float>: %q", s)}
		}
		return float32(f), nil
	case "dateTime.iso8601":
		return parseDateTime(strings.TrimSpace(s))
	case "base64":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
		if err != nil {
			return nil, ParseError{fmt.Sprintf("invalid <base64>: %s", err)}
		}
		return b, nil
	case "nil":
		if strings.TrimSpace(s) != "" {
			return nil, ParseError{"<nil> must be empty"}
		}
		return nil, nil
	}
	return nil, ParseError{fmt.Sprintf("unknown value type <%s>", typ)}
}

func parseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ParseError{fmt.Sprintf("invalid <dateTime.iso8601>: %q", s)}
}

func (d *Decoder) array() ([]interface{}, error) {
	if err := d.expectStart("data"); err != nil {
		return nil, err
	}
	values := []interface{}{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
		if name := tok.(xml.StartElement).Name.Local; name != "value" {
			return nil, ParseError{fmt.Sprintf("expected <value> in <data>, got <%s>", name)}
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, d.expectEnd("array")
}

func (d *Decoder) members() (map[string]interface{}, error) {
	members := map[string]interface{}{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			return members, nil
		}
		if name := tok.(xml.StartElement).Name.Local; name != "member" {
			return nil, ParseError{fmt.Sprintf("expected <member>, got <%s>", name)}
		}
		name, v, err := d.member()
		if err != nil {
			return nil, err
		}
		members[name] = v
	}
}

// member reads a <name> and a <value> in either order, up to </member>.
func (d *Decoder) member() (string, interface{}, error) {
	var name string
	var value interface{}
	var hasName, hasValue bool
	for {
		tok, err := d.next()
		if err != nil {
			return "", nil, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
		switch el := tok.(xml.StartElement).Name.Local; el {
		case "name":
			if name, err = d.text(); err != nil {
				return "", nil, err
			}
			hasName = true
		case "value":
			if value, err = d.value(); err != nil {
				return "", nil, err
			}
			hasValue = true
		default:
			return "", nil, ParseError{fmt.Sprintf("unexpected <%s> in <member>", el)}
		}
	}
	if !hasName || !hasValue {
		return "", nil, ParseError{"member requires a name and a value"}
	}
	return name, value, nil
}
