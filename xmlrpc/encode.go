package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// iso8601 is the dateTime.iso8601 layout used on the wire.
const iso8601 = "20060102T15:04:05"

var typeOfTime = reflect.TypeOf(time.Time{})

// Encoder writes XML-RPC messages to an output stream, one document per
// message.
type Encoder struct {
	// Extensions enables the Apache vendor extensions (nil, i1, i2, i8,
	// float).
	Extensions bool

	w io.Writer
}

// NewEncoder returns an Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one message. Nothing is written if the message fails to
// encode.
func (enc *Encoder) Encode(msg *Message) error {
	var buf bytes.Buffer
	if err := encodeMessage(&buf, msg, enc.Extensions); err != nil {
		return err
	}
	_, err := enc.w.Write(buf.Bytes())
	return err
}

// Marshal returns the XML-RPC document for a message.
func Marshal(msg *Message, extensions bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeMessage(&buf, msg, extensions); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeMessage(buf *bytes.Buffer, msg *Message, extensions bool) error {
	w := valueWriter{buf: buf, extensions: extensions}
	buf.WriteString(xml.Header)
	switch {
	case msg.Call != nil:
		w.open("methodCall")
		w.element("methodName", msg.Call.MethodName)
		if err := w.params(msg.Call.Params); err != nil {
			return err
		}
		buf.WriteString("</methodCall>")
	case msg.Response != nil:
		w.open("methodResponse")
		if msg.Response.Fault != nil {
			w.fault(msg.Response.Fault)
		} else {
			if len(msg.Response.Params) != 1 {
				return errors.New("xmlrpc: response must have exactly one param")
			}
			if err := w.params(msg.Response.Params); err != nil {
				return err
			}
		}
		buf.WriteString("</methodResponse>")
	default:
		return errors.New("xmlrpc: empty message")
	}
	buf.WriteByte('\n')
	return nil
}

type valueWriter struct {
	buf        *bytes.Buffer
	extensions bool
}

// open writes the root element, declaring the extensions namespace if
// enabled.
func (w *valueWriter) open(name string) {
	w.buf.WriteString("<" + name)
	if w.extensions {
		w.buf.WriteString(` xmlns:ex="` + ExtensionsNamespace + `"`)
	}
	w.buf.WriteString(">")
}

func (w *valueWriter) element(name, text string) {
	w.buf.WriteString("<" + name + ">")
	xml.EscapeText(w.buf, []byte(text))
	w.buf.WriteString("</" + name + ">")
}

func (w *valueWriter) params(params []interface{}) error {
	w.buf.WriteString("<params>")
	for _, p := range params {
		w.buf.WriteString("<param>")
		if err := w.value(reflect.ValueOf(p)); err != nil {
			return err
		}
		w.buf.WriteString("</param>")
	}
	w.buf.WriteString("</params>")
	return nil
}

func (w *valueWriter) fault(f *Fault) {
	w.buf.WriteString("<fault><value><struct>")
	w.buf.WriteString("<member><name>faultCode</name><value><int>")
	w.buf.WriteString(strconv.Itoa(f.Code))
	w.buf.WriteString("</int></value></member>")
	w.buf.WriteString("<member><name>faultString</name><value>")
	w.element("string", f.String)
	w.buf.WriteString("</value></member>")
	w.buf.WriteString("</struct></value></fault>")
}

func (w *valueWriter) scalar(typ, text string) {
	w.buf.WriteString("<value>")
	w.element(typ, text)
	w.buf.WriteString("</value>")
}

func (w *valueWriter) null(t reflect.Type) error {
	if !w.extensions {
		return UnsupportedValueError{Type: t, Reason: "nil requires extensions"}
	}
	w.buf.WriteString("<value><ex:nil/></value>")
	return nil
}

func (w *valueWriter) integer(t reflect.Type, n int64) error {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		w.scalar("i4", strconv.FormatInt(n, 10))
		return nil
	}
	if !w.extensions {
		return UnsupportedValueError{Type: t, Reason: "integer exceeds i4 range without extensions"}
	}
	w.scalar("ex:i8", strconv.FormatInt(n, 10))
	return nil
}

func (w *valueWriter) double(t reflect.Type, f float64, bits int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return UnsupportedValueError{Type: t, Reason: "NaN and Inf are not representable"}
	}
	typ := "double"
	if bits == 32 && w.extensions {
		typ = "ex:float"
	}
	w.scalar(typ, strconv.FormatFloat(f, 'f', -1, bits))
	return nil
}

func (w *valueWriter) value(v reflect.Value) error {
	if !v.IsValid() {
		return w.null(nil)
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return w.null(v.Type())
		}
		return w.value(v.Elem())
	}

	t := v.Type()
	if t == typeOfTime {
		w.scalar("dateTime.iso8601", v.Interface().(time.Time).Format(iso8601))
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			w.scalar("boolean", "1")
		} else {
			w.scalar("boolean", "0")
		}
	case reflect.Int8:
		if w.extensions {
			w.scalar("ex:i1", strconv.FormatInt(v.Int(), 10))
			return nil
		}
		return w.integer(t, v.Int())
	case reflect.Int16:
		if w.extensions {
			w.scalar("ex:i2", strconv.FormatInt(v.Int(), 10))
			return nil
		}
		return w.integer(t, v.Int())
	case reflect.Int, reflect.Int32, reflect.Int64:
		return w.integer(t, v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := v.Uint()
		if n > math.MaxInt64 {
			return UnsupportedValueError{Type: t, Reason: "integer exceeds i8 range"}
		}
		return w.integer(t, int64(n))
	case reflect.Float32:
		return w.double(t, v.Float(), 32)
	case reflect.Float64:
		return w.double(t, v.Float(), 64)
	case reflect.String:
		w.scalar("string", v.String())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			w.scalar("base64", base64.StdEncoding.EncodeToString(v.Bytes()))
			return nil
		}
		return w.array(v)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			w.scalar("base64", base64.StdEncoding.EncodeToString(b))
			return nil
		}
		return w.array(v)
	case reflect.Map:
		return w.mapStruct(v)
	case reflect.Struct:
		return w.goStruct(v)
	default:
		return UnsupportedValueError{Type: t, Reason: "no XML-RPC representation"}
	}
	return nil
}

func (w *valueWriter) array(v reflect.Value) error {
	w.buf.WriteString("<value><array><data>")
	for i := 0; i < v.Len(); i++ {
		if err := w.value(v.Index(i)); err != nil {
			return err
		}
	}
	w.buf.WriteString("</data></array></value>")
	return nil
}

func (w *valueWriter) member(name string, v reflect.Value) error {
	w.buf.WriteString("<member>")
	w.element("name", name)
	if err := w.value(v); err != nil {
		return err
	}
	w.buf.WriteString("</member>")
	return nil
}

func (w *valueWriter) mapStruct(v reflect.Value) error {
	if v.Type().Key().Kind() != reflect.String {
		return UnsupportedValueError{Type: v.Type(), Reason: "struct keys must be strings"}
	}
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	w.buf.WriteString("<value><struct>")
	for _, k := range keys {
		if err := w.member(k.String(), v.MapIndex(k)); err != nil {
			return err
		}
	}
	w.buf.WriteString("</struct></value>")
	return nil
}

func (w *valueWriter) goStruct(v reflect.Value) error {
	w.buf.WriteString("<value><struct>")
	for _, f := range structFields(v.Type()) {
		fv := v.FieldByIndex(f.index)
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		if err := w.member(f.name, fv); err != nil {
			return err
		}
	}
	w.buf.WriteString("</struct></value>")
	return nil
}
