package xmlrpc

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

const apacheResponse = `<?xml version="1.0" encoding="UTF-8"?>
<methodResponse xmlns:ex="http://ws.apache.org/xmlrpc/namespaces/extensions">
  <params>
    <param>
      <value>
        <struct>
          <member><name>big</name><value><ex:i8>1099511627776</ex:i8></value></member>
          <member><value><ex:nil/></value><name>nothing</name></member>
          <member><name>list</name><value><array><data>
            <value><int>1</int></value>
            <value>untyped</value>
            <value><ex:float>0.5</ex:float></value>
          </data></array></value></member>
        </struct>
      </value>
    </param>
  </params>
</methodResponse>`

func TestUnmarshalExtensions(t *testing.T) {
	msg, err := Unmarshal([]byte(apacheResponse), true)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Response == nil {
		t.Fatalf("expected response, got: %s", msg)
	}
	want := []interface{}{map[string]interface{}{
		"big":     int64(1 << 40),
		"nothing": nil,
		"list":    []interface{}{1, "untyped", float32(0.5)},
	}}
	if !reflect.DeepEqual(msg.Response.Params, want) {
		t.Errorf("got: %#v; want %#v", msg.Response.Params, want)
	}

	_, err = Unmarshal([]byte(apacheResponse), false)
	if _, ok := err.(ParseError); !ok {
		t.Errorf("expected ParseError without extensions, got: %v", err)
	}
}

func TestUnmarshalCall(t *testing.T) {
	doc := `<?xml version="1.0"?>
<methodCall>
  <methodName> test.hello </methodName>
  <params>
    <param><value><string>World</string></value></param>
    <param><value><dateTime.iso8601>19980717T14:08:55</dateTime.iso8601></value></param>
    <param><value><base64>aGVs
bG8=</base64></value></param>
    <param><value><boolean>0</boolean></value></param>
  </params>
</methodCall>`
	msg, err := Unmarshal([]byte(doc), false)
	if err != nil {
		t.Fatal(err)
	}
	want := &MethodCall{
		MethodName: "test.hello",
		Params: []interface{}{
			"World",
			time.Date(1998, 7, 17, 14, 8, 55, 0, time.UTC),
			[]byte("hello"),
			false,
		},
	}
	if !reflect.DeepEqual(msg.Call, want) {
		t.Errorf("got: %#v; want %#v", msg.Call, want)
	}

	msg, err = Unmarshal([]byte(`<methodCall><methodName>noparams</methodName></methodCall>`), false)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Call.MethodName != "noparams" || len(msg.Call.Params) != 0 {
		t.Errorf("unexpected call: %#v", msg.Call)
	}
}

func TestUnmarshalFault(t *testing.T) {
	doc := `<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>4</int></value></member>
<member><name>faultString</name><value><string>Too many parameters.</string></value></member>
</struct></value></fault></methodResponse>`
	msg, err := Unmarshal([]byte(doc), false)
	if err != nil {
		t.Fatal(err)
	}
	var result string
	err = msg.Response.UnmarshalResult(&result)
	fault, ok := err.(*Fault)
	if !ok {
		t.Fatalf("expected *Fault, got: %v", err)
	}
	if got, want := *fault, (Fault{Code: 4, String: "Too many parameters."}); got != want {
		t.Errorf("got: %v; want %v", got, want)
	}
}

func TestUnmarshalCharset(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<methodCall><methodName>test.hello</methodName><params><param><value>caf\xe9</value></param></params></methodCall>"
	msg, err := Unmarshal([]byte(doc), false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := msg.Call.Params[0], "café"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	testcases := []string{
		`<methodCall><methodName></methodName></methodCall>`,
		`<methodCall><methodName>x</methodName><params><param><value><boolean>yes</boolean></value></param></params></methodCall>`,
		`<methodCall><methodName>x</methodName><params><param><value><i4>99999999999</i4></value></param></params></methodCall>`,
		`<methodCall><methodName>x</methodName><params><param><value><widget>1</widget></value></param></params></methodCall>`,
		`<methodCall><methodName>x</methodName><params><param><value><dateTime.iso8601>yesterday</dateTime.iso8601></value></param></params></methodCall>`,
		`<methodResponse><params><param><value>a</value></param><param><value>b</value></param></params></methodResponse>`,
		`<methodResponse><params></params></methodResponse>`,
		`<methodResponse><fault><value><string>oops</string></value></fault></methodResponse>`,
		`<methodResponse><params><param><value><struct><member><name>a</name></member></struct></value></param></params></methodResponse>`,
		`<notRPC/>`,
		`<methodCall><methodName>x</methodName><params></methodCall>`,
		`<methodCall><methodName>x</methodName>`,
	}

	for i, doc := range testcases {
		_, err := Unmarshal([]byte(doc), false)
		if _, ok := err.(ParseError); !ok {
			t.Errorf("[case %d] expected ParseError, got: %v", i, err)
		}
	}
}

func TestUnmarshalUnsupportedEncoding(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"x-klingon\"?>\n" +
		"<methodCall><methodName>test.hello</methodName></methodCall>"
	_, err := Unmarshal([]byte(doc), false)
	encErr, ok := err.(UnsupportedEncodingError)
	if !ok {
		t.Fatalf("expected UnsupportedEncodingError, got: %v", err)
	}
	if got, want := encErr.Encoding, "x-klingon"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
}

func TestDecoderStream(t *testing.T) {
	stream := `<?xml version="1.0"?><methodCall><methodName>one</methodName></methodCall>
<?xml version="1.0"?><methodCall><methodName>two</methodName></methodCall>
`
	dec := NewDecoder(strings.NewReader(stream))
	for _, want := range []string{"one", "two"} {
		msg, err := dec.Decode()
		if err != nil {
			t.Fatal(err)
		}
		if msg.Call.MethodName != want {
			t.Errorf("got: %q; want %q", msg.Call.MethodName, want)
		}
	}
	if _, err := dec.Decode(); err == nil {
		t.Error("expected EOF at end of stream")
	}
}
