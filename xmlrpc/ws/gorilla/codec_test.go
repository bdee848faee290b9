package gorilla

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vipnode/xmlrpc/xmlrpc"
	"github.com/vipnode/xmlrpc/xmlrpc/ws"
)

type Greeter struct{}

func (g *Greeter) Hello(name string) string {
	return "Hello " + name
}

func TestWebSocketRemote(t *testing.T) {
	server := &xmlrpc.Server{}
	if err := server.Register("test.", &Greeter{}); err != nil {
		t.Fatal(err)
	}
	upgrader := &Upgrader{EnabledForExtensions: true}
	ts := httptest.NewServer(ws.Handler(upgrader, server))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	codec, err := WebSocketDial(context.Background(), url, true)
	if err != nil {
		t.Fatal(err)
	}
	remote := &xmlrpc.Remote{Codec: codec}
	defer remote.Close()

	var got string
	if err := remote.Call(context.Background(), &got, "test.hello", "World"); err != nil {
		t.Fatal(err)
	}
	if want := "Hello World"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}

	err = remote.Call(context.Background(), &got, "test.goodbye")
	if fault, ok := err.(*xmlrpc.Fault); !ok || fault.Code != xmlrpc.FaultMethodNotFound {
		t.Errorf("expected method not found fault, got: %v", err)
	}
}
