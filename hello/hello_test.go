package hello

import (
	"context"
	"testing"

	"github.com/vipnode/xmlrpc/xmlrpc"
)

func TestHello(t *testing.T) {
	rpc := xmlrpc.Local{}
	if err := rpc.Register("test.", &Handler{}); err != nil {
		t.Fatal(err)
	}

	var got string
	if err := rpc.Call(context.Background(), &got, "test.hello", "World"); err != nil {
		t.Fatal(err)
	}
	if want := "Hello World"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}
}
