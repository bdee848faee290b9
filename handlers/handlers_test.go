package handlers

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vipnode/xmlrpc/xmlrpc"
)

type Echo struct{}

func (e *Echo) Echo(s string) string {
	return s
}

type Counter struct {
	n int
}

func (c *Counter) Next() int {
	c.n++
	return c.n
}

var testCatalog = Catalog{
	"Echo":    func() interface{} { return &Echo{} },
	"Counter": func() interface{} { return &Counter{} },
}

func TestParse(t *testing.T) {
	doc := []byte(`# Handler mapping
! legacy comment
echo=Echo
count.: \
    Counter
`)
	m, err := Parse(doc, testCatalog)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.Prefixes(), []string{"count", "echo"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got: %v; want %v", got, want)
	}
	e, ok := m.Entry("count")
	if !ok || e.TypeName != "Counter" {
		t.Errorf("unexpected entry: %+v", e)
	}

	rpc := &xmlrpc.Local{}
	if err := m.Apply(rpc); err != nil {
		t.Fatal(err)
	}
	var s string
	if err := rpc.Call(context.Background(), &s, "echo.echo", "hi"); err != nil {
		t.Error(err)
	}
	if s != "hi" {
		t.Errorf("got: %q; want %q", s, "hi")
	}
	var n int
	for i := 1; i <= 2; i++ {
		if err := rpc.Call(context.Background(), &n, "count.next"); err != nil {
			t.Error(err)
		}
		if n != i {
			t.Errorf("got: %d; want %d", n, i)
		}
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("echo=Nope\n"), testCatalog)
	if want := (UnknownHandlerError{Prefix: "echo", TypeName: "Nope"}); err != want {
		t.Errorf("got: %v; want %v", err, want)
	}

	if _, err := Parse([]byte(".=Echo\n"), testCatalog); err != ErrEmptyPrefix {
		t.Errorf("got: %v; want %v", err, ErrEmptyPrefix)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handlers.properties")
	// ISO-8859-1 comment
	if err := os.WriteFile(path, []byte("# caf\xe9\necho = Echo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path, testCatalog)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.Prefixes(), []string{"echo"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got: %v; want %v", got, want)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.properties"), testCatalog); err == nil {
		t.Error("expected error for missing file")
	}
}
