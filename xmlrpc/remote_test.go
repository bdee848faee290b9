package xmlrpc

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// servePipe serves the server over one end of a pipe, and returns a Remote
// for the other end.
func servePipe(t *testing.T, server *Server) (*Remote, <-chan error) {
	t.Helper()
	c1, c2 := net.Pipe()
	errChan := make(chan error, 1)
	go func() {
		errChan <- ServeCodec(context.Background(), IOCodec(c2, false), server)
	}()
	return &Remote{Codec: IOCodec(c1, false)}, errChan
}

func TestRemote(t *testing.T) {
	server := &Server{}
	if err := server.Register("", &FruitService{}); err != nil {
		t.Fatal(err)
	}
	if err := server.Register("calc.", &Calculator{}); err != nil {
		t.Fatal(err)
	}
	remote, errChan := servePipe(t, server)

	var got string
	if err := remote.Call(context.Background(), &got, "cherry"); err != nil {
		t.Error(err)
	}
	if want := "Cherry"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}

	err := remote.Call(context.Background(), nil, "durian")
	if fault, ok := err.(*Fault); !ok || fault.Code != FaultApplication {
		t.Errorf("expected application fault, got: %v", err)
	}

	// Concurrent calls are serialized over the codec.
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		i := i
		g.Go(func() error {
			var sum int
			if err := remote.Call(context.Background(), &sum, "calc.add", i, i); err != nil {
				return err
			}
			if sum != i+i {
				t.Errorf("got: %d; want %d", sum, i+i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Error(err)
	}

	remote.Close()
	select {
	case err := <-errChan:
		if err != io.EOF {
			t.Errorf("expected EOF after close, got: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("ServeCodec did not return after close")
	}
}

func TestRemoteTimeout(t *testing.T) {
	server := &Server{}
	if err := server.Register("calc.", &Calculator{}); err != nil {
		t.Fatal(err)
	}
	remote, _ := servePipe(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var done bool
	if err := remote.Call(ctx, &done, "calc.sleep", 500); err != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got: %v", err)
	}

	// The codec is closed once a call is abandoned.
	if err := remote.Call(context.Background(), &done, "calc.sleep", 1); err == nil {
		t.Error("expected error calling over a closed codec")
	}
}

func TestServeCodecMalformed(t *testing.T) {
	testcases := []struct {
		Doc  string
		Code int
	}{
		{`<?xml version="1.0"?><methodCall><methodName>x</methodName><params></methodCall>`, FaultParse},
		{`<?xml version="1.0" encoding="x-klingon"?><methodCall><methodName>x</methodName></methodCall>`, FaultUnsupportedEncoding},
	}

	for i, tc := range testcases {
		c1, c2 := net.Pipe()
		errChan := make(chan error, 1)
		go func() {
			errChan <- ServeCodec(context.Background(), IOCodec(c2, false), &Server{})
		}()

		var g errgroup.Group
		g.Go(func() error {
			_, err := io.WriteString(c1, tc.Doc)
			return err
		})
		msg, err := IOCodec(c1, false).ReadMessage()
		if err != nil {
			t.Fatalf("[case %d] %s", i, err)
		}
		if msg.Response == nil || msg.Response.Fault == nil {
			t.Fatalf("[case %d] expected fault, got: %s", i, msg)
		}
		if got, want := msg.Response.Fault.Code, tc.Code; got != want {
			t.Errorf("[case %d] got fault code %d; want %d", i, got, want)
		}
		if err := g.Wait(); err != nil {
			t.Error(err)
		}
		if err := <-errChan; err == nil || err == io.EOF {
			t.Errorf("[case %d] expected decode error, got: %v", i, err)
		}
		c1.Close()
		c2.Close()
	}
}
