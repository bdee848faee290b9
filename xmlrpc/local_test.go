package xmlrpc

import (
	"context"
	"testing"
)

func TestLocal(t *testing.T) {
	rpc := Local{}
	if err := rpc.Register("", &FruitService{}); err != nil {
		t.Fatal(err)
	}

	var got string
	if err := rpc.Call(context.Background(), &got, "apple"); err != nil {
		t.Error(err)
	}
	if want := "Apple"; got != want {
		t.Errorf("got: %q; want %q", got, want)
	}

	if err := rpc.Call(context.Background(), nil, "banana"); err == nil {
		t.Error("expected encoding fault for nil result without extensions")
	}

	rpc.EnabledForExtensions = true
	if err := rpc.Call(context.Background(), nil, "banana"); err != nil {
		t.Error(err)
	}
}

func TestLocalStruct(t *testing.T) {
	rpc := Local{}
	if err := rpc.Register("calc.", &Calculator{}); err != nil {
		t.Fatal(err)
	}

	var got Point
	if err := rpc.Call(context.Background(), &got, "calc.mirror", Point{X: 1, Y: 2}); err != nil {
		t.Fatal(err)
	}
	if want := (Point{X: 2, Y: 1}); got != want {
		t.Errorf("got: %v; want %v", got, want)
	}

	var sum float64
	if err := rpc.Call(context.Background(), &sum, "calc.add", 40, 2); err != nil {
		t.Fatal(err)
	}
	if sum != 42 {
		t.Errorf("got: %v; want 42", sum)
	}
}
