package xmlrpc

import (
	"reflect"
	"testing"
	"time"
)

type Account struct {
	Name    string            `xmlrpc:"name"`
	Balance float64           `xmlrpc:"balance"`
	Tags    []string          `xmlrpc:"tags,omitempty"`
	Opened  *time.Time        `xmlrpc:"opened,omitempty"`
	Extra   map[string]string `xmlrpc:"-"`
	Owner
}

type Owner struct {
	Email string
}

func TestAssign(t *testing.T) {
	opened := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	var got Account
	err := assignResult(&got, map[string]interface{}{
		"name":    "savings",
		"balance": 12,
		"tags":    []interface{}{"a", "b"},
		"opened":  opened,
		"Extra":   map[string]interface{}{"x": "y"},
		"email":   "owner@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := Account{
		Name:    "savings",
		Balance: 12,
		Tags:    []string{"a", "b"},
		Opened:  &opened,
		Owner:   Owner{Email: "owner@example.com"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got: %#v; want %#v", got, want)
	}
}

func TestAssignScalars(t *testing.T) {
	var i8 int8
	if err := assignResult(&i8, 100); err != nil {
		t.Error(err)
	}
	if err := assignResult(&i8, 1000); err == nil {
		t.Error("expected overflow error")
	}

	var u uint
	if err := assignResult(&u, -1); err == nil {
		t.Error("expected error for negative uint")
	}

	var arr [2]byte
	if err := assignResult(&arr, []byte{1, 2}); err != nil {
		t.Error(err)
	}
	if err := assignResult(&arr, []byte{1, 2, 3}); err == nil {
		t.Error("expected error for array length mismatch")
	}

	var v interface{}
	if err := assignResult(&v, []interface{}{1, "two"}); err != nil {
		t.Error(err)
	}
	if want := []interface{}{1, "two"}; !reflect.DeepEqual(v, want) {
		t.Errorf("got: %#v; want %#v", v, want)
	}

	s := "not empty"
	if err := assignResult(&s, nil); err != nil {
		t.Error(err)
	}
	if s != "" {
		t.Errorf("expected nil to zero the target, got: %q", s)
	}

	var str string
	err := assignResult(&str, 42)
	if _, ok := err.(AssignError); !ok {
		t.Errorf("expected AssignError, got: %v", err)
	}

	if err := assignResult(str, "x"); err == nil {
		t.Error("expected error for non-pointer result")
	}
}
