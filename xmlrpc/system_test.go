package xmlrpc

import (
	"context"
	"reflect"
	"testing"
)

func TestSystemListMethods(t *testing.T) {
	rpc := Local{}
	if err := rpc.Register("calc.", &Calculator{}); err != nil {
		t.Fatal(err)
	}

	var got []string
	if err := rpc.Call(context.Background(), &got, "system.listMethods"); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"calc.add",
		"calc.divide",
		"calc.explode",
		"calc.mirror",
		"calc.sleep",
		"system.listMethods",
		"system.methodHelp",
		"system.methodSignature",
		"system.multicall",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got: %q; want %q", got, want)
	}

	var sig [][]string
	if err := rpc.Call(context.Background(), &sig, "system.methodSignature", "calc.divide"); err != nil {
		t.Fatal(err)
	}
	if want := [][]string{{"double", "double", "double"}}; !reflect.DeepEqual(sig, want) {
		t.Errorf("got: %q; want %q", sig, want)
	}

	var help string
	err := rpc.Call(context.Background(), &help, "system.methodHelp", "calc.nope")
	if fault, ok := err.(*Fault); !ok || fault.Code != FaultMethodNotFound {
		t.Errorf("expected method not found fault, got: %v", err)
	}
}

func TestSystemDisabled(t *testing.T) {
	rpc := Local{}
	rpc.NoSystem = true
	if err := rpc.Register("calc.", &Calculator{}); err != nil {
		t.Fatal(err)
	}

	err := rpc.Call(context.Background(), nil, "system.listMethods")
	if fault, ok := err.(*Fault); !ok || fault.Code != FaultMethodNotFound {
		t.Errorf("expected method not found fault, got: %v", err)
	}
}

func TestSystemMulticall(t *testing.T) {
	rpc := Local{}
	if err := rpc.Register("", &FruitService{}); err != nil {
		t.Fatal(err)
	}
	if err := rpc.Register("calc.", &Calculator{}); err != nil {
		t.Fatal(err)
	}

	calls := []MulticallCall{
		{MethodName: "apple"},
		{MethodName: "durian"},
		{MethodName: "calc.add", Params: []interface{}{1, 2}},
		{MethodName: "system.multicall", Params: []interface{}{[]interface{}{}}},
	}
	var got []interface{}
	if err := rpc.Call(context.Background(), &got, "system.multicall", calls); err != nil {
		t.Fatal(err)
	}

	want := []interface{}{
		[]interface{}{"Apple"},
		map[string]interface{}{"faultCode": FaultApplication, "faultString": "durian failure"},
		[]interface{}{3},
		map[string]interface{}{"faultCode": FaultInvalidRequest, "faultString": "recursive system.multicall is forbidden"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got: %#v; want %#v", got, want)
	}
}
