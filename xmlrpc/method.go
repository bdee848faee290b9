package xmlrpc

import (
	"context"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

var typeOfError = reflect.TypeOf((*error)(nil)).Elem()
var typeOfContext = reflect.TypeOf((*context.Context)(nil)).Elem()

// isExported and isExportedOrBuiltin are borrowed from net/rpc.
// Copyright 2009 The Go Authors. All rights reserved.

func isExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func isExportedOrBuiltin(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	// PkgPath will be non-empty even for an exported type,
	// so we need to check the type name as well.
	return isExported(t.Name()) || t.PkgPath() == ""
}

// methodArgTypes returns the arg types and whether all the types are valid
// (exported or builtin). A context.Context is only accepted as the first arg.
func methodArgTypes(methodType reflect.Type) (argTypes []reflect.Type, hasCtx bool, ok bool) {
	argNum := methodType.NumIn()
	argTypes = make([]reflect.Type, 0, argNum-1)
	for argPos := 1; argPos < argNum; argPos++ { // Skip receiver
		argType := methodType.In(argPos)
		if !isExportedOrBuiltin(argType) {
			return nil, hasCtx, false
		}
		if argType == typeOfContext {
			if argPos != 1 {
				return nil, hasCtx, false
			}
			hasCtx = true
			continue
		}
		argTypes = append(argTypes, argType)
	}
	return argTypes, hasCtx, true
}

// methodErrPos returns the return value index position of an error type for
// supported return layouts: (), (interface{}), (error), (interface{}, error)
func methodErrPos(methodType reflect.Type) (int, bool) {
	switch methodType.NumOut() {
	case 0:
		return -1, true
	case 1:
		if methodType.Out(0) == typeOfError {
			return 0, true
		}
		return -1, true
	case 2:
		if methodType.Out(1) == typeOfError {
			return 1, true
		}
	}
	return -1, false
}

func newMethod(val reflect.Value, method reflect.Method) (m Method, skip bool, err error) {
	if method.PkgPath != "" || method.Type.IsVariadic() {
		return m, true, nil
	}
	argTypes, hasCtx, ok := methodArgTypes(method.Type)
	if !ok {
		return m, true, nil
	}
	errPos, ok := methodErrPos(method.Type)
	if !ok {
		return m, false, fmt.Errorf("unsupported return values in method: %s", method.Name)
	}
	m = Method{
		Receiver: val,
		Method:   method,
		ArgTypes: argTypes,
		ErrPos:   errPos,
		HasCtx:   hasCtx,
	}
	if errPos != 0 && method.Type.NumOut() > 0 {
		m.ReturnType = method.Type.Out(0)
	}
	return m, false, nil
}

// Methods returns a mapping of valid method names to Method definitions for a
// instance's receiver. Methods with unexported argument types or variadic
// arguments are skipped.
func Methods(receiver interface{}) (map[string]Method, error) {
	kind := reflect.TypeOf(receiver)
	val := reflect.ValueOf(receiver)
	if name := reflect.Indirect(val).Type().Name(); !isExported(name) {
		return nil, fmt.Errorf("receiver must be exported: %s", name)
	}

	methods := map[string]Method{}
	for i := 0; i < kind.NumMethod(); i++ {
		m, skip, err := newMethod(val, kind.Method(i))
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		methods[m.Method.Name] = m
	}
	return methods, nil
}

// MethodByName returns a single Method definition of a receiver.
func MethodByName(receiver interface{}, name string) (*Method, error) {
	val := reflect.ValueOf(receiver)
	method, ok := reflect.TypeOf(receiver).MethodByName(name)
	if !ok {
		return nil, fmt.Errorf("method not found: %s", name)
	}
	m, skip, err := newMethod(val, method)
	if err != nil {
		return nil, err
	}
	if skip {
		return nil, fmt.Errorf("method is not callable over RPC: %s", name)
	}
	return &m, nil
}

// Method is the definition of a callable method.
type Method struct {
	Receiver reflect.Value
	Method   reflect.Method
	ArgTypes []reflect.Type
	// ReturnType is nil for methods which only return an error or nothing.
	ReturnType reflect.Type
	ErrPos     int
	HasCtx     bool
}

// Args assigns decoded positional params into the method's argument types.
func (m *Method) Args(params []interface{}) ([]reflect.Value, error) {
	if len(params) != len(m.ArgTypes) {
		return nil, fmt.Errorf("invalid number of params: expected %d, got %d", len(m.ArgTypes), len(params))
	}
	args := make([]reflect.Value, 0, len(params))
	for i, p := range params {
		arg := reflect.New(m.ArgTypes[i]).Elem()
		if err := assign(arg, p); err != nil {
			return nil, fmt.Errorf("param %d: %s", i+1, err)
		}
		args = append(args, arg)
	}
	return args, nil
}

// Call executes the method with the given arguments.
func (m *Method) Call(ctx context.Context, args []reflect.Value) (interface{}, error) {
	if len(args) != len(m.ArgTypes) {
		return nil, fmt.Errorf("invalid number of args: expected %d, got %d", len(m.ArgTypes), len(args))
	}

	arguments := []reflect.Value{m.Receiver}
	if m.HasCtx {
		arguments = append(arguments, reflect.ValueOf(&ctx).Elem())
	}
	arguments = append(arguments, args...)

	reply := m.Method.Func.Call(arguments)

	if len(reply) == 0 {
		return nil, nil
	}
	if m.ErrPos >= 0 && !reply[m.ErrPos].IsNil() {
		return nil, reply[m.ErrPos].Interface().(error)
	}
	if m.ReturnType == nil {
		return nil, nil
	}
	return reply[0].Interface(), nil
}

// Signature returns the XML-RPC type names of the return value followed by
// each param, as used by system.methodSignature.
func (m *Method) Signature() []string {
	sig := make([]string, 0, len(m.ArgTypes)+1)
	if m.ReturnType == nil {
		sig = append(sig, "nil")
	} else {
		sig = append(sig, typeName(m.ReturnType))
	}
	for _, t := range m.ArgTypes {
		sig = append(sig, typeName(t))
	}
	return sig
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == typeOfTime {
		return "dateTime.iso8601"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint8, reflect.Uint16:
		return "int"
	case reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return "i8"
	case reflect.Float32, reflect.Float64:
		return "double"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return "base64"
		}
		return "array"
	case reflect.Map, reflect.Struct:
		return "struct"
	}
	return "undef"
}
