package xmlrpc

import (
	"errors"
	"fmt"
	"reflect"
)

// ExtensionsNamespace is the XML namespace of the Apache vendor extensions.
const ExtensionsNamespace = "http://ws.apache.org/xmlrpc/namespaces/extensions"

// Fault codes from the XML-RPC fault code interoperability proposal.
const (
	FaultParse               = -32700
	FaultUnsupportedEncoding = -32701
	FaultInvalidRequest      = -32600
	FaultMethodNotFound      = -32601
	FaultInvalidParams       = -32602
	FaultInternal            = -32603
	FaultApplication         = -32500
	FaultSystem              = -32400
	FaultTransport           = -32300
)

// MethodCall is a request to call a method with positional params.
type MethodCall struct {
	MethodName string
	Params     []interface{}
}

// MethodResponse is either a successful response with a single param, or a
// fault.
type MethodResponse struct {
	Params []interface{}
	Fault  *Fault
}

// UnmarshalResult assigns the response value into result, which must be a
// pointer or nil. A fault response is returned as the error.
func (resp *MethodResponse) UnmarshalResult(result interface{}) error {
	if resp.Fault != nil {
		return resp.Fault
	}
	if result == nil || len(resp.Params) == 0 {
		return nil
	}
	return assignResult(result, resp.Params[0])
}

// Message is the unit read and written by a Codec. Exactly one of Call or
// Response is set.
type Message struct {
	Call     *MethodCall
	Response *MethodResponse
}

func (msg *Message) String() string {
	switch {
	case msg.Call != nil:
		return fmt.Sprintf("methodCall(%s, %d params)", msg.Call.MethodName, len(msg.Call.Params))
	case msg.Response != nil && msg.Response.Fault != nil:
		return fmt.Sprintf("methodResponse(fault %s)", msg.Response.Fault)
	case msg.Response != nil:
		return fmt.Sprintf("methodResponse(%d params)", len(msg.Response.Params))
	}
	return "message(empty)"
}

// Fault is an XML-RPC fault. It is returned as an error by callers, and
// passed through as-is when returned by a method handler.
type Fault struct {
	Code   int
	String string
}

// NewFault returns a Fault with a formatted fault string.
func NewFault(code int, format string, args ...interface{}) *Fault {
	return &Fault{
		Code:   code,
		String: fmt.Sprintf(format, args...),
	}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%d: %s", f.Code, f.String)
}

// ErrorCode returns the fault code.
func (f *Fault) ErrorCode() int {
	return f.Code
}

// Response wraps the fault in a MethodResponse.
func (f *Fault) Response() *MethodResponse {
	return &MethodResponse{Fault: f}
}

// errorResponse converts a method error into a fault response. Faults are
// kept intact, anything else is an application fault.
func errorResponse(err error) *MethodResponse {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Response()
	}
	return (&Fault{Code: FaultApplication, String: err.Error()}).Response()
}

// UnsupportedValueError is returned when a Go value has no XML-RPC
// representation (with the current extension settings).
type UnsupportedValueError struct {
	Type   reflect.Type
	Reason string
}

func (err UnsupportedValueError) Error() string {
	if err.Type == nil {
		return fmt.Sprintf("xmlrpc: unsupported value: %s", err.Reason)
	}
	return fmt.Sprintf("xmlrpc: unsupported value of type %s: %s", err.Type, err.Reason)
}

// AssignError is returned when a decoded value can't be assigned to the
// target type.
type AssignError struct {
	Value interface{}
	Type  reflect.Type
}

func (err AssignError) Error() string {
	return fmt.Sprintf("xmlrpc: cannot assign %T to %s", err.Value, err.Type)
}

// ParseError is returned when an XML-RPC document is malformed.
type ParseError struct {
	Reason string
}

func (err ParseError) Error() string {
	return fmt.Sprintf("xmlrpc: parse error: %s", err.Reason)
}

// UnsupportedEncodingError is returned when a document declares a character
// encoding that can't be decoded.
type UnsupportedEncodingError struct {
	Encoding string
}

func (err UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("xmlrpc: unsupported encoding: %q", err.Encoding)
}
