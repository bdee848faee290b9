package xmlrpc

import (
	"context"
)

// System implements the system.* introspection methods of a Server.
type System struct {
	server *Server
}

// MulticallCall is a single call within system.multicall.
type MulticallCall struct {
	MethodName string        `xmlrpc:"methodName"`
	Params     []interface{} `xmlrpc:"params"`
}

// ListMethods returns the names of all registered methods.
func (sys *System) ListMethods() []string {
	return sys.server.MethodNames()
}

// MethodHelp returns the help text of a method. Go methods carry no help
// text, so it is always empty for known methods.
func (sys *System) MethodHelp(name string) (string, error) {
	if _, ok := sys.server.lookup(name); !ok {
		return "", NewFault(FaultMethodNotFound, "method not found: %s", name)
	}
	return "", nil
}

// MethodSignature returns the possible signatures of a method, each being
// the return type followed by the param types.
func (sys *System) MethodSignature(name string) ([][]string, error) {
	m, ok := sys.server.lookup(name)
	if !ok {
		return nil, NewFault(FaultMethodNotFound, "method not found: %s", name)
	}
	return [][]string{m.Signature()}, nil
}

// Multicall runs a batch of calls in order. Each result is either a
// single-element array holding the return value, or a fault struct.
func (sys *System) Multicall(ctx context.Context, calls []MulticallCall) []interface{} {
	results := make([]interface{}, 0, len(calls))
	for _, c := range calls {
		var resp *MethodResponse
		if c.MethodName == "system.multicall" {
			resp = NewFault(FaultInvalidRequest, "recursive system.multicall is forbidden").Response()
		} else {
			resp = sys.server.Handle(ctx, &MethodCall{
				MethodName: c.MethodName,
				Params:     c.Params,
			})
		}

		if resp.Fault != nil {
			results = append(results, map[string]interface{}{
				"faultCode":   resp.Fault.Code,
				"faultString": resp.Fault.String,
			})
			continue
		}
		results = append(results, resp.Params)
	}
	return results
}
