package xmlrpc

import (
	"context"
)

var _ Service = &Local{}

// Local is a Service implementation for a local Server. Calls and responses
// are round-tripped through the XML encoding, so values behave as they would
// over the wire.
type Local struct {
	Server

	// EnabledForExtensions accepts and emits the Apache vendor extensions.
	EnabledForExtensions bool
}

func (loc *Local) Call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	call, err := loc.roundTrip(&Message{Call: &MethodCall{
		MethodName: method,
		Params:     params,
	}})
	if err != nil {
		return err
	}
	resp, err := loc.roundTrip(&Message{Response: loc.Server.Handle(ctx, call.Call)})
	if err != nil {
		return NewFault(FaultInternal, "failed to encode response: %s", err)
	}
	return resp.Response.UnmarshalResult(result)
}

func (loc *Local) roundTrip(msg *Message) (*Message, error) {
	data, err := Marshal(msg, loc.EnabledForExtensions)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, loc.EnabledForExtensions)
}
