package xmlrpc

import (
	"context"
	"errors"
	"io"
	"sync"
)

var _ Service = &Remote{}

// Remote is a Service over a persistent Codec. XML-RPC messages carry no
// IDs, so only one call is in flight at a time.
type Remote struct {
	Codec

	mu sync.Mutex
}

type readResult struct {
	msg *Message
	err error
}

// Call sends a call and waits for its response. If ctx is done before the
// response arrives, the codec is closed since the stream can no longer be
// matched up with calls.
func (r *Remote) Call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.Codec.WriteMessage(&Message{Call: &MethodCall{
		MethodName: method,
		Params:     params,
	}}); err != nil {
		return err
	}

	received := make(chan readResult, 1)
	go func() {
		msg, err := r.Codec.ReadMessage()
		received <- readResult{msg, err}
	}()

	select {
	case res := <-received:
		if res.err != nil {
			return res.err
		}
		if res.msg.Response == nil {
			return errors.New("xmlrpc: expected a methodResponse")
		}
		return res.msg.Response.UnmarshalResult(result)
	case <-ctx.Done():
		r.Codec.Close()
		return ctx.Err()
	}
}

// ServeCodec reads calls from the codec and writes back responses until the
// codec fails. A closed connection returns io.EOF. Malformed messages are
// answered with a fault before the error is returned, since the stream
// position is lost.
func ServeCodec(ctx context.Context, codec Codec, h Handler) error {
	for {
		msg, err := codec.ReadMessage()
		if err == io.EOF {
			return err
		}
		if err != nil {
			var parseErr ParseError
			var encErr UnsupportedEncodingError
			switch {
			case errors.As(err, &parseErr):
				codec.WriteMessage(&Message{
					Response: NewFault(FaultParse, "failed to parse request: %s", err).Response(),
				})
			case errors.As(err, &encErr):
				codec.WriteMessage(&Message{
					Response: NewFault(FaultUnsupportedEncoding, "unsupported request encoding: %s", encErr.Encoding).Response(),
				})
			}
			return err
		}

		var resp *MethodResponse
		if msg.Call == nil {
			resp = NewFault(FaultInvalidRequest, "expected a methodCall").Response()
		} else {
			resp = h.Handle(ctx, msg.Call)
		}
		if err := codec.WriteMessage(&Message{Response: resp}); err != nil {
			// The response may fail to encode, report that instead.
			fault := NewFault(FaultInternal, "failed to encode response: %s", err)
			if err := codec.WriteMessage(&Message{Response: fault.Response()}); err != nil {
				return err
			}
		}
	}
}
