package xmlrpc

import "context"

// Service represents a remote service that can be called. The result is
// assigned into result, which must be a pointer or nil to discard it.
type Service interface {
	Call(ctx context.Context, result interface{}, method string, params ...interface{}) error
}
