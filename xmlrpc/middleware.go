package xmlrpc

import (
	"context"
	"time"

	"github.com/vipnode/xmlrpc/internal/pretty"
	"golang.org/x/time/rate"
)

// HandlerFunc handles a single method call and always returns a response.
type HandlerFunc func(ctx context.Context, call *MethodCall) *MethodResponse

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines middlewares into one. The first middleware is the
// outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// LoggingMiddleware logs each call with its params and duration to the
// package logger.
func LoggingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *MethodCall) *MethodResponse {
			start := time.Now()
			resp := next(ctx, call)
			if resp.Fault != nil {
				logger.Printf("%s%s failed after %s: %s", call.MethodName, pretty.Params(call.Params), time.Since(start), resp.Fault)
			} else {
				logger.Printf("%s%s completed in %s", call.MethodName, pretty.Params(call.Params), time.Since(start))
			}
			return resp
		}
	}
}

// TimeoutMiddleware returns an internal fault if the call does not complete
// within timeout. The call's context is cancelled when the timeout expires.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *MethodCall) *MethodResponse {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *MethodResponse, 1)
			go func() {
				done <- next(ctx, call)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return NewFault(FaultInternal, "request timed out").Response()
			}
		}
	}
}

// RateLimitMiddleware rejects calls beyond r calls per second, with bursts of
// up to burst calls.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *MethodCall) *MethodResponse {
			if !limiter.Allow() {
				return NewFault(FaultApplication, "rate limit exceeded").Response()
			}
			return next(ctx, call)
		}
	}
}

// Recorder receives the outcome of every call.
type Recorder interface {
	Record(method string, faulted bool, at time.Time) error
}

// RecordMiddleware reports each call to a Recorder. Recording failures are
// logged and do not affect the response.
func RecordMiddleware(r Recorder) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *MethodCall) *MethodResponse {
			resp := next(ctx, call)
			if err := r.Record(call.MethodName, resp.Fault != nil, time.Now()); err != nil {
				logger.Printf("failed to record call to %s: %s", call.MethodName, err)
			}
			return resp
		}
	}
}
