package xmlrpc

import (
	"context"
	"sort"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Handler responds to method calls.
type Handler interface {
	Handle(ctx context.Context, call *MethodCall) *MethodResponse
}

var _ Handler = &Server{}

// Server contains the method registry.
type Server struct {
	// NoSystem disables the built-in system.* introspection methods.
	NoSystem bool

	mu         sync.RWMutex
	registry   map[string]Method
	middleware []Middleware
	systemOnce sync.Once
}

// methodName joins a prefix and a Go method name, lowercasing the first
// letter: ("test.", "Hello") becomes "test.hello".
func methodName(prefix, name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return prefix + string(unicode.ToLower(r)) + name[size:]
}

// Register adds valid methods from the receiver to the registry with the given
// prefix. Method names are lowercased.
func (s *Server) Register(prefix string, receiver interface{}) error {
	methods, err := Methods(receiver)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		s.registry = map[string]Method{}
	}
	for name, m := range methods {
		s.registry[methodName(prefix, name)] = m
	}
	return nil
}

// RegisterMethod adds a single method of the receiver under an explicit RPC
// method name.
func (s *Server) RegisterMethod(rpcName string, receiver interface{}, name string) error {
	m, err := MethodByName(receiver, name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		s.registry = map[string]Method{}
	}
	s.registry[rpcName] = *m
	return nil
}

// Use appends middleware that wraps every call, including system.* calls.
func (s *Server) Use(middlewares ...Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, middlewares...)
}

// MethodNames returns the sorted names of all registered methods.
func (s *Server) MethodNames() []string {
	s.initSystem()
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.registry))
	for name := range s.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) lookup(name string) (Method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.registry[name]
	return m, ok
}

func (s *Server) initSystem() {
	s.systemOnce.Do(func() {
		if s.NoSystem {
			return
		}
		if err := s.Register("system.", &System{server: s}); err != nil {
			// System only has valid method shapes.
			panic(err)
		}
	})
}

// Handle dispatches a call through the middleware chain. It always returns a
// response, faults included.
func (s *Server) Handle(ctx context.Context, call *MethodCall) *MethodResponse {
	s.initSystem()
	s.mu.RLock()
	middleware := s.middleware
	s.mu.RUnlock()

	h := s.dispatch
	if len(middleware) > 0 {
		h = Chain(middleware...)(h)
	}
	return h(ctx, call)
}

func (s *Server) dispatch(ctx context.Context, call *MethodCall) (resp *MethodResponse) {
	m, ok := s.lookup(call.MethodName)
	if !ok {
		return NewFault(FaultMethodNotFound, "method not found: %s", call.MethodName).Response()
	}
	args, err := m.Args(call.Params)
	if err != nil {
		return NewFault(FaultInvalidParams, "invalid params for %s: %s", call.MethodName, err).Response()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Printf("panic in %s: %v", call.MethodName, r)
			resp = NewFault(FaultInternal, "internal error in %s: %v", call.MethodName, r).Response()
		}
	}()

	res, err := m.Call(ctx, args)
	if err != nil {
		return errorResponse(err)
	}
	return &MethodResponse{Params: []interface{}{res}}
}

